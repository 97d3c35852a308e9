package event

var mockEvents = []Event{
	{
		ID:          1,
		Title:       "Web Development Workshop",
		Date:        "2023-06-15",
		Time:        "10:00 AM - 12:00 PM",
		Location:    "Computer Lab 3",
		Description: "Learn the fundamentals of web development with HTML, CSS, and JavaScript. This hands-on workshop will cover the core technologies used in modern web development and provide you with the skills to create responsive websites.",
		Fee:         200,
		Organizer:   "Prof. Mehta",
		Image:       "/placeholder.svg",
	},
	{
		ID:          2,
		Title:       "Hackathon 2023",
		Date:        "2023-07-20",
		Time:        "9:00 AM - 9:00 PM",
		Location:    "Main Auditorium",
		Description: "A 24-hour coding competition to solve real-world problems. Teams of up to 4 students will compete to develop innovative solutions to challenges across various domains including healthcare, education, environment, and more.",
		Fee:         500,
		Organizer:   "Prof. Sharma",
		Image:       "/placeholder.svg",
	},
	{
		ID:          3,
		Title:       "Industry Guest Lecture",
		Date:        "2023-08-05",
		Time:        "2:00 PM - 4:00 PM",
		Location:    "Seminar Hall",
		Description: "Guest lecture by industry expert on emerging technologies. Learn about the latest trends in technology directly from industry professionals who are working on cutting-edge solutions.",
		Fee:         0,
		Organizer:   "Prof. Joshi",
		Image:       "/placeholder.svg",
	},
	{
		ID:          4,
		Title:       "AI and Machine Learning Workshop",
		Date:        "2023-08-15",
		Time:        "10:00 AM - 4:00 PM",
		Location:    "Computer Lab 2",
		Description: "Introduction to artificial intelligence and machine learning concepts. This workshop will introduce participants to the fundamental concepts of AI and ML through practical examples and hands-on exercises.",
		Fee:         300,
		Organizer:   "Dr. Patel",
		Image:       "/placeholder.svg",
	},
	{
		ID:          5,
		Title:       "Cloud Computing Seminar",
		Date:        "2023-09-10",
		Time:        "11:00 AM - 1:00 PM",
		Location:    "Conference Room",
		Description: "Learn about cloud computing platforms and their applications in modern software development. This seminar will cover major cloud providers, deployment strategies, and best practices.",
		Fee:         0,
		Organizer:   "Prof. Gupta",
		Image:       "/placeholder.svg",
	},
}
