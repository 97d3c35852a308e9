package notification

import "time"

func mockDate(value string) time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

var mockNotifications = []Notification{
	{
		ID:       1,
		Title:    "Event Registration Approved",
		Message:  "Your registration for Web Development Workshop has been approved. Please check your email for more details.",
		Date:     mockDate("2023-05-30T09:30:00"),
		Category: CategoryRegistration,
	},
	{
		ID:       2,
		Title:    "New Event: Hackathon 2023",
		Message:  "We're excited to announce our annual hackathon! Register now to secure your spot.",
		Date:     mockDate("2023-05-28T14:45:00"),
		Read:     true,
		Category: CategoryEvent,
	},
	{
		ID:       3,
		Title:    "Registration Deadline Approaching",
		Message:  "The deadline for Hackathon 2023 registration is in 2 days. Don't miss out!",
		Date:     mockDate("2023-05-25T11:15:00"),
		Read:     true,
		Category: CategoryAnnouncement,
	},
	{
		ID:       4,
		Title:    "Payment Reminder",
		Message:  "This is a reminder to complete your payment for the Web Development Workshop.",
		Date:     mockDate("2023-05-22T16:20:00"),
		Read:     true,
		Category: CategoryPayment,
	},
	{
		ID:       5,
		Title:    "Workshop Materials Available",
		Message:  "The materials for the upcoming workshop are now available. You can download them from your dashboard.",
		Date:     mockDate("2023-05-20T08:50:00"),
		Read:     true,
		Category: CategoryEvent,
	},
}
