// Package event holds the read-only catalog of CSI events.
package event

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core"
)

var ErrNotFound = errors.New("event not found")

type Category string

const (
	CategoryAll          Category = "all"
	CategoryWorkshops    Category = "workshops"
	CategoryCompetitions Category = "competitions"
	CategoryLectures     Category = "lectures"
	CategorySeminars     Category = "seminars"
)

var (
	Categories = []CategoryInfo{
		{ID: CategoryAll, Name: "All Events"},
		{ID: CategoryWorkshops, Name: "Workshops"},
		{ID: CategoryCompetitions, Name: "Competitions"},
		{ID: CategoryLectures, Name: "Lectures"},
		{ID: CategorySeminars, Name: "Seminars"},
	}

	// title keywords of each category
	categoryKeywords = map[Category][]string{
		CategoryWorkshops:    {"workshop"},
		CategoryCompetitions: {"hackathon", "competition"},
		CategoryLectures:     {"lecture"},
		CategorySeminars:     {"seminar"},
	}
)

type CategoryInfo struct {
	ID   Category `json:"id"`
	Name string   `json:"name"`
}

type Event struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"` // YYYY-MM-DD
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Fee         int    `json:"fee"` // INR, 0 is free
	Organizer   string `json:"organizer,omitempty"`
	Image       string `json:"image,omitempty"`
}

func (e Event) IsFree() bool { return e.Fee == 0 }

// InCategory reports whether the title of e carries one of the keywords of cat.
// Every event is in "all" and in unknown categories.
func (e Event) InCategory(cat Category) bool {
	keywords, ok := categoryKeywords[cat]
	if !ok {
		return true
	}
	title := strings.ToLower(e.Title)
	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

type Filter struct {
	Search   string   `query:"search"`
	Category Category `query:"category"`
}

func (f *Filter) Clean() {
	f.Search = core.CleanString(f.Search, true /* lower */)
	f.Category = Category(core.CleanString(string(f.Category), true /* lower */))
}

func (f Filter) matches(e Event) bool {
	if f.Search != "" &&
		!strings.Contains(strings.ToLower(e.Title), f.Search) &&
		!strings.Contains(strings.ToLower(e.Description), f.Search) &&
		!strings.Contains(strings.ToLower(e.Location), f.Search) {
		return false
	}
	return e.InCategory(f.Category)
}

// Catalog is a static list of events.
type Catalog struct {
	events []Event
}

func NewCatalog(events ...Event) *Catalog {
	if len(events) == 0 {
		events = mockEvents
	}
	return &Catalog{events: events}
}

// Query returns the events matching f, in catalog order.
func (c *Catalog) Query(f Filter) []Event {
	f.Clean()
	out := make([]Event, 0, len(c.events))
	for _, e := range c.events {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (c *Catalog) Get(id int) (Event, error) {
	for _, e := range c.events {
		if e.ID == id {
			return e, nil
		}
	}
	return Event{}, ErrNotFound
}
