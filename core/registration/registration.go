// Package registration tracks the event registrations of students and their payment status.
package registration

import (
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/event"
	"github.com/trezcool/csiportal/core/identity"
)

var (
	ErrNotFound          = errors.New("registration not found")
	ErrAlreadyRegistered = errors.New("already registered for this event")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Applicant is what the registration form posts.
type Applicant struct {
	Name       string `json:"name" validate:"required,notblank,min=2"`
	RollNumber string `json:"rollNumber"`
	Email      string `json:"email" validate:"required,email"`
	Year       string `json:"year"`
	Branch     string `json:"branch"`
}

// Prefill completes the blank fields of a from the profile of id.
func (a *Applicant) Prefill(id identity.Identity) {
	fill := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	a.Name = core.CleanString(a.Name)
	a.RollNumber = core.CleanString(a.RollNumber)
	a.Email = core.CleanString(a.Email, true /* lower */)
	a.Year = core.CleanString(a.Year)
	a.Branch = core.CleanString(a.Branch)

	fill(&a.Name, id.Name)
	fill(&a.RollNumber, id.RollNumber)
	fill(&a.Email, id.Email)
	fill(&a.Year, id.Year)
	fill(&a.Branch, id.Branch)
}

func (a *Applicant) Validate(validate *validator.Validate) error {
	return validate.Struct(a)
}

type Registration struct {
	ID            int           `json:"id"`
	EventID       int           `json:"eventId"`
	EventTitle    string        `json:"eventTitle"`
	Date          string        `json:"date"` // of the event, YYYY-MM-DD
	Fee           int           `json:"fee"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Applicant     *Applicant    `json:"applicant,omitempty"`
}

// Book holds the registrations of one session.
type Book struct {
	mu    sync.Mutex
	items []Registration
	ids   *idSequence
}

func (b *Book) List() []Registration {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Registration, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Book) Get(id int) (Registration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.indexOf(id); i >= 0 {
		return b.items[i], nil
	}
	return Registration{}, ErrNotFound
}

// Register enrolls a in evt. The registration is pending; it is unpaid unless evt is free.
func (b *Book) Register(evt event.Event, a Applicant) (Registration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range b.items {
		if r.EventID == evt.ID {
			return Registration{}, ErrAlreadyRegistered
		}
	}

	payment := PaymentUnpaid
	if evt.IsFree() {
		payment = PaymentPaid
	}
	r := Registration{
		ID:            b.ids.next(),
		EventID:       evt.ID,
		EventTitle:    evt.Title,
		Date:          evt.Date,
		Fee:           evt.Fee,
		Status:        StatusPending,
		PaymentStatus: payment,
		Applicant:     &a,
	}
	b.items = append(b.items, r)
	return r, nil
}

// Pay marks the registration id as paid. Paying twice is a no-op.
func (b *Book) Pay(id int) (Registration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 {
		return Registration{}, ErrNotFound
	}
	b.items[i].PaymentStatus = PaymentPaid
	return b.items[i], nil
}

// Unpaid returns the registrations still waiting for a payment.
func (b *Book) Unpaid() []Registration {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Registration, 0)
	for _, r := range b.items {
		if r.PaymentStatus == PaymentUnpaid {
			out = append(out, r)
		}
	}
	return out
}

func (b *Book) indexOf(id int) int {
	for i, r := range b.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}

type idSequence struct {
	mu   sync.Mutex
	last int
}

func (seq *idSequence) next() int {
	seq.mu.Lock()
	defer seq.mu.Unlock()
	seq.last++
	return seq.last
}

// Registry hands out one Book per session handle.
type Registry struct {
	mu    sync.Mutex
	seed  []Registration
	books map[string]*Book
	ids   *idSequence
}

// NewRegistry returns a Registry whose new Books start with seed, the mock registrations by default.
func NewRegistry(seed ...Registration) *Registry {
	if len(seed) == 0 {
		seed = mockRegistrations
	}
	ids := new(idSequence)
	for _, r := range seed {
		if r.ID > ids.last {
			ids.last = r.ID
		}
	}
	return &Registry{
		seed:  seed,
		books: make(map[string]*Book),
		ids:   ids,
	}
}

func (reg *Registry) Book(handle string) *Book {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	b, ok := reg.books[handle]
	if !ok {
		b = &Book{items: append([]Registration(nil), reg.seed...), ids: reg.ids}
		reg.books[handle] = b
	}
	return b
}

// Release drops the Books of handles.
func (reg *Registry) Release(handles ...string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, h := range handles {
		delete(reg.books, h)
	}
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.books)
}

var mockRegistrations = []Registration{
	{
		ID:            1,
		EventID:       1,
		EventTitle:    "Web Development Workshop",
		Date:          "2023-06-15",
		Fee:           200,
		Status:        StatusApproved,
		PaymentStatus: PaymentPaid,
	},
}
