// Package notification holds the dashboard notifications of each session.
package notification

import (
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/identity"
)

var (
	ErrNotFound   = errors.New("notification not found")
	ErrCannotSend = errors.New("only teachers and committee members may send notifications")
)

// maxBroadcasts bounds the sent notifications handed to new inboxes.
const maxBroadcasts = 50

type Category string

const (
	CategoryEvent        Category = "event"
	CategoryRegistration Category = "registration"
	CategoryAnnouncement Category = "announcement"
	CategoryPayment      Category = "payment"
)

var Categories = []Category{CategoryAnnouncement, CategoryEvent, CategoryRegistration, CategoryPayment}

func (c Category) IsValid() bool {
	switch c {
	case CategoryEvent, CategoryRegistration, CategoryAnnouncement, CategoryPayment:
		return true
	}
	return false
}

type Notification struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Date     time.Time `json:"date"`
	Read     bool      `json:"read"`
	Category Category  `json:"category"`
	Sender   string    `json:"sender,omitempty"`
}

// Draft is what the compose form posts. Category defaults to announcement.
type Draft struct {
	Title    string   `json:"title" validate:"required,notblank"`
	Message  string   `json:"message" validate:"required,notblank"`
	Category Category `json:"category" validate:"omitempty,oneof=announcement event registration payment"`
}

func (d *Draft) Validate(validate *validator.Validate) error {
	d.Title = core.CleanString(d.Title)
	d.Message = core.CleanString(d.Message)
	d.Category = Category(core.CleanString(string(d.Category), true /* lower */))
	if d.Category == "" {
		d.Category = CategoryAnnouncement
	}
	return validate.Struct(d)
}

// CanSend reports whether role may send notifications.
func CanSend(role identity.Role) bool {
	return role == identity.RoleTeacher || role == identity.RoleCommittee
}

// Inbox is the list of notifications of one session, newest first.
type Inbox struct {
	mu    sync.Mutex
	items []Notification
}

func newInbox(seed ...[]Notification) *Inbox {
	in := new(Inbox)
	for _, ns := range seed {
		in.items = append(in.items, ns...)
	}
	sort.SliceStable(in.items, func(i, j int) bool { return in.items[i].Date.After(in.items[j].Date) })
	return in
}

// List returns the notifications of cat, or all of them when cat is empty.
func (in *Inbox) List(cat Category) []Notification {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := make([]Notification, 0, len(in.items))
	for _, n := range in.items {
		if cat == "" || n.Category == cat {
			out = append(out, n)
		}
	}
	return out
}

func (in *Inbox) UnreadCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()

	count := 0
	for _, n := range in.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (in *Inbox) MarkRead(id int) (Notification, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	i := in.indexOf(id)
	if i < 0 {
		return Notification{}, ErrNotFound
	}
	in.items[i].Read = true
	return in.items[i], nil
}

// MarkAllRead marks every notification read and returns how many were unread.
func (in *Inbox) MarkAllRead() int {
	in.mu.Lock()
	defer in.mu.Unlock()

	count := 0
	for i := range in.items {
		if !in.items[i].Read {
			in.items[i].Read = true
			count++
		}
	}
	return count
}

func (in *Inbox) Delete(id int) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	i := in.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	in.items = append(in.items[:i], in.items[i+1:]...)
	return nil
}

func (in *Inbox) deliver(n Notification) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.items = append([]Notification{n}, in.items...)
}

func (in *Inbox) indexOf(id int) int {
	for i, n := range in.items {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Center routes notifications to the inbox of each session handle.
type Center struct {
	mu      sync.Mutex
	seed    []Notification
	inboxes map[string]*Inbox
	sent    []Notification // oldest first
	nextID  int
	now     func() time.Time
}

// NewCenter returns a Center whose new inboxes start with seed, the mock notifications by default.
func NewCenter(seed ...Notification) *Center {
	if len(seed) == 0 {
		seed = mockNotifications
	}
	nextID := 0
	for _, n := range seed {
		if n.ID > nextID {
			nextID = n.ID
		}
	}
	return &Center{
		seed:    seed,
		inboxes: make(map[string]*Inbox),
		nextID:  nextID + 1,
		now:     time.Now,
	}
}

// Inbox returns the inbox of handle, created with the seed and the notifications sent so far.
func (c *Center) Inbox(handle string) *Inbox {
	c.mu.Lock()
	defer c.mu.Unlock()

	in, ok := c.inboxes[handle]
	if !ok {
		in = newInbox(c.seed, c.sent)
		c.inboxes[handle] = in
	}
	return in
}

// Send delivers d to every inbox, current and future.
func (c *Center) Send(from identity.Identity, d Draft) (Notification, error) {
	if !CanSend(from.Role) {
		return Notification{}, ErrCannotSend
	}
	if d.Category == "" {
		d.Category = CategoryAnnouncement
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n := Notification{
		ID:       c.nextID,
		Title:    d.Title,
		Message:  d.Message,
		Date:     c.now(),
		Category: d.Category,
		Sender:   from.Name,
	}
	c.nextID++

	c.sent = append(c.sent, n)
	if len(c.sent) > maxBroadcasts {
		c.sent = c.sent[len(c.sent)-maxBroadcasts:]
	}
	for _, in := range c.inboxes {
		in.deliver(n)
	}
	return n, nil
}

// Notify delivers d to the inbox of handle only.
func (c *Center) Notify(handle string, d Draft) Notification {
	if d.Category == "" {
		d.Category = CategoryAnnouncement
	}
	in := c.Inbox(handle)

	c.mu.Lock()
	n := Notification{
		ID:       c.nextID,
		Title:    d.Title,
		Message:  d.Message,
		Date:     c.now(),
		Category: d.Category,
	}
	c.nextID++
	c.mu.Unlock()

	in.deliver(n)
	return n
}

// Release drops the inboxes of handles.
func (c *Center) Release(handles ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range handles {
		delete(c.inboxes, h)
	}
}

func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inboxes)
}
