package identity

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/csiportal/core"
)

// Roles
const (
	RoleNone      Role = ""
	RoleStudent   Role = "student"
	RoleTeacher   Role = "teacher"
	RoleCommittee Role = "committee"
)

var (
	AllRoles = []Role{RoleStudent, RoleTeacher, RoleCommittee}

	roleLabels = map[Role]string{
		RoleStudent:   "Student",
		RoleTeacher:   "Teacher",
		RoleCommittee: "Committee Member",
	}

	// defaults given to synthesized students
	defaultBranch       = "Computer Science"
	defaultYear         = "2nd Year"
	defaultProfileImage = "/placeholder.svg"

	rollNumberFunc = func() string { return fmt.Sprintf("CSI%d", rand.Intn(10000)) } // mockable
)

type Role string

// ParseRole returns the Role named by s; unknown names yield RoleNone and false.
func ParseRole(s string) (Role, bool) {
	r := Role(core.CleanString(s, true /* lower */))
	if r.IsValid() {
		return r, true
	}
	return RoleNone, false
}

func (r Role) IsValid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r Role) Label() string { return roleLabels[r] }

func (r Role) String() string { return string(r) }

// RoleInfo is the public description of a Role.
type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

func Roles() []RoleInfo {
	infos := make([]RoleInfo, 0, len(AllRoles))
	for _, r := range AllRoles {
		infos = append(infos, RoleInfo{Name: r.Label(), Value: r})
	}
	return infos
}

// Identity is the authenticated principal of a session.
// RollNumber, Branch and Year are only meaningful for students.
type Identity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	ProfileImage string `json:"profileImage,omitempty"`
	RollNumber   string `json:"rollNumber,omitempty"`
	Branch       string `json:"branch,omitempty"`
	Year         string `json:"year,omitempty"`
}

func (id Identity) IsStudent() bool   { return id.Role == RoleStudent }
func (id Identity) IsTeacher() bool   { return id.Role == RoleTeacher }
func (id Identity) IsCommittee() bool { return id.Role == RoleCommittee }

// Valid reports whether a decoded Identity carries the fields every session relies on.
func (id Identity) Valid() bool {
	return id.ID != "" && id.Email != "" && (id.Role == RoleNone || id.Role.IsValid())
}

// Apply merges the set fields of pu. The role and the ID are never touched.
func (id *Identity) Apply(pu ProfileUpdate) {
	if pu.Name != nil {
		if name := core.CleanString(*pu.Name); name != "" {
			id.Name = name
		}
	}
	if pu.RollNumber != nil {
		id.RollNumber = core.CleanString(*pu.RollNumber)
	}
	if pu.Branch != nil {
		id.Branch = core.CleanString(*pu.Branch)
	}
	if pu.Year != nil {
		id.Year = core.CleanString(*pu.Year)
	}
}

// Synthesize builds a brand new Identity for email and role.
// An empty name falls back to the local-part of the email.
func Synthesize(name, email string, role Role) Identity {
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	id := Identity{
		ID:           newID(),
		Name:         name,
		Email:        email,
		Role:         role,
		ProfileImage: defaultProfileImage,
	}
	if role == RoleStudent {
		id.RollNumber = rollNumberFunc()
		id.Branch = defaultBranch
		id.Year = defaultYear
	}
	return id
}

func newID() string {
	return "user-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

// Credentials carries a login or signup intent.
// Name is only used by signup.
type Credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"required,role"`
}

func (c *Credentials) Clean() {
	c.Name = core.CleanString(c.Name)
	c.Email = core.CleanString(c.Email, true /* lower */)
	c.Role = Role(core.CleanString(string(c.Role), true /* lower */))
}

// SignupRequest is what the signup form posts.
type SignupRequest struct {
	Name            string `json:"name" validate:"required,notblank,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            Role   `json:"role" validate:"required,role"`
}

func (sr SignupRequest) Credentials() Credentials {
	return Credentials{Name: sr.Name, Email: sr.Email, Password: sr.Password, Role: sr.Role}
}

// ProfileUpdate defines what information may be provided to modify the current Identity.
// Unset (nil) fields are left untouched.
type ProfileUpdate struct {
	Name       *string `json:"name" validate:"omitempty,notblank,min=2"`
	RollNumber *string `json:"rollNumber"`
	Branch     *string `json:"branch"`
	Year       *string `json:"year"`
}
