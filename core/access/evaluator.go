// Package access decides whether a navigation proceeds or is redirected.
package access

import (
	"github.com/trezcool/csiportal/core/identity"
	"github.com/trezcool/csiportal/core/navigation"
	"github.com/trezcool/csiportal/core/session"
)

const (
	RoleSelectionPath = "/role-selection"
	LandingPath       = navigation.DashboardPath
)

type Kind int

const (
	KindPublic Kind = iota
	KindUnauthenticated
	KindAuthenticated
)

func (k Kind) String() string {
	switch k {
	case KindPublic:
		return "public"
	case KindUnauthenticated:
		return "requires_unauthenticated"
	case KindAuthenticated:
		return "requires_authenticated"
	default:
		return "unknown"
	}
}

// Requirement is the access predicate declared by a route.
// Roles only applies to KindAuthenticated; empty means any role.
type Requirement struct {
	Kind  Kind            `json:"kind"`
	Roles []identity.Role `json:"roles,omitempty"`
}

var (
	Public          = Requirement{Kind: KindPublic}
	Unauthenticated = Requirement{Kind: KindUnauthenticated}
)

func Authenticated(roles ...identity.Role) Requirement {
	return Requirement{Kind: KindAuthenticated, Roles: roles}
}

func (req Requirement) admits(role identity.Role) bool {
	if len(req.Roles) == 0 {
		return true
	}
	for _, r := range req.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Outcome string

const (
	OutcomeAllow     Outcome = "allow"
	OutcomeRedirect  Outcome = "redirect"
	OutcomeTransient Outcome = "transient"
	OutcomeNotFound  Outcome = "not_found"
)

// Decision is the result of an access check. To is only set for redirects.
type Decision struct {
	Outcome Outcome `json:"outcome"`
	To      string  `json:"to,omitempty"`
}

var (
	allow     = Decision{Outcome: OutcomeAllow}
	transient = Decision{Outcome: OutcomeTransient}
	notFound  = Decision{Outcome: OutcomeNotFound}
)

func redirect(to string) Decision { return Decision{Outcome: OutcomeRedirect, To: to} }

// Evaluate applies req to st. While st is loading every session-dependent requirement is transient.
func Evaluate(st session.State, req Requirement) Decision {
	switch req.Kind {
	case KindPublic:
		return allow
	case KindUnauthenticated:
		if st.Loading {
			return transient
		}
		if st.Identity != nil {
			return redirect(LandingPath)
		}
		return allow
	case KindAuthenticated:
		if st.Loading {
			return transient
		}
		if st.Identity == nil {
			return redirect(RoleSelectionPath)
		}
		if !req.admits(st.Identity.Role) {
			return redirect(LandingPath)
		}
		return allow
	default:
		return redirect(RoleSelectionPath)
	}
}
