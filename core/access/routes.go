package access

import (
	"net/url"
	"strings"

	"github.com/trezcool/csiportal/core/identity"
	"github.com/trezcool/csiportal/core/navigation"
	"github.com/trezcool/csiportal/core/session"
)

type screen int

const (
	screenPlain screen = iota
	screenAuth
	screenDashboard
	screenAlias
)

// Route binds a path pattern to its Requirement.
// Patterns use `:name` for a single segment and a trailing `*` for any rest.
type Route struct {
	Pattern     string      `json:"pattern"`
	Requirement Requirement `json:"requirement"`

	screen screen
	alias  string
}

// Params holds the values captured by a Route pattern. The rest matched by `*` is under "*".
type Params map[string]string

var (
	Routes = []Route{
		{Pattern: "/", Requirement: Public},
		{Pattern: "/about", Requirement: Public},
		{Pattern: "/events", Requirement: Public},
		{Pattern: "/contact", Requirement: Public},
		{Pattern: "/settings/profile", Requirement: Public},
		{Pattern: "/settings/appearance", Requirement: Public},
		{Pattern: "/settings/notifications", Requirement: Public},
		{Pattern: "/settings/account", Requirement: Public},
		{Pattern: RoleSelectionPath, Requirement: Unauthenticated},
		{Pattern: "/auth/:authType", Requirement: Unauthenticated, screen: screenAuth},
		{Pattern: "/dashboard/*", Requirement: Authenticated(), screen: screenDashboard},
		{
			Pattern:     "/teacher-dashboard/*",
			Requirement: Authenticated(identity.RoleTeacher, identity.RoleCommittee),
			screen:      screenAlias,
			alias:       LandingPath,
		},
		{
			Pattern:     "/committee-dashboard/*",
			Requirement: Authenticated(identity.RoleCommittee),
			screen:      screenAlias,
			alias:       LandingPath,
		},
	}
)

// Resolve finds the first Route matching path.
func Resolve(path string) (Route, Params, bool) {
	segs := splitPath(path)
	for _, route := range Routes {
		if params, ok := match(splitPath(route.Pattern), segs); ok {
			return route, params, true
		}
	}
	return Route{}, nil, false
}

// Check decides the navigation to rawURL (path and optional query) for st.
func Check(st session.State, rawURL string) Decision {
	u, err := url.Parse(rawURL)
	if err != nil {
		return notFound
	}
	path := "/" + strings.Join(splitPath(u.Path), "/")

	route, _, ok := Resolve(path)
	if !ok {
		return notFound
	}
	d := Evaluate(st, route.Requirement)
	if d.Outcome != OutcomeAllow {
		return d
	}

	switch route.screen {
	case screenAuth:
		// any authType but signin is the signup screen
		if _, ok := identity.ParseRole(u.Query().Get("role")); !ok {
			return redirect(RoleSelectionPath)
		}
	case screenAlias:
		return redirect(route.alias)
	case screenDashboard:
		if path == navigation.DashboardPath {
			if !st.Role().IsValid() {
				return redirect(RoleSelectionPath)
			}
			return allow
		}
		if !navigation.Permits(st.Role(), path) {
			return redirect(LandingPath)
		}
	}
	return d
}

func match(pattern, segs []string) (Params, bool) {
	params := make(Params)
	for i, p := range pattern {
		if p == "*" && i == len(pattern)-1 {
			params["*"] = strings.Join(segs[i:], "/")
			return params, true
		}
		if i >= len(segs) {
			return nil, false
		}
		switch {
		case strings.HasPrefix(p, ":"):
			params[p[1:]] = segs[i]
		case p != segs[i]:
			return nil, false
		}
	}
	if len(segs) != len(pattern) {
		return nil, false
	}
	return params, true
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}
