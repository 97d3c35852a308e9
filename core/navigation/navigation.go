// Package navigation maps roles to the dashboard views they may see.
package navigation

import (
	"strings"

	"github.com/trezcool/csiportal/core/identity"
)

// Item is a navigation target of the dashboard.
type Item struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

const DashboardPath = "/dashboard"

var (
	commonItems = []Item{
		{Path: DashboardPath, Label: "Dashboard"},
		{Path: "/dashboard/events", Label: "Events"},
		{Path: "/dashboard/notifications", Label: "Notifications"},
		{Path: "/dashboard/profile", Label: "Profile"},
	}

	roleItems = map[identity.Role][]Item{
		identity.RoleStudent: {
			{Path: "/dashboard/registrations", Label: "My Registrations"},
			{Path: "/dashboard/calendar", Label: "Calendar"},
		},
		identity.RoleTeacher: {
			{Path: "/dashboard/manage-registrations", Label: "Manage Registrations"},
			{Path: "/dashboard/attendance", Label: "Attendance"},
			{Path: "/dashboard/payments", Label: "Payments"},
		},
		identity.RoleCommittee: {
			{Path: "/dashboard/create-event", Label: "Create Event"},
			{Path: "/dashboard/committee-members", Label: "Committee Members"},
			{Path: "/dashboard/attendance-history", Label: "Attendance History"},
		},
	}

	// views every role may open even though they are not listed for it
	openViews = map[string]bool{
		"/dashboard/calendar": true,
	}

	capabilities = buildCapabilities()
)

func buildCapabilities() map[identity.Role][]Item {
	caps := make(map[identity.Role][]Item, len(roleItems)+1)
	caps[identity.RoleNone] = commonItems
	for role, items := range roleItems {
		all := make([]Item, 0, len(commonItems)+len(items))
		all = append(all, commonItems...)
		all = append(all, items...)
		caps[role] = all
	}
	return caps
}

// Items returns the navigation of role. Unknown roles get the common items.
func Items(role identity.Role) []Item {
	items, ok := capabilities[role]
	if !ok {
		items = commonItems
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Known reports whether path is a dashboard view of any role.
func Known(path string) bool {
	path = clean(path)
	if openViews[path] {
		return true
	}
	for _, items := range capabilities {
		if indexOf(items, path) >= 0 {
			return true
		}
	}
	return false
}

// Permits reports whether role may open the dashboard view at path.
func Permits(role identity.Role, path string) bool {
	path = clean(path)
	if openViews[path] {
		return true
	}
	return indexOf(Items(role), path) >= 0
}

func indexOf(items []Item, path string) int {
	for i, item := range items {
		if item.Path == path {
			return i
		}
	}
	return -1
}

func clean(path string) string {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
