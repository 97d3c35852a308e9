package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/csiportal/core/access"
	"github.com/trezcool/csiportal/core/identity"
	"github.com/trezcool/csiportal/core/session"
)

var (
	errNotAuthenticated = echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	errViewForbidden    = echo.NewHTTPError(http.StatusForbidden, "this view is not available to your role")
	errSessionLoading   = echo.NewHTTPError(http.StatusServiceUnavailable, "session is loading, retry shortly")
)

// viewContext is the session allowed into a dashboard view.
type viewContext struct {
	handle   string
	store    *session.Store
	identity identity.Identity
}

// requireView checks the access of the caller's session to the dashboard view at path,
// the same way the view layer guards its navigation.
func requireView(ctx echo.Context, path string) (viewContext, error) {
	st, err := getContextStore(ctx)
	if err != nil {
		return viewContext{}, err
	}
	state := st.State()

	d := access.Check(state, path)
	switch d.Outcome {
	case access.OutcomeAllow:
		if state.Identity == nil {
			return viewContext{}, errNotAuthenticated
		}
		return viewContext{handle: getContextHandle(ctx), store: st, identity: *state.Identity}, nil
	case access.OutcomeTransient:
		return viewContext{}, errSessionLoading
	case access.OutcomeRedirect:
		if d.To == access.RoleSelectionPath {
			return viewContext{}, errNotAuthenticated
		}
		return viewContext{}, errViewForbidden
	default:
		return viewContext{}, errHttpNotFound
	}
}
