package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/access"
	"github.com/trezcool/csiportal/core/identity"
	"github.com/trezcool/csiportal/core/navigation"
)

func registerAccessAPI(g *echo.Group) {
	g.GET("/access", checkAccess)
	g.GET("/navigation", getNavigation)
	g.GET("/roles", listRoles)
}

type (
	accessResponse struct {
		Path string `json:"path"`
		access.Decision
	}

	navigationResponse struct {
		Role  identity.Role     `json:"role"`
		Items []navigation.Item `json:"items"`
	}
)

// checkAccess tells whether the caller's session may open `?path=`, and where to go otherwise.
func checkAccess(ctx echo.Context) error {
	path := ctx.QueryParam("path")
	if path == "" {
		return core.NewArgumentError("the path query parameter is required")
	}

	st, err := getContextStore(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, accessResponse{Path: path, Decision: access.Check(st.State(), path)})
}

// getNavigation lists the dashboard views of the caller's role.
func getNavigation(ctx echo.Context) error {
	st, err := getContextStore(ctx)
	if err != nil {
		return err
	}
	role := st.State().Role()
	return ctx.JSON(http.StatusOK, navigationResponse{Role: role, Items: navigation.Items(role)})
}

func listRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, identity.Roles())
}
