package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/identity"
)

type sessionApi struct {
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator

	// release drops the dashboard data of a session handle
	release func(handle string)
}

func registerSessionAPI(g *echo.Group, deps ServerDeps) {
	api := sessionApi{
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
		release: func(handle string) {
			deps.Notifications.Release(handle)
			deps.Registrations.Release(handle)
		},
	}

	sg := g.Group("/session")
	sg.GET("", api.state)
	sg.POST("/login", api.login)
	sg.POST("/signup", api.signup)
	sg.POST("/logout", api.logout)
	sg.PATCH("/profile", api.updateProfile)
	sg.DELETE("/error", api.clearError)
	sg.GET("/watch", api.watch)
}

// Handlers

func (api *sessionApi) state(ctx echo.Context) error {
	st, err := getContextStore(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st.State())
}

func (api *sessionApi) login(ctx echo.Context) error {
	var data identity.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := getContextStore(ctx)
	if err != nil {
		return err
	}
	if err = st.Login(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "logging in")
	}

	state := st.State()
	if state.Error != "" {
		return ctx.JSON(http.StatusUnauthorized, state)
	}
	return ctx.JSON(http.StatusOK, state)
}

func (api *sessionApi) signup(ctx echo.Context) error {
	var data identity.SignupRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignupRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := getContextStore(ctx)
	if err != nil {
		return err
	}
	if err = st.Signup(ctx.Request().Context(), data.Credentials()); err != nil {
		return errors.Wrap(err, "signing up")
	}

	state := st.State()
	if state.Error != "" {
		return ctx.JSON(http.StatusBadRequest, state)
	}
	return ctx.JSON(http.StatusCreated, state)
}

func (api *sessionApi) logout(ctx echo.Context) error {
	st, err := getContextStore(ctx)
	if err != nil {
		return err
	}
	if err = st.Logout(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "logging out")
	}
	api.release(getContextHandle(ctx))
	return ctx.JSON(http.StatusOK, st.State())
}

func (api *sessionApi) updateProfile(ctx echo.Context) error {
	var data identity.ProfileUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProfileUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := getContextStore(ctx)
	if err != nil {
		return err
	}
	if err = st.UpdateProfile(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, st.State())
}

func (api *sessionApi) clearError(ctx echo.Context) error {
	st, err := getContextStore(ctx)
	if err != nil {
		return err
	}
	st.ClearError()
	return ctx.JSON(http.StatusOK, st.State())
}
