package echoapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/event"
	"github.com/trezcool/csiportal/core/notification"
	"github.com/trezcool/csiportal/core/registration"
)

const registrationsView = "/dashboard/registrations"

type (
	registrationApi struct {
		registry *registration.Registry
		catalog  *event.Catalog
		center   *notification.Center
		logger   core.Logger
		validate *validator.Validate
	}

	// registrationRequest is the registration form. Blank applicant fields are taken from the profile.
	registrationRequest struct {
		EventID int `json:"eventId" validate:"required,min=1"`
		registration.Applicant
	}
)

func registerRegistrationAPI(g *echo.Group, deps ServerDeps) {
	api := registrationApi{
		registry: deps.Registrations,
		catalog:  deps.Catalog,
		center:   deps.Notifications,
		logger:   deps.Logger,
		validate: deps.Validate,
	}

	rg := g.Group("/registrations")
	rg.GET("", api.list)
	rg.POST("", api.register)
	rg.POST("/:id/pay", api.pay)
}

// Handlers

func (api *registrationApi) list(ctx echo.Context) error {
	vc, err := requireView(ctx, registrationsView)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.registry.Book(vc.handle).List())
}

func (api *registrationApi) register(ctx echo.Context) error {
	vc, err := requireView(ctx, registrationsView)
	if err != nil {
		return err
	}

	var data registrationRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to registrationRequest")
	}
	data.Prefill(vc.identity)
	if err = api.validate.Struct(&data); err != nil {
		return err
	}

	evt, err := api.catalog.Get(data.EventID)
	if err != nil {
		return err
	}
	reg, err := api.registry.Book(vc.handle).Register(evt, data.Applicant)
	if err != nil {
		return err
	}

	api.center.Notify(vc.handle, notification.Draft{
		Title:    "Registration Successful",
		Message:  fmt.Sprintf("You have successfully registered for %s.", evt.Title),
		Category: notification.CategoryRegistration,
	})
	api.logger.Info("event registration", vc.identity, core.SessionHandle(vc.handle), map[string]interface{}{"event": evt.ID, "registration": reg.ID})
	return ctx.JSON(http.StatusCreated, reg)
}

func (api *registrationApi) pay(ctx echo.Context) error {
	vc, err := requireView(ctx, registrationsView)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	book := api.registry.Book(vc.handle)
	before, err := book.Get(id)
	if err != nil {
		return err
	}
	reg, err := book.Pay(id)
	if err != nil {
		return err
	}

	if before.PaymentStatus != registration.PaymentPaid {
		api.center.Notify(vc.handle, notification.Draft{
			Title:    "Payment Successful",
			Message:  "Your payment has been processed successfully.",
			Category: notification.CategoryPayment,
		})
		api.logger.Info("registration paid", vc.identity, core.SessionHandle(vc.handle), map[string]interface{}{"registration": reg.ID, "fee": reg.Fee})
	}
	return ctx.JSON(http.StatusOK, reg)
}
