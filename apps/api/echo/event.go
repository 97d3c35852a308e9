package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core/event"
)

type eventApi struct {
	catalog *event.Catalog
}

func registerEventAPI(g *echo.Group, catalog *event.Catalog) {
	api := eventApi{catalog: catalog}

	eg := g.Group("/events")
	eg.GET("", api.query)
	eg.GET("/categories", api.categories)
	eg.GET("/:id", api.retrieve)
}

// Handlers

func (api *eventApi) query(ctx echo.Context) error {
	var filter event.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to event.Filter")
	}
	return ctx.JSON(http.StatusOK, api.catalog.Query(filter))
}

func (api *eventApi) categories(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, event.Categories)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	evt, err := api.catalog.Get(id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, evt)
}
