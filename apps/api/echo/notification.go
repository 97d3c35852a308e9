package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/notification"
)

const notificationsView = "/dashboard/notifications"

type (
	notificationApi struct {
		center   *notification.Center
		logger   core.Logger
		validate *validator.Validate
	}

	inboxResponse struct {
		Unread int                         `json:"unread"`
		Items  []notification.Notification `json:"items"`
	}
)

func registerNotificationAPI(g *echo.Group, deps ServerDeps) {
	api := notificationApi{
		center:   deps.Notifications,
		logger:   deps.Logger,
		validate: deps.Validate,
	}

	ng := g.Group("/notifications")
	ng.GET("", api.list)
	ng.POST("", api.send)
	ng.POST("/read", api.markAllRead)
	ng.POST("/:id/read", api.markRead)
	ng.DELETE("/:id", api.delete)
}

func notificationID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

// Handlers

func (api *notificationApi) list(ctx echo.Context) error {
	vc, err := requireView(ctx, notificationsView)
	if err != nil {
		return err
	}

	cat := notification.Category(core.CleanString(ctx.QueryParam("category"), true /* lower */))
	if cat != "" && !cat.IsValid() {
		return core.NewArgumentError("unknown notification category")
	}

	inbox := api.center.Inbox(vc.handle)
	return ctx.JSON(http.StatusOK, inboxResponse{Unread: inbox.UnreadCount(), Items: inbox.List(cat)})
}

func (api *notificationApi) send(ctx echo.Context) error {
	vc, err := requireView(ctx, notificationsView)
	if err != nil {
		return err
	}
	if !notification.CanSend(vc.identity.Role) {
		return notification.ErrCannotSend
	}

	var data notification.Draft
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to notification.Draft")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.center.Send(vc.identity, data)
	if err != nil {
		return err
	}
	api.logger.Info("notification sent", vc.identity, core.SessionHandle(vc.handle), map[string]interface{}{"notification": n.ID, "category": n.Category})
	return ctx.JSON(http.StatusCreated, n)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	vc, err := requireView(ctx, notificationsView)
	if err != nil {
		return err
	}
	inbox := api.center.Inbox(vc.handle)
	inbox.MarkAllRead()
	return ctx.JSON(http.StatusOK, inboxResponse{Unread: 0, Items: inbox.List("")})
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	vc, err := requireView(ctx, notificationsView)
	if err != nil {
		return err
	}
	id, err := notificationID(ctx)
	if err != nil {
		return err
	}
	n, err := api.center.Inbox(vc.handle).MarkRead(id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *notificationApi) delete(ctx echo.Context) error {
	vc, err := requireView(ctx, notificationsView)
	if err != nil {
		return err
	}
	id, err := notificationID(ctx)
	if err != nil {
		return err
	}
	if err = api.center.Inbox(vc.handle).Delete(id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
