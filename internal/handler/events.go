package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openrangelabs/middleware/internal/response"
	"github.com/openrangelabs/middleware/pkg/model"
	"github.com/openrangelabs/middleware/pkg/validation"
)

type UserEventPublisher interface {
	PublishUserEvent(ctx context.Context, ev model.UserEvent) (model.UserEvent, error)
}

// EventHandler queues user lifecycle events on the broker instead of
// recording them directly. Publisher is nil when messaging is off.
type EventHandler struct {
	Publisher UserEventPublisher
}

func (h *EventHandler) Register(g *echo.Group) {
	g.POST("/users", h.PublishUserEvent)
}

// PublishUserEvent validates the event and answers 202 once the broker has
// it (POST /events/users).
func (h *EventHandler) PublishUserEvent(c echo.Context) error {
	if h.Publisher == nil {
		return echo.NewHTTPError(http.StatusNotFound, "messaging is disabled")
	}
	var ev model.UserEvent
	if err := c.Bind(&ev); err != nil {
		return err
	}
	ev = ev.WithDefaults(time.Now())
	if err := validation.Struct(ev); err != nil {
		return err
	}
	sent, err := h.Publisher.PublishUserEvent(c.Request().Context(), ev)
	if err != nil {
		return err
	}
	return response.Send(c, http.StatusAccepted, sent, "user event queued")
}
