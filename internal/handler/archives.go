package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openrangelabs/middleware/internal/response"
	"github.com/openrangelabs/middleware/internal/retention"
	"github.com/openrangelabs/middleware/internal/storage"
	"github.com/openrangelabs/middleware/pkg/apperrors"
	"github.com/openrangelabs/middleware/pkg/model"
)

type ArchiveReader interface {
	ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	GetObjectLogs(ctx context.Context, key string) ([]model.SystemLog, error)
}

type RetentionRunner interface {
	RunOnce(ctx context.Context) (retention.Result, error)
}

// ArchiveHandler serves /api/v1/archives and the manual retention trigger.
// Either dependency may be nil when the feature is off.
type ArchiveHandler struct {
	Archive   ArchiveReader
	Retention RetentionRunner
}

func (h *ArchiveHandler) Register(g *echo.Group) {
	g.GET("/archives", h.List)
	g.GET("/archives/content", h.Content)
	g.POST("/retention/run", h.RunRetention)
}

func (h *ArchiveHandler) List(c echo.Context) error {
	if h.Archive == nil {
		return echo.NewHTTPError(http.StatusNotFound, "archive is not configured")
	}
	list, err := h.Archive.ListObjects(c.Request().Context(), c.QueryParam("prefix"))
	if err != nil {
		return apperrors.Wrap("list archived batches", err)
	}
	return response.OK(c, map[string]any{"objects": list}, "")
}

// Content returns the entries of one batch (GET /archives/content?key=...).
func (h *ArchiveHandler) Content(c echo.Context) error {
	if h.Archive == nil {
		return echo.NewHTTPError(http.StatusNotFound, "archive is not configured")
	}
	key := c.QueryParam("key")
	if key == "" {
		return apperrors.NewFieldError("key", "is required")
	}
	entries, err := h.Archive.GetObjectLogs(c.Request().Context(), key)
	if err != nil {
		return apperrors.Wrap("read archived batch", err)
	}
	return response.OK(c, map[string]any{"key": key, "logs": entries}, "")
}

func (h *ArchiveHandler) RunRetention(c echo.Context) error {
	if h.Retention == nil {
		return echo.NewHTTPError(http.StatusNotFound, "retention is disabled")
	}
	res, err := h.Retention.RunOnce(c.Request().Context())
	if err != nil {
		return apperrors.Wrap("run retention", err)
	}
	return response.OK(c, res, "retention run finished")
}
