package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openrangelabs/middleware/internal/response"
	"github.com/openrangelabs/middleware/pkg/logs"
	"github.com/openrangelabs/middleware/pkg/model"
)

// UserLogHandler serves /api/v1/user-logs.
type UserLogHandler struct {
	Service *logs.UserLogService
}

func (h *UserLogHandler) Register(g *echo.Group) {
	g.POST("", h.Save)
	g.POST("/batch", h.SaveBatch)
	g.DELETE("", h.DeleteOld)
	g.GET("/users/:userId", h.ByUser)
	g.GET("/users/:userId/counts", h.CountByType)
	g.GET("/users/:userId/entries/:createdDt", h.ByKey)
	g.POST("/users/:userId/actions", h.LogAction)
	g.GET("/organizations/:orgId", h.ByOrganization)
}

func (h *UserLogHandler) Save(c echo.Context) error {
	var entry model.UserLog
	if err := c.Bind(&entry); err != nil {
		return err
	}
	saved, err := h.Service.SaveLog(c.Request().Context(), entry)
	if err != nil {
		return err
	}
	return response.Created(c, saved, "user log saved")
}

func (h *UserLogHandler) SaveBatch(c echo.Context) error {
	var entries []model.UserLog
	if err := c.Bind(&entries); err != nil {
		return err
	}
	saved, err := h.Service.SaveLogsBatch(c.Request().Context(), entries)
	if err != nil {
		return err
	}
	return response.Created(c, saved, "user logs saved")
}

func (h *UserLogHandler) ByUser(c echo.Context) error {
	userID, err := pathInt64(c, "userId")
	if err != nil {
		return err
	}
	since, err := queryTime(c, "since")
	if err != nil {
		return err
	}
	order, err := sortOrder(c)
	if err != nil {
		return err
	}
	list, err := h.Service.FindByUser(c.Request().Context(), userID, since, order)
	if err != nil {
		return err
	}
	return response.OK(c, list, "")
}

func (h *UserLogHandler) ByOrganization(c echo.Context) error {
	orgID, err := pathInt64(c, "orgId")
	if err != nil {
		return err
	}
	since, err := queryTime(c, "since")
	if err != nil {
		return err
	}
	order, err := sortOrder(c)
	if err != nil {
		return err
	}
	list, err := h.Service.FindByOrganization(c.Request().Context(), orgID, since, order)
	if err != nil {
		return err
	}
	return response.OK(c, list, "")
}

func (h *UserLogHandler) ByKey(c echo.Context) error {
	userID, err := pathInt64(c, "userId")
	if err != nil {
		return err
	}
	createdAt, err := pathTime(c, "createdDt")
	if err != nil {
		return err
	}
	entry, err := h.Service.FindByKey(c.Request().Context(), userID, createdAt)
	if err != nil {
		return err
	}
	if entry == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user log not found")
	}
	return response.OK(c, entry, "")
}

func (h *UserLogHandler) CountByType(c echo.Context) error {
	userID, err := pathInt64(c, "userId")
	if err != nil {
		return err
	}
	start, end, err := queryWindow(c)
	if err != nil {
		return err
	}
	counts, err := h.Service.CountUserLogsByType(c.Request().Context(), userID, start, end)
	if err != nil {
		return err
	}
	return response.OK(c, counts, "")
}

type userActionRequest struct {
	OrganizationID int64  `json:"organizationId"`
	Type           string `json:"type"`
	Description    string `json:"description"`
}

// LogAction records an action performed now. LOGIN and LOGOUT without a
// description get the standard one.
func (h *UserLogHandler) LogAction(c echo.Context) error {
	userID, err := pathInt64(c, "userId")
	if err != nil {
		return err
	}
	var req userActionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	typ, err := model.ParseUserLogType(req.Type)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	var saved model.UserLog
	switch {
	case typ == model.UserLogLogin && req.Description == "":
		saved, err = h.Service.LogLogin(ctx, userID, req.OrganizationID)
	case typ == model.UserLogLogout && req.Description == "":
		saved, err = h.Service.LogLogout(ctx, userID, req.OrganizationID)
	default:
		saved, err = h.Service.LogUserAction(ctx, userID, req.OrganizationID, typ, req.Description)
	}
	if err != nil {
		return err
	}
	return response.Created(c, saved, "user action recorded")
}

// DeleteOld removes entries created before the required before parameter.
func (h *UserLogHandler) DeleteOld(c echo.Context) error {
	cutoff, err := requiredCutoff(c)
	if err != nil {
		return err
	}
	n, err := h.Service.DeleteOldLogs(c.Request().Context(), cutoff)
	if err != nil {
		return err
	}
	return response.OK(c, deletedResponse{Deleted: n}, "")
}
