package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openrangelabs/middleware/internal/response"
	"github.com/openrangelabs/middleware/pkg/model"
	"github.com/openrangelabs/middleware/pkg/users"
)

// PortalUserHandler serves /api/v1/portal-users.
type PortalUserHandler struct {
	Service *users.Service
}

func (h *PortalUserHandler) Register(g *echo.Group) {
	g.POST("", h.Record)
	g.POST("/events", h.RecordEvent)
	g.DELETE("", h.DeleteOld)
	g.GET("/search", h.Search)
	g.GET("/users/:userId", h.History)
	g.GET("/users/:userId/latest", h.Latest)
	g.GET("/organizations/:orgId", h.ByOrganization)
	g.GET("/organizations/:orgId/counts/status", h.CountByStatus)
	g.GET("/organizations/:orgId/counts/operations", h.CountByOperation)
}

func (h *PortalUserHandler) Record(c echo.Context) error {
	var rec model.PortalUser
	if err := c.Bind(&rec); err != nil {
		return err
	}
	saved, err := h.Service.Record(c.Request().Context(), rec)
	if err != nil {
		return err
	}
	return response.Created(c, saved, "portal user recorded")
}

func (h *PortalUserHandler) RecordEvent(c echo.Context) error {
	var ev model.UserEvent
	if err := c.Bind(&ev); err != nil {
		return err
	}
	saved, err := h.Service.RecordEvent(c.Request().Context(), ev)
	if err != nil {
		return err
	}
	return response.Created(c, saved, "user event recorded")
}

func (h *PortalUserHandler) Latest(c echo.Context) error {
	userID, err := pathInt64(c, "userId")
	if err != nil {
		return err
	}
	rec, err := h.Service.FindLatestByUserID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if rec == nil {
		return echo.NewHTTPError(http.StatusNotFound, "portal user not found")
	}
	return response.OK(c, rec, "")
}

func (h *PortalUserHandler) History(c echo.Context) error {
	userID, err := pathInt64(c, "userId")
	if err != nil {
		return err
	}
	list, err := h.Service.FindByUserID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, list, "")
}

func (h *PortalUserHandler) ByOrganization(c echo.Context) error {
	orgID, err := pathInt64(c, "orgId")
	if err != nil {
		return err
	}
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	p, err := h.Service.FindByOrganization(c.Request().Context(), orgID, page)
	if err != nil {
		return err
	}
	return response.OK(c, p, "")
}

func (h *PortalUserHandler) Search(c echo.Context) error {
	orgID, err := queryInt64Ptr(c, "organizationId")
	if err != nil {
		return err
	}
	start, end, err := queryWindow(c)
	if err != nil {
		return err
	}
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	filter := model.PortalUserFilter{
		OrganizationID: orgID,
		Status:         c.QueryParam("status"),
		OperationType:  c.QueryParam("operationType"),
		Username:       c.QueryParam("username"),
		Email:          c.QueryParam("email"),
		Start:          start,
		End:            end,
	}
	p, err := h.Service.Search(c.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return response.OK(c, p, "")
}

func (h *PortalUserHandler) CountByStatus(c echo.Context) error {
	orgID, err := pathInt64(c, "orgId")
	if err != nil {
		return err
	}
	counts, err := h.Service.CountByStatus(c.Request().Context(), orgID)
	if err != nil {
		return err
	}
	return response.OK(c, counts, "")
}

func (h *PortalUserHandler) CountByOperation(c echo.Context) error {
	orgID, err := pathInt64(c, "orgId")
	if err != nil {
		return err
	}
	counts, err := h.Service.CountByOperationType(c.Request().Context(), orgID)
	if err != nil {
		return err
	}
	return response.OK(c, counts, "")
}

func (h *PortalUserHandler) DeleteOld(c echo.Context) error {
	cutoff, err := requiredCutoff(c)
	if err != nil {
		return err
	}
	n, err := h.Service.DeleteOlderThan(c.Request().Context(), cutoff)
	if err != nil {
		return err
	}
	return response.OK(c, deletedResponse{Deleted: n}, "")
}
