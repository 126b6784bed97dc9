package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openrangelabs/middleware/internal/response"
	"github.com/openrangelabs/middleware/pkg/logs"
	"github.com/openrangelabs/middleware/pkg/model"
)

const (
	defaultLookback      = 24 * time.Hour
	defaultSlowThreshold = 1000
)

// SystemLogHandler serves /api/v1/system-logs.
type SystemLogHandler struct {
	Service *logs.SystemLogService
	// Now decides the default lower bound of the "since" queries.
	Now func() time.Time
}

func (h *SystemLogHandler) Register(g *echo.Group) {
	g.POST("", h.Save)
	g.POST("/batch", h.SaveBatch)
	g.DELETE("", h.DeleteOld)
	g.GET("/search", h.Search)
	g.GET("/errors", h.Errors)
	g.GET("/slow", h.Slow)
	g.GET("/status", h.ByStatusRange)
	g.GET("/stats/levels", h.StatsByLevel)
	g.GET("/levels/:level", h.ByLevel)
	g.GET("/correlations/:correlationId", h.ByCorrelationID)
	g.GET("/services/:service", h.ByService)
	g.GET("/services/:service/environments/:environment", h.RecentByServiceAndEnvironment)
	g.GET("/users/:userId", h.ByUser)
	g.GET("/organizations/:orgId", h.ByOrganization)
	g.GET("/:id", h.Get)
}

func (h *SystemLogHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *SystemLogHandler) since(c echo.Context) (time.Time, error) {
	return queryTimeOr(c, "since", h.now().Add(-defaultLookback))
}

func (h *SystemLogHandler) Save(c echo.Context) error {
	var entry model.SystemLog
	if err := c.Bind(&entry); err != nil {
		return err
	}
	saved, err := h.Service.SaveLog(c.Request().Context(), entry)
	if err != nil {
		return err
	}
	return response.Created(c, saved, "system log saved")
}

func (h *SystemLogHandler) SaveBatch(c echo.Context) error {
	var entries []model.SystemLog
	if err := c.Bind(&entries); err != nil {
		return err
	}
	saved, err := h.Service.SaveLogsBatch(c.Request().Context(), entries)
	if err != nil {
		return err
	}
	return response.Created(c, saved, "system logs saved")
}

func (h *SystemLogHandler) Get(c echo.Context) error {
	id, err := pathInt64(c, "id")
	if err != nil {
		return err
	}
	entry, err := h.Service.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if entry == nil {
		return echo.NewHTTPError(http.StatusNotFound, "system log "+strconv.FormatInt(id, 10)+" not found")
	}
	return response.OK(c, entry, "")
}

func (h *SystemLogHandler) ByService(c echo.Context) error {
	start, end, err := queryWindow(c)
	if err != nil {
		return err
	}
	list, err := h.Service.FindByServiceAndDateRange(c.Request().Context(), c.Param("service"), start, end)
	if err != nil {
		return err
	}
	return response.OK(c, list, "")
}

func (h *SystemLogHandler) ByLevel(c echo.Context) error {
	since, err := h.since(c)
	if err != nil {
		return err
	}
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	p, err := h.Service.FindByLogLevel(c.Request().Context(), c.Param("level"), since, page)
	if err != nil {
		return err
	}
	return response.OK(c, p, "")
}

func (h *SystemLogHandler) Errors(c echo.Context) error {
	since, err := h.since(c)
	if err != nil {
		return err
	}
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	p, err := h.Service.FindErrorLogs(c.Request().Context(), since, page)
	if err != nil {
		return err
	}
	return response.OK(c, p, "")
}

func (h *SystemLogHandler) ByCorrelationID(c echo.Context) error {
	list, err := h.Service.FindByCorrelationID(c.Request().Context(), c.Param("correlationId"))
	if err != nil {
		return err
	}
	return response.OK(c, list, "")
}

func (h *SystemLogHandler) Slow(c echo.Context) error {
	threshold, err := queryInt(c, "thresholdMs", defaultSlowThreshold)
	if err != nil {
		return err
	}
	since, err := h.since(c)
	if err != nil {
		return err
	}
	list, err := h.Service.FindSlowRequests(c.Request().Context(), int64(threshold), since)
	if err != nil {
		return err
	}
	return response.OK(c, list, "")
}

// ByStatusRange matches min <= responseStatus < max.
func (h *SystemLogHandler) ByStatusRange(c echo.Context) error {
	lo, err := queryInt(c, "min", 400)
	if err != nil {
		return err
	}
	hi, err := queryInt(c, "max", 600)
	if err != nil {
		return err
	}
	since, err := h.since(c)
	if err != nil {
		return err
	}
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	p, err := h.Service.FindByResponseStatusRange(c.Request().Context(), lo, hi, since, page)
	if err != nil {
		return err
	}
	return response.OK(c, p, "")
}

func (h *SystemLogHandler) Search(c echo.Context) error {
	start, end, err := queryWindow(c)
	if err != nil {
		return err
	}
	userID, err := queryInt64Ptr(c, "userId")
	if err != nil {
		return err
	}
	orgID, err := queryInt64Ptr(c, "organizationId")
	if err != nil {
		return err
	}
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	filter := model.SystemLogFilter{
		ServiceName:    c.QueryParam("serviceName"),
		LogLevel:       c.QueryParam("logLevel"),
		UserID:         userID,
		OrganizationID: orgID,
		SearchTerm:     c.QueryParam("q"),
		Start:          start,
		End:            end,
	}
	p, err := h.Service.SearchLogs(c.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return response.OK(c, p, "")
}

func (h *SystemLogHandler) StatsByLevel(c echo.Context) error {
	start, end, err := queryWindow(c)
	if err != nil {
		return err
	}
	counts, err := h.Service.GetLogStatsByLevel(c.Request().Context(), start, end)
	if err != nil {
		return err
	}
	return response.OK(c, counts, "")
}

func (h *SystemLogHandler) ByUser(c echo.Context) error {
	userID, err := pathInt64(c, "userId")
	if err != nil {
		return err
	}
	start, end, err := queryWindow(c)
	if err != nil {
		return err
	}
	list, err := h.Service.FindByUserAndDateRange(c.Request().Context(), userID, start, end)
	if err != nil {
		return err
	}
	return response.OK(c, list, "")
}

func (h *SystemLogHandler) ByOrganization(c echo.Context) error {
	orgID, err := pathInt64(c, "orgId")
	if err != nil {
		return err
	}
	page, err := pageRequest(c)
	if err != nil {
		return err
	}
	p, err := h.Service.FindByOrganizationID(c.Request().Context(), orgID, page)
	if err != nil {
		return err
	}
	return response.OK(c, p, "")
}

func (h *SystemLogHandler) RecentByServiceAndEnvironment(c echo.Context) error {
	hours, err := queryInt(c, "hours", 24)
	if err != nil {
		return err
	}
	list, err := h.Service.FindRecentByServiceAndEnvironment(c.Request().Context(), c.Param("service"), c.Param("environment"), hours)
	if err != nil {
		return err
	}
	return response.OK(c, list, "")
}

func (h *SystemLogHandler) DeleteOld(c echo.Context) error {
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
