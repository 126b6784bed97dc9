package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openrangelabs/middleware/pkg/apperrors"
	"github.com/openrangelabs/middleware/pkg/model"
)

func pathInt64(c echo.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n < 1 {
		return 0, apperrors.NewFieldError(name, "must be a positive number")
	}
	return n, nil
}

func pathTime(c echo.Context, name string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, c.Param(name))
	if err != nil {
		return time.Time{}, apperrors.NewFieldError(name, "must be an RFC 3339 timestamp")
	}
	return t, nil
}

// queryTime returns nil when the parameter is absent.
func queryTime(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, apperrors.NewFieldError(name, "must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func queryTimeOr(c echo.Context, name string, def time.Time) (time.Time, error) {
	t, err := queryTime(c, name)
	if err != nil || t == nil {
		return def, err
	}
	return *t, nil
}

// queryWindow reads the startDate and endDate parameters. Missing values
// stay zero and are reported by the service.
func queryWindow(c echo.Context) (start, end time.Time, err error) {
	if start, err = queryTimeOr(c, "startDate", time.Time{}); err != nil {
		return
	}
	end, err = queryTimeOr(c, "endDate", time.Time{})
	return
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewFieldError(name, "must be a number")
	}
	return n, nil
}

func queryInt64Ptr(c echo.Context, name string) (*int64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewFieldError(name, "must be a number")
	}
	return &n, nil
}

func pageRequest(c echo.Context) (model.PageRequest, error) {
	page, err := queryInt(c, "page", 0)
	if err != nil {
		return model.PageRequest{}, err
	}
	size, err := queryInt(c, "size", model.DefaultPageSize)
	if err != nil {
		return model.PageRequest{}, err
	}
	return model.PageRequest{Page: page, Size: size}.Normalize(), nil
}

func sortOrder(c echo.Context) (model.SortOrder, error) {
	switch strings.ToLower(c.QueryParam("order")) {
	case "", "desc":
		return model.Descending, nil
	case "asc":
		return model.Ascending, nil
	default:
		return model.Descending, apperrors.NewFieldError("order", "must be asc or desc")
	}
}

func requiredCutoff(c echo.Context) (time.Time, error) {
	t, err := queryTime(c, "before")
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, apperrors.NewFieldError("before", "is required")
	}
	return *t, nil
}

type deletedResponse struct {
	Deleted int64 `json:"deleted"`
}
