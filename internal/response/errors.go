package response

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/pkg/apperrors"
	"github.com/openrangelabs/middleware/pkg/httpclient"
	"github.com/openrangelabs/middleware/pkg/model"
	"github.com/openrangelabs/middleware/pkg/web"
)

const internalErrorMessage = "An internal error occurred"

// ValidationErrorResponse reports failed field constraints.
type ValidationErrorResponse struct {
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors"`
	Timestamp time.Time         `json:"timestamp"`
	Path      string            `json:"path"`
	Status    int               `json:"status"`
}

// ErrorResponse is the general error shape. Error holds the status
// category label.
type ErrorResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Trace     string    `json:"trace,omitempty"`
}

// ExceptionRecorder stores an unexpected failure as a system log entry.
type ExceptionRecorder interface {
	LogException(ctx context.Context, serviceName string, err error, userID, orgID *int64) (model.SystemLog, error)
}

// Mapper turns errors into HTTP responses.
type Mapper struct {
	Logger zerolog.Logger
	// IncludeTrace adds the full error text to 5xx responses.
	IncludeTrace bool
	Now          func() time.Time
	// Exceptions, when set, records every 500 under ServiceName.
	Exceptions  ExceptionRecorder
	ServiceName string
}

func NewMapper(logger zerolog.Logger, includeTrace bool) *Mapper {
	return &Mapper{Logger: logger, IncludeTrace: includeTrace, Now: time.Now}
}

func reason(status int) string {
	if r := http.StatusText(status); r != "" {
		return r
	}
	return web.Status(status).Category()
}

// Resolve picks the status and body for err.
func (m *Mapper) Resolve(path string, err error) (int, any) {
	now := m.Now().UTC()

	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ValidationErrorResponse{
			Message:   "Validation failed",
			Errors:    verr.Map(),
			Timestamp: now,
			Path:      path,
			Status:    http.StatusBadRequest,
		}
	}

	general := func(status int, message string) (int, any) {
		body := ErrorResponse{
			Message:   message,
			Timestamp: now,
			Path:      path,
			Status:    status,
			Error:     reason(status),
		}
		if m.IncludeTrace && status >= http.StatusInternalServerError {
			body.Trace = err.Error()
		}
		return status, body
	}

	if apperrors.IsInvalidArgument(err) {
		return general(http.StatusBadRequest, err.Error())
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return general(he.Code, msg)
	}

	var ce *httpclient.ClientError
	var se *httpclient.ServerError
	if errors.As(err, &ce) || errors.As(err, &se) {
		return general(http.StatusBadGateway, "Upstream service returned an error")
	}

	var oerr *apperrors.OperationError
	if errors.As(err, &oerr) {
		return general(http.StatusInternalServerError, "failed to "+oerr.Op)
	}
	return general(http.StatusInternalServerError, internalErrorMessage)
}

// Handle writes the response for err. It is installed as echo's
// HTTPErrorHandler.
func (m *Mapper) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	path := pathFromContext(c)
	status, body := m.Resolve(path, err)

	ev := m.Logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = m.Logger.Error()
	}
	ev.Err(err).Int("status", status).Str("method", c.Request().Method).Str("path", path).Msg("request failed")

	if status == http.StatusInternalServerError && m.Exceptions != nil {
		ctx := context.WithoutCancel(c.Request().Context())
		if _, rerr := m.Exceptions.LogException(ctx, m.ServiceName, err, nil, nil); rerr != nil {
			m.Logger.Warn().Err(rerr).Msg("record exception")
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		m.Logger.Error().Err(err).Msg("write error response")
	}
}

// FromError writes the response for err without logging.
func FromError(c echo.Context, err error) error {
	m := Mapper{Logger: zerolog.Nop(), Now: time.Now}
	status, body := m.Resolve(pathFromContext(c), err)
	return c.JSON(status, body)
}
