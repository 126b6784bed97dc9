package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrangelabs/middleware/internal/infrastructure/inputs"
	"github.com/openrangelabs/middleware/internal/infrastructure/inputs/httpinput"
	"github.com/openrangelabs/middleware/internal/response"
	"github.com/openrangelabs/middleware/internal/retention"
	"github.com/openrangelabs/middleware/internal/storage"
	"github.com/openrangelabs/middleware/pkg/logs"
	"github.com/openrangelabs/middleware/pkg/model"
	"github.com/openrangelabs/middleware/pkg/repository/memory"
	"github.com/openrangelabs/middleware/pkg/users"
)

type api struct {
	e *echo.Echo
}

func newAPI(t *testing.T) api {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = response.NewMapper(zerolog.Nop(), false).Handle

	v1 := e.Group("/api/v1")
	(&UserLogHandler{Service: logs.NewUserLogService(memory.NewUserLogs(), zerolog.Nop())}).Register(v1.Group("/user-logs"))
	(&SystemLogHandler{Service: logs.NewSystemLogService(memory.NewSystemLogs(), zerolog.Nop())}).Register(v1.Group("/system-logs"))
	(&PortalUserHandler{Service: users.NewService(memory.NewPortalUsers(), zerolog.Nop())}).Register(v1.Group("/portal-users"))

	reg := inputs.NewRegistry(zerolog.Nop())
	reg.Register(&httpinput.Factory{})
	(&InputHandler{Registry: reg}).Register(v1.Group("/inputs"))
	(&ArchiveHandler{}).Register(v1)
	return api{e: e}
}

type envelope struct {
	Data    json.RawMessage   `json:"data"`
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Path    string            `json:"path"`
	Errors  map[string]string `json:"errors"`
}

func (a api) do(t *testing.T, method, target, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func window(now time.Time) string {
	q := url.Values{}
	q.Set("startDate", now.Add(-time.Hour).Format(time.RFC3339))
	q.Set("endDate", now.Add(time.Hour).Format(time.RFC3339))
	return q.Encode()
}

func TestSaveAndGetSystemLog(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(t, http.MethodPost, "/api/v1/system-logs",
		`{"serviceName":"billing","logLevel":"warn","message":"retrying","responseStatus":503}`)
	require.Equal(t, http.StatusCreated, code)
	var saved model.SystemLog
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, "WARN", saved.LogLevel)

	code, env = a.do(t, http.MethodGet, "/api/v1/system-logs/1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "/api/v1/system-logs/1", env.Path)

	code, env = a.do(t, http.MethodGet, "/api/v1/system-logs/99", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "system log 99 not found", env.Message)
}

func TestSystemLogValidationErrors(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(t, http.MethodPost, "/api/v1/system-logs", `{"logLevel":"INFO"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Contains(t, env.Errors, "serviceName")

	code, env = a.do(t, http.MethodPost, "/api/v1/system-logs", `{"serviceName":"a","logLevel":"LOUD","message":"m"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid log level: LOUD", env.Message)

	code, _ = a.do(t, http.MethodGet, "/api/v1/system-logs/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(t, http.MethodGet, "/api/v1/system-logs/search", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "is required", env.Errors["startDate"])
}

func TestSystemLogSearchAndStats(t *testing.T) {
	a := newAPI(t)
	now := time.Now().UTC()

	code, _ := a.do(t, http.MethodPost, "/api/v1/system-logs/batch", `[
		{"serviceName":"auth","logLevel":"ERROR","message":"Token expired","responseStatus":401},
		{"serviceName":"auth","logLevel":"INFO","message":"token issued","responseStatus":200},
		{"serviceName":"orders","logLevel":"ERROR","message":"db down","responseStatus":500}
	]`)
	require.Equal(t, http.StatusCreated, code)

	code, env := a.do(t, http.MethodGet, "/api/v1/system-logs/search?serviceName=auth&q=TOKEN&"+window(now), "")
	require.Equal(t, http.StatusOK, code)
	var page model.Page[model.SystemLog]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(2), page.Total)

	code, env = a.do(t, http.MethodGet, "/api/v1/system-logs/status?min=400&max=500", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, 401, *page.Items[0].ResponseStatus)

	code, env = a.do(t, http.MethodGet, "/api/v1/system-logs/stats/levels?"+window(now), "")
	require.Equal(t, http.StatusOK, code)
	var stats map[string]int64
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, map[string]int64{"ERROR": 2, "INFO": 1}, stats)
}

func TestUserLogEndpoints(t *testing.T) {
	a := newAPI(t)
	now := time.Now().UTC()

	code, env := a.do(t, http.MethodPost, "/api/v1/user-logs/users/42/actions", `{"organizationId":7,"type":"login"}`)
	require.Equal(t, http.StatusCreated, code)
	var saved model.UserLog
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, "User logged in", saved.Description)

	code, _ = a.do(t, http.MethodGet, "/api/v1/user-logs/users/42/entries/"+saved.CreatedAt.Format(time.RFC3339Nano), "")
	assert.Equal(t, http.StatusOK, code)

	code, env = a.do(t, http.MethodGet, "/api/v1/user-logs/users/42/counts?"+window(now), "")
	require.Equal(t, http.StatusOK, code)
	var counts map[string]int64
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Equal(t, map[string]int64{"LOGIN": 1}, counts)

	code, env = a.do(t, http.MethodGet, "/api/v1/user-logs/organizations/7?order=sideways", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "must be asc or desc", env.Errors["order"])

	code, env = a.do(t, http.MethodPost, "/api/v1/user-logs", `{"userId":1,"organizationId":1,"type":"SIGNUP"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid user log type: SIGNUP", env.Message)
}

func TestPortalUserEndpoints(t *testing.T) {
	a := newAPI(t)

	code, _ := a.do(t, http.MethodPost, "/api/v1/portal-users/events",
		`{"eventType":"USER_CREATED","userId":5,"organizationId":2,"username":"jdoe","email":"jdoe@example.com"}`)
	require.Equal(t, http.StatusCreated, code)

	code, env := a.do(t, http.MethodGet, "/api/v1/portal-users/users/5/latest", "")
	require.Equal(t, http.StatusOK, code)
	var rec model.PortalUser
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, "CREATE", rec.OperationType)

	code, env = a.do(t, http.MethodGet, "/api/v1/portal-users/organizations/2/counts/status", "")
	require.Equal(t, http.StatusOK, code)
	var counts map[string]int64
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Equal(t, map[string]int64{"PENDING": 1}, counts)

	code, _ = a.do(t, http.MethodGet, "/api/v1/portal-users/users/6/latest", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInputsAndDisabledArchive(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(t, http.MethodGet, "/api/v1/inputs/types", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"types":["http"]}`, string(env.Data))

	code, _ = a.do(t, http.MethodGet, "/api/v1/inputs/types/syslog", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, env = a.do(t, http.MethodGet, "/api/v1/archives", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "archive is not configured", env.Message)
}

type stubArchive struct{ err error }

func (s stubArchive) ListObjects(context.Context, string) ([]storage.ObjectInfo, error) {
	return []storage.ObjectInfo{{Key: "system-logs/2026/01/01/a.json.gz", Size: 10}}, s.err
}

func (s stubArchive) GetObjectLogs(context.Context, string) ([]model.SystemLog, error) {
	return nil, s.err
}

type stubRetention struct{}

func (stubRetention) RunOnce(context.Context) (retention.Result, error) {
	return retention.Result{SystemLogsDeleted: 4}, nil
}

func TestArchiveEndpoints(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = response.NewMapper(zerolog.Nop(), false).Handle
	(&ArchiveHandler{Archive: stubArchive{err: errors.New("timeout")}, Retention: stubRetention{}}).Register(e.Group("/api/v1"))
	a := api{e: e}

	code, env := a.do(t, http.MethodGet, "/api/v1/archives/content?key=x", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "failed to read archived batch", env.Message)

	code, _ = a.do(t, http.MethodGet, "/api/v1/archives/content", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(t, http.MethodPost, "/api/v1/retention/run", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"systemLogsDeleted":4`)
}

type stubPublisher struct{ got []model.UserEvent }

func (p *stubPublisher) PublishUserEvent(_ context.Context, ev model.UserEvent) (model.UserEvent, error) {
	p.got = append(p.got, ev)
	return ev, nil
}

func TestPublishUserEvent(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = response.NewMapper(zerolog.Nop(), false).Handle
	pub := &stubPublisher{}
	(&EventHandler{Publisher: pub}).Register(e.Group("/api/v1/events"))
	a := api{e: e}

	code, env := a.do(t, http.MethodPost, "/api/v1/events/users",
		`{"eventType":"USER_CREATED","userId":5,"organizationId":2,"username":"jdoe","email":"jdoe@example.com"}`)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "user event queued", env.Message)
	require.Len(t, pub.got, 1)
	assert.NotEmpty(t, pub.got[0].EventID)
	assert.NotEmpty(t, pub.got[0].CorrelationID)

	code, env = a.do(t, http.MethodPost, "/api/v1/events/users", `{"eventType":"USER_RENAMED","userId":5}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Errors, "eventType")
	assert.Len(t, pub.got, 1)
}

func TestPublishUserEventWithoutMessaging(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = response.NewMapper(zerolog.Nop(), false).Handle
	(&EventHandler{}).Register(e.Group("/api/v1/events"))

	code, env := api{e: e}.do(t, http.MethodPost, "/api/v1/events/users", `{}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "messaging is disabled", env.Message)
}
