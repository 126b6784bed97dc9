package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrangelabs/middleware/internal/config"
	"github.com/openrangelabs/middleware/internal/infrastructure/inputs"
	"github.com/openrangelabs/middleware/pkg/repository/memory"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, db Pinger, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Defaults()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(&cfg, Stores{
		UserLogs:    memory.NewUserLogs(),
		SystemLogs:  memory.NewSystemLogs(),
		PortalUsers: memory.NewPortalUsers(),
		DB:          db,
	}, zerolog.Nop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestIngestThenQuery(t *testing.T) {
	s := newTestServer(t, nil, nil)
	require.NoError(t, s.Open(context.Background()))

	rec := serve(s, http.MethodPost, "/ingest/system-logs", `{"serviceName":"billing","logLevel":"error","message":"card declined"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	rec = serve(s, http.MethodGet, "/api/v1/system-logs/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"logLevel":"ERROR"`)

	rec = serve(s, http.MethodPost, "/ingest/orders", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, http.MethodGet, "/api/v1/inputs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/ingest/portal-users"`)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, pinger{}, nil)
	require.NoError(t, s.Open(context.Background()))

	rec := serve(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "ok", env.Data["status"])
	assert.Equal(t, "ok", env.Data["database"])
	assert.EqualValues(t, 3, env.Data["inputs"])
	assert.Contains(t, env.Data, "httpClient")
}

func TestHealthDegradedWhenDatabaseDown(t *testing.T) {
	s := newTestServer(t, pinger{err: errors.New("connection refused")}, nil)

	rec := serve(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := serve(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "middleware_retention_archived_system_logs_total")
}

func TestSpecs(t *testing.T) {
	s := newTestServer(t, nil, func(c *config.Config) {
		c.Inputs.BasePath = "hooks/"
		c.Messaging.Enabled = true
		c.Messaging.Consume = true
	})

	specs := s.Specs()
	require.Len(t, specs, 6)
	assert.Equal(t, "/hooks", specs[0].Config["base_path"])
	assert.Equal(t, "amqp", specs[4].Type)
	assert.Equal(t, inputs.TargetSystemLog, specs[4].Target)
	assert.Equal(t, "q.logs-system", specs[4].Config["queue"])
}

func TestSpecsWithoutInputs(t *testing.T) {
	s := newTestServer(t, nil, func(c *config.Config) {
		c.Inputs.HTTPEnabled = false
		c.Messaging.Consume = true
	})

	assert.Empty(t, s.Specs())
	_, err := s.openChannel()
	assert.EqualError(t, err, "broker is not connected")
}

func TestRetentionEndpoint(t *testing.T) {
	rec := serve(newTestServer(t, nil, nil), http.MethodPost, "/api/v1/retention/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s := newTestServer(t, nil, func(c *config.Config) { c.Retention.Enabled = true })
	rec = serve(s, http.MethodPost, "/api/v1/retention/run", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"archivedEntries":0`)
}

func TestPublishUserEventNeedsBroker(t *testing.T) {
	s := newTestServer(t, nil, func(c *config.Config) { c.Messaging.Enabled = true })

	rec := serve(s, http.MethodPost, "/api/v1/events/users",
		`{"eventType":"USER_CREATED","userId":5,"organizationId":2,"username":"jdoe","email":"jdoe@example.com"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "broker is not connected")
}

func TestInternalErrorsBecomeSystemLogs(t *testing.T) {
	cfg := config.Defaults()
	systemLogs := memory.NewSystemLogs()
	s, err := New(&cfg, Stores{
		UserLogs:    memory.NewUserLogs(),
		SystemLogs:  systemLogs,
		PortalUsers: memory.NewPortalUsers(),
	}, zerolog.Nop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.Echo.GET("/boom", func(echo.Context) error { return errors.New("nil pointer in report") })

	rec := serve(s, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	saved, err := systemLogs.FindByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "middleware", saved.ServiceName)
	assert.Equal(t, "ERROR", saved.LogLevel)
	assert.Equal(t, "nil pointer in report", saved.Message)

	again, err := systemLogs.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, again, "exception recorded more than once")
}
