package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"ua":"`+r.Header.Get("User-Agent")+`","dnt":"`+r.Header.Get("DNT")+
		`","origin":"`+r.Header.Get("Origin")+`","tenant":"`+r.Header.Get("X-Tenant")+
		`","accept":"`+r.Header.Get("Accept")+`"}`)
}

type seenHeaders struct {
	UA     string `json:"ua"`
	DNT    string `json:"dnt"`
	Origin string `json:"origin"`
	Tenant string `json:"tenant"`
	Accept string `json:"accept"`
}

func TestDefaultHeadersAreSentWhenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(echoHeaders))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	defer c.Close()

	var got seenHeaders
	require.NoError(t, c.GetJSON(context.Background(), "/", &got))

	assert.Equal(t, "OpenRangeLabs-Middleware/1.0", got.UA)
	assert.Equal(t, "1", got.DNT)
	assert.Equal(t, "http://localhost", got.Origin)
	assert.Equal(t, "application/json", got.Accept)
}

func TestExplicitHeaderWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(echoHeaders))
	defer srv.Close()
	c, err := New(srv.URL)
	require.NoError(t, err)
	defer c.Close()

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "probe/2")
	resp, err := c.Do(req)
	require.NoError(t, err)

	var got seenHeaders
	require.NoError(t, decode(resp, &got))
	assert.Equal(t, "probe/2", got.UA)
	assert.Empty(t, req.Header.Get("DNT"), "caller request must not be mutated")
}

func TestClientErrorOn4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "user not found", http.StatusNotFound)
	}))
	defer srv.Close()
	c, err := New(srv.URL)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(context.Background(), "/users/9")

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 404, ce.StatusCode)
	assert.Equal(t, "HTTP 404: user not found\n", err.Error())
	assert.Equal(t, "Not Found", ce.Status().Reason())
	assert.False(t, IsRetryable(err))
}

func TestServerErrorOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "down for maintenance")
	}))
	defer srv.Close()
	c, err := New(srv.URL)
	require.NoError(t, err)
	defer c.Close()

	err = c.PostJSON(context.Background(), "/jobs", map[string]int{"n": 1}, nil)

	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 503, se.StatusCode)
	assert.Equal(t, "HTTP 503: down for maintenance", se.Error())
	assert.True(t, IsRetryable(err))
}

func TestLoggingOnlyWhenEnabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(echoHeaders))
	defer srv.Close()

	for _, enabled := range []bool{false, true} {
		var buf bytes.Buffer
		cfg := DefaultConfig()
		cfg.EnableLogging = enabled
		f := NewFactory(cfg, WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
		c, err := f.Build(srv.URL)
		require.NoError(t, err)

		resp, err := c.Get(context.Background(), "/ping")
		require.NoError(t, err)
		resp.Body.Close()
		f.Close()

		if enabled {
			assert.Contains(t, buf.String(), `"message":"http client request"`)
			assert.Contains(t, buf.String(), "/ping")
		} else {
			assert.NotContains(t, buf.String(), "http client request")
		}
	}
}

func TestBuildWithCustomization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(echoHeaders))
	defer srv.Close()
	f := NewFactory(DefaultConfig())
	defer f.Close()

	var calls int
	c, err := f.BuildWithCustomization(srv.URL+"/api", func(b *Builder) {
		b.Header("X-Tenant", "acme").Use(func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				calls++
				assert.Equal(t, "/api/v1/users", r.URL.Path)
				return next.RoundTrip(r)
			})
		})
	})
	require.NoError(t, err)

	var got seenHeaders
	require.NoError(t, c.GetJSON(context.Background(), "v1/users", &got))

	assert.Equal(t, "acme", got.Tenant)
	assert.Equal(t, 1, calls)
	assert.Same(t, f.Pool(), c.Pool())
}

func TestNewFromURL(t *testing.T) {
	_, err := NewFromURL(nil)
	assert.Error(t, err)

	u, _ := url.Parse("https://api.example.com/v2")
	c, err := NewFromURL(u)
	require.NoError(t, err)
	defer c.Close()
	target, err := c.resolve("items?page=2")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v2/items?page=2", target)
}

func TestPoolExhaustionAfterPendingTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(echoHeaders))
	defer srv.Close()
	cfg := DefaultConfig()
	cfg.MaxConnections = 1
	cfg.PendingAcquireTimeout = 50 * time.Millisecond
	f := NewFactory(cfg)
	defer f.Close()
	c, err := f.Build(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	held, err := c.Get(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.Pool().Stats().InFlight)

	_, err = c.Get(ctx, "/")
	assert.True(t, errors.Is(err, ErrPoolExhausted))
	assert.True(t, IsRetryable(err))

	held.Body.Close()
	resp, err := c.Get(ctx, "/")
	require.NoError(t, err)
	resp.Body.Close()
}

func TestEvictClosesExpiredIdleConnections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(echoHeaders))
	defer srv.Close()
	cfg := DefaultConfig()
	cfg.MaxLifetime = time.Minute
	f := NewFactory(cfg)
	defer f.Close()
	c, err := f.Build(srv.URL)
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.Equal(t, 1, f.Pool().Stats().OpenConnections)

	f.Pool().evict(time.Now())
	assert.Equal(t, 1, f.Pool().Stats().OpenConnections, "young connections survive")

	assert.Eventually(t, func() bool {
		f.Pool().evict(time.Now().Add(time.Hour))
		return f.Pool().Stats().OpenConnections == 0
	}, time.Second, 10*time.Millisecond)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{MaxConnections: 8, PoolName: "billing"}.withDefaults()

	assert.Equal(t, 8, cfg.MaxConnections)
	assert.Equal(t, "billing", cfg.PoolName)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 120*time.Second, cfg.EvictInterval)
	assert.False(t, cfg.EnableLogging)
}
