package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.max_conns", envKey("MIDDLEWARE_DATABASE__MAX_CONNS"))
	assert.Equal(t, "http_client.connect_timeout", envKey("MIDDLEWARE_HTTP_CLIENT__CONNECT_TIMEOUT"))
	assert.Equal(t, "messaging.broker.host", envKey("MIDDLEWARE_MESSAGING__BROKER__HOST"))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MIDDLEWARE_DATABASE__URL", "postgres://localhost/middleware")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Primary.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTPClient.ConnectTimeout)
	assert.Equal(t, "custom", cfg.HTTPClient.PoolName)
	assert.Equal(t, "middleware", cfg.Observability.ServiceName)
	assert.Equal(t, "development", cfg.Observability.Environment)
	assert.False(t, cfg.Archive.Enabled())
	assert.Equal(t, "postgres://localhost/middleware", cfg.Database.DSN())
}

func TestLoadConfigOverlaysEnvironment(t *testing.T) {
	t.Setenv("MIDDLEWARE_PRIMARY__ENV", "prod")
	t.Setenv("MIDDLEWARE_DATABASE__HOST", "db")
	t.Setenv("MIDDLEWARE_DATABASE__USER", "svc")
	t.Setenv("MIDDLEWARE_DATABASE__NAME", "logs")
	t.Setenv("MIDDLEWARE_HTTP_CLIENT__READ_TIMEOUT", "5s")
	t.Setenv("MIDDLEWARE_HTTP_CLIENT__ENABLE_LOGGING", "true")
	t.Setenv("MIDDLEWARE_RETENTION__ENABLED", "true")
	t.Setenv("MIDDLEWARE_SERVER__CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Primary.Env)
	assert.True(t, cfg.Primary.Environment().IsProductionLike())
	assert.Equal(t, 5*time.Second, cfg.HTTPClient.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTPClient.WriteTimeout)
	assert.True(t, cfg.HTTPClient.EnableLogging)
	assert.True(t, cfg.Retention.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "host=db port=5432 user=svc dbname=logs sslmode=disable", cfg.Database.DSN())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("MIDDLEWARE_DATABASE__URL", "postgres://localhost/middleware")
	t.Setenv("MIDDLEWARE_PRIMARY__ENV", "qa")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "validate config")
}

func TestLoadConfigRequiresDatabase(t *testing.T) {
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigInMemory(t *testing.T) {
	t.Setenv("MIDDLEWARE_DATABASE__IN_MEMORY", "true")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.True(t, cfg.Database.InMemory)
}

func TestObservabilityValidate(t *testing.T) {
	o := DefaultObservabilityConfig()
	assert.NoError(t, o.Validate())

	o.LogLevel = "loud"
	assert.Error(t, o.Validate())
}
