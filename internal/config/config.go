package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	pkgenv "github.com/openrangelabs/middleware/pkg/env"
	"github.com/openrangelabs/middleware/pkg/httpclient"
	"github.com/openrangelabs/middleware/pkg/messaging"
)

const envPrefix = "MIDDLEWARE_"

type Config struct {
	Primary       Primary             `koanf:"primary" validate:"required"`
	Server        ServerConfig        `koanf:"server" validate:"required"`
	Database      DatabaseConfig      `koanf:"database" validate:"required"`
	HTTPClient    httpclient.Config   `koanf:"http_client"`
	Messaging     MessagingConfig     `koanf:"messaging"`
	Retention     RetentionConfig     `koanf:"retention"`
	Archive       ArchiveConfig       `koanf:"archive"`
	Inputs        InputsConfig        `koanf:"inputs"`
	Observability ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required,environment"`
}

// Environment returns the parsed deployment environment.
func (p Primary) Environment() pkgenv.Environment {
	e, err := pkgenv.Parse(p.Env)
	if err != nil {
		return pkgenv.Development
	}
	return e
}

type ServerConfig struct {
	Port               string        `koanf:"port" validate:"required"`
	ReadTimeout        time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout       time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout        time.Duration `koanf:"idle_timeout" validate:"required"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout" validate:"required"`
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins"`
}

// DatabaseConfig selects PostgreSQL, or the in-memory stores when InMemory
// is set.
type DatabaseConfig struct {
	InMemory        bool          `koanf:"in_memory"`
	URL             string        `koanf:"url"`
	Host            string        `koanf:"host" validate:"required_without_all=URL InMemory"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user" validate:"required_without_all=URL InMemory"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name" validate:"required_without_all=URL InMemory"`
	SSLMode         string        `koanf:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns        int32         `koanf:"max_conns" validate:"min=1"`
	MinConns        int32         `koanf:"min_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	Migrate         bool          `koanf:"migrate"`
}

// DSN returns URL when set, otherwise a key/value connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	parts := []string{
		"host=" + d.Host,
		fmt.Sprintf("port=%d", d.Port),
		"user=" + d.User,
		"dbname=" + d.Name,
		"sslmode=" + d.SSLMode,
	}
	if d.Password != "" {
		parts = append(parts, "password="+d.Password)
	}
	return strings.Join(parts, " ")
}

type MessagingConfig struct {
	Enabled         bool                   `koanf:"enabled"`
	Broker          messaging.BrokerConfig `koanf:"broker"`
	DeclareTopology bool                   `koanf:"declare_topology"`
	Consume         bool                   `koanf:"consume"`
	Prefetch        int                    `koanf:"prefetch" validate:"min=0"`
}

type RetentionConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Interval         time.Duration `koanf:"interval" validate:"required_if=Enabled true"`
	UserLogMaxAge    time.Duration `koanf:"user_log_max_age"`
	SystemLogMaxAge  time.Duration `koanf:"system_log_max_age"`
	PortalUserMaxAge time.Duration `koanf:"portal_user_max_age"`
}

// ArchiveConfig points at an S3-compatible bucket. Archiving is off while
// Endpoint or Bucket is empty.
type ArchiveConfig struct {
	Endpoint  string `koanf:"endpoint"`
	Region    string `koanf:"region"`
	Bucket    string `koanf:"bucket"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Prefix    string `koanf:"prefix"`
}

func (a ArchiveConfig) Enabled() bool { return a.Endpoint != "" && a.Bucket != "" }

type InputsConfig struct {
	HTTPEnabled bool   `koanf:"http_enabled"`
	BasePath    string `koanf:"base_path"`
}

type NewRelicConfig struct {
	LicenseKey string `koanf:"license_key"`
	AppName    string `koanf:"app_name"`
}

type ObservabilityConfig struct {
	ServiceName string         `koanf:"service_name" validate:"required"`
	Environment string         `koanf:"-"`
	LogLevel    string         `koanf:"log_level" validate:"required"`
	DBLogLevel  string         `koanf:"db_log_level"`
	NewRelic    NewRelicConfig `koanf:"new_relic"`
}

func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		ServiceName: "middleware",
		LogLevel:    "info",
		DBLogLevel:  "warn",
	}
}

// Validate checks the level names, which the struct tags cannot express.
func (o ObservabilityConfig) Validate() error {
	if _, err := zerologLevel(o.LogLevel); err != nil {
		return fmt.Errorf("observability.log_level: %w", err)
	}
	if o.DBLogLevel != "" {
		if _, err := zerologLevel(o.DBLogLevel); err != nil {
			return fmt.Errorf("observability.db_log_level: %w", err)
		}
	}
	return nil
}

func zerologLevel(s string) (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
}

func (o ObservabilityConfig) NewRelicEnabled() bool { return o.NewRelic.LicenseKey != "" }

// Defaults returns the configuration used for every key the environment
// leaves unset.
func Defaults() Config {
	return Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxConns:        10,
			MinConns:        1,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
			Migrate:         true,
		},
		HTTPClient: httpclient.DefaultConfig(),
		Messaging: MessagingConfig{
			Broker:          messaging.BrokerConfig{Host: "localhost", Port: 5672, Username: "guest", Password: "guest", VHost: "/"},
			DeclareTopology: true,
			Prefetch:        20,
		},
		Retention: RetentionConfig{
			Interval:         24 * time.Hour,
			UserLogMaxAge:    365 * 24 * time.Hour,
			SystemLogMaxAge:  90 * 24 * time.Hour,
			PortalUserMaxAge: 3 * 365 * 24 * time.Hour,
		},
		Archive:       ArchiveConfig{Region: "us-east-1", Prefix: "system-logs"},
		Inputs:        InputsConfig{HTTPEnabled: true, BasePath: "/ingest"},
		Observability: DefaultObservabilityConfig(),
	}
}

// listKeys hold comma separated values in the environment.
var listKeys = map[string]bool{"server.cors_allowed_origins": true}

// envKey maps MIDDLEWARE_DATABASE__MAX_CONNS to database.max_conns.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

// LoadConfig overlays MIDDLEWARE_* environment variables on Defaults and
// validates the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = envKey(key)
		if listKeys[key] {
			var items []string
			for _, v := range strings.Split(value, ",") {
				if v = strings.TrimSpace(v); v != "" {
					items = append(items, v)
				}
			}
			return key, items
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env variables: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	if e, err := pkgenv.Parse(cfg.Primary.Env); err == nil {
		cfg.Primary.Env = e.String()
	}
	cfg.Observability.Environment = cfg.Primary.Env
	return &cfg, nil
}

// Validate runs the struct tags and the observability checks.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.RegisterValidation("environment", func(fl validator.FieldLevel) bool {
		return pkgenv.IsValid(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.Observability.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}
