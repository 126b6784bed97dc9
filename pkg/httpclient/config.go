package httpclient

import "time"

// Config describes the connection pool, timeouts and default headers of the
// clients built by a Factory.
type Config struct {
	Domain                string        `koanf:"domain"`
	ConnectTimeout        time.Duration `koanf:"connect_timeout"`
	ReadTimeout           time.Duration `koanf:"read_timeout"`
	WriteTimeout          time.Duration `koanf:"write_timeout"`
	MaxConnections        int           `koanf:"max_connections" validate:"min=0"`
	KeepAlive             time.Duration `koanf:"keep_alive"`
	MaxLifetime           time.Duration `koanf:"max_lifetime"`
	PendingAcquireTimeout time.Duration `koanf:"pending_acquire_timeout"`
	EvictInterval         time.Duration `koanf:"evict_interval"`
	PoolName              string        `koanf:"pool_name"`
	UserAgent             string        `koanf:"user_agent"`
	EnableLogging         bool          `koanf:"enable_logging"`
}

func DefaultConfig() Config {
	return Config{
		Domain:                "http://localhost",
		ConnectTimeout:        10 * time.Second,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		MaxConnections:        100,
		KeepAlive:             5 * time.Minute,
		MaxLifetime:           5 * time.Minute,
		PendingAcquireTimeout: 60 * time.Second,
		EvictInterval:         120 * time.Second,
		PoolName:              "custom",
		UserAgent:             "OpenRangeLabs-Middleware/1.0",
	}
}

// withDefaults fills every zero field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Domain == "" {
		c.Domain = d.Domain
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = d.MaxConnections
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = d.KeepAlive
	}
	if c.MaxLifetime <= 0 {
		c.MaxLifetime = d.MaxLifetime
	}
	if c.PendingAcquireTimeout <= 0 {
		c.PendingAcquireTimeout = d.PendingAcquireTimeout
	}
	if c.EvictInterval <= 0 {
		c.EvictInterval = d.EvictInterval
	}
	if c.PoolName == "" {
		c.PoolName = d.PoolName
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}
