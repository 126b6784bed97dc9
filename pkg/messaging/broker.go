package messaging

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BrokerConfig locates the AMQP broker.
type BrokerConfig struct {
	Host      string        `koanf:"host"`
	Port      int           `koanf:"port"`
	Username  string        `koanf:"username"`
	Password  string        `koanf:"password"`
	VHost     string        `koanf:"vhost"`
	TLS       bool          `koanf:"tls"`
	Heartbeat time.Duration `koanf:"heartbeat"`
}

// URL renders the config as an amqp:// or amqps:// URI.
func (c BrokerConfig) URL() string {
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		Vhost:    c.VHost,
	}
	if c.TLS {
		uri.Scheme = "amqps"
	}
	if uri.Host == "" {
		uri.Host = "localhost"
	}
	if uri.Port == 0 {
		uri.Port = 5672
		if c.TLS {
			uri.Port = 5671
		}
	}
	if uri.Vhost == "" {
		uri.Vhost = "/"
	}
	return uri.String()
}

// Dial opens a connection named after the service.
func Dial(cfg BrokerConfig, service string) (*amqp.Connection, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(service)
	heartbeat := cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 10 * time.Second
	}
	conn, err := amqp.DialConfig(cfg.URL(), amqp.Config{
		Heartbeat:  heartbeat,
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("dial broker %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return conn, nil
}
