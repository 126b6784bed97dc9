package inputs

import "github.com/rs/zerolog"

// Factory creates a MessageInput from config and sink.
// Each input type (http, amqp) implements and registers a Factory.
// ConfigSpec declares which configuration fields this input type needs.
type Factory interface {
	Name() string
	ConfigSpec() InputTypeInfo
	Create(cfg Config, sink Sink, logger zerolog.Logger) (MessageInput, error)
}
