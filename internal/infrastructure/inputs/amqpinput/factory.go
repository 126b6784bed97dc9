package amqpinput

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/internal/infrastructure/inputs"
	"github.com/openrangelabs/middleware/pkg/messaging"
)

const defaultPrefetch = 20

// Factory creates queue consumers over channels from Open. Registers as
// "amqp".
type Factory struct {
	Open Opener
}

func (f *Factory) Name() string {
	return "amqp"
}

func (f *Factory) ConfigSpec() inputs.InputTypeInfo {
	return inputs.InputTypeInfo{
		Type:        "amqp",
		Description: "Broker queue consumer. Stores each message body in the input's target; failed messages go to the queue's dead letter queue.",
		Fields: []inputs.ConfigField{
			{Name: "queue", Type: "string", Required: true, Description: "Queue to consume; dead letter queues are not accepted", Example: string(messaging.QueueSystemLogs)},
			{Name: "consumer_tag", Type: "string", Required: false, Description: "Consumer tag shown by the broker", Example: "middleware-system-logs"},
			{Name: "prefetch", Type: "number", Required: false, Description: "Unacknowledged messages the broker may push", Example: "20"},
		},
	}
}

func (f *Factory) Create(cfg inputs.Config, sink inputs.Sink, logger zerolog.Logger) (inputs.MessageInput, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("amqp input: no broker connection")
	}
	queue, err := messaging.ParseQueueName(cfg.String("queue"))
	if err != nil {
		return nil, err
	}
	if queue.IsDeadLetter() {
		return nil, fmt.Errorf("amqp input: %s is a dead letter queue", queue)
	}
	prefetch, err := cfg.Int("prefetch", defaultPrefetch)
	if err != nil {
		return nil, err
	}
	tag := cfg.String("consumer_tag")
	if tag == "" {
		tag = cfg.String("description")
	}
	return NewInput(queue, tag, prefetch, f.Open, sink, logger), nil
}
