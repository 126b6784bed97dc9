// Package amqpinput consumes ingest payloads from a broker queue. A message
// is acknowledged once its payload is stored and rejected without requeue
// otherwise, so the broker moves it to the queue's dead letter queue.
package amqpinput

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/internal/infrastructure/inputs"
	"github.com/openrangelabs/middleware/pkg/messaging"
)

// Channel is the part of *amqp.Channel the consumer needs.
type Channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	ConsumeWithContext(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

var _ Channel = (*amqp.Channel)(nil)

// Opener returns a fresh channel per input.
type Opener func() (Channel, error)

// Input consumes one queue into a Sink.
type Input struct {
	queue    messaging.QueueName
	tag      string
	prefetch int
	open     Opener
	sink     inputs.Sink
	logger   zerolog.Logger

	mu     sync.Mutex
	ch     Channel
	cancel context.CancelFunc
	done   chan struct{}
}

func NewInput(queue messaging.QueueName, tag string, prefetch int, open Opener, sink inputs.Sink, logger zerolog.Logger) *Input {
	return &Input{
		queue:    queue,
		tag:      tag,
		prefetch: prefetch,
		open:     open,
		sink:     sink,
		logger:   logger.With().Str("input", "amqp").Str("queue", string(queue)).Logger(),
	}
}

func (i *Input) Queue() messaging.QueueName { return i.queue }

// Start opens a channel and begins consuming in the background.
func (i *Input) Start(ctx context.Context) error {
	ch, err := i.open()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if i.prefetch > 0 {
		if err := ch.Qos(i.prefetch, 0, false); err != nil {
			_ = ch.Close()
			return fmt.Errorf("set prefetch: %w", err)
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	deliveries, err := ch.ConsumeWithContext(ctx, string(i.queue), i.tag, false, false, false, false, nil)
	if err != nil {
		cancel()
		_ = ch.Close()
		return fmt.Errorf("consume %s: %w", i.queue, err)
	}

	i.mu.Lock()
	i.ch, i.cancel, i.done = ch, cancel, make(chan struct{})
	done := i.done
	i.mu.Unlock()

	go func() {
		defer close(done)
		i.consume(ctx, deliveries)
	}()
	i.logger.Info().Int("prefetch", i.prefetch).Msg("consuming")
	return nil
}

func (i *Input) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() == nil {
					i.logger.Warn().Msg("delivery channel closed by broker")
				}
				return
			}
			i.handle(ctx, d)
		}
	}
}

func (i *Input) handle(ctx context.Context, d amqp.Delivery) {
	if err := i.sink.Insert(ctx, d.Body); err != nil {
		i.logger.Error().
			Err(err).
			Str("message_id", d.MessageId).
			Str("correlation_id", d.CorrelationId).
			Msg("store message, dead-lettering")
		if err := d.Nack(false, false); err != nil {
			i.logger.Error().Err(err).Uint64("delivery_tag", d.DeliveryTag).Msg("nack")
		}
		return
	}
	if err := d.Ack(false); err != nil {
		i.logger.Error().Err(err).Uint64("delivery_tag", d.DeliveryTag).Msg("ack")
	}
}

// Stop cancels the consumer, waits for the in-flight message and closes
// the channel.
func (i *Input) Stop() error {
	i.mu.Lock()
	ch, cancel, done := i.ch, i.cancel, i.done
	i.ch, i.cancel, i.done = nil, nil, nil
	i.mu.Unlock()
	if ch == nil {
		return nil
	}
	cancel()
	<-done
	if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}
