package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/openrangelabs/middleware/pkg/model"
)

// Sender is the part of *amqp.Channel used to publish.
type Sender interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

var _ Sender = (*amqp.Channel)(nil)

// Publisher sends JSON payloads as persistent messages routed by queue name.
type Publisher struct {
	ch    Sender
	appID string
	now   func() time.Time
}

func NewPublisher(ch Sender, appID string) *Publisher {
	return &Publisher{ch: ch, appID: appID, now: time.Now}
}

// Publish routes payload to queue through the exchange the queue is bound
// to. An empty correlationID gets a fresh one.
func (p *Publisher) Publish(ctx context.Context, queue QueueName, correlationID string, payload any) error {
	exchange, ok := ExchangeFor(queue)
	if !ok {
		return fmt.Errorf("no exchange routes to queue %s", queue)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode message for %s: %w", queue, err)
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.NewString(),
		CorrelationId: correlationID,
		Timestamp:     p.now(),
		AppId:         p.appID,
		Body:          body,
	}
	if err := p.ch.PublishWithContext(ctx, string(exchange), string(queue), false, false, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// PublishUserEvent fills the event defaults and sends it to the portal
// user queue, keeping its event id as the message id.
func (p *Publisher) PublishUserEvent(ctx context.Context, ev model.UserEvent) (model.UserEvent, error) {
	ev = ev.WithDefaults(p.now())
	body, err := json.Marshal(ev)
	if err != nil {
		return ev, fmt.Errorf("encode user event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     ev.EventID,
		CorrelationId: ev.CorrelationID,
		Type:          ev.EventType,
		Timestamp:     ev.EventTimestamp,
		AppId:         p.appID,
		Body:          body,
	}
	if err := p.ch.PublishWithContext(ctx, string(ExchangeCreateUser), string(QueuePortalUser), false, false, msg); err != nil {
		return ev, fmt.Errorf("publish user event %s: %w", ev.EventID, err)
	}
	return ev, nil
}

func (p *Publisher) PublishUserLog(ctx context.Context, entry model.UserLog) error {
	return p.Publish(ctx, QueueUserLogs, "", entry)
}

func (p *Publisher) PublishSystemLog(ctx context.Context, entry model.SystemLog) error {
	return p.Publish(ctx, QueueSystemLogs, entry.CorrelationID, entry)
}
