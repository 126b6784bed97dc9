package messaging

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// MessageTTL is how long a message may wait on a main queue, in ms.
	MessageTTL = 30000
	// MaxRetries is recorded on every dead letter queue.
	MaxRetries = 3
)

type Exchange struct {
	Name    ExchangeName
	Kind    string
	Durable bool
}

type Queue struct {
	Name    QueueName
	Durable bool
	Args    amqp.Table
}

type Binding struct {
	Queue      QueueName
	Exchange   ExchangeName
	RoutingKey string
}

// Topology is the full set of exchanges, queues and bindings.
type Topology struct {
	Exchanges []Exchange
	Queues    []Queue
	Bindings  []Binding
}

// route pairs a main queue with the exchange it is published to.
var routes = []struct {
	queue    QueueName
	exchange ExchangeName
}{
	{QueueUserLogs, ExchangeLogging},
	{QueueSystemLogs, ExchangeLogging},
	{QueuePortalUser, ExchangeCreateUser},
}

// ExchangeFor returns the exchange a main queue is bound to.
func ExchangeFor(q QueueName) (ExchangeName, bool) {
	for _, r := range routes {
		if r.queue == q {
			return r.exchange, true
		}
	}
	return "", false
}

func DefaultTopology() Topology {
	var t Topology
	for _, x := range Exchanges {
		t.Exchanges = append(t.Exchanges, Exchange{Name: x, Kind: amqp.ExchangeDirect, Durable: true})
	}
	for _, r := range routes {
		dlq, _ := r.queue.DeadLetter()
		dlx, _ := r.exchange.DeadLetter()
		t.Queues = append(t.Queues,
			Queue{Name: r.queue, Durable: true, Args: amqp.Table{
				"x-dead-letter-exchange":    string(dlx),
				"x-dead-letter-routing-key": string(dlq),
				"x-message-ttl":             int32(MessageTTL),
			}},
			Queue{Name: dlq, Durable: true, Args: amqp.Table{
				"x-max-retries": int32(MaxRetries),
			}},
		)
		t.Bindings = append(t.Bindings,
			Binding{Queue: r.queue, Exchange: r.exchange, RoutingKey: string(r.queue)},
			Binding{Queue: dlq, Exchange: dlx, RoutingKey: string(dlq)},
		)
	}
	return t
}

// Declarer is the part of *amqp.Channel used to declare a topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

var _ Declarer = (*amqp.Channel)(nil)

// Declare creates every exchange, then every queue, then every binding.
// Declarations are idempotent on the broker.
func (t Topology) Declare(ch Declarer) error {
	for _, x := range t.Exchanges {
		if err := ch.ExchangeDeclare(string(x.Name), x.Kind, x.Durable, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", x.Name, err)
		}
	}
	for _, q := range t.Queues {
		if _, err := ch.QueueDeclare(string(q.Name), q.Durable, false, false, false, q.Args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.Name, err)
		}
	}
	for _, b := range t.Bindings {
		if err := ch.QueueBind(string(b.Queue), b.RoutingKey, string(b.Exchange), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.Exchange, err)
		}
	}
	return nil
}
