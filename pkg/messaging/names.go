// Package messaging holds the queue and exchange names of the logging and
// user provisioning flows and declares them on an AMQP broker.
package messaging

import (
	"strings"

	"github.com/openrangelabs/middleware/pkg/apperrors"
)

const (
	deadLetterQueueSuffix    = "-dlq"
	deadLetterExchangeSuffix = "-dlx"
)

type QueueName string

const (
	QueueUserLogs      QueueName = "q.logs-user"
	QueueUserLogsDLQ   QueueName = "q.logs-user-dlq"
	QueueSystemLogs    QueueName = "q.logs-system"
	QueueSystemLogsDLQ QueueName = "q.logs-system-dlq"
	QueuePortalUser    QueueName = "q.portal-user"
	QueuePortalUserDLQ QueueName = "q.portal-user-dlq"
)

var Queues = []QueueName{
	QueueUserLogs, QueueUserLogsDLQ,
	QueueSystemLogs, QueueSystemLogsDLQ,
	QueuePortalUser, QueuePortalUserDLQ,
}

var queueDescriptions = map[QueueName]string{
	QueueUserLogs:      "Queue for user activity logs",
	QueueUserLogsDLQ:   "Dead letter queue for user logs",
	QueueSystemLogs:    "Queue for system logs",
	QueueSystemLogsDLQ: "Dead letter queue for system logs",
	QueuePortalUser:    "Queue for portal user operations",
	QueuePortalUserDLQ: "Dead letter queue for portal user operations",
}

// ParseQueueName matches s exactly; queue names are case-sensitive.
func ParseQueueName(s string) (QueueName, error) {
	if _, ok := queueDescriptions[QueueName(s)]; ok {
		return QueueName(s), nil
	}
	return "", apperrors.NewInvalidValue("queue name", s)
}

func IsValidQueueName(s string) bool {
	_, ok := queueDescriptions[QueueName(s)]
	return ok
}

func (q QueueName) String() string      { return string(q) }
func (q QueueName) Description() string { return queueDescriptions[q] }

func (q QueueName) IsDeadLetter() bool {
	return strings.HasSuffix(string(q), deadLetterQueueSuffix)
}

// DeadLetter returns the dead letter queue of a main queue. It reports false
// for dead letter queues and unknown names.
func (q QueueName) DeadLetter() (QueueName, bool) {
	if q.IsDeadLetter() {
		return "", false
	}
	dlq := QueueName(string(q) + deadLetterQueueSuffix)
	if !IsValidQueueName(string(dlq)) {
		return "", false
	}
	return dlq, true
}

type ExchangeName string

const (
	ExchangeLogging       ExchangeName = "x.logging"
	ExchangeLoggingDLX    ExchangeName = "x.logging-dlx"
	ExchangeCreateUser    ExchangeName = "x.create-user"
	ExchangeCreateUserDLX ExchangeName = "x.create-user-dlx"
)

var Exchanges = []ExchangeName{ExchangeLogging, ExchangeLoggingDLX, ExchangeCreateUser, ExchangeCreateUserDLX}

var exchangeDescriptions = map[ExchangeName]string{
	ExchangeLogging:       "Main exchange for logging messages",
	ExchangeLoggingDLX:    "Dead letter exchange for logging messages",
	ExchangeCreateUser:    "Exchange for user creation events",
	ExchangeCreateUserDLX: "Dead letter exchange for user creation events",
}

func ParseExchangeName(s string) (ExchangeName, error) {
	if _, ok := exchangeDescriptions[ExchangeName(s)]; ok {
		return ExchangeName(s), nil
	}
	return "", apperrors.NewInvalidValue("exchange name", s)
}

func IsValidExchangeName(s string) bool {
	_, ok := exchangeDescriptions[ExchangeName(s)]
	return ok
}

func (x ExchangeName) String() string      { return string(x) }
func (x ExchangeName) Description() string { return exchangeDescriptions[x] }

func (x ExchangeName) IsDeadLetter() bool {
	return strings.HasSuffix(string(x), deadLetterExchangeSuffix)
}

// DeadLetter returns the dead letter exchange of a main exchange.
func (x ExchangeName) DeadLetter() (ExchangeName, bool) {
	if x.IsDeadLetter() {
		return "", false
	}
	dlx := ExchangeName(string(x) + deadLetterExchangeSuffix)
	if !IsValidExchangeName(string(dlx)) {
		return "", false
	}
	return dlx, true
}
