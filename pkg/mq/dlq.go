package mq

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

const (
	DLQExchangeName = "pm.events.dlq"
)

// DeclareDLQExchange declares the dead letter exchange.
func DeclareDLQExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		DLQExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}

// DLQQueueName is the dead letter queue paired with a work queue.
func DLQQueueName(queueName string) string {
	return fmt.Sprintf("%s.dlq", queueName)
}

// DeadLetterArgs routes rejected deliveries of a work queue to the DLQ exchange
// under their original routing key.
func DeadLetterArgs() amqp091.Table {
	return amqp091.Table{
		"x-dead-letter-exchange": DLQExchangeName,
	}
}

// DeclareDLQQueue declares the dead letter queue for queueName and binds it to
// the DLQ exchange for routingKey.
func DeclareDLQQueue(ch *amqp091.Channel, queueName, routingKey string) (amqp091.Queue, error) {
	q, err := ch.QueueDeclare(
		DLQQueueName(queueName),
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp091.Queue{}, fmt.Errorf("failed to declare DLQ queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, DLQExchangeName, false, nil); err != nil {
		return amqp091.Queue{}, fmt.Errorf("failed to bind DLQ queue: %w", err)
	}
	return q, nil
}
