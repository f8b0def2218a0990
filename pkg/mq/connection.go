package mq

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "pm.events"

	dialMaxElapsed = 30 * time.Second
)

// NewConnection creates a new RabbitMQ connection, retrying the dial with
// exponential backoff while the broker comes up.
func NewConnection(url string) (*amqp091.Connection, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = dialMaxElapsed

	conn, err := backoff.RetryWithData(func() (*amqp091.Connection, error) {
		return amqp091.Dial(url)
	}, bo)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// DeclareExchange declares the workflow events exchange.
func DeclareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
