package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQNotifier publishes status events to a durable queue. The external
// notification service consumes the queue and pushes to clients.
type RabbitMQNotifier struct {
	conn      *amqp.Connection
	queueName string
}

func NewRabbitMQNotifier(conn *amqp.Connection, queueName string) *RabbitMQNotifier {
	return &RabbitMQNotifier{
		conn:      conn,
		queueName: queueName,
	}
}

func (n *RabbitMQNotifier) NotifyStatus(ctx context.Context, event StatusEvent) error {
	ch, err := n.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		n.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare status queue failed: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		n.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish status event failed: %w", err)
	}
	return nil
}

var _ StatusNotifier = (*RabbitMQNotifier)(nil)
