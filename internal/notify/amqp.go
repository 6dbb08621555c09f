package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/remindly/remind-api/internal/models"
)

const (
	amqpExchange   = "reminders"
	amqpRoutingKey = "reminder.due"
)

// AMQPHandler publishes due reminders to a RabbitMQ exchange so downstream
// consumers (mobile push, chat bots) can deliver them
type AMQPHandler struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPHandler connects to RabbitMQ and declares the reminders exchange
func NewAMQPHandler(url string) (*AMQPHandler, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		amqpExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPHandler{conn: conn, channel: channel}, nil
}

// Name identifies the handler in logs
func (h *AMQPHandler) Name() string { return "amqp" }

// Deliver publishes the reminder as a persistent JSON message
func (h *AMQPHandler) Deliver(ctx context.Context, task *models.Task, message string) error {
	payload := webhookPayload{
		TaskID:      task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		DueAt:       task.DueAt.UTC().Format(time.RFC3339),
		Priority:    string(task.Priority),
		Tags:        task.Tags,
		Location:    task.Location,
		Message:     message,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder message: %w", err)
	}

	err = h.channel.PublishWithContext(ctx,
		amqpExchange,
		amqpRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    task.ID.String(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish reminder: %w", err)
	}

	return nil
}

// Close closes the channel and connection
func (h *AMQPHandler) Close() error {
	if err := h.channel.Close(); err != nil {
		_ = h.conn.Close()
		return fmt.Errorf("failed to close channel: %w", err)
	}
	if err := h.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

var _ Handler = (*AMQPHandler)(nil)
