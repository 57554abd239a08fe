package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeStepStarted   MessageType = "progress.step_started"
	MessageTypeStepCompleted MessageType = "progress.step_completed"
)

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// StepEventPayload — payload событий step_started и step_completed.
type StepEventPayload struct {
	UserID uuid.UUID `json:"user_id"`
	StepID uuid.UUID `json:"step_id"`
	FlowID uuid.UUID `json:"flow_id"`
	Status string    `json:"status"`

	// OccurredAt — время перехода (started_at или completed_at).
	OccurredAt time.Time `json:"occurred_at"`

	// Unblocked — шаги, ставшие доступными после complete.
	Unblocked []uuid.UUID `json:"unblocked_step_ids,omitempty"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// NewMessage создаёт конверт с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishStepStarted публикует событие о начатом шаге.
func (p *Publisher) PublishStepStarted(ctx context.Context, payload StepEventPayload) error {
	return p.Publish(ctx, ExchangeProgress, RoutingKeyStepStarted,
		NewMessage(MessageTypeStepStarted, payload))
}

// PublishStepCompleted публикует событие о завершённом шаге.
// Потребитель: unlock notifier.
func (p *Publisher) PublishStepCompleted(ctx context.Context, payload StepEventPayload) error {
	return p.Publish(ctx, ExchangeProgress, RoutingKeyStepCompleted,
		NewMessage(MessageTypeStepCompleted, payload))
}
