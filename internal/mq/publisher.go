package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/FNNDSC/pl-dylld/internal/domain"
)

// MessageType — тип сообщения.
type MessageType string

// Типы сообщений.
const (
	MessageTypeBranchStarted  MessageType = "branch.started"
	MessageTypeBranchFinished MessageType = "branch.finished"
)

// Message — конверт события.
type Message struct {
	ID        string             `json:"id"`
	Type      MessageType        `json:"type"`
	Payload   domain.BranchEvent `json:"payload"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewMessage оборачивает событие ветки в Message.
func NewMessage(t MessageType, event domain.BranchEvent) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   event,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher публикует события веток.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger.With("component", "publisher")}
}

// Publish публикует msg в ExchangeBranches с ключом key.
func (p *Publisher) Publish(ctx context.Context, key RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(ExchangeBranches), string(key), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Type:         string(msg.Type),
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", ExchangeBranches, key, err)
		}

		p.logger.Debug("published message",
			"routing_key", key,
			"message_id", msg.ID,
			"type", msg.Type,
			"branch", msg.Payload.Branch,
		)
		return nil
	})
}

// BranchStarted публикует начало роста ветки.
func (p *Publisher) BranchStarted(ctx context.Context, event domain.BranchEvent) error {
	return p.Publish(ctx, RoutingKeyStarted, NewMessage(MessageTypeBranchStarted, event))
}

// BranchFinished публикует завершение ветки.
func (p *Publisher) BranchFinished(ctx context.Context, event domain.BranchEvent) error {
	return p.Publish(ctx, RoutingKeyFinished, NewMessage(MessageTypeBranchFinished, event))
}
