package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/Lineage/internal/domain"
)

// MessageType: тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeJobOutputUpdated MessageType = "job.output.updated"
	MessageTypeRunTransition    MessageType = "run.transition"
)

// Message: конверт сообщения в брокере.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// OutputVersion: одна выходная версия в JobOutputPayload.
type OutputVersion struct {
	Namespace string    `json:"namespace"`
	Dataset   string    `json:"dataset"`
	Version   uuid.UUID `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// JobOutputPayload: payload сообщения job.output.updated.
type JobOutputPayload struct {
	RunID        uuid.UUID       `json:"run_id"`
	JobVersionID *uuid.UUID      `json:"job_version_id,omitempty"`
	Namespace    string          `json:"namespace"`
	Job          string          `json:"job"`
	Outputs      []OutputVersion `json:"outputs"`
}

// RunTransitionPayload: payload сообщения run.transition.
type RunTransitionPayload struct {
	RunID          uuid.UUID       `json:"run_id"`
	Namespace      string          `json:"namespace"`
	Job            string          `json:"job"`
	From           domain.RunState `json:"from"`
	To             domain.RunState `json:"to"`
	TransitionedAt time.Time       `json:"transitioned_at"`
}

// NewJobOutputMessage строит сообщение из JobOutputUpdate.
func NewJobOutputMessage(update domain.JobOutputUpdate, now time.Time) *Message {
	outputs := make([]OutputVersion, 0, len(update.Outputs))
	for _, v := range update.Outputs {
		outputs = append(outputs, OutputVersion{
			Namespace: v.DatasetID.Namespace,
			Dataset:   v.DatasetID.Name,
			Version:   v.Version,
			CreatedAt: v.CreatedAt,
		})
	}

	return &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeJobOutputUpdated,
		Payload: JobOutputPayload{
			RunID:        update.RunID,
			JobVersionID: update.JobVersionID,
			Namespace:    update.Job.Namespace,
			Job:          update.Job.Name,
			Outputs:      outputs,
		},
		Timestamp: now,
	}
}

// NewRunTransitionMessage строит сообщение из RunTransition.
func NewRunTransitionMessage(tr domain.RunTransition, now time.Time) *Message {
	return &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeRunTransition,
		Payload: RunTransitionPayload{
			RunID:          tr.RunID,
			Namespace:      tr.Job.Namespace,
			Job:            tr.Job.Name,
			From:           tr.From,
			To:             tr.To,
			TransitionedAt: tr.TransitionedAt,
		},
		Timestamp: now,
	}
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в exchange с ключом routingKey.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(exchange), string(routingKey), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         string(msg.Type),
			Timestamp:    msg.Timestamp,
			Body:         body,
		})
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
