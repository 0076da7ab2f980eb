package mq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/Lineage/internal/domain"
)

// Exchange: имя обменника.
type Exchange string

// Queue: имя очереди.
type Queue string

// RoutingKey: ключ маршрутизации.
type RoutingKey string

// Обменники.
const (
	ExchangeRuns Exchange = "lineage.runs"
	ExchangeDLQ  Exchange = "lineage.dlq"
)

// Очереди.
const (
	QueueJobOutputs     Queue = "lineage.job_outputs"
	QueueRunTransitions Queue = "lineage.run_transitions"
	QueueDLQ            Queue = "lineage.dlq.events"
)

// Ключи маршрутизации.
const (
	RoutingKeyJobOutputUpdated RoutingKey = "job.output.updated"

	// RoutingKeyRunTransitions связывает все переходы run.
	RoutingKeyRunTransitions RoutingKey = "run.transition.*"

	RoutingKeyDLQ RoutingKey = "events"
)

// RunTransitionKey возвращает ключ для перехода в состояние to,
// например run.transition.completed.
func RunTransitionKey(to domain.RunState) RoutingKey {
	return RoutingKey("run.transition." + strings.ToLower(string(to)))
}

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// Topology описывает обменники, очереди и привязки каталога.
type Topology struct {
	exchanges []exchangeDecl
	queues    []queueDecl
	bindings  []bindingDecl
}

// DefaultTopology возвращает топологию каталога.
//
// Обе очереди событий отправляют отклонённые сообщения в lineage.dlq.
func DefaultTopology() Topology {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQ),
	}

	return Topology{
		exchanges: []exchangeDecl{
			{ExchangeRuns, amqp.ExchangeTopic},
			{ExchangeDLQ, amqp.ExchangeDirect},
		},
		queues: []queueDecl{
			{QueueJobOutputs, dlqArgs},
			{QueueRunTransitions, dlqArgs},
			{QueueDLQ, nil},
		},
		bindings: []bindingDecl{
			{QueueJobOutputs, RoutingKeyJobOutputUpdated, ExchangeRuns},
			{QueueRunTransitions, RoutingKeyRunTransitions, ExchangeRuns},
			{QueueDLQ, RoutingKeyDLQ, ExchangeDLQ},
		},
	}
}

// SetupTopology объявляет DefaultTopology. Операции идемпотентны.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return DefaultTopology().declare(ch)
	})
}

func (t Topology) declare(ch *amqp.Channel) error {
	for _, ex := range t.exchanges {
		// durable, не auto-delete, не internal
		if err := ch.ExchangeDeclare(string(ex.name), ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	for _, q := range t.queues {
		if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	for _, b := range t.bindings {
		if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}

// String возвращает описание топологии для логирования.
func (t Topology) String() string {
	var b strings.Builder
	for _, ex := range t.exchanges {
		fmt.Fprintf(&b, "%s (%s)\n", ex.name, ex.kind)
		for _, bind := range t.bindings {
			if bind.exchange == ex.name {
				fmt.Fprintf(&b, "  -> %s [routing: %s]\n", bind.queue, bind.routingKey)
			}
		}
	}
	return b.String()
}
