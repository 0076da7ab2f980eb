package mq

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Lineage/internal/domain"
)

// MessagePublisher публикует готовое сообщение. Реализуется Publisher.
type MessagePublisher interface {
	Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error
}

// Observer пересылает события NotificationBus в брокер.
//
// Реализует service.Observer и service.RunTransitionObserver.
// Ошибка публикации возвращается шине, которая её логирует и учитывает.
type Observer struct {
	publisher MessagePublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewObserver создаёт Observer поверх publisher.
func NewObserver(publisher MessagePublisher, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Name возвращает имя наблюдателя для логов и метрик.
func (o *Observer) Name() string { return "rabbitmq" }

// OnJobOutputUpdate публикует job.output.updated.
func (o *Observer) OnJobOutputUpdate(ctx context.Context, update domain.JobOutputUpdate) error {
	msg := NewJobOutputMessage(update, o.now())
	if err := o.publisher.Publish(ctx, ExchangeRuns, RoutingKeyJobOutputUpdated, msg); err != nil {
		return err
	}
	o.logger.Debug("job output update forwarded", "run_id", update.RunID, "outputs", len(update.Outputs))
	return nil
}

// OnRunTransition публикует run.transition с ключом по целевому состоянию.
func (o *Observer) OnRunTransition(ctx context.Context, tr domain.RunTransition) error {
	msg := NewRunTransitionMessage(tr, o.now())
	return o.publisher.Publish(ctx, ExchangeRuns, RunTransitionKey(tr.To), msg)
}
