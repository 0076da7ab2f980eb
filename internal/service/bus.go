package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/Lineage/internal/domain"
)

// Observer получает обновления выходов run.
type Observer interface {
	OnJobOutputUpdate(ctx context.Context, update domain.JobOutputUpdate) error
}

// RunTransitionObserver дополнительно получает смены состояния run.
// Наблюдатель может реализовать только Observer.
type RunTransitionObserver interface {
	OnRunTransition(ctx context.Context, transition domain.RunTransition) error
}

// ObserverFunc позволяет использовать функцию как Observer.
type ObserverFunc func(ctx context.Context, update domain.JobOutputUpdate) error

// OnJobOutputUpdate вызывает f.
func (f ObserverFunc) OnJobOutputUpdate(ctx context.Context, update domain.JobOutputUpdate) error {
	return f(ctx, update)
}

// FailureRecorder учитывает сбои наблюдателей (метрики).
type FailureRecorder interface {
	IncObserverFailure(observer string)
}

// NotificationBus рассылает события зарегистрированным наблюдателям.
//
// Рассылка синхронная: наблюдатели вызываются по очереди, в порядке
// регистрации, в горутине вызывающего. Сбой наблюдателя (ошибка или
// паника) логируется, рассылка продолжается.
//
// Регистрация ожидается при старте сервиса. Mutex обеспечивает
// безопасную публикацию набора наблюдателей.
type NotificationBus struct {
	mu        sync.RWMutex
	observers []Observer

	failures FailureRecorder
	logger   *slog.Logger
}

// BusConfig: конфигурация NotificationBus.
type BusConfig struct {
	// Failures: учёт сбоев (опционально).
	Failures FailureRecorder

	Logger *slog.Logger
}

// NewNotificationBus создаёт пустую шину.
func NewNotificationBus(cfg BusConfig) *NotificationBus {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationBus{
		failures: cfg.Failures,
		logger:   logger,
	}
}

// Register добавляет наблюдателя в конец списка.
func (b *NotificationBus) Register(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// Len возвращает число наблюдателей.
func (b *NotificationBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers)
}

// snapshot возвращает копию списка наблюдателей.
func (b *NotificationBus) snapshot() []Observer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Observer, len(b.observers))
	copy(out, b.observers)
	return out
}

// Dispatch вызывает OnJobOutputUpdate у всех наблюдателей.
//
// Ошибки наблюдателей не возвращаются. Возвращается только ctx.Err(),
// если контекст отменён до завершения рассылки; оставшиеся
// наблюдатели в этом случае не вызываются.
func (b *NotificationBus) Dispatch(ctx context.Context, update domain.JobOutputUpdate) error {
	logger := b.logger.With("event", "job_output_update", "run_id", update.RunID)

	for _, o := range b.snapshot() {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.invoke(logger, o, "job_output_update", func() error {
			return o.OnJobOutputUpdate(ctx, update)
		})
	}
	return ctx.Err()
}

// DispatchRunTransition рассылает смену состояния run наблюдателям,
// которые реализуют RunTransitionObserver. Правила те же, что у Dispatch.
func (b *NotificationBus) DispatchRunTransition(ctx context.Context, tr domain.RunTransition) error {
	logger := b.logger.With("event", "run_transition", "run_id", tr.RunID)

	for _, o := range b.snapshot() {
		rto, ok := o.(RunTransitionObserver)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		b.invoke(logger, o, "run_transition", func() error {
			return rto.OnRunTransition(ctx, tr)
		})
	}
	return ctx.Err()
}

// invoke вызывает наблюдателя, перехватывая ошибку и панику.
func (b *NotificationBus) invoke(logger *slog.Logger, o Observer, event string, call func() error) {
	name := observerName(o)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return call()
	}()
	if err == nil {
		return
	}

	dispatchErr := &ObserverDispatchError{Observer: name, Event: event, Err: err}
	logger.Error("observer failed", "observer", name, "error", dispatchErr)
	if b.failures != nil {
		b.failures.IncObserverFailure(name)
	}
}

// observerName возвращает имя наблюдателя для логов и метрик.
func observerName(o Observer) string {
	if n, ok := o.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", o)
}
