package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Lineage/internal/domain"
	"github.com/shaiso/Lineage/internal/telemetry"
)

// DatasetWriter выполняет upsert dataset в каталоге.
type DatasetWriter interface {
	UpsertDatasetMeta(ctx context.Context, id domain.DatasetID, meta domain.DatasetMeta, now time.Time) (*domain.Dataset, error)
}

// CatalogStore: всё, что DatasetService нужно от хранилища.
type CatalogStore interface {
	RunFinder
	OutputVersionFinder
	DatasetWriter
}

// MetricsSink принимает счётчики каталога. Вызовы не должны блокировать.
type MetricsSink interface {
	IncDatasetCount(namespace string, datasetType domain.DatasetType)
	IncVersionCount(namespace string, datasetType domain.DatasetType, dataset string)
}

// Dispatcher рассылает JobOutputUpdate. Реализуется NotificationBus.
type Dispatcher interface {
	Dispatch(ctx context.Context, update domain.JobOutputUpdate) error
}

// NopMetrics игнорирует все счётчики.
type NopMetrics struct{}

// IncDatasetCount ничего не делает.
func (NopMetrics) IncDatasetCount(string, domain.DatasetType) {}

// IncVersionCount ничего не делает.
func (NopMetrics) IncVersionCount(string, domain.DatasetType, string) {}

// DatasetService записывает метаданные datasets и уведомляет наблюдателей
// о выходах run, к которому относится запись.
//
// Если в метаданных указан run, событие JobOutputUpdate рассылается
// до записи в каталог: наблюдатели видят выходы run в состоянии
// "до изменения".
type DatasetService struct {
	store    DatasetWriter
	runs     *RunResolver
	outputs  *OutputVersionResolver
	bus      Dispatcher
	metrics  MetricsSink
	logger   *slog.Logger
	now      func() time.Time
	legacyOn bool
}

// DatasetServiceConfig: конфигурация DatasetService.
type DatasetServiceConfig struct {
	Store CatalogStore
	Bus   Dispatcher

	// Metrics: приёмник счётчиков (по умолчанию NopMetrics).
	Metrics MetricsSink

	// LegacyWrites разрешает устаревший CreateOrUpdate.
	LegacyWrites bool

	// Now: источник времени (для тестов).
	Now func() time.Time

	Logger *slog.Logger
}

// NewDatasetService создаёт DatasetService.
func NewDatasetService(cfg DatasetServiceConfig) *DatasetService {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}

	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var bus Dispatcher = cfg.Bus
	if bus == nil {
		bus = NewNotificationBus(BusConfig{Logger: logger})
	}

	return &DatasetService{
		store:    cfg.Store,
		runs:     NewRunResolver(cfg.Store),
		outputs:  NewOutputVersionResolver(cfg.Store),
		bus:      bus,
		metrics:  metrics,
		logger:   logger,
		now:      now,
		legacyOn: cfg.LegacyWrites,
	}
}

// UpsertDataset создаёт или обновляет dataset.
//
// Порядок:
//  1. валидация (до любых обращений к хранилищу)
//  2. если указан run: загрузка run, его выходов и рассылка JobOutputUpdate
//  3. если контекст отменён во время рассылки, запись не выполняется
//  4. upsert в каталоге и счётчики
func (s *DatasetService) UpsertDataset(ctx context.Context, namespace, name string, meta domain.DatasetMeta) (*domain.Dataset, error) {
	if err := domain.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if err := domain.ValidateName("dataset", name); err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	id := domain.DatasetID{Namespace: namespace, Name: name}
	logger := telemetry.WithDataset(s.logger, id.Namespace, id.Name)

	if runID, ok := meta.RunID.Get(); ok {
		run, err := s.runs.Resolve(ctx, runID)
		if err != nil {
			return nil, err
		}

		outputs, err := s.outputs.OutputsFor(ctx, runID)
		if err != nil {
			return nil, err
		}

		update := domain.NewJobOutputUpdate(run, outputs)
		if err := s.bus.Dispatch(ctx, update); err != nil {
			logger.Warn("dispatch interrupted, dataset not written", "run_id", runID, "error", err)
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logger.Debug("job output update dispatched",
			"run_id", runID,
			"job", run.Job.String(),
			"outputs", len(update.Outputs),
		)
	}

	logger.Info("creating or updating dataset",
		"type", meta.Type,
		"physical_name", meta.PhysicalName,
		"source_name", meta.SourceName,
		"run_id", meta.RunID.String(),
	)

	dataset, err := s.store.UpsertDatasetMeta(ctx, id, meta, s.now())
	if err != nil {
		return nil, err
	}

	s.metrics.IncDatasetCount(namespace, meta.Type)
	s.metrics.IncVersionCount(namespace, meta.Type, name)

	return dataset, nil
}

// CreateOrUpdate: устаревшая точка входа REST API v1.
//
// Deprecated: используйте UpsertDataset. Работает, только если включён
// LegacyWrites; семантика уведомлений та же, что у UpsertDataset.
func (s *DatasetService) CreateOrUpdate(ctx context.Context, namespace, name string, meta domain.DatasetMeta) (*domain.Dataset, error) {
	if !s.legacyOn {
		return nil, ErrLegacyWritesDisabled
	}
	return s.UpsertDataset(ctx, namespace, name, meta)
}

// LegacyWritesEnabled сообщает, доступен ли CreateOrUpdate.
func (s *DatasetService) LegacyWritesEnabled() bool {
	return s.legacyOn
}
