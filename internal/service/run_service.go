package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Lineage/internal/domain"
	"github.com/shaiso/Lineage/internal/telemetry"
)

// RunStore: хранилище runs для RunService.
type RunStore interface {
	RunFinder
	CreateRun(ctx context.Context, run *domain.Run) error
	UpdateRunState(ctx context.Context, run *domain.Run) error
}

// TransitionDispatcher рассылает смены состояния run.
type TransitionDispatcher interface {
	DispatchRunTransition(ctx context.Context, tr domain.RunTransition) error
}

// RunService управляет жизненным циклом runs.
//
// В отличие от записи dataset, смена состояния сначала сохраняется,
// а затем рассылается: наблюдатели получают уже применённый переход.
type RunService struct {
	store  RunStore
	runs   *RunResolver
	bus    TransitionDispatcher
	logger *slog.Logger
	now    func() time.Time
}

// RunServiceConfig: конфигурация RunService.
type RunServiceConfig struct {
	Store  RunStore
	Bus    TransitionDispatcher
	Now    func() time.Time
	Logger *slog.Logger
}

// NewRunService создаёт RunService.
func NewRunService(cfg RunServiceConfig) *RunService {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RunService{
		store:  cfg.Store,
		runs:   NewRunResolver(cfg.Store),
		bus:    cfg.Bus,
		logger: logger,
		now:    now,
	}
}

// CreateRunRequest: параметры нового run.
type CreateRunRequest struct {
	Job              domain.JobID
	Args             map[string]string
	NominalStartTime *time.Time
	NominalEndTime   *time.Time
}

// CreateRun создаёт run в состоянии NEW.
func (s *RunService) CreateRun(ctx context.Context, req CreateRunRequest) (*domain.Run, error) {
	if err := domain.ValidateNamespace(req.Job.Namespace); err != nil {
		return nil, err
	}
	if err := domain.ValidateName("job", req.Job.Name); err != nil {
		return nil, err
	}
	if req.NominalStartTime != nil && req.NominalEndTime != nil && req.NominalEndTime.Before(*req.NominalStartTime) {
		return nil, &domain.ValidationError{Field: "nominal_end_time", Reason: "must not be before nominal_start_time"}
	}

	run := domain.NewRun(req.Job, req.Args, s.now())
	run.NominalStartTime = req.NominalStartTime
	run.NominalEndTime = req.NominalEndTime

	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	telemetry.WithJob(s.logger, run.Job.Namespace, run.Job.Name).Info("run created", "run_id", run.ID)
	return run, nil
}

// GetRun возвращает run или ErrRunNotFound.
func (s *RunService) GetRun(ctx context.Context, runID uuid.UUID) (*domain.Run, error) {
	return s.runs.Resolve(ctx, runID)
}

// MarkRunAs переводит run в состояние next и уведомляет наблюдателей.
func (s *RunService) MarkRunAs(ctx context.Context, runID uuid.UUID, next domain.RunState) (*domain.Run, error) {
	run, err := s.runs.Resolve(ctx, runID)
	if err != nil {
		return nil, err
	}

	tr, err := run.TransitionTo(next, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateRunState(ctx, run); err != nil {
		return nil, err
	}

	logger := telemetry.WithRunID(telemetry.WithJob(s.logger, run.Job.Namespace, run.Job.Name), run.ID.String())
	logger.Info("run state changed", "from", tr.From, "to", tr.To)

	if s.bus != nil {
		if err := s.bus.DispatchRunTransition(ctx, tr); err != nil {
			logger.Warn("run transition dispatch interrupted", "error", err)
		}
	}
	return run, nil
}
