package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run: один запуск job.
//
// Идентичность run (ID и job) неизменна после создания,
// меняется только состояние.
type Run struct {
	// ID: уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Job: job, к которому относится run.
	Job JobID `json:"job"`

	// State: текущее состояние.
	State RunState `json:"state"`

	// Args: аргументы запуска, переданные клиентом.
	Args map[string]string `json:"args,omitempty"`

	// NominalStartTime и NominalEndTime задают интервал данных,
	// который обрабатывает run (для запусков по расписанию).
	NominalStartTime *time.Time `json:"nominal_start_time,omitempty"`
	NominalEndTime   *time.Time `json:"nominal_end_time,omitempty"`

	// StartedAt: время перехода в RUNNING.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// EndedAt: время перехода в финальное состояние.
	EndedAt *time.Time `json:"ended_at,omitempty"`

	// CreatedAt: время создания run.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt: время последнего изменения состояния.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRun создаёт run в состоянии NEW.
func NewRun(job JobID, args map[string]string, now time.Time) *Run {
	return &Run{
		ID:        uuid.New(),
		Job:       job,
		State:     RunStateNew,
		Args:      args,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.EndedAt == nil {
		return 0
	}
	return r.EndedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.State.IsTerminal()
}

// TransitionTo переводит run в состояние next.
// Возвращает ErrInvalidTransition, если переход недопустим.
func (r *Run) TransitionTo(next RunState, at time.Time) (RunTransition, error) {
	if !r.State.CanTransitionTo(next) {
		return RunTransition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, next)
	}

	tr := RunTransition{
		RunID:          r.ID,
		Job:            r.Job,
		From:           r.State,
		To:             next,
		TransitionedAt: at,
	}

	r.State = next
	r.UpdatedAt = at
	if next == RunStateRunning {
		r.StartedAt = &at
	}
	if next.IsTerminal() {
		r.EndedAt = &at
	}
	return tr, nil
}
