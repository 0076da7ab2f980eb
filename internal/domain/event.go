package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// JobOutputUpdate сообщает наблюдателям текущий набор выходных версий run.
//
// Событие создаётся заново для каждой рассылки и после неё не меняется.
// Наблюдатели не должны модифицировать Outputs.
type JobOutputUpdate struct {
	RunID uuid.UUID `json:"run_id"`

	// JobVersionID пустой, когда обновление пришло из записи dataset.
	JobVersionID *uuid.UUID `json:"job_version_id,omitempty"`

	Job JobID `json:"job"`

	// Outputs в порядке создания версий.
	Outputs []DatasetVersion `json:"outputs"`
}

// NewJobOutputUpdate строит событие по run и его выходам.
// Срез outputs копируется.
func NewJobOutputUpdate(run *Run, outputs []DatasetVersion) JobOutputUpdate {
	cloned := slices.Clone(outputs)
	if cloned == nil {
		cloned = []DatasetVersion{}
	}
	return JobOutputUpdate{
		RunID:   run.ID,
		Job:     run.Job,
		Outputs: cloned,
	}
}

// RunTransition сообщает о смене состояния run.
type RunTransition struct {
	RunID          uuid.UUID `json:"run_id"`
	Job            JobID     `json:"job"`
	From           RunState  `json:"from"`
	To             RunState  `json:"to"`
	TransitionedAt time.Time `json:"transitioned_at"`
}
