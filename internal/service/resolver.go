package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Lineage/internal/domain"
	"github.com/shaiso/Lineage/internal/repo"
)

// RunFinder загружает run по ID.
// Если run нет, возвращает repo.ErrNotFound.
type RunFinder interface {
	FindRun(ctx context.Context, id uuid.UUID) (*domain.Run, error)
}

// OutputVersionFinder возвращает версии, записанные run.
type OutputVersionFinder interface {
	FindOutputDatasetVersions(ctx context.Context, runID uuid.UUID) ([]domain.DatasetVersion, error)
}

// RunResolver превращает ID run в run с его job и namespace.
// Состояния не хранит, безопасен для конкурентного вызова.
type RunResolver struct {
	finder RunFinder
}

// NewRunResolver создаёт RunResolver.
func NewRunResolver(finder RunFinder) *RunResolver {
	return &RunResolver{finder: finder}
}

// Resolve возвращает run или ErrRunNotFound.
// Прочие ошибки хранилища возвращаются без изменений.
func (r *RunResolver) Resolve(ctx context.Context, runID uuid.UUID) (*domain.Run, error) {
	run, err := r.finder.FindRun(ctx, runID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// OutputVersionResolver возвращает текущие выходы run.
//
// Результат не кэшируется, каждый вызов читает хранилище.
type OutputVersionResolver struct {
	finder OutputVersionFinder
}

// NewOutputVersionResolver создаёт OutputVersionResolver.
func NewOutputVersionResolver(finder OutputVersionFinder) *OutputVersionResolver {
	return &OutputVersionResolver{finder: finder}
}

// OutputsFor возвращает выходные версии run в порядке создания.
// Для run без выходов возвращает пустой срез, это нормальное состояние.
func (r *OutputVersionResolver) OutputsFor(ctx context.Context, runID uuid.UUID) ([]domain.DatasetVersion, error) {
	outputs, err := r.finder.FindOutputDatasetVersions(ctx, runID)
	if err != nil {
		return nil, err
	}
	if outputs == nil {
		outputs = []domain.DatasetVersion{}
	}
	return outputs, nil
}
