// Package memstore хранит каталог в памяти.
//
// Повторяет поведение repo на Postgres: те же ошибки (repo.ErrNotFound),
// тот же порядок выборок. Используется в режиме STORAGE=memory и в тестах.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Lineage/internal/domain"
	"github.com/shaiso/Lineage/internal/repo"
)

// Store хранит runs, datasets и версии.
type Store struct {
	mu       sync.RWMutex
	runs     map[uuid.UUID]domain.Run
	datasets map[domain.DatasetID]domain.Dataset
	// versions в порядке создания.
	versions []domain.DatasetVersion
}

// New создаёт пустой Store.
func New() *Store {
	return &Store{
		runs:     make(map[uuid.UUID]domain.Run),
		datasets: make(map[domain.DatasetID]domain.Dataset),
	}
}

// --- Runs ---

// CreateRun сохраняет новый run.
func (s *Store) CreateRun(ctx context.Context, run *domain.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return repo.ErrAlreadyExists
	}
	s.runs[run.ID] = cloneRun(*run)
	return nil
}

// FindRun возвращает run по ID или repo.ErrNotFound.
func (s *Store) FindRun(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := cloneRun(run)
	return &out, nil
}

// ListRuns возвращает runs job, новые первыми.
func (s *Store) ListRuns(ctx context.Context, job domain.JobID, limit, offset int) ([]domain.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []domain.Run
	for _, run := range s.runs {
		if run.Job == job {
			runs = append(runs, cloneRun(run))
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return page(runs, limit, offset), nil
}

// UpdateRunState сохраняет состояние run.
func (s *Store) UpdateRunState(ctx context.Context, run *domain.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.runs[run.ID]
	if !ok {
		return repo.ErrNotFound
	}
	stored.State = run.State
	stored.StartedAt = run.StartedAt
	stored.EndedAt = run.EndedAt
	stored.UpdatedAt = run.UpdatedAt
	s.runs[run.ID] = stored
	return nil
}

// --- Datasets ---

// UpsertDatasetMeta создаёт или обновляет dataset и добавляет версию.
func (s *Store) UpsertDatasetMeta(ctx context.Context, id domain.DatasetID, meta domain.DatasetMeta, now time.Time) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, exists := s.datasets[id]
	if !exists {
		ds = domain.Dataset{ID: id, CreatedAt: now}
	}
	ds.Type = meta.Type
	ds.PhysicalName = meta.PhysicalName
	ds.SourceName = meta.SourceName
	ds.Description = meta.Description
	ds.SchemaLocation = meta.SchemaLocation
	ds.UpdatedAt = now

	versionID := domain.NewVersionID(id, meta)
	if !s.hasVersion(versionID) {
		s.versions = append(s.versions, domain.DatasetVersion{
			DatasetID:      id,
			Version:        versionID,
			ProducingRunID: meta.RunID,
			CreatedAt:      now,
		})
	}
	ds.CurrentVersion = &versionID

	s.datasets[id] = ds
	out := ds
	return &out, nil
}

// GetDataset возвращает dataset или repo.ErrNotFound.
func (s *Store) GetDataset(ctx context.Context, id domain.DatasetID) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &ds, nil
}

// ListDatasets возвращает datasets namespace по имени.
func (s *Store) ListDatasets(ctx context.Context, namespace string, limit, offset int) ([]domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var datasets []domain.Dataset
	for id, ds := range s.datasets {
		if id.Namespace == namespace {
			datasets = append(datasets, ds)
		}
	}
	sort.Slice(datasets, func(i, j int) bool {
		return datasets[i].ID.Name < datasets[j].ID.Name
	})
	return page(datasets, limit, offset), nil
}

// FindOutputDatasetVersions возвращает версии, записанные run, в порядке создания.
func (s *Store) FindOutputDatasetVersions(ctx context.Context, runID uuid.UUID) ([]domain.DatasetVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.DatasetVersion{}
	for _, v := range s.versions {
		if id, ok := v.ProducingRunID.Get(); ok && id == runID {
			out = append(out, v)
		}
	}
	return out, nil
}

// ListVersions возвращает версии dataset, новые первыми.
func (s *Store) ListVersions(ctx context.Context, id domain.DatasetID, limit, offset int) ([]domain.DatasetVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.DatasetVersion{}
	for _, v := range slices.Backward(s.versions) {
		if v.DatasetID == id {
			out = append(out, v)
		}
	}
	return page(out, limit, offset), nil
}

// AddVersion добавляет готовую версию (для заполнения тестовых данных).
func (s *Store) AddVersion(v domain.DatasetVersion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = append(s.versions, v)
}

func (s *Store) hasVersion(id uuid.UUID) bool {
	return slices.ContainsFunc(s.versions, func(v domain.DatasetVersion) bool {
		return v.Version == id
	})
}

func cloneRun(run domain.Run) domain.Run {
	run.Args = maps.Clone(run.Args)
	return run
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
