package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Lineage/internal/domain"
	"github.com/shaiso/Lineage/internal/repo/memstore"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return t0 }
}

// timeline записывает порядок вызовов между компонентами.
type timeline struct {
	mu     sync.Mutex
	events []string
}

func (tl *timeline) add(e string) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.events = append(tl.events, e)
}

func (tl *timeline) list() []string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return append([]string(nil), tl.events...)
}

// recordingObserver запоминает полученные события.
type recordingObserver struct {
	name   string
	tl     *timeline
	err    error
	panics bool
	onCall func()

	got         []domain.JobOutputUpdate
	transitions []domain.RunTransition
}

func (o *recordingObserver) Name() string { return o.name }

func (o *recordingObserver) OnJobOutputUpdate(_ context.Context, u domain.JobOutputUpdate) error {
	if o.tl != nil {
		o.tl.add("observe:" + o.name)
	}
	o.got = append(o.got, u)
	if o.onCall != nil {
		o.onCall()
	}
	if o.panics {
		panic("observer exploded")
	}
	return o.err
}

// plainObserver реализует только Observer.
type plainObserver struct {
	calls int
}

func (o *plainObserver) OnJobOutputUpdate(context.Context, domain.JobOutputUpdate) error {
	o.calls++
	return nil
}

type transitionObserver struct {
	recordingObserver
}

func (o *transitionObserver) OnRunTransition(_ context.Context, tr domain.RunTransition) error {
	if o.tl != nil {
		o.tl.add("transition:" + o.name)
	}
	o.transitions = append(o.transitions, tr)
	return o.err
}

// recordingStore оборачивает memstore и считает обращения.
type recordingStore struct {
	*memstore.Store
	tl *timeline

	findRunErr error
	outputsErr error
	upsertErr  error

	findRunCalls int
	outputCalls  int
	upsertCalls  int
}

func newRecordingStore(tl *timeline) *recordingStore {
	return &recordingStore{Store: memstore.New(), tl: tl}
}

func (s *recordingStore) FindRun(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	s.findRunCalls++
	if s.findRunErr != nil {
		return nil, s.findRunErr
	}
	return s.Store.FindRun(ctx, id)
}

func (s *recordingStore) FindOutputDatasetVersions(ctx context.Context, runID uuid.UUID) ([]domain.DatasetVersion, error) {
	s.outputCalls++
	if s.outputsErr != nil {
		return nil, s.outputsErr
	}
	return s.Store.FindOutputDatasetVersions(ctx, runID)
}

func (s *recordingStore) UpsertDatasetMeta(ctx context.Context, id domain.DatasetID, meta domain.DatasetMeta, now time.Time) (*domain.Dataset, error) {
	s.upsertCalls++
	if s.tl != nil {
		s.tl.add("upsert")
	}
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	return s.Store.UpsertDatasetMeta(ctx, id, meta, now)
}

// countingMetrics считает вызовы MetricsSink.
type countingMetrics struct {
	mu       sync.Mutex
	datasets map[string]int
	versions map[string]int
	failures map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		datasets: map[string]int{},
		versions: map[string]int{},
		failures: map[string]int{},
	}
}

func (m *countingMetrics) IncDatasetCount(ns string, t domain.DatasetType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[ns+"/"+string(t)]++
}

func (m *countingMetrics) IncVersionCount(ns string, t domain.DatasetType, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[ns+"/"+string(t)+"/"+name]++
}

func (m *countingMetrics) IncObserverFailure(observer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[observer]++
}

var errBoom = errors.New("boom")

func seedRun(s *memstore.Store, job domain.JobID) *domain.Run {
	run := domain.NewRun(job, nil, t0.Add(-time.Hour))
	if err := s.CreateRun(context.Background(), run); err != nil {
		panic(err)
	}
	return run
}

func tableMeta(runID domain.OptionalRunID) domain.DatasetMeta {
	return domain.DatasetMeta{
		Type:         domain.DatasetTypeDBTable,
		PhysicalName: "public.orders",
		SourceName:   "analytics_db",
		Description:  "all orders",
		RunID:        runID,
	}
}
