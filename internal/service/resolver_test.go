package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Lineage/internal/domain"
	"github.com/shaiso/Lineage/internal/repo"
	"github.com/shaiso/Lineage/internal/repo/memstore"
)

func TestRunResolver_Resolve(t *testing.T) {
	store := memstore.New()
	job := domain.JobID{Namespace: "ns", Name: "job"}
	run := seedRun(store, job)

	resolver := NewRunResolver(store)

	got, err := resolver.Resolve(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != run.ID || got.Job != job {
		t.Errorf("unexpected run: %+v", got)
	}

	_, err = resolver.Resolve(context.Background(), uuid.New())
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRunResolver_OtherErrorsUnmodified(t *testing.T) {
	store := newRecordingStore(nil)
	store.findRunErr = repo.ErrUnavailable

	_, err := NewRunResolver(store).Resolve(context.Background(), uuid.New())
	if err != repo.ErrUnavailable {
		t.Errorf("expected the storage error as is, got %v", err)
	}
}

func TestOutputVersionResolver_OutputsFor(t *testing.T) {
	store := memstore.New()
	runID := uuid.New()
	other := uuid.New()

	ds := domain.DatasetID{Namespace: "ns", Name: "a"}
	first := domain.DatasetVersion{DatasetID: ds, Version: uuid.New(), ProducingRunID: domain.SomeRunID(runID), CreatedAt: t0}
	foreign := domain.DatasetVersion{DatasetID: ds, Version: uuid.New(), ProducingRunID: domain.SomeRunID(other), CreatedAt: t0}
	orphan := domain.DatasetVersion{DatasetID: ds, Version: uuid.New(), CreatedAt: t0}
	second := domain.DatasetVersion{DatasetID: ds, Version: uuid.New(), ProducingRunID: domain.SomeRunID(runID), CreatedAt: t0}
	for _, v := range []domain.DatasetVersion{first, foreign, orphan, second} {
		store.AddVersion(v)
	}

	resolver := NewOutputVersionResolver(store)

	got, err := resolver.OutputsFor(context.Background(), runID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Version != first.Version || got[1].Version != second.Version {
		t.Errorf("expected [first, second] in creation order, got %+v", got)
	}

	empty, err := resolver.OutputsFor(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestOutputVersionResolver_ReadsCurrentState(t *testing.T) {
	store := memstore.New()
	runID := uuid.New()
	resolver := NewOutputVersionResolver(store)

	before, _ := resolver.OutputsFor(context.Background(), runID)
	store.AddVersion(domain.DatasetVersion{
		DatasetID:      domain.DatasetID{Namespace: "ns", Name: "a"},
		Version:        uuid.New(),
		ProducingRunID: domain.SomeRunID(runID),
		CreatedAt:      t0,
	})
	after, _ := resolver.OutputsFor(context.Background(), runID)

	if len(before) != 0 || len(after) != 1 {
		t.Errorf("resolver must not cache: before=%d after=%d", len(before), len(after))
	}
}
