package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRunState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to RunState
		want     bool
	}{
		{RunStateNew, RunStateRunning, true},
		{RunStateNew, RunStateCompleted, true},
		{RunStateNew, RunStateAborted, true},
		{RunStateNew, RunStateNew, false},
		{RunStateRunning, RunStateCompleted, true},
		{RunStateRunning, RunStateFailed, true},
		{RunStateRunning, RunStateRunning, false},
		{RunStateRunning, RunStateNew, false},
		{RunStateCompleted, RunStateFailed, false},
		{RunStateFailed, RunStateRunning, false},
		{RunStateAborted, RunStateCompleted, false},
		{RunStateNew, RunState("PAUSED"), false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestParseRunState(t *testing.T) {
	got, err := ParseRunState(" running ")
	if err != nil || got != RunStateRunning {
		t.Errorf("expected RUNNING, got %q (%v)", got, err)
	}
	if _, err := ParseRunState("paused"); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestParseDatasetType(t *testing.T) {
	got, err := ParseDatasetType("stream")
	if err != nil || got != DatasetTypeStream {
		t.Errorf("expected STREAM, got %q (%v)", got, err)
	}
	if _, err := ParseDatasetType("file"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestRun_TransitionTo(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	started := created.Add(time.Minute)
	ended := started.Add(time.Hour)

	run := NewRun(JobID{Namespace: "ns", Name: "job"}, nil, created)

	tr, err := run.TransitionTo(RunStateRunning, started)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if tr.From != RunStateNew || tr.To != RunStateRunning || tr.RunID != run.ID {
		t.Errorf("unexpected transition: %+v", tr)
	}
	if run.StartedAt == nil || !run.StartedAt.Equal(started) {
		t.Errorf("started_at not set")
	}

	if _, err := run.TransitionTo(RunStateCompleted, ended); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !run.IsFinished() {
		t.Error("run should be finished")
	}
	if run.Duration() != time.Hour {
		t.Errorf("expected 1h duration, got %v", run.Duration())
	}

	_, err = run.TransitionTo(RunStateFailed, ended)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if run.State != RunStateCompleted {
		t.Errorf("rejected transition must not change state, got %s", run.State)
	}
}

func TestOptionalRunID_JSON(t *testing.T) {
	id := uuid.MustParse("3f2504e0-4f89-11d3-9a0c-0305e82c3301")

	data, err := json.Marshal(struct {
		A OptionalRunID `json:"a"`
		B OptionalRunID `json:"b"`
	}{A: SomeRunID(id), B: NoRunID})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":"3f2504e0-4f89-11d3-9a0c-0305e82c3301","b":null}` {
		t.Errorf("unexpected json: %s", data)
	}

	var decoded struct {
		A OptionalRunID `json:"a"`
		B OptionalRunID `json:"b"`
		C OptionalRunID `json:"c"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, ok := decoded.A.Get(); !ok || got != id {
		t.Errorf("expected %s, got %v", id, decoded.A)
	}
	if decoded.B.IsPresent() || decoded.C.IsPresent() {
		t.Error("null and missing fields must decode as absent")
	}

	var bad OptionalRunID
	if err := json.Unmarshal([]byte(`"not-a-uuid"`), &bad); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestOptionalRunID_Ptr(t *testing.T) {
	if NoRunID.Ptr() != nil {
		t.Error("absent id must map to nil")
	}
	id := uuid.New()
	if got := OptionalRunIDFromPtr(SomeRunID(id).Ptr()); !got.Equal(SomeRunID(id)) {
		t.Errorf("round trip through pointer lost the id: %v", got)
	}
}

func TestDatasetMeta_Validate(t *testing.T) {
	tests := []struct {
		name  string
		meta  DatasetMeta
		field string
	}{
		{"valid table", DatasetMeta{Type: DatasetTypeDBTable, PhysicalName: "public.t", SourceName: "db"}, ""},
		{"valid stream", DatasetMeta{Type: DatasetTypeStream, PhysicalName: "orders", SourceName: "kafka", SchemaLocation: "http://registry/orders"}, ""},
		{"missing type", DatasetMeta{PhysicalName: "t", SourceName: "db"}, "type"},
		{"unknown type", DatasetMeta{Type: "FILE", PhysicalName: "t", SourceName: "db"}, "type"},
		{"missing physical name", DatasetMeta{Type: DatasetTypeDBTable, SourceName: "db"}, "physical_name"},
		{"missing source", DatasetMeta{Type: DatasetTypeDBTable, PhysicalName: "t"}, "source_name"},
		{"stream without schema", DatasetMeta{Type: DatasetTypeStream, PhysicalName: "t", SourceName: "kafka"}, "schema_location"},
		{"table with schema", DatasetMeta{Type: DatasetTypeDBTable, PhysicalName: "t", SourceName: "db", SchemaLocation: "x"}, "schema_location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("ValidationError must unwrap to ErrValidation")
			}
		})
	}
}

func TestValidateNamespace(t *testing.T) {
	for _, ok := range []string{"warehouse", "s3://bucket", "team@corp.com", "a_b-c.d"} {
		if err := ValidateNamespace(ok); err != nil {
			t.Errorf("%q: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{"", "  ", "has space", "semi#colon"} {
		if err := ValidateNamespace(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestNewVersionID(t *testing.T) {
	id := DatasetID{Namespace: "ns", Name: "orders"}
	runA := uuid.New()
	runB := uuid.New()
	meta := DatasetMeta{Type: DatasetTypeDBTable, PhysicalName: "public.orders", SourceName: "db"}

	withA := meta
	withA.RunID = SomeRunID(runA)
	withB := meta
	withB.RunID = SomeRunID(runB)

	if NewVersionID(id, withA) != NewVersionID(id, withA) {
		t.Error("version id must be deterministic")
	}
	if NewVersionID(id, withA) == NewVersionID(id, withB) {
		t.Error("different runs must produce different versions")
	}
	if NewVersionID(id, meta) == NewVersionID(id, withA) {
		t.Error("run id must be part of the version")
	}
	// Описание не влияет на версию.
	described := withA
	described.Description = "changed"
	if NewVersionID(id, described) != NewVersionID(id, withA) {
		t.Error("description must not affect the version")
	}
}

func TestNewJobOutputUpdate(t *testing.T) {
	run := NewRun(JobID{Namespace: "ns", Name: "job"}, nil, time.Now())

	update := NewJobOutputUpdate(run, nil)
	if update.Outputs == nil || len(update.Outputs) != 0 {
		t.Errorf("expected empty non-nil outputs, got %#v", update.Outputs)
	}

	outputs := []DatasetVersion{{Version: uuid.New()}}
	update = NewJobOutputUpdate(run, outputs)
	outputs[0].Version = uuid.Nil
	if update.Outputs[0].Version == uuid.Nil {
		t.Error("outputs must be copied")
	}
	if update.RunID != run.ID || update.Job != run.Job {
		t.Errorf("unexpected update header: %+v", update)
	}
}
