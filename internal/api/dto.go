package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Lineage/internal/domain"
)

// Dataset DTOs

// DatasetRequest: тело PUT/POST для dataset.
type DatasetRequest struct {
	Type           string               `json:"type"`
	PhysicalName   string               `json:"physical_name"`
	SourceName     string               `json:"source_name"`
	Description    string               `json:"description,omitempty"`
	SchemaLocation string               `json:"schema_location,omitempty"`
	RunID          domain.OptionalRunID `json:"run_id"`
}

// Meta переводит запрос в domain.DatasetMeta.
func (r DatasetRequest) Meta() (domain.DatasetMeta, error) {
	meta := domain.DatasetMeta{
		PhysicalName:   r.PhysicalName,
		SourceName:     r.SourceName,
		Description:    r.Description,
		SchemaLocation: r.SchemaLocation,
		RunID:          r.RunID,
	}
	if r.Type != "" {
		t, err := domain.ParseDatasetType(r.Type)
		if err != nil {
			return meta, &domain.ValidationError{Field: "type", Reason: "must be DB_TABLE or STREAM"}
		}
		meta.Type = t
	}
	return meta, nil
}

// DatasetResponse: dataset в ответе.
type DatasetResponse struct {
	Namespace      string             `json:"namespace"`
	Name           string             `json:"name"`
	Type           domain.DatasetType `json:"type"`
	PhysicalName   string             `json:"physical_name"`
	SourceName     string             `json:"source_name"`
	Description    string             `json:"description,omitempty"`
	SchemaLocation string             `json:"schema_location,omitempty"`
	CurrentVersion *uuid.UUID         `json:"current_version,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// DatasetFromDomain конвертирует domain.Dataset.
func DatasetFromDomain(d domain.Dataset) DatasetResponse {
	return DatasetResponse{
		Namespace:      d.ID.Namespace,
		Name:           d.ID.Name,
		Type:           d.Type,
		PhysicalName:   d.PhysicalName,
		SourceName:     d.SourceName,
		Description:    d.Description,
		SchemaLocation: d.SchemaLocation,
		CurrentVersion: d.CurrentVersion,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// VersionResponse: версия dataset в ответе.
type VersionResponse struct {
	Namespace string               `json:"namespace"`
	Dataset   string               `json:"dataset"`
	Version   uuid.UUID            `json:"version"`
	RunID     domain.OptionalRunID `json:"run_id"`
	CreatedAt time.Time            `json:"created_at"`
}

// VersionFromDomain конвертирует domain.DatasetVersion.
func VersionFromDomain(v domain.DatasetVersion) VersionResponse {
	return VersionResponse{
		Namespace: v.DatasetID.Namespace,
		Dataset:   v.DatasetID.Name,
		Version:   v.Version,
		RunID:     v.ProducingRunID,
		CreatedAt: v.CreatedAt,
	}
}

func versionsFromDomain(versions []domain.DatasetVersion) []VersionResponse {
	out := make([]VersionResponse, len(versions))
	for i, v := range versions {
		out[i] = VersionFromDomain(v)
	}
	return out
}

// Run DTOs

// CreateRunRequest: тело POST .../jobs/{job}/runs.
type CreateRunRequest struct {
	NominalStartTime *time.Time        `json:"nominal_start_time,omitempty"`
	NominalEndTime   *time.Time        `json:"nominal_end_time,omitempty"`
	Args             map[string]string `json:"args,omitempty"`
}

// RunResponse: run в ответе.
type RunResponse struct {
	ID               uuid.UUID         `json:"id"`
	Namespace        string            `json:"namespace"`
	Job              string            `json:"job"`
	State            domain.RunState   `json:"state"`
	Args             map[string]string `json:"args,omitempty"`
	NominalStartTime *time.Time        `json:"nominal_start_time,omitempty"`
	NominalEndTime   *time.Time        `json:"nominal_end_time,omitempty"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	EndedAt          *time.Time        `json:"ended_at,omitempty"`
	DurationMs       int64             `json:"duration_ms,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// RunFromDomain конвертирует domain.Run.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:               r.ID,
		Namespace:        r.Job.Namespace,
		Job:              r.Job.Name,
		State:            r.State,
		Args:             r.Args,
		NominalStartTime: r.NominalStartTime,
		NominalEndTime:   r.NominalEndTime,
		StartedAt:        r.StartedAt,
		EndedAt:          r.EndedAt,
		DurationMs:       r.Duration().Milliseconds(),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
