package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DatasetID идентифицирует dataset: пара (namespace, name) уникальна в каталоге.
type DatasetID struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// String возвращает "namespace.name".
func (d DatasetID) String() string {
	return d.Namespace + "." + d.Name
}

// Dataset описывает ресурс данных (таблицу, поток), который ведёт каталог.
type Dataset struct {
	ID DatasetID `json:"id"`

	Type DatasetType `json:"type"`

	// PhysicalName: имя ресурса в источнике (например, "public.orders").
	PhysicalName string `json:"physical_name"`

	// SourceName: имя источника (БД, кластер брокера).
	SourceName string `json:"source_name"`

	Description string `json:"description,omitempty"`

	// SchemaLocation задаётся только для STREAM: где лежит схема сообщений.
	SchemaLocation string `json:"schema_location,omitempty"`

	// CurrentVersion: последняя записанная версия.
	CurrentVersion *uuid.UUID `json:"current_version,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DatasetMeta: изменяемые метаданные dataset, которые присылает клиент.
type DatasetMeta struct {
	Type           DatasetType   `json:"type"`
	PhysicalName   string        `json:"physical_name"`
	SourceName     string        `json:"source_name"`
	Description    string        `json:"description,omitempty"`
	SchemaLocation string        `json:"schema_location,omitempty"`
	RunID          OptionalRunID `json:"run_id"`
}

// Ограничения на имена, как в каталоге Marquez.
const (
	maxNameLength = 1024
)

var namespacePattern = regexp.MustCompile(`^[a-zA-Z:;=/0-9_\-.@+]+$`)

// ValidateNamespace проверяет имя namespace.
func ValidateNamespace(namespace string) error {
	if strings.TrimSpace(namespace) == "" {
		return &ValidationError{Field: "namespace", Reason: "is required"}
	}
	if len(namespace) > maxNameLength {
		return &ValidationError{Field: "namespace", Reason: "is too long"}
	}
	if !namespacePattern.MatchString(namespace) {
		return &ValidationError{Field: "namespace", Reason: "contains invalid characters"}
	}
	return nil
}

// ValidateName проверяет имя dataset или job.
func ValidateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	if len(name) > maxNameLength {
		return &ValidationError{Field: field, Reason: "is too long"}
	}
	return nil
}

// Validate проверяет обязательные поля метаданных.
func (m *DatasetMeta) Validate() error {
	if !m.Type.IsValid() {
		if m.Type == "" {
			return &ValidationError{Field: "type", Reason: "is required"}
		}
		return &ValidationError{Field: "type", Reason: "must be DB_TABLE or STREAM"}
	}
	if strings.TrimSpace(m.PhysicalName) == "" {
		return &ValidationError{Field: "physical_name", Reason: "is required"}
	}
	if strings.TrimSpace(m.SourceName) == "" {
		return &ValidationError{Field: "source_name", Reason: "is required"}
	}
	if m.Type == DatasetTypeStream && strings.TrimSpace(m.SchemaLocation) == "" {
		return &ValidationError{Field: "schema_location", Reason: "is required for STREAM datasets"}
	}
	if m.Type != DatasetTypeStream && m.SchemaLocation != "" {
		return &ValidationError{Field: "schema_location", Reason: "is only allowed for STREAM datasets"}
	}
	return nil
}

// DatasetVersion: снимок dataset на момент записи.
// ProducingRunID задан, если версию записал конкретный run.
type DatasetVersion struct {
	DatasetID      DatasetID     `json:"dataset_id"`
	Version        uuid.UUID     `json:"version"`
	ProducingRunID OptionalRunID `json:"run_id"`
	CreatedAt      time.Time     `json:"created_at"`
}

// versionNamespace: корень для детерминированных UUID версий.
var versionNamespace = uuid.MustParse("6f1c3f0e-7a9a-4f0e-9d1f-2b8f4b1f6c10")

// NewVersionID вычисляет ID версии по содержимому метаданных.
// Одинаковые метаданные от одного run дают одну и ту же версию.
func NewVersionID(id DatasetID, meta DatasetMeta) uuid.UUID {
	parts := []string{
		id.Namespace,
		meta.SourceName,
		id.Name,
		meta.PhysicalName,
		meta.SchemaLocation,
	}
	if runID, ok := meta.RunID.Get(); ok {
		parts = append(parts, runID.String())
	}
	return uuid.NewSHA1(versionNamespace, []byte(strings.Join(parts, ":")))
}
