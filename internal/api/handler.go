package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Lineage/internal/domain"
	"github.com/shaiso/Lineage/internal/service"
)

// CatalogReader: операции чтения каталога.
// Реализуется repo.Store и memstore.Store.
type CatalogReader interface {
	GetDataset(ctx context.Context, id domain.DatasetID) (*domain.Dataset, error)
	ListDatasets(ctx context.Context, namespace string, limit, offset int) ([]domain.Dataset, error)
	ListVersions(ctx context.Context, id domain.DatasetID, limit, offset int) ([]domain.DatasetVersion, error)
	ListRuns(ctx context.Context, job domain.JobID, limit, offset int) ([]domain.Run, error)
	FindOutputDatasetVersions(ctx context.Context, runID uuid.UUID) ([]domain.DatasetVersion, error)
}

// Handler: обработчик API с зависимостями.
type Handler struct {
	datasets *service.DatasetService
	runs     *service.RunService
	catalog  CatalogReader
	requests RequestRecorder
	logger   *slog.Logger
}

// Config: зависимости Handler.
type Config struct {
	Datasets *service.DatasetService
	Runs     *service.RunService
	Catalog  CatalogReader

	// Requests: учёт HTTP запросов (опционально).
	Requests RequestRecorder

	Logger *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		datasets: cfg.Datasets,
		runs:     cfg.Runs,
		catalog:  cfg.Catalog,
		requests: cfg.Requests,
		logger:   logger,
	}
}
