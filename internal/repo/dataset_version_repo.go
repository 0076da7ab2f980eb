package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Lineage/internal/domain"
)

// DatasetVersionRepo: чтение версий datasets.
type DatasetVersionRepo struct {
	pool *pgxpool.Pool
}

// NewDatasetVersionRepo создаёт новый DatasetVersionRepo.
func NewDatasetVersionRepo(pool *pgxpool.Pool) *DatasetVersionRepo {
	return &DatasetVersionRepo{pool: pool}
}

const versionColumns = `uuid, namespace_name, dataset_name, run_uuid, created_at`

// seq (BIGSERIAL) задаёт порядок вставки версий.
const (
	outputVersionsQuery = `SELECT ` + versionColumns + `
		FROM dataset_versions
		WHERE run_uuid = $1
		ORDER BY seq ASC
	`
	listVersionsQuery = `SELECT ` + versionColumns + `
		FROM dataset_versions
		WHERE namespace_name = $1 AND dataset_name = $2
		ORDER BY seq DESC
		LIMIT $3 OFFSET $4
	`
)

// FindOutputDatasetVersions возвращает версии, записанные run, в порядке создания.
// Если run ещё ничего не записал, возвращает пустой срез.
func (r *DatasetVersionRepo) FindOutputDatasetVersions(ctx context.Context, runID uuid.UUID) ([]domain.DatasetVersion, error) {
	rows, err := r.pool.Query(ctx, outputVersionsQuery, runID)
	if err != nil {
		return nil, fmt.Errorf("find output versions: %w", classify(err))
	}
	return collectVersions(rows)
}

// ListVersions возвращает версии dataset, новые первыми.
func (r *DatasetVersionRepo) ListVersions(ctx context.Context, id domain.DatasetID, limit, offset int) ([]domain.DatasetVersion, error) {
	rows, err := r.pool.Query(ctx, listVersionsQuery, id.Namespace, id.Name, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", classify(err))
	}
	return collectVersions(rows)
}

func collectVersions(rows pgx.Rows) ([]domain.DatasetVersion, error) {
	defer rows.Close()

	versions := []domain.DatasetVersion{}
	for rows.Next() {
		var v domain.DatasetVersion
		var runID *uuid.UUID
		if err := rows.Scan(&v.Version, &v.DatasetID.Namespace, &v.DatasetID.Name, &runID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dataset version: %w", classify(err))
		}
		v.ProducingRunID = domain.OptionalRunIDFromPtr(runID)
		versions = append(versions, v)
	}
	return versions, classify(rows.Err())
}
