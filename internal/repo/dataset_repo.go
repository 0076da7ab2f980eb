package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Lineage/internal/domain"
)

// DatasetRepo: репозиторий datasets и их версий.
type DatasetRepo struct {
	pool *pgxpool.Pool
}

// NewDatasetRepo создаёт новый DatasetRepo.
func NewDatasetRepo(pool *pgxpool.Pool) *DatasetRepo {
	return &DatasetRepo{pool: pool}
}

const datasetColumns = `
	namespace_name, name, type, physical_name, source_name,
	description, schema_location, current_version_uuid, created_at, updated_at
`

// UpsertDatasetMeta создаёт или обновляет dataset и записывает новую версию.
//
// Всё выполняется в одной транзакции:
//  1. namespace и source создаются, если их нет
//  2. строка dataset вставляется или обновляется (last-write-wins)
//  3. версия вставляется (повторная запись той же версии игнорируется)
//  4. current_version_uuid указывает на эту версию
func (r *DatasetRepo) UpsertDatasetMeta(ctx context.Context, id domain.DatasetID, meta domain.DatasetMeta, now time.Time) (*domain.Dataset, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", classify(err))
	}
	defer tx.Rollback(ctx)

	if err := upsertNamespace(ctx, tx, id.Namespace, now); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sources (name, created_at) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, meta.SourceName, now)
	if err != nil {
		return nil, fmt.Errorf("upsert source: %w", classify(err))
	}

	versionID := domain.NewVersionID(id, meta)

	row := tx.QueryRow(ctx, `
		INSERT INTO datasets (namespace_name, name, type, physical_name, source_name,
		                      description, schema_location, current_version_uuid,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8, $8)
		ON CONFLICT (namespace_name, name) DO UPDATE
		SET type = EXCLUDED.type,
		    physical_name = EXCLUDED.physical_name,
		    source_name = EXCLUDED.source_name,
		    description = EXCLUDED.description,
		    schema_location = EXCLUDED.schema_location,
		    updated_at = EXCLUDED.updated_at
		RETURNING `+datasetColumns,
		id.Namespace,
		id.Name,
		meta.Type,
		meta.PhysicalName,
		meta.SourceName,
		nullString(meta.Description),
		nullString(meta.SchemaLocation),
		now,
	)
	dataset, err := scanDataset(row)
	if err != nil {
		return nil, fmt.Errorf("upsert dataset: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO dataset_versions (uuid, namespace_name, dataset_name, run_uuid, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uuid) DO NOTHING
	`, versionID, id.Namespace, id.Name, meta.RunID.Ptr(), now)
	if err != nil {
		return nil, fmt.Errorf("insert dataset version: %w", classify(err))
	}

	_, err = tx.Exec(ctx, `
		UPDATE datasets SET current_version_uuid = $3
		WHERE namespace_name = $1 AND name = $2
	`, id.Namespace, id.Name, versionID)
	if err != nil {
		return nil, fmt.Errorf("set current version: %w", classify(err))
	}
	dataset.CurrentVersion = &versionID

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", classify(err))
	}
	return dataset, nil
}

// GetDataset возвращает dataset по идентификатору.
func (r *DatasetRepo) GetDataset(ctx context.Context, id domain.DatasetID) (*domain.Dataset, error) {
	query := `SELECT ` + datasetColumns + `
		FROM datasets
		WHERE namespace_name = $1 AND name = $2
	`
	return scanDataset(r.pool.QueryRow(ctx, query, id.Namespace, id.Name))
}

// ListDatasets возвращает datasets namespace в алфавитном порядке.
func (r *DatasetRepo) ListDatasets(ctx context.Context, namespace string, limit, offset int) ([]domain.Dataset, error) {
	query := `SELECT ` + datasetColumns + `
		FROM datasets
		WHERE namespace_name = $1
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, namespace, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", classify(err))
	}
	defer rows.Close()

	var datasets []domain.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *ds)
	}
	return datasets, classify(rows.Err())
}

// --- Helpers ---

// upsertNamespace создаёт namespace или обновляет его updated_at.
func upsertNamespace(ctx context.Context, tx pgx.Tx, name string, now time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO namespaces (name, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (name) DO UPDATE SET updated_at = EXCLUDED.updated_at
	`, name, now)
	if err != nil {
		return fmt.Errorf("upsert namespace: %w", classify(err))
	}
	return nil
}

func scanDataset(row pgx.Row) (*domain.Dataset, error) {
	var ds domain.Dataset
	var description, schemaLocation *string

	err := row.Scan(
		&ds.ID.Namespace,
		&ds.ID.Name,
		&ds.Type,
		&ds.PhysicalName,
		&ds.SourceName,
		&description,
		&schemaLocation,
		&ds.CurrentVersion,
		&ds.CreatedAt,
		&ds.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan dataset: %w", classify(err))
	}

	ds.Description = derefString(description)
	ds.SchemaLocation = derefString(schemaLocation)
	return &ds, nil
}
