package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Lineage/internal/domain"
)

// RunRepo: репозиторий для работы с runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

const runColumns = `
	uuid, namespace_name, job_name, state, args,
	nominal_start_time, nominal_end_time, started_at, ended_at,
	created_at, updated_at
`

// CreateRun создаёт run. Namespace и job создаются, если их ещё нет.
func (r *RunRepo) CreateRun(ctx context.Context, run *domain.Run) error {
	argsJSON, err := json.Marshal(run.Args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", classify(err))
	}
	defer tx.Rollback(ctx)

	if err := upsertNamespace(ctx, tx, run.Job.Namespace, run.CreatedAt); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO jobs (namespace_name, name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (namespace_name, name) DO UPDATE SET updated_at = EXCLUDED.updated_at
	`, run.Job.Namespace, run.Job.Name, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert job: %w", classify(err))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO runs (uuid, namespace_name, job_name, state, args,
		                  nominal_start_time, nominal_end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		run.ID,
		run.Job.Namespace,
		run.Job.Name,
		run.State,
		argsJSON,
		run.NominalStartTime,
		run.NominalEndTime,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", classify(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", classify(err))
	}
	return nil
}

// FindRun возвращает run по ID или ErrNotFound.
func (r *RunRepo) FindRun(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE uuid = $1`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

// ListRuns возвращает runs job, новые первыми.
func (r *RunRepo) ListRuns(ctx context.Context, job domain.JobID, limit, offset int) ([]domain.Run, error) {
	query := `SELECT ` + runColumns + `
		FROM runs
		WHERE namespace_name = $1 AND job_name = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, job.Namespace, job.Name, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", classify(err))
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, classify(rows.Err())
}

// UpdateRunState сохраняет новое состояние run и времена переходов.
func (r *RunRepo) UpdateRunState(ctx context.Context, run *domain.Run) error {
	query := `
		UPDATE runs
		SET state = $2, started_at = $3, ended_at = $4, updated_at = $5
		WHERE uuid = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.State,
		run.StartedAt,
		run.EndedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", classify(err))
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// scanRun сканирует одну строку в Run. pgx.Rows тоже реализует pgx.Row.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var argsJSON []byte

	err := row.Scan(
		&run.ID,
		&run.Job.Namespace,
		&run.Job.Name,
		&run.State,
		&argsJSON,
		&run.NominalStartTime,
		&run.NominalEndTime,
		&run.StartedAt,
		&run.EndedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", classify(err))
	}

	if argsJSON != nil {
		if err := json.Unmarshal(argsJSON, &run.Args); err != nil {
			return nil, fmt.Errorf("unmarshal args: %w", err)
		}
	}

	return &run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString возвращает "" для NULL.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
