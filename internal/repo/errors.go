package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Общие ошибки репозиториев.
var (
	// ErrNotFound: запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists: конфликт уникальности.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnavailable: хранилище недоступно (нет соединения, таймаут).
	ErrUnavailable = errors.New("storage unavailable")
)

// uniqueViolation: код ошибки Postgres для нарушения уникальности.
const uniqueViolation = "23505"

// classify помечает ошибки соединения как ErrUnavailable.
// Остальные ошибки возвращаются как есть.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, pgErr.ConstraintName)
	}
	return err
}
