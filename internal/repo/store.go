package repo

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store объединяет репозитории каталога поверх одного пула.
// Реализует тот же набор методов, что и memstore.Store.
type Store struct {
	*RunRepo
	*DatasetRepo
	*DatasetVersionRepo
}

// NewStore создаёт Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		RunRepo:            NewRunRepo(pool),
		DatasetRepo:        NewDatasetRepo(pool),
		DatasetVersionRepo: NewDatasetVersionRepo(pool),
	}
}
