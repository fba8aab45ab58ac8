package store

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage-level errors. Services map these onto their own taxonomy.
var (
	// ErrNotFound means the target row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint rejected the write.
	ErrConflict = errors.New("conflict")
)

// Store is the PostgreSQL-backed entity store.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store on top of an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool exposes the underlying pool for components that share it (job queue).
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// mapError translates pgx errors into storage-level sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation: referenced entity is gone
			return ErrNotFound
		case "23505": // unique_violation
			return ErrConflict
		}
	}
	return err
}
