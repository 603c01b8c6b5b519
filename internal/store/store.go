package store

import (
	"context"
	"errors"
	"fmt"

	"smrt/config"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx *sqlx.Tx
}

// ErrNoTransaction is returned by operations that only make sense inside WithTx.
var ErrNoTransaction = errors.New("operation requires a transaction")

// NewStore creates a new database store
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db), nil
}

// New wraps an open connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// Ping checks connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InTx reports whether the store is bound to a transaction.
func (s *Store) InTx() bool {
	return s.tx != nil
}

// WithTx runs fn against a transaction-bound store. The transaction commits
// when fn returns nil and rolls back otherwise, including on panic and on
// context cancellation. Calls on a store that is already inside a
// transaction reuse it.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&Store{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	committed = true
	return nil
}

// LockAdvisory takes a transaction-scoped advisory lock. It blocks until the
// lock is granted and releases it at commit or rollback.
func (s *Store) LockAdvisory(ctx context.Context, key int64) error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	if _, err := s.q.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
		return fmt.Errorf("failed to acquire advisory lock %d: %w", key, err)
	}
	return nil
}

// deleteByID removes one row by primary key. table is always a schema constant.
func (s *Store) deleteByID(ctx context.Context, table string, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return nil
}
