package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Transactor runs a function inside a single database transaction.
// All writes performed through GetQuerier(ctx) inside fn commit or roll back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxManager implements Transactor on top of the request scope or the pool.
type TxManager struct {
	db *DB
}

var _ Transactor = (*TxManager)(nil)

// NewTxManager creates a transaction manager. db is used when the context
// has no request scope (maintenance tools, tests).
func NewTxManager(db *DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx begins a transaction, runs fn and commits when fn returns nil.
// Nested calls join the outer transaction.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return fn(ctx)
	}

	var tx pgx.Tx
	if scope, ok := GetScope(ctx); ok {
		tx, err = scope.Conn.Begin(ctx)
	} else if m.db != nil {
		tx, err = m.db.Pool.Begin(ctx)
	} else {
		return errors.New("no database scope in context")
	}
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.Background())
		}
	}()

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// UniqueViolation is the SQLSTATE for unique_violation.
const UniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation.
// When constraint is non-empty, only violations of that constraint match.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
