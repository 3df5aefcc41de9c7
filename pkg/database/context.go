package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type contextKey string

const (
	// ScopeKey is the context key for the request-scoped database connection.
	ScopeKey contextKey = "dbScope"

	txKey contextKey = "dbTx"
)

// Querier is the subset of pgx shared by connections and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetScope retrieves the request-scoped database connection from context.
// Returns nil and false if not present.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok && scope != nil && scope.Conn != nil
}

// SetScope stores the request-scoped database connection in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// GetQuerier returns the transaction in ctx if there is one, otherwise the
// scoped connection. Repositories use it so they take part in a caller's
// transaction without knowing about it.
func GetQuerier(ctx context.Context) (Querier, bool) {
	if tx, ok := ctx.Value(txKey).(pgx.Tx); ok {
		return tx, true
	}
	if scope, ok := GetScope(ctx); ok {
		return scope.Conn, true
	}
	return nil, false
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey).(pgx.Tx)
	return ok
}
