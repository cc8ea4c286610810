package storage

import (
	"context"
	"database/sql"
	"errors"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DBTX is the subset of database/sql methods shared by *sql.DB and *sql.Tx.
// Repos run against a DBTX so the ingestion engine can bind them to a single
// per-commit transaction while read paths use the pooled connection directly.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// timeLayout is the canonical committed_at storage format. Timestamps are
// normalized to UTC before insert so lexicographic order matches time order.
const timeLayout = "2006-01-02T15:04:05Z07:00"
