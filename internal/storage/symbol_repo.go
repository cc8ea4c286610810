package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_symbol_store.go -package=mocks lineage-ai/internal/storage SymbolStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SymbolHistoryEntry is a symbol row joined with its owning commit's time and
// the file's current path, for edit-history queries.
type SymbolHistoryEntry struct {
	SymbolRecord
	CommittedAt time.Time
	FilePath    string
}

// SymbolSnapshot is a symbol row joined with the file's current path.
type SymbolSnapshot struct {
	SymbolRecord
	FilePath string
}

// SymbolStore defines the interface for symbol storage operations.
type SymbolStore interface {
	// Insert inserts a single symbol row. Rows are append-only.
	Insert(ctx context.Context, symbol *SymbolRecord) error
	// HistoryByName returns every recorded version of symbols with the given
	// name, ordered by the owning commit's time (oldest first).
	HistoryByName(ctx context.Context, name string) ([]SymbolHistoryEntry, error)
	// ListByCommit returns the symbols recorded at the given commit in
	// insertion order, capped at limit (0 means no cap).
	ListByCommit(ctx context.Context, sha string, limit int) ([]SymbolSnapshot, error)
	// NamesByCommit returns the distinct symbol names recorded per commit.
	NamesByCommit(ctx context.Context) (map[string][]string, error)
	// FileIDsByName returns the distinct file ids that ever recorded a symbol
	// with the given name.
	FileIDsByName(ctx context.Context, name string) ([]int64, error)
}

// SymbolRepo provides methods for symbol operations.
// It implements the SymbolStore interface.
type SymbolRepo struct {
	db DBTX
}

// NewSymbolRepo creates a new SymbolRepo.
func NewSymbolRepo(db DBTX) *SymbolRepo {
	return &SymbolRepo{db: db}
}

// WithTx returns a SymbolRepo bound to the given transaction.
func (r *SymbolRepo) WithTx(tx *sql.Tx) *SymbolRepo {
	return &SymbolRepo{db: tx}
}

// Insert inserts a single symbol row. Rows are append-only.
func (r *SymbolRepo) Insert(ctx context.Context, symbol *SymbolRecord) error {
	if symbol.StartLine > symbol.EndLine {
		return fmt.Errorf("invalid symbol %q: start_line %d > end_line %d", symbol.Name, symbol.StartLine, symbol.EndLine)
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO symbols (file_id, commit_sha, kind, name, start_line, end_line) VALUES (?, ?, ?, ?, ?, ?)",
		symbol.FileID, symbol.CommitSHA, symbol.Kind, symbol.Name, symbol.StartLine, symbol.EndLine,
	)
	if err != nil {
		return fmt.Errorf("failed to insert symbol: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		symbol.SymbolID = id
	}
	return nil
}

// HistoryByName returns every recorded version of symbols with the given
// name, ordered by the owning commit's time (oldest first). Same-name symbols
// in different files are grouped by file so each lineage reads continuously.
func (r *SymbolRepo) HistoryByName(ctx context.Context, name string) ([]SymbolHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.symbol_id, s.file_id, s.commit_sha, s.kind, s.name, s.start_line, s.end_line,
		        c.committed_at, f.current_path
		 FROM symbols s
		 JOIN commits c ON c.commit_sha = s.commit_sha
		 JOIN files f ON f.file_id = s.file_id
		 WHERE s.name = ?
		 ORDER BY s.file_id, c.committed_at, c.commit_sha, s.symbol_id`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []SymbolHistoryEntry
	for rows.Next() {
		var e SymbolHistoryEntry
		var committedAtStr string
		if err := rows.Scan(&e.SymbolID, &e.FileID, &e.CommitSHA, &e.Kind, &e.Name, &e.StartLine, &e.EndLine, &committedAtStr, &e.FilePath); err != nil {
			return nil, fmt.Errorf("failed to scan symbol history row: %w", err)
		}
		committedAt, err := parseStoredTime(committedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse committed_at timestamp: %w", err)
		}
		e.CommittedAt = committedAt
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// ListByCommit returns the symbols recorded at the given commit in insertion
// order, capped at limit (0 means no cap).
func (r *SymbolRepo) ListByCommit(ctx context.Context, sha string, limit int) ([]SymbolSnapshot, error) {
	query := `SELECT s.symbol_id, s.file_id, s.commit_sha, s.kind, s.name, s.start_line, s.end_line, f.current_path
	          FROM symbols s
	          JOIN files f ON f.file_id = s.file_id
	          WHERE s.commit_sha = ?
	          ORDER BY s.symbol_id`
	args := []any{sha}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols by commit: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var snapshots []SymbolSnapshot
	for rows.Next() {
		var s SymbolSnapshot
		if err := rows.Scan(&s.SymbolID, &s.FileID, &s.CommitSHA, &s.Kind, &s.Name, &s.StartLine, &s.EndLine, &s.FilePath); err != nil {
			return nil, fmt.Errorf("failed to scan symbol row: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return snapshots, nil
}

// NamesByCommit returns the distinct symbol names recorded per commit.
// Used by the lexical fallback to score commits against query terms.
func (r *SymbolRepo) NamesByCommit(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT commit_sha, name FROM symbols",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol names: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	names := make(map[string][]string)
	for rows.Next() {
		var sha, name string
		if err := rows.Scan(&sha, &name); err != nil {
			return nil, fmt.Errorf("failed to scan symbol name row: %w", err)
		}
		names[sha] = append(names[sha], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return names, nil
}

// FileIDsByName returns the distinct file ids that ever recorded a symbol
// with the given name.
func (r *SymbolRepo) FileIDsByName(ctx context.Context, name string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT file_id FROM symbols WHERE name = ? ORDER BY file_id",
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query file ids by symbol name: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan file id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}
