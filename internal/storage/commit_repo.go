package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_commit_store.go -package=mocks lineage-ai/internal/storage CommitStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CommitStore defines the interface for commit storage operations.
type CommitStore interface {
	// Insert inserts a new commit row. Commits are immutable once inserted.
	Insert(ctx context.Context, commit *CommitRecord) error
	// Exists reports whether a commit with the given sha has been ingested.
	Exists(ctx context.Context, sha string) (bool, error)
	// GetBySHA gets a commit by its full sha. Returns ErrNotFound if not found.
	GetBySHA(ctx context.Context, sha string) (*CommitRecord, error)
	// ListByPrefix returns all commits whose sha starts with the given prefix.
	ListByPrefix(ctx context.Context, prefix string) ([]CommitRecord, error)
	// ListTouchingFile returns the most recent commits that recorded symbols
	// for the given file, newest first, capped at limit.
	ListTouchingFile(ctx context.Context, fileID int64, limit int) ([]CommitRecord, error)
	// ListAll returns every commit, newest first.
	ListAll(ctx context.Context) ([]CommitRecord, error)
}

// CommitRepo provides methods for commit operations.
// It implements the CommitStore interface.
type CommitRepo struct {
	db DBTX
}

// NewCommitRepo creates a new CommitRepo.
func NewCommitRepo(db DBTX) *CommitRepo {
	return &CommitRepo{db: db}
}

// WithTx returns a CommitRepo bound to the given transaction.
func (r *CommitRepo) WithTx(tx *sql.Tx) *CommitRepo {
	return &CommitRepo{db: tx}
}

// Insert inserts a new commit row. Commits are immutable once inserted.
func (r *CommitRepo) Insert(ctx context.Context, commit *CommitRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO commits (commit_sha, author_name, author_email, message, committed_at) VALUES (?, ?, ?, ?, ?)",
		commit.SHA, commit.AuthorName, commit.AuthorEmail, commit.Message,
		commit.CommittedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert commit: %w", err)
	}
	return nil
}

// Exists reports whether a commit with the given sha has been ingested.
func (r *CommitRepo) Exists(ctx context.Context, sha string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM commits WHERE commit_sha = ?", sha,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check commit existence: %w", err)
	}
	return true, nil
}

// GetBySHA gets a commit by its full sha. Returns ErrNotFound if not found.
func (r *CommitRepo) GetBySHA(ctx context.Context, sha string) (*CommitRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT commit_sha, author_name, author_email, message, committed_at FROM commits WHERE commit_sha = ?",
		sha,
	)
	commit, err := scanCommit(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query commit: %w", err)
	}
	return commit, nil
}

// ListByPrefix returns all commits whose sha starts with the given prefix.
// An empty result is not an error; callers decide whether a prefix that
// matches more than one commit is usable.
func (r *CommitRepo) ListByPrefix(ctx context.Context, prefix string) ([]CommitRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT commit_sha, author_name, author_email, message, committed_at FROM commits WHERE commit_sha LIKE ? || '%'",
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits by prefix: %w", err)
	}
	return collectCommits(rows)
}

// ListTouchingFile returns the most recent commits that recorded symbols for
// the given file, newest first, capped at limit.
func (r *CommitRepo) ListTouchingFile(ctx context.Context, fileID int64, limit int) ([]CommitRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT c.commit_sha, c.author_name, c.author_email, c.message, c.committed_at
		 FROM commits c
		 JOIN symbols s ON s.commit_sha = c.commit_sha
		 WHERE s.file_id = ?
		 ORDER BY c.committed_at DESC, c.commit_sha DESC
		 LIMIT ?`,
		fileID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits touching file: %w", err)
	}
	return collectCommits(rows)
}

// ListAll returns every commit, newest first.
func (r *CommitRepo) ListAll(ctx context.Context) ([]CommitRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT commit_sha, author_name, author_email, message, committed_at FROM commits ORDER BY committed_at DESC, commit_sha DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits: %w", err)
	}
	return collectCommits(rows)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommit(row rowScanner) (*CommitRecord, error) {
	var commit CommitRecord
	var committedAtStr string
	if err := row.Scan(&commit.SHA, &commit.AuthorName, &commit.AuthorEmail, &commit.Message, &committedAtStr); err != nil {
		return nil, err
	}
	committedAt, err := parseStoredTime(committedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse committed_at timestamp: %w", err)
	}
	commit.CommittedAt = committedAt
	return &commit, nil
}

func collectCommits(rows *sql.Rows) ([]CommitRecord, error) {
	defer func() {
		_ = rows.Close()
	}()

	var commits []CommitRecord
	for rows.Next() {
		commit, err := scanCommit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		commits = append(commits, *commit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return commits, nil
}

func parseStoredTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err == nil {
		return t, nil
	}
	// SQLite might hand back its default DATETIME format for rows written
	// outside this codebase.
	return time.Parse("2006-01-02 15:04:05", value)
}
