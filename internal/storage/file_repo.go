package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_file_store.go -package=mocks lineage-ai/internal/storage FileStore

import (
	"context"
	"database/sql"
	"fmt"
)

// FileStore defines the interface for file identity operations.
type FileStore interface {
	// GetByPath gets a file by its current path. Returns ErrNotFound if not found.
	GetByPath(ctx context.Context, path string) (*FileRecord, error)
	// GetByID gets a file by its surrogate key. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, fileID int64) (*FileRecord, error)
	// GetOrCreate returns the file identity for the given path, creating a
	// new row if the path is unknown.
	GetOrCreate(ctx context.Context, path string) (*FileRecord, error)
	// Rename updates current_path from oldPath to newPath, preserving the
	// file_id. Returns ErrNotFound if no file currently has oldPath.
	Rename(ctx context.Context, oldPath, newPath string) (*FileRecord, error)
	// FindByPathOrBasename gets a file whose current path equals token, or
	// whose basename equals token when exactly one file matches.
	FindByPathOrBasename(ctx context.Context, token string) (*FileRecord, error)
}

// FileRepo provides methods for file identity operations.
// It implements the FileStore interface.
type FileRepo struct {
	db DBTX
}

// NewFileRepo creates a new FileRepo.
func NewFileRepo(db DBTX) *FileRepo {
	return &FileRepo{db: db}
}

// WithTx returns a FileRepo bound to the given transaction.
func (r *FileRepo) WithTx(tx *sql.Tx) *FileRepo {
	return &FileRepo{db: tx}
}

// GetByPath gets a file by its current path. Returns ErrNotFound if not found.
func (r *FileRepo) GetByPath(ctx context.Context, path string) (*FileRecord, error) {
	var file FileRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT file_id, current_path FROM files WHERE current_path = ?", path,
	).Scan(&file.FileID, &file.CurrentPath)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file: %w", err)
	}
	return &file, nil
}

// GetByID gets a file by its surrogate key. Returns ErrNotFound if not found.
func (r *FileRepo) GetByID(ctx context.Context, fileID int64) (*FileRecord, error) {
	var file FileRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT file_id, current_path FROM files WHERE file_id = ?", fileID,
	).Scan(&file.FileID, &file.CurrentPath)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file: %w", err)
	}
	return &file, nil
}

// GetOrCreate returns the file identity for the given path, creating a new
// row if the path is unknown. A path that was deleted and later re-added
// resumes its original file identity.
func (r *FileRepo) GetOrCreate(ctx context.Context, path string) (*FileRecord, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO files (current_path) VALUES (?) ON CONFLICT (current_path) DO NOTHING",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert file: %w", err)
	}
	return r.GetByPath(ctx, path)
}

// FindByPathOrBasename gets a file whose current path equals token, or whose
// basename equals token when exactly one file matches. An ambiguous basename
// returns ErrNotFound; a loose match is worse than none for retrieval.
func (r *FileRepo) FindByPathOrBasename(ctx context.Context, token string) (*FileRecord, error) {
	if file, err := r.GetByPath(ctx, token); err == nil {
		return file, nil
	} else if err != ErrNotFound {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT file_id, current_path FROM files WHERE current_path LIKE '%/' || ? LIMIT 2",
		token,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query files by basename: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var matches []FileRecord
	for rows.Next() {
		var file FileRecord
		if err := rows.Scan(&file.FileID, &file.CurrentPath); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		matches = append(matches, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(matches) != 1 {
		return nil, ErrNotFound
	}
	return &matches[0], nil
}

// Rename updates current_path from oldPath to newPath, preserving the
// file_id so historical symbols stay joinable to the same lineage.
// Returns ErrNotFound if no file currently has oldPath.
func (r *FileRepo) Rename(ctx context.Context, oldPath, newPath string) (*FileRecord, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE files SET current_path = ? WHERE current_path = ?",
		newPath, oldPath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rename file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rename result: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByPath(ctx, newPath)
}
