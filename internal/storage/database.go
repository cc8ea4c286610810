package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS commits (
			commit_sha TEXT PRIMARY KEY,
			author_name TEXT NOT NULL,
			author_email TEXT NOT NULL,
			message TEXT NOT NULL,
			committed_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS files (
			file_id INTEGER PRIMARY KEY AUTOINCREMENT,
			current_path TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS symbols (
			symbol_id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_id INTEGER NOT NULL,
			commit_sha TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('function', 'class')),
			name TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			FOREIGN KEY (file_id) REFERENCES files(file_id),
			FOREIGN KEY (commit_sha) REFERENCES commits(commit_sha)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_file_commit ON symbols(file_id, commit_sha);`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
