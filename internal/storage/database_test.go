package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{
			name:    "valid path",
			path:    dbPath,
			wantErr: false,
		},
		{
			name:    "invalid path",
			path:    "/invalid/path/to/db.db",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.path)

			if tt.wantErr {
				if err == nil {
					t.Errorf("New() expected error, got nil")
				}
				if db != nil {
					_ = db.Close()
				}
				return
			}

			if err != nil {
				t.Errorf("New() unexpected error: %v", err)
				return
			}

			if db == nil {
				t.Fatal("New() returned nil database")
			}
			defer func() {
				_ = db.Close()
			}()

			if err := db.Ping(); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestMigrate(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Migrate must be idempotent
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	// All three tables must exist
	for _, table := range []string{"commits", "files", "symbols"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after Migrate(): %v", table, err)
		}
	}
}

func TestMigrate_KindConstraint(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	ctx := context.Background()
	commitRepo := NewCommitRepo(db)
	fileRepo := NewFileRepo(db)

	commit := &CommitRecord{
		SHA:         "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		AuthorName:  "Alice",
		AuthorEmail: "alice@example.com",
		Message:     "initial",
		CommittedAt: time.Now().UTC(),
	}
	if err := commitRepo.Insert(ctx, commit); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	file, err := fileRepo.GetOrCreate(ctx, "main.py")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	_, err = db.Exec(
		"INSERT INTO symbols (file_id, commit_sha, kind, name, start_line, end_line) VALUES (?, ?, ?, ?, ?, ?)",
		file.FileID, commit.SHA, "macro", "FOO", 1, 2,
	)
	if err == nil {
		t.Error("expected CHECK constraint violation for kind 'macro', got nil")
	}
}
