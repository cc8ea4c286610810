package storage

import (
	"context"
	"testing"
	"time"
)

func TestSymbolRepo_Insert(t *testing.T) {
	db := newTestDB(t)
	commitRepo := NewCommitRepo(db)
	fileRepo := NewFileRepo(db)
	repo := NewSymbolRepo(db)
	ctx := context.Background()

	sha := "4444444aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	if err := commitRepo.Insert(ctx, testCommit(sha, time.Now().UTC())); err != nil {
		t.Fatalf("Insert() commit error = %v", err)
	}
	file, err := fileRepo.GetOrCreate(ctx, "svc.py")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	tests := []struct {
		name    string
		symbol  *SymbolRecord
		wantErr bool
	}{
		{
			name: "valid function",
			symbol: &SymbolRecord{
				FileID: file.FileID, CommitSHA: sha, Kind: KindFunction, Name: "run", StartLine: 1, EndLine: 4,
			},
		},
		{
			name: "single line symbol",
			symbol: &SymbolRecord{
				FileID: file.FileID, CommitSHA: sha, Kind: KindClass, Name: "Tiny", StartLine: 6, EndLine: 6,
			},
		},
		{
			name: "inverted span",
			symbol: &SymbolRecord{
				FileID: file.FileID, CommitSHA: sha, Kind: KindFunction, Name: "bad", StartLine: 9, EndLine: 2,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Insert(ctx, tt.symbol)
			if tt.wantErr {
				if err == nil {
					t.Error("Insert() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
			if tt.symbol.SymbolID == 0 {
				t.Error("Insert() did not populate SymbolID")
			}
		})
	}
}

func TestSymbolRepo_HistoryByName(t *testing.T) {
	db := newTestDB(t)
	commitRepo := NewCommitRepo(db)
	fileRepo := NewFileRepo(db)
	repo := NewSymbolRepo(db)
	ctx := context.Background()

	file, err := fileRepo.GetOrCreate(ctx, "core.py")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	spans := []struct {
		sha        string
		start, end int
	}{
		{"5000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 1, 5},
		{"6000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 1, 8},
		{"7000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 3, 12},
	}
	for i, s := range spans {
		if err := commitRepo.Insert(ctx, testCommit(s.sha, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Insert() commit error = %v", err)
		}
		err := repo.Insert(ctx, &SymbolRecord{
			FileID: file.FileID, CommitSHA: s.sha, Kind: KindFunction, Name: "process", StartLine: s.start, EndLine: s.end,
		})
		if err != nil {
			t.Fatalf("Insert() symbol error = %v", err)
		}
	}

	history, err := repo.HistoryByName(ctx, "process")
	if err != nil {
		t.Fatalf("HistoryByName() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("HistoryByName() returned %d entries, want 3", len(history))
	}
	for i, s := range spans {
		entry := history[i]
		if entry.CommitSHA != s.sha || entry.StartLine != s.start || entry.EndLine != s.end {
			t.Errorf("history[%d] = {%s %d-%d}, want {%s %d-%d}",
				i, entry.CommitSHA, entry.StartLine, entry.EndLine, s.sha, s.start, s.end)
		}
		if entry.FilePath != "core.py" {
			t.Errorf("history[%d].FilePath = %q, want core.py", i, entry.FilePath)
		}
	}

	// Unknown symbol yields empty history, not an error.
	history, err = repo.HistoryByName(ctx, "no_such_symbol")
	if err != nil {
		t.Fatalf("HistoryByName() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("HistoryByName(unknown) returned %d entries, want 0", len(history))
	}
}

func TestSymbolRepo_ListByCommit(t *testing.T) {
	db := newTestDB(t)
	commitRepo := NewCommitRepo(db)
	fileRepo := NewFileRepo(db)
	repo := NewSymbolRepo(db)
	ctx := context.Background()

	sha := "8000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	if err := commitRepo.Insert(ctx, testCommit(sha, time.Now().UTC())); err != nil {
		t.Fatalf("Insert() commit error = %v", err)
	}
	file, err := fileRepo.GetOrCreate(ctx, "web.py")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	names := []string{"alpha", "beta", "gamma"}
	for i, name := range names {
		err := repo.Insert(ctx, &SymbolRecord{
			FileID: file.FileID, CommitSHA: sha, Kind: KindFunction, Name: name,
			StartLine: i*10 + 1, EndLine: i*10 + 5,
		})
		if err != nil {
			t.Fatalf("Insert() symbol error = %v", err)
		}
	}

	got, err := repo.ListByCommit(ctx, sha, 2)
	if err != nil {
		t.Fatalf("ListByCommit() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListByCommit() with limit 2 returned %d symbols", len(got))
	}
	for _, snap := range got {
		if snap.FilePath != "web.py" {
			t.Errorf("snapshot FilePath = %q, want web.py", snap.FilePath)
		}
	}
}

func TestSymbolRepo_FileIDsByName(t *testing.T) {
	db := newTestDB(t)
	commitRepo := NewCommitRepo(db)
	fileRepo := NewFileRepo(db)
	repo := NewSymbolRepo(db)
	ctx := context.Background()

	sha := "9000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	if err := commitRepo.Insert(ctx, testCommit(sha, time.Now().UTC())); err != nil {
		t.Fatalf("Insert() commit error = %v", err)
	}
	first, _ := fileRepo.GetOrCreate(ctx, "a.py")
	second, _ := fileRepo.GetOrCreate(ctx, "b.py")

	for _, f := range []*FileRecord{first, second} {
		err := repo.Insert(ctx, &SymbolRecord{
			FileID: f.FileID, CommitSHA: sha, Kind: KindFunction, Name: "shared", StartLine: 1, EndLine: 2,
		})
		if err != nil {
			t.Fatalf("Insert() symbol error = %v", err)
		}
	}

	ids, err := repo.FileIDsByName(ctx, "shared")
	if err != nil {
		t.Fatalf("FileIDsByName() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("FileIDsByName() returned %d file IDs, want 2", len(ids))
	}
}
