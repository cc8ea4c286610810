package storage

import "time"

// Symbol kinds recorded in the symbols table.
const (
	KindFunction = "function"
	KindClass    = "class"
)

// CommitRecord represents one commit in the database. Rows are append-only:
// once a commit is ingested it is never edited or deleted.
type CommitRecord struct {
	SHA         string
	AuthorName  string
	AuthorEmail string
	Message     string
	CommittedAt time.Time
}

// FileRecord represents a logical file identity that persists across renames.
// CurrentPath is the path as of the most recently ingested commit; a rename
// updates it in place so the surrogate FileID anchors all historical symbols.
type FileRecord struct {
	FileID      int64
	CurrentPath string
}

// SymbolRecord represents a named function or class observed in a specific
// file at a specific commit. The same logical symbol recurs across commits as
// new rows; historical rows are never mutated.
type SymbolRecord struct {
	SymbolID  int64
	FileID    int64
	CommitSHA string
	Kind      string
	Name      string
	StartLine int
	EndLine   int
}
