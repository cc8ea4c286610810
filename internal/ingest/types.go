package ingest

import "time"

// ChangeKind classifies a file change within a commit.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeRenamed  ChangeKind = "renamed"
)

// FileChange describes one file touched by a commit.
type FileChange struct {
	// Path is the file's path as of this commit (the rename target for
	// renamed changes).
	Path string     `json:"path"`
	Kind ChangeKind `json:"change_kind"`
	// OldPath is set for renamed changes only.
	OldPath string `json:"old_path,omitempty"`
	// NewContent is the full file content at this commit for added/modified
	// changes (and for renames that also edited the file). Empty for deletes
	// and pure renames.
	NewContent string `json:"new_content,omitempty"`
	// LangHint optionally names the language; the file extension is used
	// when empty.
	LangHint string `json:"lang_hint,omitempty"`
}

// CommitDescriptor is one commit in an ingestion batch. Batches must already
// be ordered parent-before-child; the engine verifies (when Parents is
// supplied) but never re-sorts.
type CommitDescriptor struct {
	SHA         string       `json:"sha"`
	AuthorName  string       `json:"author_name"`
	AuthorEmail string       `json:"author_email"`
	Message     string       `json:"message"`
	CommittedAt time.Time    `json:"committed_at"`
	Parents     []string     `json:"parents,omitempty"`
	FileChanges []FileChange `json:"file_changes"`
}

// Issue records why a commit in a batch was skipped or failed.
type Issue struct {
	SHA    string `json:"sha"`
	Kind   string `json:"kind"` // "duplicate", "ordering_violation", "store_error"
	Reason string `json:"reason"`
}

// Report summarizes one ingestion batch. Skipped and failed commits never
// abort the batch; they are recorded here.
type Report struct {
	BatchID       string  `json:"batch_id"`
	Ingested      int     `json:"ingested"`
	Skipped       int     `json:"skipped"`
	DegradedFiles int     `json:"degraded_files"`
	Issues        []Issue `json:"issues,omitempty"`
}
