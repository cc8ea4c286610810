// Package ingest writes an ordered commit stream into the schema store.
// Each commit is applied as one atomic transaction: its commit row, file
// identity changes, and symbol rows become visible together or not at all.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lineage-ai/internal/contextutil"
	"lineage-ai/internal/extract"
	"lineage-ai/internal/storage"
)

// Engine applies commit descriptors to the store. Ingestion is sequential
// per repository store; callers must not run two batches for the same store
// concurrently (file rename resolution would race).
type Engine struct {
	db         *sql.DB
	commitRepo *storage.CommitRepo
	fileRepo   *storage.FileRepo
	symbolRepo *storage.SymbolRepo
}

// NewEngine creates a new ingestion engine over the given database.
func NewEngine(db *sql.DB) *Engine {
	return &Engine{
		db:         db,
		commitRepo: storage.NewCommitRepo(db),
		fileRepo:   storage.NewFileRepo(db),
		symbolRepo: storage.NewSymbolRepo(db),
	}
}

// Ingest applies the batch in order and returns a per-batch report.
// The batch must be sorted parent-before-child. A duplicate sha, a missing
// declared parent, or a store failure skips that commit only; the rest of
// the batch continues. The returned error is non-nil only when the whole
// batch cannot proceed (context cancelled).
func (e *Engine) Ingest(ctx context.Context, commits []CommitDescriptor) (*Report, error) {
	logger := contextutil.LoggerFromContext(ctx)
	report := &Report{BatchID: uuid.New().String()}

	// Shas ingested earlier in this batch, for parent checks.
	inBatch := make(map[string]bool, len(commits))

	logger.InfoContext(ctx, "ingestion batch started", "batch_id", report.BatchID, "commits", len(commits))

	for _, commit := range commits {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		exists, err := e.commitRepo.Exists(ctx, commit.SHA)
		if err != nil {
			report.addIssue(commit.SHA, "store_error", err)
			continue
		}
		if exists {
			dup := &DuplicateCommitError{SHA: commit.SHA}
			logger.InfoContext(ctx, "skipping already-ingested commit", "sha", commit.SHA)
			report.Skipped++
			report.addIssue(commit.SHA, "duplicate", dup)
			continue
		}

		if missing, err := e.missingParent(ctx, commit, inBatch); err != nil {
			report.addIssue(commit.SHA, "store_error", err)
			continue
		} else if missing != "" {
			violation := &OrderingViolationError{SHA: commit.SHA, MissingParent: missing}
			logger.WarnContext(ctx, "rejecting out-of-order commit", "sha", commit.SHA, "missing_parent", missing)
			report.Skipped++
			report.addIssue(commit.SHA, "ordering_violation", violation)
			continue
		}

		degraded, err := e.ingestOne(ctx, commit)
		if err != nil {
			logger.ErrorContext(ctx, "commit ingestion failed", "sha", commit.SHA, "error", err)
			report.addIssue(commit.SHA, "store_error", err)
			continue
		}

		inBatch[commit.SHA] = true
		report.Ingested++
		report.DegradedFiles += degraded
		logger.DebugContext(ctx, "commit ingested", "sha", commit.SHA, "file_changes", len(commit.FileChanges))
	}

	logger.InfoContext(ctx, "ingestion batch completed",
		"batch_id", report.BatchID,
		"ingested", report.Ingested,
		"skipped", report.Skipped,
		"degraded_files", report.DegradedFiles,
		"issues", len(report.Issues),
	)
	return report, nil
}

// missingParent returns the first declared parent that is neither in the
// store nor earlier in this batch, or "" when ordering holds.
func (e *Engine) missingParent(ctx context.Context, commit CommitDescriptor, inBatch map[string]bool) (string, error) {
	for _, parent := range commit.Parents {
		if inBatch[parent] {
			continue
		}
		exists, err := e.commitRepo.Exists(ctx, parent)
		if err != nil {
			return "", err
		}
		if !exists {
			return parent, nil
		}
	}
	return "", nil
}

// ingestOne applies a single commit inside one transaction and reports how
// many files degraded to zero symbols.
func (e *Engine) ingestOne(ctx context.Context, commit CommitDescriptor) (degraded int, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	commitRepo := e.commitRepo.WithTx(tx)
	fileRepo := e.fileRepo.WithTx(tx)
	symbolRepo := e.symbolRepo.WithTx(tx)

	if err := commitRepo.Insert(ctx, &storage.CommitRecord{
		SHA:         commit.SHA,
		AuthorName:  commit.AuthorName,
		AuthorEmail: commit.AuthorEmail,
		Message:     commit.Message,
		CommittedAt: commit.CommittedAt,
	}); err != nil {
		return 0, err
	}

	for _, change := range commit.FileChanges {
		file, err := resolveFile(ctx, fileRepo, change)
		if err != nil {
			return 0, err
		}
		if file == nil {
			// Deleted: the file row stays intact to anchor historical
			// symbols; only new ingestion for the path stops.
			continue
		}

		if change.NewContent == "" {
			continue // pure rename or empty file, nothing to extract
		}

		hint := change.LangHint
		if hint == "" {
			hint = change.Path
		}
		symbols := extract.Symbols(change.NewContent, hint)
		if len(symbols) == 0 {
			degraded++
			logger.DebugContext(ctx, "no symbols extracted", "sha", commit.SHA, "path", change.Path)
			continue
		}

		for _, sym := range symbols {
			if err := symbolRepo.Insert(ctx, &storage.SymbolRecord{
				FileID:    file.FileID,
				CommitSHA: commit.SHA,
				Kind:      sym.Kind,
				Name:      sym.Name,
				StartLine: sym.StartLine,
				EndLine:   sym.EndLine,
			}); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return degraded, nil
}

// resolveFile maps a file change onto its logical file identity. It returns
// nil for deletes. Lookups that miss self-heal to creation so partial or
// out-of-order source history degrades instead of failing.
func resolveFile(ctx context.Context, fileRepo *storage.FileRepo, change FileChange) (*storage.FileRecord, error) {
	switch change.Kind {
	case ChangeAdded:
		return fileRepo.GetOrCreate(ctx, change.Path)
	case ChangeModified:
		file, err := fileRepo.GetByPath(ctx, change.Path)
		if errors.Is(err, storage.ErrNotFound) {
			return fileRepo.GetOrCreate(ctx, change.Path)
		}
		return file, err
	case ChangeRenamed:
		file, err := fileRepo.Rename(ctx, change.OldPath, change.Path)
		if errors.Is(err, storage.ErrNotFound) {
			return fileRepo.GetOrCreate(ctx, change.Path)
		}
		return file, err
	case ChangeDeleted:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown change kind %q for %s", change.Kind, change.Path)
	}
}

func (r *Report) addIssue(sha, kind string, err error) {
	r.Issues = append(r.Issues, Issue{SHA: sha, Kind: kind, Reason: err.Error()})
}
