// Package retrieve selects the minimal slice of ingested history relevant to
// a question: a bounded, ordered bundle of commits and symbol snapshots.
package retrieve

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"lineage-ai/internal/contextutil"
	"lineage-ai/internal/storage"
)

const (
	// maxBudget caps how many commits one bundle may carry regardless of the
	// requested budget (token-budget proxy).
	maxBudget = 20
	// symbolsPerItem caps symbol snapshots per bundle item so one huge
	// commit cannot dominate the context.
	symbolsPerItem = 25
)

var shaLike = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// Engine answers retrieval requests against the schema store.
type Engine interface {
	// Retrieve assembles a bounded, relevance-ranked context bundle for the
	// request. It returns an empty bundle, not an error, when nothing
	// matches.
	Retrieve(ctx context.Context, req Request) (Bundle, error)
}

type engine struct {
	db            *sql.DB
	defaultBudget int
}

// NewEngine creates a retrieval engine. defaultBudget is used when a request
// leaves Budget unset.
func NewEngine(db *sql.DB, defaultBudget int) Engine {
	if defaultBudget <= 0 || defaultBudget > maxBudget {
		defaultBudget = 5
	}
	return &engine{db: db, defaultBudget: defaultBudget}
}

// Retrieve runs the scope-resolution ladder inside a single read-only
// transaction so a concurrently ingested commit can never appear in the
// bundle with only part of its symbols.
func (e *engine) Retrieve(ctx context.Context, req Request) (Bundle, error) {
	logger := contextutil.LoggerFromContext(ctx)

	budget := req.Budget
	if budget <= 0 {
		budget = e.defaultBudget
	}
	if budget > maxBudget {
		budget = maxBudget
	}

	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	commitRepo := storage.NewCommitRepo(tx)
	fileRepo := storage.NewFileRepo(tx)
	symbolRepo := storage.NewSymbolRepo(tx)

	// 1. Explicit scope hint, most specific interpretation first.
	if scope := strings.TrimSpace(req.Scope); scope != "" {
		bundle, ok, err := e.resolveScope(ctx, commitRepo, fileRepo, symbolRepo, scope, budget)
		if err != nil {
			return Bundle{}, err
		}
		if ok {
			logger.DebugContext(ctx, "retrieval resolved scope hint", "scope", scope, "items", len(bundle.Items))
			return bundle, nil
		}
		logger.DebugContext(ctx, "scope hint did not resolve", "scope", scope)
	}

	// 2. Path/identifier tokens inside the query text.
	for _, token := range identifierTokens(req.Query) {
		file, err := fileRepo.FindByPathOrBasename(ctx, token)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return Bundle{}, err
		}
		if err == nil {
			logger.DebugContext(ctx, "retrieval anchored on file token", "token", token, "file_id", file.FileID)
			return e.fileBundle(ctx, commitRepo, symbolRepo, file.FileID, budget)
		}

		fileIDs, err := symbolRepo.FileIDsByName(ctx, token)
		if err != nil {
			return Bundle{}, err
		}
		if len(fileIDs) == 1 {
			logger.DebugContext(ctx, "retrieval anchored on symbol token", "token", token, "file_id", fileIDs[0])
			return e.symbolBundle(ctx, commitRepo, symbolRepo, token, fileIDs, budget)
		}
	}

	// 3. Lexical fallback over commit messages and symbol names.
	bundle, err := e.lexicalBundle(ctx, commitRepo, symbolRepo, req.Query, budget)
	if err != nil {
		return Bundle{}, err
	}
	logger.DebugContext(ctx, "lexical fallback retrieval", "items", len(bundle.Items))
	return bundle, nil
}

// resolveScope tries the hint as a commit sha, then an exact file path, then
// a symbol name. ok is false when none of the three interpretations match.
func (e *engine) resolveScope(
	ctx context.Context,
	commitRepo *storage.CommitRepo,
	fileRepo *storage.FileRepo,
	symbolRepo *storage.SymbolRepo,
	scope string,
	budget int,
) (Bundle, bool, error) {
	if shaLike.MatchString(strings.ToLower(scope)) {
		matches, err := commitRepo.ListByPrefix(ctx, strings.ToLower(scope))
		if err != nil {
			return Bundle{}, false, err
		}
		if len(matches) == 1 {
			item, err := e.commitItem(ctx, symbolRepo, matches[0])
			if err != nil {
				return Bundle{}, false, err
			}
			return Bundle{Items: []Item{item}}, true, nil
		}
	}

	file, err := fileRepo.GetByPath(ctx, scope)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Bundle{}, false, err
	}
	if err == nil {
		bundle, err := e.fileBundle(ctx, commitRepo, symbolRepo, file.FileID, budget)
		return bundle, true, err
	}

	fileIDs, err := symbolRepo.FileIDsByName(ctx, scope)
	if err != nil {
		return Bundle{}, false, err
	}
	if len(fileIDs) > 0 {
		bundle, err := e.symbolBundle(ctx, commitRepo, symbolRepo, scope, fileIDs, budget)
		return bundle, true, err
	}

	return Bundle{}, false, nil
}

// fileBundle fetches the most recent commits that touched the file, newest
// first, capped at budget.
func (e *engine) fileBundle(
	ctx context.Context,
	commitRepo *storage.CommitRepo,
	symbolRepo *storage.SymbolRepo,
	fileID int64,
	budget int,
) (Bundle, error) {
	commits, err := commitRepo.ListTouchingFile(ctx, fileID, budget)
	if err != nil {
		return Bundle{}, err
	}

	var bundle Bundle
	for _, commit := range commits {
		item, err := e.commitItem(ctx, symbolRepo, commit)
		if err != nil {
			return Bundle{}, err
		}
		// Keep only this file's snapshots; the bundle is anchored to it.
		item.Symbols = filterByFile(item.Symbols, fileID)
		bundle.Items = append(bundle.Items, item)
	}
	return bundle, nil
}

// symbolBundle assembles the symbol's full edit history ordered by commit
// time, truncated to the most recent budget commits.
func (e *engine) symbolBundle(
	ctx context.Context,
	commitRepo *storage.CommitRepo,
	symbolRepo *storage.SymbolRepo,
	name string,
	fileIDs []int64,
	budget int,
) (Bundle, error) {
	entries, err := symbolRepo.HistoryByName(ctx, name)
	if err != nil {
		return Bundle{}, err
	}

	wanted := make(map[int64]bool, len(fileIDs))
	for _, id := range fileIDs {
		wanted[id] = true
	}

	// Group history rows by commit, preserving chronological order.
	var items []Item
	index := make(map[string]int)
	for _, entry := range entries {
		if !wanted[entry.FileID] {
			continue
		}
		i, ok := index[entry.CommitSHA]
		if !ok {
			i = len(items)
			index[entry.CommitSHA] = i
			items = append(items, Item{Commit: storage.CommitRecord{
				SHA:         entry.CommitSHA,
				CommittedAt: entry.CommittedAt,
			}})
		}
		if len(items[i].Symbols) < symbolsPerItem {
			items[i].Symbols = append(items[i].Symbols, storage.SymbolSnapshot{
				SymbolRecord: entry.SymbolRecord,
				FilePath:     entry.FilePath,
			})
		}
	}

	// Budget keeps the most recent commits; presentation stays chronological.
	if len(items) > budget {
		items = items[len(items)-budget:]
	}

	for i := range items {
		commit, err := commitRepo.GetBySHA(ctx, items[i].Commit.SHA)
		if err != nil {
			return Bundle{}, err
		}
		items[i].Commit = *commit
	}
	return Bundle{Items: items}, nil
}

// lexicalBundle ranks commits by term overlap between the query and each
// commit's message plus the symbol names it recorded.
func (e *engine) lexicalBundle(
	ctx context.Context,
	commitRepo *storage.CommitRepo,
	symbolRepo *storage.SymbolRepo,
	query string,
	budget int,
) (Bundle, error) {
	queryTokens := filterStopwords(tokenize(query))
	if len(queryTokens) == 0 {
		return Bundle{}, nil
	}

	commits, err := commitRepo.ListAll(ctx)
	if err != nil {
		return Bundle{}, err
	}
	namesByCommit, err := symbolRepo.NamesByCommit(ctx)
	if err != nil {
		return Bundle{}, err
	}

	type scored struct {
		commit storage.CommitRecord
		score  int
	}
	var ranked []scored
	for _, commit := range commits {
		texts := append([]string{commit.Message}, namesByCommit[commit.SHA]...)
		score := termOverlap(queryTokens, tokenSet(texts...))
		if score > 0 {
			ranked = append(ranked, scored{commit: commit, score: score})
		}
	}

	// Score descending; ties most-recent-first, then by sha for determinism.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if !ranked[i].commit.CommittedAt.Equal(ranked[j].commit.CommittedAt) {
			return ranked[i].commit.CommittedAt.After(ranked[j].commit.CommittedAt)
		}
		return ranked[i].commit.SHA < ranked[j].commit.SHA
	})
	if len(ranked) > budget {
		ranked = ranked[:budget]
	}

	var bundle Bundle
	for _, r := range ranked {
		item, err := e.commitItem(ctx, symbolRepo, r.commit)
		if err != nil {
			return Bundle{}, err
		}
		bundle.Items = append(bundle.Items, item)
	}
	return bundle, nil
}

func (e *engine) commitItem(ctx context.Context, symbolRepo *storage.SymbolRepo, commit storage.CommitRecord) (Item, error) {
	symbols, err := symbolRepo.ListByCommit(ctx, commit.SHA, symbolsPerItem)
	if err != nil {
		return Item{}, err
	}
	return Item{Commit: commit, Symbols: symbols}, nil
}

func filterByFile(symbols []storage.SymbolSnapshot, fileID int64) []storage.SymbolSnapshot {
	filtered := symbols[:0]
	for _, s := range symbols {
		if s.FileID == fileID {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
