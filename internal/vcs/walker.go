// Package vcs walks a local git repository and produces ingestion-ready
// commit descriptors: first-parent history in parent-before-child order,
// with file changes and rename detection taken from tree diffs.
package vcs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"lineage-ai/internal/contextutil"
	"lineage-ai/internal/ingest"
)

// sourceExtensions are the file types worth extracting symbols from.
var sourceExtensions = map[string]bool{
	".py": true, ".go": true, ".js": true, ".ts": true,
	".java": true, ".c": true, ".cpp": true,
}

// Walker reads commit history from a local repository clone.
type Walker struct {
	repoPath string
}

// NewWalker creates a Walker for the repository at repoPath.
func NewWalker(repoPath string) *Walker {
	return &Walker{repoPath: repoPath}
}

// Walk returns up to limit commits of first-parent history from HEAD,
// oldest first (parent-before-child, as the ingestion engine requires).
// limit <= 0 walks the full first-parent chain. Parents are declared on a
// descriptor only when the parent is part of the returned slice, so a
// truncated walk still ingests cleanly.
func (w *Walker) Walk(ctx context.Context, limit int) ([]ingest.CommitDescriptor, error) {
	logger := contextutil.LoggerFromContext(ctx)

	repo, err := git.PlainOpen(w.repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", w.repoPath, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD commit: %w", err)
	}

	// Newest-first first-parent chain, capped at limit.
	var chain []*object.Commit
	for commit != nil {
		if limit > 0 && len(chain) == limit {
			break
		}
		chain = append(chain, commit)
		if commit.NumParents() == 0 {
			break
		}
		commit, err = commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("failed to read parent commit: %w", err)
		}
	}

	inWalk := make(map[string]bool, len(chain))
	for _, c := range chain {
		inWalk[c.Hash.String()] = true
	}

	// Reverse to oldest-first and diff each commit against its first parent.
	descriptors := make([]ingest.CommitDescriptor, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		c := chain[i]
		descriptor, err := w.describe(ctx, c, inWalk)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, descriptor)
	}

	logger.InfoContext(ctx, "repository walked", "repo", w.repoPath, "commits", len(descriptors))
	return descriptors, nil
}

// describe builds one commit descriptor from the commit's diff against its
// first parent (or the empty tree for a root commit).
func (w *Walker) describe(ctx context.Context, c *object.Commit, inWalk map[string]bool) (ingest.CommitDescriptor, error) {
	descriptor := ingest.CommitDescriptor{
		SHA:         c.Hash.String(),
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		Message:     strings.TrimSpace(c.Message),
		CommittedAt: c.Committer.When,
	}
	if c.NumParents() > 0 {
		if parent := c.ParentHashes[0].String(); inWalk[parent] {
			descriptor.Parents = []string{parent}
		}
	}

	tree, err := c.Tree()
	if err != nil {
		return descriptor, fmt.Errorf("failed to read tree for %s: %w", descriptor.SHA, err)
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return descriptor, fmt.Errorf("failed to read parent of %s: %w", descriptor.SHA, err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return descriptor, fmt.Errorf("failed to read parent tree of %s: %w", descriptor.SHA, err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, &object.DiffTreeOptions{DetectRenames: true})
	if err != nil {
		return descriptor, fmt.Errorf("failed to diff trees for %s: %w", descriptor.SHA, err)
	}

	for _, change := range changes {
		fileChange, ok, err := describeChange(tree, change)
		if err != nil {
			return descriptor, fmt.Errorf("failed to describe change in %s: %w", descriptor.SHA, err)
		}
		if ok {
			descriptor.FileChanges = append(descriptor.FileChanges, fileChange)
		}
	}
	return descriptor, nil
}

// describeChange maps one tree diff entry onto a file change. Non-source
// files are skipped; binary files are kept as changes with no content so the
// file identity is still tracked.
func describeChange(tree *object.Tree, change *object.Change) (ingest.FileChange, bool, error) {
	action, err := change.Action()
	if err != nil {
		return ingest.FileChange{}, false, err
	}

	switch action {
	case merkletrie.Delete:
		if !isSourcePath(change.From.Name) {
			return ingest.FileChange{}, false, nil
		}
		return ingest.FileChange{Path: change.From.Name, Kind: ingest.ChangeDeleted}, true, nil

	case merkletrie.Insert:
		if !isSourcePath(change.To.Name) {
			return ingest.FileChange{}, false, nil
		}
		content, err := fileContent(tree, change.To.Name)
		if err != nil {
			return ingest.FileChange{}, false, err
		}
		return ingest.FileChange{Path: change.To.Name, Kind: ingest.ChangeAdded, NewContent: content}, true, nil

	case merkletrie.Modify:
		if !isSourcePath(change.To.Name) {
			return ingest.FileChange{}, false, nil
		}
		content, err := fileContent(tree, change.To.Name)
		if err != nil {
			return ingest.FileChange{}, false, err
		}
		fc := ingest.FileChange{Path: change.To.Name, Kind: ingest.ChangeModified, NewContent: content}
		if change.From.Name != "" && change.From.Name != change.To.Name {
			// Rename detection folds the delete/insert pair into one
			// change with differing names.
			fc.Kind = ingest.ChangeRenamed
			fc.OldPath = change.From.Name
		}
		return fc, true, nil

	default:
		return ingest.FileChange{}, false, nil
	}
}

func fileContent(tree *object.Tree, path string) (string, error) {
	file, err := tree.File(path)
	if err != nil {
		return "", err
	}
	if binary, err := file.IsBinary(); err != nil || binary {
		return "", nil
	}
	return file.Contents()
}

func isSourcePath(path string) bool {
	return sourceExtensions[strings.ToLower(filepath.Ext(path))]
}
