// Package answer turns a retrieval bundle and a question into a grounded
// answer: it renders a deterministic prompt, delegates generation to the LLM
// boundary, and verifies every cited commit against the supplied bundle.
package answer

import (
	"context"
	"fmt"
	"strings"

	"lineage-ai/internal/contextutil"
	"lineage-ai/internal/llm"
	"lineage-ai/internal/retrieve"
)

// ContextRef identifies one piece of grounding context used for an answer.
type ContextRef struct {
	CommitSHA  string `json:"commit_sha"`
	FilePath   string `json:"file_path,omitempty"`
	SymbolName string `json:"symbol_name,omitempty"`
}

// Result is a composed answer with verified provenance. CitedCommits holds
// only shas that appear in the bundle the answer was grounded on; Grounded
// is false when the bundle was empty and the answer has no provenance.
type Result struct {
	Text         string       `json:"answer_text"`
	CitedCommits []string     `json:"cited_commits"`
	ContextUsed  []ContextRef `json:"context_used"`
	Grounded     bool         `json:"grounded"`
}

// Composer builds prompts and verifies citations.
type Composer struct {
	generator llm.Generator
}

// NewComposer creates a new Composer over the given generator.
func NewComposer(generator llm.Generator) *Composer {
	return &Composer{generator: generator}
}

// Answer generates an answer for the question grounded on the bundle.
// A generation failure is returned as-is (llm.ErrTimeout, *llm.ServiceError)
// with no fabricated text. An empty bundle still produces an answer, flagged
// ungrounded with CitedCommits empty.
func (c *Composer) Answer(ctx context.Context, question string, bundle retrieve.Bundle) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	prompt := BuildPrompt(question, bundle)
	logger.DebugContext(ctx, "prompt built", "length", len(prompt), "bundle_items", len(bundle.Items))

	text, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "error", err)
		return Result{}, err
	}

	cited := VerifyCitations(text, bundle.SHAs())
	logger.InfoContext(ctx, "answer composed",
		"answer_length", len(text),
		"cited_commits", len(cited),
		"grounded", !bundle.Empty(),
	)

	return Result{
		Text:         text,
		CitedCommits: cited,
		ContextUsed:  contextRefs(bundle),
		Grounded:     !bundle.Empty(),
	}, nil
}

// BuildPrompt renders the deterministic prompt template. The same question
// and bundle always produce the same prompt.
func BuildPrompt(question string, bundle retrieve.Bundle) string {
	var b strings.Builder
	b.WriteString("You are a software history assistant. Answer the question using only the ")
	b.WriteString("repository history context below. When you rely on a commit, cite its sha. ")
	b.WriteString("If the context does not contain enough information, say so.\n\n")

	if bundle.Empty() {
		b.WriteString("--- Repository history context ---\n\nNo relevant history found.\n\n")
	} else {
		b.WriteString("--- Repository history context ---\n\n")
		for _, item := range bundle.Items {
			commit := item.Commit
			fmt.Fprintf(&b, "Commit %s\nAuthor: %s <%s>\nDate: %s\nMessage: %s\n",
				commit.SHA, commit.AuthorName, commit.AuthorEmail,
				commit.CommittedAt.UTC().Format("2006-01-02T15:04:05Z"),
				strings.TrimSpace(commit.Message),
			)
			for _, sym := range item.Symbols {
				fmt.Fprintf(&b, "  %s %s in %s (lines %d-%d)\n",
					sym.Kind, sym.Name, sym.FilePath, sym.StartLine, sym.EndLine)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("--- End context ---\n\n")
	fmt.Fprintf(&b, "Question: %s\n\nAnswer:", question)
	return b.String()
}

func contextRefs(bundle retrieve.Bundle) []ContextRef {
	refs := make([]ContextRef, 0, len(bundle.Items))
	for _, item := range bundle.Items {
		if len(item.Symbols) == 0 {
			refs = append(refs, ContextRef{CommitSHA: item.Commit.SHA})
			continue
		}
		for _, sym := range item.Symbols {
			refs = append(refs, ContextRef{
				CommitSHA:  item.Commit.SHA,
				FilePath:   sym.FilePath,
				SymbolName: sym.Name,
			})
		}
	}
	return refs
}
