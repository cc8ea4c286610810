package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"lineage-ai/internal/answer"
	"lineage-ai/internal/llm"
	"lineage-ai/internal/retrieve"
	"lineage-ai/internal/storage"
)

var (
	flagAskScope  string
	flagAskBudget int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question about the ingested history",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&flagAskScope, "scope", "s", "", "Scope hint: commit SHA prefix, file path, or symbol name")
	askCmd.Flags().IntVarP(&flagAskBudget, "budget", "b", 0, "Maximum commits to retrieve (0 = configured default)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	retriever := retrieve.NewEngine(db, cfg.RetrievalBudget)
	bundle, err := retriever.Retrieve(ctx, retrieve.Request{
		Query:  question,
		Scope:  flagAskScope,
		Budget: flagAskBudget,
	})
	if err != nil {
		return fmt.Errorf("failed to retrieve history context: %w", err)
	}

	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.LLMTimeout)
	result, err := answer.NewComposer(llmClient).Answer(ctx, question, bundle)
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	fmt.Println(result.Text)
	if len(result.CitedCommits) > 0 {
		fmt.Println("\nCited commits:")
		for _, sha := range result.CitedCommits {
			fmt.Printf("  %s\n", sha)
		}
	} else {
		fmt.Println("\nNo commits cited.")
	}
	return nil
}
