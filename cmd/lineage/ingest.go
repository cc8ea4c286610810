package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lineage-ai/internal/ingest"
	"lineage-ai/internal/storage"
	"lineage-ai/internal/vcs"
)

var (
	flagIngestRepo  string
	flagIngestLimit int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [repo-path]",
	Short: "Walk a local git repository and ingest its history",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&flagIngestRepo, "repo", "r", ".", "Path to the local repository clone")
	ingestCmd.Flags().IntVarP(&flagIngestLimit, "limit", "n", 0, "Maximum number of commits to walk (0 = all)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()
	if len(args) == 1 {
		flagIngestRepo = args[0]
	}

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

	walker := vcs.NewWalker(flagIngestRepo)
	commits, err := walker.Walk(ctx, flagIngestLimit)
	if err != nil {
		return fmt.Errorf("failed to walk repository: %w", err)
	}
	slog.Info("Repository walked", "repo", flagIngestRepo, "commits", len(commits))

	report, err := ingest.NewEngine(db).Ingest(ctx, commits)
	if err != nil {
		return fmt.Errorf("failed to ingest commits: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
