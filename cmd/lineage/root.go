package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lineage-ai/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "lineage",
	Short: "Commit-history knowledge base",
	Long:  "Ingest a repository's commit history into SQLite and ask questions about how the code evolved.",
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
}

// loadConfig is the shared startup path used by all commands: load
// configuration and install the default structured logger.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	return cfg
}
