package main

import (
	"log"
	"log/slog"
	nethttp "net/http"

	"github.com/spf13/cobra"

	"lineage-ai/internal/answer"
	"lineage-ai/internal/http"
	"lineage-ai/internal/ingest"
	"lineage-ai/internal/llm"
	"lineage-ai/internal/retrieve"
	"lineage-ai/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

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
	slog.Info("Database initialized", "path", cfg.DBPath)

	ingestEngine := ingest.NewEngine(db)
	retriever := retrieve.NewEngine(db, cfg.RetrievalBudget)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.LLMTimeout)
	composer := answer.NewComposer(llmClient)
	slog.Info("Engines initialized", "retrieval_budget", cfg.RetrievalBudget)

	deps := &http.Deps{
		DB:           db,
		IngestEngine: ingestEngine,
		Retriever:    retriever,
		Composer:     composer,
		SymbolRepo:   storage.NewSymbolRepo(db),
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
	return nil
}
