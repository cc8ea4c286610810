package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	DBPath          string
	LLMBaseURL      string
	LLMModelName    string
	LLMAPIKey       string
	LLMTimeout      time.Duration
	RetrievalBudget int
	APIPort         string
	LogLevel        slog.Level
	LogFormat       string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent directory, it is
// loaded automatically; variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up a few levels looking for a .env next to the project root.
	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		DBPath:       getEnv("DB_PATH", "./data/lineage.db"),
		LLMBaseURL:   getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName: getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:    getEnv("LLM_API_KEY", "dummy-key"),
		APIPort:      getEnv("API_PORT", "9000"),
		LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	timeoutStr := getEnv("LLM_TIMEOUT_SECONDS", "60")
	timeoutSecs, err := strconv.Atoi(timeoutStr)
	if err != nil || timeoutSecs <= 0 {
		return nil, fmt.Errorf("LLM_TIMEOUT_SECONDS must be a positive integer, got %q", timeoutStr)
	}
	cfg.LLMTimeout = time.Duration(timeoutSecs) * time.Second

	budgetStr := getEnv("RETRIEVAL_BUDGET", "5")
	budget, err := strconv.Atoi(budgetStr)
	if err != nil || budget <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_BUDGET must be a positive integer, got %q", budgetStr)
	}
	cfg.RetrievalBudget = budget

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn", "warning":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", cfg.LogFormat)
	}

	// Create the data directory if it doesn't exist (for the DB file).
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
