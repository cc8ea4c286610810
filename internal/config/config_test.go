package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

func TestLoad(t *testing.T) {
	// Save original env vars
	originalEnv := make(map[string]string)
	envVars := []string{
		"DB_PATH", "LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY",
		"LLM_TIMEOUT_SECONDS", "RETRIEVAL_BUDGET", "API_PORT",
		"LOG_LEVEL", "LOG_FORMAT",
	}
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name: "defaults only",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "lineage.db"))
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "9000" &&
					cfg.RetrievalBudget == 5 &&
					cfg.LLMTimeout == 60*time.Second &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text"
			},
		},
		{
			name: "explicit overrides",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "lineage.db"))
				setEnv("LLM_TIMEOUT_SECONDS", "120")
				setEnv("RETRIEVAL_BUDGET", "10")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "json")
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMTimeout == 120*time.Second &&
					cfg.RetrievalBudget == 10 &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json"
			},
		},
		{
			name: "invalid timeout",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "lineage.db"))
				setEnv("LLM_TIMEOUT_SECONDS", "not-a-number")
			},
			wantErr: true,
		},
		{
			name: "non-positive budget",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "lineage.db"))
				setEnv("RETRIEVAL_BUDGET", "0")
			},
			wantErr: true,
		},
		{
			name: "unknown log level",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "lineage.db"))
				setEnv("LOG_LEVEL", "verbose")
			},
			wantErr: true,
		},
		{
			name: "unknown log format",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "lineage.db"))
				setEnv("LOG_FORMAT", "xml")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envVars {
				unsetEnv(key)
			}
			tt.setupEnv(t)

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Error("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config check failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	original := os.Getenv("DB_PATH")
	defer func() {
		if original != "" {
			setEnv("DB_PATH", original)
		} else {
			unsetEnv("DB_PATH")
		}
	}()

	dbPath := filepath.Join(t.TempDir(), "nested", "data", "lineage.db")
	setEnv("DB_PATH", dbPath)

	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Errorf("data directory not created: %v", err)
	}
}
