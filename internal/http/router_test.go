package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"lineage-ai/internal/answer"
	"lineage-ai/internal/handlers"
	"lineage-ai/internal/ingest"
	"lineage-ai/internal/retrieve"
	"lineage-ai/internal/storage"
)

type stubGenerator struct {
	text string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.text, nil
}

func newTestRouter(t *testing.T, generated string) (http.Handler, *sql.DB) {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	router := NewRouter(&Deps{
		DB:           db,
		IngestEngine: ingest.NewEngine(db),
		Retriever:    retrieve.NewEngine(db, 5),
		Composer:     answer.NewComposer(&stubGenerator{text: generated}),
		SymbolRepo:   storage.NewSymbolRepo(db),
	})
	return router, db
}

func ingestFixture(t *testing.T, router http.Handler) {
	t.Helper()
	payload := map[string]any{
		"commits": []ingest.CommitDescriptor{
			{
				SHA: "abc1234def0000000000000000000000000000aa", AuthorName: "Alice",
				AuthorEmail: "alice@example.com", Message: "add foo helper",
				CommittedAt: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
				FileChanges: []ingest.FileChange{
					{
						Path: "utils.py", Kind: ingest.ChangeAdded,
						NewContent: "def foo():\n    x = 1\n    y = 2\n    z = 3\n    return x\n",
					},
				},
			},
		},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("ingest status = %d (body: %s)", w.Code, w.Body.String())
	}

	var report ingest.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.Ingested != 1 {
		t.Fatalf("report.Ingested = %d, want 1 (issues: %+v)", report.Ingested, report.Issues)
	}
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, "unused")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp handlers.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" || resp.Checks["database"] != "ok" {
		t.Errorf("health = %+v, want healthy database", resp)
	}
}

func TestRouter_IngestThenHistory(t *testing.T) {
	router, _ := newTestRouter(t, "unused")
	ingestFixture(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/symbols/foo/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp handlers.HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Symbol != "foo" || len(resp.History) != 1 {
		t.Fatalf("history response = %+v, want one foo entry", resp)
	}
	entry := resp.History[0]
	if entry.FilePath != "utils.py" || entry.StartLine != 1 || entry.EndLine != 5 {
		t.Errorf("entry = %+v, want foo 1-5 in utils.py", entry)
	}
}

func TestRouter_HistoryUnknownSymbolIsEmpty(t *testing.T) {
	router, _ := newTestRouter(t, "unused")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/symbols/ghost/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp handlers.HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.History) != 0 {
		t.Errorf("history = %+v, want empty", resp.History)
	}
}

func TestRouter_AskEndToEnd(t *testing.T) {
	router, _ := newTestRouter(t, "foo was added in abc1234 at five lines.")
	ingestFixture(t, router)

	body, _ := json.Marshal(handlers.AskRequest{Question: "when was foo added?", Scope: "foo"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp handlers.AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.CitedCommits) != 1 || resp.CitedCommits[0] != "abc1234def0000000000000000000000000000aa" {
		t.Errorf("CitedCommits = %v, want the ingested sha", resp.CitedCommits)
	}
	if !resp.Grounded {
		t.Error("Grounded = false, want true")
	}
}

func TestCORS_Preflight(t *testing.T) {
	router, _ := newTestRouter(t, "unused")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ask", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want request origin", got)
	}
}
