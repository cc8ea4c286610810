package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lineage-ai/internal/answer"
	"lineage-ai/internal/llm"
	"lineage-ai/internal/retrieve"
	"lineage-ai/internal/storage"
)

// mockRetriever returns a canned bundle or error.
type mockRetriever struct {
	bundle retrieve.Bundle
	err    error
}

func (m *mockRetriever) Retrieve(ctx context.Context, req retrieve.Request) (retrieve.Bundle, error) {
	return m.bundle, m.err
}

// stubGenerator returns canned text or a canned error.
type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

func askBundle() retrieve.Bundle {
	return retrieve.Bundle{
		Items: []retrieve.Item{
			{
				Commit: storage.CommitRecord{
					SHA:         "abc1234def0000000000000000000000000000aa",
					AuthorName:  "Alice",
					AuthorEmail: "alice@example.com",
					Message:     "add retry logic",
					CommittedAt: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
				},
			},
		},
	}
}

func TestAskHandler_Success(t *testing.T) {
	handler := NewAskHandler(
		&mockRetriever{bundle: askBundle()},
		answer.NewComposer(&stubGenerator{text: "Retries arrived in abc1234."}),
	)

	body, _ := json.Marshal(AskRequest{Question: "when were retries added?"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Grounded {
		t.Error("Grounded = false, want true")
	}
	if len(resp.CitedCommits) != 1 || resp.CitedCommits[0] != "abc1234def0000000000000000000000000000aa" {
		t.Errorf("CitedCommits = %v, want the full bundle sha", resp.CitedCommits)
	}
}

func TestAskHandler_EmptyBundleYieldsNoCitations(t *testing.T) {
	handler := NewAskHandler(
		&mockRetriever{},
		answer.NewComposer(&stubGenerator{text: "The ingested history does not cover that."}),
	)

	body, _ := json.Marshal(AskRequest{Question: "what about the scheduler?"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Grounded {
		t.Error("Grounded = true for empty bundle, want false")
	}
	if resp.CitedCommits == nil || len(resp.CitedCommits) != 0 {
		t.Errorf("CitedCommits = %v, want empty list", resp.CitedCommits)
	}
}

func TestAskHandler_Validation(t *testing.T) {
	handler := NewAskHandler(
		&mockRetriever{},
		answer.NewComposer(&stubGenerator{text: "unused"}),
	)

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{name: "empty question", method: http.MethodPost, body: `{"question":""}`, wantStatus: http.StatusBadRequest},
		{name: "invalid json", method: http.MethodPost, body: `{"question":`, wantStatus: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodGet, body: ``, wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/ask", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAskHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		retriever  retrieve.Engine
		generator  llm.Generator
		wantStatus int
	}{
		{
			name:       "retriever failure",
			retriever:  &mockRetriever{err: errors.New("database locked")},
			generator:  &stubGenerator{text: "unused"},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "generation timeout",
			retriever:  &mockRetriever{bundle: askBundle()},
			generator:  &stubGenerator{err: llm.ErrTimeout},
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "generation service error",
			retriever:  &mockRetriever{bundle: askBundle()},
			generator:  &stubGenerator{err: &llm.ServiceError{Status: 500, Body: "boom"}},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAskHandler(tt.retriever, answer.NewComposer(tt.generator))

			body, _ := json.Marshal(AskRequest{Question: "anything"})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body: %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp.Error == "" {
				t.Error("error response has empty message")
			}
		})
	}
}
