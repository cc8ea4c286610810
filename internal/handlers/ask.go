package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"lineage-ai/internal/answer"
	"lineage-ai/internal/contextutil"
	"lineage-ai/internal/llm"
	"lineage-ai/internal/retrieve"
)

// AskHandler handles HTTP requests for history questions.
type AskHandler struct {
	retriever retrieve.Engine
	composer  *answer.Composer
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(retriever retrieve.Engine, composer *answer.Composer) *AskHandler {
	return &AskHandler{
		retriever: retriever,
		composer:  composer,
	}
}

// AskRequest represents the HTTP request payload for history questions.
//
// swagger:model AskRequest
type AskRequest struct {
	Question string `json:"question"`
	Scope    string `json:"scope,omitempty"`
	Budget   int    `json:"budget,omitempty"`
}

// AskResponse represents the HTTP response payload for history questions.
//
// swagger:model AskResponse
type AskResponse struct {
	// The generated answer, grounded in the retrieved commit history
	Answer string `json:"answer"`

	// Full SHAs of the commits the answer actually cites
	CitedCommits []string `json:"cited_commits"`

	// The commit/file/symbol references that made up the prompt context
	ContextUsed []ContextRefResponse `json:"context_used"`

	// Grounded is false when the answer cites nothing from the context
	Grounded bool `json:"grounded"`
}

// ContextRefResponse represents one context reference in the HTTP response.
//
// swagger:model ContextRefResponse
type ContextRefResponse struct {
	CommitSHA  string `json:"commit_sha"`
	FilePath   string `json:"file_path,omitempty"`
	SymbolName string `json:"symbol_name,omitempty"`
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for history questions.
//
// Ask a question about the ingested commit history. The system retrieves the
// most relevant commits and symbols, generates an answer and verifies that
// every cited commit exists in the retrieved context.
//
// swagger:route POST /api/v1/ask askQuestion
//
// # Ask a question about commit history
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// parameters:
//   - in: body
//     name: body
//     required: true
//     schema:
//     "$ref": "#/definitions/AskRequest"
//
// responses:
//
//	'200':
//	  description: Successful response with answer and verified citations
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Bad request (missing question)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Generation service error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'504':
//	  description: Generation timed out
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Question == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	bundle, err := h.retriever.Retrieve(ctx, retrieve.Request{
		Query:  req.Question,
		Scope:  req.Scope,
		Budget: req.Budget,
	})
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve history context")
		return
	}

	result, err := h.composer.Answer(ctx, req.Question, bundle)
	if err != nil {
		h.handleGenerationError(w, r, err)
		return
	}

	contextUsed := make([]ContextRefResponse, len(result.ContextUsed))
	for i, ref := range result.ContextUsed {
		contextUsed[i] = ContextRefResponse{
			CommitSHA:  ref.CommitSHA,
			FilePath:   ref.FilePath,
			SymbolName: ref.SymbolName,
		}
	}

	resp := AskResponse{
		Answer:       result.Text,
		CitedCommits: result.CitedCommits,
		ContextUsed:  contextUsed,
		Grounded:     result.Grounded,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleGenerationError maps generation errors to HTTP status codes.
func (h *AskHandler) handleGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "answer generation failed", "error", err)

	var serviceErr *llm.ServiceError
	switch {
	case errors.Is(err, llm.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "Generation timed out")
	case errors.As(err, &serviceErr):
		writeError(w, http.StatusBadGateway, "Generation service error")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to generate answer")
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
