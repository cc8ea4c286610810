package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lineage-ai/internal/contextutil"
	"lineage-ai/internal/storage"
)

// HistoryHandler handles HTTP requests for symbol history lookups.
type HistoryHandler struct {
	symbolRepo storage.SymbolStore
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(symbolRepo storage.SymbolStore) *HistoryHandler {
	return &HistoryHandler{symbolRepo: symbolRepo}
}

// HistoryEntryResponse represents one observation of a symbol in the HTTP response.
//
// swagger:model HistoryEntryResponse
type HistoryEntryResponse struct {
	CommitSHA   string `json:"commit_sha"`
	CommittedAt string `json:"committed_at"`
	FilePath    string `json:"file_path"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
}

// HistoryResponse represents the HTTP response for a symbol history lookup.
//
// swagger:model HistoryResponse
type HistoryResponse struct {
	Symbol  string                 `json:"symbol"`
	History []HistoryEntryResponse `json:"history"`
}

// ServeHTTP handles HTTP requests for symbol history lookups.
//
// Return every recorded observation of the named symbol across commits,
// grouped by file identity and ordered chronologically. A symbol that was
// never recorded yields an empty history, not an error.
//
// swagger:route GET /api/v1/symbols/{name}/history symbolHistory
//
// # Look up the history of a symbol
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Symbol history, possibly empty
//	  schema:
//	    "$ref": "#/definitions/HistoryResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	name := chi.URLParam(r, "name")
	if name == "" {
		logger.WarnContext(ctx, "empty symbol name in request")
		writeError(w, http.StatusBadRequest, "Symbol name is required")
		return
	}

	entries, err := h.symbolRepo.HistoryByName(ctx, name)
	if err != nil {
		logger.ErrorContext(ctx, "symbol history lookup failed", "symbol", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to look up symbol history")
		return
	}

	history := make([]HistoryEntryResponse, len(entries))
	for i, entry := range entries {
		history[i] = HistoryEntryResponse{
			CommitSHA:   entry.CommitSHA,
			CommittedAt: entry.CommittedAt.UTC().Format(time.RFC3339),
			FilePath:    entry.FilePath,
			Kind:        entry.Kind,
			Name:        entry.Name,
			StartLine:   entry.StartLine,
			EndLine:     entry.EndLine,
		}
	}

	resp := HistoryResponse{Symbol: name, History: history}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
