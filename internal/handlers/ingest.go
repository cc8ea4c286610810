package handlers

import (
	"encoding/json"
	"net/http"

	"lineage-ai/internal/contextutil"
	"lineage-ai/internal/ingest"
)

// IngestHandler handles HTTP requests for commit batch ingestion.
type IngestHandler struct {
	engine *ingest.Engine
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(engine *ingest.Engine) *IngestHandler {
	return &IngestHandler{engine: engine}
}

// IngestRequest represents the HTTP request payload for ingestion.
//
// swagger:model IngestRequest
type IngestRequest struct {
	Commits []ingest.CommitDescriptor `json:"commits"`
}

// ServeHTTP handles HTTP requests for commit batch ingestion.
//
// Ingest a batch of commit descriptors in order. Duplicates and commits whose
// parents are unknown are skipped and reported; each accepted commit is
// stored atomically with its file changes and extracted symbols.
//
// swagger:route POST /api/v1/ingest ingestCommits
//
// # Ingest a batch of commits
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
//     "$ref": "#/definitions/IngestRequest"
//
// responses:
//
//	'200':
//	  description: Ingestion report with per-commit issues
//	'400':
//	  description: Bad request (invalid payload or empty batch)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Commits) == 0 {
		logger.WarnContext(ctx, "empty commit batch")
		writeError(w, http.StatusBadRequest, "At least one commit is required")
		return
	}

	report, err := h.engine.Ingest(ctx, req.Commits)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to ingest commits")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
