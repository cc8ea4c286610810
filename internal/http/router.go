package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lineage-ai/internal/answer"
	"lineage-ai/internal/handlers"
	"lineage-ai/internal/ingest"
	"lineage-ai/internal/retrieve"
	"lineage-ai/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DB           *sql.DB
	IngestEngine *ingest.Engine
	Retriever    retrieve.Engine
	Composer     *answer.Composer
	SymbolRepo   storage.SymbolStore
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Add CORS and request-scoped logger middleware
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	askHandler := handlers.NewAskHandler(deps.Retriever, deps.Composer)
	ingestHandler := handlers.NewIngestHandler(deps.IngestEngine)
	historyHandler := handlers.NewHistoryHandler(deps.SymbolRepo)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/ask", askHandler)
			r.Method(http.MethodPost, "/ingest", ingestHandler)
			r.Method(http.MethodGet, "/symbols/{name}/history", historyHandler)
		})
	})

	return r
}
