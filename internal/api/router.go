package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/scry-notes/internal/api/middleware"
	"github.com/phrazzld/scry-notes/internal/api/shared"
)

// NewRouter creates the status endpoint router with all routes and middleware.
func NewRouter(h *StatusHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/notes", h.ListNotes)
		r.Get("/notes/{id}", h.GetNote)
		r.Get("/timers", h.ListTimers)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
