package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/scry-notes/internal/api/shared"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
	"github.com/phrazzld/scry-notes/internal/task"
)

// StatusSource is the read side of the reading scheduler
type StatusSource interface {
	Notes(ctx context.Context) ([]domain.Note, error)
	Pending(ctx context.Context) ([]task.PendingTask, error)
}

// StatusHandler serves the scheduler snapshot over HTTP
type StatusHandler struct {
	source StatusSource
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewStatusHandler creates a new StatusHandler. A nil clock means the real clock.
func NewStatusHandler(source StatusSource, clock clockwork.Clock, logger *slog.Logger) *StatusHandler {
	if source == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("source cannot be nil for StatusHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StatusHandler")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &StatusHandler{
		source: source,
		clock:  clock,
		logger: logger.With(slog.String("component", "status_handler")),
	}
}

// Health handles GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// ListNotes handles GET /api/notes
func (h *StatusHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	notes, err := h.source.Notes(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
			"Reading scheduler is not available", err)
		return
	}

	resp := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, noteToResponse(n))
	}

	log.Debug("listed tracked notes", slog.Int("count", len(resp)))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetNote handles GET /api/notes/{id}
func (h *StatusHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid note ID")
		return
	}

	notes, err := h.source.Notes(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
			"Reading scheduler is not available", err)
		return
	}

	for _, n := range notes {
		if n.ID == id {
			shared.RespondWithJSON(w, r, http.StatusOK, noteToResponse(n))
			return
		}
	}

	shared.RespondWithError(w, r, http.StatusNotFound, "Note not found")
}

// ListTimers handles GET /api/timers
func (h *StatusHandler) ListTimers(w http.ResponseWriter, r *http.Request) {
	pending, err := h.source.Pending(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
			"Reading scheduler is not available", err)
		return
	}

	now := h.clock.Now()
	resp := make([]TimerResponse, 0, len(pending))
	for _, p := range pending {
		resp = append(resp, timerToResponse(p, now))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
