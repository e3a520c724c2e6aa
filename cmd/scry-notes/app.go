package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/scry-notes/internal/config"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/events"
	"github.com/phrazzld/scry-notes/internal/notify"
	"github.com/phrazzld/scry-notes/internal/platform/notesapi"
	"github.com/phrazzld/scry-notes/internal/task"
)

// NotesSource fetches the current note list.
type NotesSource interface {
	FetchNotes(ctx context.Context) ([]domain.Note, error)
}

// NoteEditor changes or removes a single note.
type NoteEditor interface {
	UpdateNote(ctx context.Context, noteID int64, update domain.NoteUpdate) (*domain.Note, error)
	DeleteNote(ctx context.Context, noteID int64) error
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	clock  clockwork.Clock
	out    io.Writer

	client   *notesapi.Client
	notes    NotesSource
	editor   NoteEditor
	topics   task.TopicUpdater
	notifier notify.Notifier

	// Event system
	eventBus *events.Bus
}

// newApplication creates a new application instance talking to the notes API
// described by cfg. Command output and notifications go to out.
func newApplication(cfg *config.Config, logger *slog.Logger, out io.Writer) (*application, error) {
	client, err := notesapi.NewClient(cfg.API, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notes API client: %w", err)
	}

	app := &application{
		config:       cfg,
		logger:       logger,
		clock:        clockwork.NewRealClock(),
		out:          out,
		client:       client,
		notes:        client,
		editor:       client,
		topics:       client,
		notifier:     notify.NewConsole(out, false),
		eventBus:     events.NewBus(),
	}

	app.checkToken()

	return app, nil
}

// checkToken warns when the configured bearer token is already expired.
// Tokens that are not JWTs are passed through untouched.
func (app *application) checkToken() {
	token := app.config.API.Token
	if token == "" {
		app.logger.Warn("no API token configured, requests will be anonymous")
		return
	}

	expiry, ok, err := notesapi.TokenExpiry(token)
	if err != nil {
		app.logger.Debug("API token is not a JWT, skipping expiry check")
		return
	}
	if ok && !expiry.After(app.clock.Now()) {
		app.logger.Warn("API token has expired, requests will likely be rejected",
			"expired_at", expiry)
	}
}

// newScheduler creates a reading scheduler wired to the application's
// collaborators.
func (app *application) newScheduler() *task.Scheduler {
	return task.New(app.topics,
		task.WithClock(app.clock),
		task.WithNotifier(app.notifier),
		task.WithEmitter(app.eventBus),
		task.WithLogger(app.logger),
		task.WithConfig(task.SchedulerConfig{
			MinuteDuration: app.config.Reader.MinuteDuration,
		}),
	)
}

// cleanup releases application resources.
func (app *application) cleanup() {
	if app.client != nil {
		app.client.Close()
	}
	app.logger.Debug("application cleanup completed")
}
