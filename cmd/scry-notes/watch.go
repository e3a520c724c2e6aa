package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/phrazzld/scry-notes/internal/api"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/events"
	"github.com/phrazzld/scry-notes/internal/platform/notesapi"
	"github.com/phrazzld/scry-notes/internal/redact"
	"github.com/phrazzld/scry-notes/internal/task"
	"github.com/spf13/cobra"
)

// watchOptions are the resolved settings of one watch run.
type watchOptions struct {
	refresh time.Duration
	listen  string
}

func newWatchCmd(load appLoader) *cobra.Command {
	var (
		refresh time.Duration
		listen  string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Track reading timers and mark topics completed",
		Long: `Watch fetches the notes and starts a reading timer for every note that has a
topic and a reading time. When a timer elapses the note's topic is marked
completed. Watch runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := load(cmd)
			if err != nil {
				return err
			}
			defer app.cleanup()

			opts := watchOptions{
				refresh: app.config.Reader.RefreshInterval,
				listen:  listen,
			}
			if cmd.Flags().Changed("refresh") {
				opts.refresh = refresh
			}
			if opts.listen == "" && app.config.Server.StatusPort > 0 {
				opts.listen = fmt.Sprintf("127.0.0.1:%d", app.config.Server.StatusPort)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, app, opts)
		},
	}

	cmd.Flags().DurationVar(&refresh, "refresh", 0, "refetch notes at this interval (0 disables)")
	cmd.Flags().StringVar(&listen, "listen", "", "serve the status endpoint on this address, e.g. 127.0.0.1:8080")

	return cmd
}

// runWatch drives the reading scheduler until ctx is cancelled.
func runWatch(ctx context.Context, app *application, opts watchOptions) error {
	var ln net.Listener
	if opts.listen != "" {
		var err error
		ln, err = net.Listen("tcp", opts.listen)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", opts.listen, err)
		}
	}
	return watch(ctx, app, opts.refresh, ln)
}

// watch is runWatch with the status listener already bound. A nil ln disables
// the status endpoint.
func watch(ctx context.Context, app *application, refresh time.Duration, ln net.Listener) error {
	log := app.logger.With("component", "watch")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var completed atomic.Int64
	unsubscribe := app.eventBus.Subscribe(events.EventHandlerFunc(func(context.Context, *events.Event) error {
		completed.Add(1)
		return nil
	}), events.TypeTopicCompleted)
	defer unsubscribe()

	scheduler := app.newScheduler()
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start reading scheduler: %w", err)
	}
	defer scheduler.Stop()

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)
	if ln != nil {
		router := api.NewRouter(api.NewStatusHandler(scheduler, app.clock, app.logger), app.logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			serverErr <- serveStatus(ctx, ln, router, app.logger)
		}()
	}

	if err := refreshNotes(ctx, app, scheduler); err != nil {
		cancel()
		wg.Wait()
		return err
	}

	var tick <-chan time.Time
	if refresh > 0 {
		ticker := app.clock.NewTicker(refresh)
		defer ticker.Stop()
		tick = ticker.Chan()
		log.Info("refreshing notes periodically", "interval", refresh)
	}

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-serverErr:
			if err != nil {
				runErr = err
				break loop
			}
		case <-tick:
			if err := refreshNotes(ctx, app, scheduler); err != nil {
				runErr = err
				break loop
			}
		}
	}

	scheduler.Stop()
	cancel()
	wg.Wait()

	log.Info("watch stopped", "topics_completed", completed.Load())
	return runErr
}

// refreshNotes fetches the note list and hands it to the scheduler. A failed
// fetch is reported and leaves the scheduler with an empty list, which cancels
// every armed timer; reading progress is lost and the next successful fetch
// starts each timer again at its full duration. Only a scheduler error is
// returned.
func refreshNotes(ctx context.Context, app *application, scheduler *task.Scheduler) error {
	notes, err := app.notes.FetchNotes(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		app.logger.Error("failed to fetch notes", "error", redact.Error(err))
		app.notifier.Error(ctx, notesapi.UserMessage(err, "Failed to load notes"))
		notes = []domain.Note{}
	}

	if err := scheduler.Reconcile(ctx, notes); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to reconcile notes: %w", err)
	}
	return nil
}
