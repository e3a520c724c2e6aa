package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// shutdownTimeout bounds graceful shutdown of the status server.
const shutdownTimeout = 10 * time.Second

// serveStatus serves handler on ln until ctx is cancelled, then shuts the
// server down gracefully.
func serveStatus(ctx context.Context, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("status server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down status server")
	case err, ok := <-serveErr:
		if ok {
			logger.Error("status server failed", "error", err)
			return fmt.Errorf("status server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("status server shutdown failed", "error", err)
		return fmt.Errorf("status server shutdown failed: %w", err)
	}

	logger.Info("status server shutdown completed")
	return nil
}
