package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 5 * time.Second

// NewRouter wires the page, the board fragment endpoints and the event stream.
func NewRouter(logger *slog.Logger, gamePlay gamePlayService, events subscriber) http.Handler {
	h := &handlers{
		logger:   logger.With("component", "rest"),
		gamePlay: gamePlay,
		events:   events,
		tpl:      loadTemplates(),
	}

	r := chi.NewRouter()
	r.Get("/ping", h.ping)
	r.Get("/", h.index)
	r.Post("/session", h.create)
	r.Route("/session/{id}", func(r chi.Router) {
		r.Get("/", h.board)
		r.Get("/events", h.stream)
		r.Post("/move", h.move)
		r.Post("/restart", h.restart)
		r.Post("/mode", h.mode)
	})

	return r
}

// Start serves handler on port until ctx is done.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     handler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
		// event streams end with the app instead of holding Shutdown open
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
