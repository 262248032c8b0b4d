package rest

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const sessionCookie = "session_id"

var heartbeatInterval = 15 * time.Second

type gamePlayService interface {
	CreateSession(ctx context.Context, mode entity.Mode) (*entity.Session, error)
	GetSession(ctx context.Context, sessionID string) (*entity.Session, error)
	MakeTurn(ctx context.Context, sessionID string, cell int) (*entity.Session, error)
	Restart(ctx context.Context, sessionID string) (*entity.Session, error)
	SetMode(ctx context.Context, sessionID string, mode entity.Mode) (*entity.Session, error)
}

type subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan Event, func())
}

type handlers struct {
	logger   *slog.Logger
	gamePlay gamePlayService
	events   subscriber
	tpl      *templates
}

func (that *handlers) index(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "index")

	var session *entity.Session

	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		session, err = that.gamePlay.GetSession(r.Context(), cookie.Value)
		if err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
			that.fail(w, log, err)
			return
		}
	}

	if session == nil {
		var err error
		if session, err = that.gamePlay.CreateSession(r.Context(), entity.ModeHumanVsHuman); err != nil {
			that.fail(w, log, err)
			return
		}

		setSessionCookie(w, session.ID)
	}

	that.write(w, log, that.tpl.page, newBoardView(session))
}

func (that *handlers) create(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "create")

	mode := entity.ModeHumanVsHuman
	if value := r.FormValue("mode"); value != "" {
		parsed, err := entity.ParseMode(value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		mode = parsed
	}

	session, err := that.gamePlay.CreateSession(r.Context(), mode)
	if err != nil {
		that.fail(w, log, err)
		return
	}

	setSessionCookie(w, session.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (that *handlers) board(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "board")

	session, err := that.gamePlay.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.fail(w, log, err)
		return
	}

	that.write(w, log, that.tpl.board, newBoardView(session))
}

func (that *handlers) move(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "move")

	cell, err := strconv.Atoi(r.FormValue("cell"))
	if err != nil {
		// out of range, so the move is rejected like any other invalid click
		cell = -1
	}

	session, err := that.gamePlay.MakeTurn(r.Context(), chi.URLParam(r, "id"), cell)
	if err != nil {
		that.fail(w, log, err)
		return
	}

	that.write(w, log, that.tpl.board, newBoardView(session))
}

func (that *handlers) restart(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "restart")

	session, err := that.gamePlay.Restart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.fail(w, log, err)
		return
	}

	that.write(w, log, that.tpl.board, newBoardView(session))
}

func (that *handlers) mode(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "mode")

	mode, err := entity.ParseMode(r.FormValue("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := that.gamePlay.SetMode(r.Context(), chi.URLParam(r, "id"), mode)
	if err != nil {
		that.fail(w, log, err)
		return
	}

	that.write(w, log, that.tpl.board, newBoardView(session))
}

func (that *handlers) stream(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "stream")
	id := chi.URLParam(r, "id")

	if _, err := that.gamePlay.GetSession(r.Context(), id); err != nil {
		that.fail(w, log, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	// plain requests only get the headers
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()
	ch, unsubscribe := that.events.Subscribe(ctx, id)
	defer unsubscribe()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				log.Debug("subscriber dropped", "session", id)
				return
			}

			if err := writeEvent(w, event); err != nil {
				log.Debug("failed to write event", "session", id, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (that *handlers) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write pong", "error", err)
	}
}

func (that *handlers) write(w http.ResponseWriter, log *slog.Logger, t *template.Template, data boardView) {
	body, err := render(t, data)
	if err != nil {
		that.fail(w, log, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write(body); err != nil {
		log.Error("failed to write response", "error", err)
	}
}

func (that *handlers) fail(w http.ResponseWriter, log *slog.Logger, err error) {
	if errors.Is(err, apperror.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	log.Error("request failed", "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeEvent frames one event. Every line of a multi-line payload gets its own data field.
func writeEvent(w io.Writer, event Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Name); err != nil {
		return err
	}

	for _, line := range strings.Split(template.HTMLEscapeString(event.Data), "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "\n")

	return err
}
