package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

// Renderer is the render sink: it is told about every cell that changed and every new status line.
// It must not block.
type Renderer interface {
	RenderCell(sessionID string, cell int, mark string)
	RenderStatus(sessionID string, status string)
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timeScheduler struct{}

func NewTimeScheduler() Scheduler {
	return timeScheduler{}
}

func (timeScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

type GamePlayService interface {
	CreateSession(ctx context.Context, mode entity.Mode) (*entity.Session, error)
	GetSession(ctx context.Context, sessionID string) (*entity.Session, error)

	MakeTurn(ctx context.Context, sessionID string, cell int) (*entity.Session, error)
	SystemMove(ctx context.Context, sessionID string, epoch uint64) (*entity.Session, error)

	Restart(ctx context.Context, sessionID string) (*entity.Session, error)
	SetMode(ctx context.Context, sessionID string, mode entity.Mode) (*entity.Session, error)
}

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
}

type gamePlayService struct {
	logger *slog.Logger

	// mu serialises transitions: each trigger runs to completion before the next one starts.
	mu sync.Mutex

	sessionRepo sessionRepo
	botService  BotService
	renderer    Renderer
	scheduler   Scheduler
	aiMoveDelay time.Duration
}

func NewGamePlayService(
	logger *slog.Logger,
	sessionRepo sessionRepo,
	botService BotService,
	renderer Renderer,
	scheduler Scheduler,
	aiMoveDelay time.Duration,
) GamePlayService {
	return &gamePlayService{
		logger:      logger.With("component", "gameplay"),
		sessionRepo: sessionRepo,
		botService:  botService,
		renderer:    renderer,
		scheduler:   scheduler,
		aiMoveDelay: aiMoveDelay,
	}
}

func (that *gamePlayService) CreateSession(ctx context.Context, mode entity.Mode) (*entity.Session, error) {
	session := entity.NewSession(uuid.NewString(), mode)

	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	that.logger.Info("session created", "session", session.ID, "mode", session.Mode)

	return session, nil
}

func (that *gamePlayService) GetSession(ctx context.Context, sessionID string) (*entity.Session, error) {
	session, err := that.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	return session, nil
}

// MakeTurn plays cell for the side to move. A rejected move is not an error: the unchanged
// session comes back and nothing is rendered.
func (that *gamePlayService) MakeTurn(ctx context.Context, sessionID string, cell int) (*entity.Session, error) {
	log := that.logger.With("method", "MakeTurn", "session", sessionID, "cell", cell)

	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	if session.SystemToMove() {
		log.Debug("move rejected, waiting for the system")
		return session, nil
	}

	mark := session.Game.Turn
	transition, ok := session.Game.MakeTurn(cell)
	if !ok {
		log.Debug("move rejected")
		return session, nil
	}

	if err = that.save(ctx, session); err != nil {
		return nil, err
	}

	log.Debug("move applied", "mark", mark, "outcome", transition.Outcome)
	that.render(session.ID, cell, mark, transition)

	if session.SystemToMove() {
		that.scheduleSystemMove(ctx, session.ID, session.Epoch)
	}

	return session, nil
}

// SystemMove lets the bot answer on the board of the given epoch. It does nothing when the board
// was restarted since, the mode changed, or it is no longer O's turn.
func (that *gamePlayService) SystemMove(ctx context.Context, sessionID string, epoch uint64) (*entity.Session, error) {
	log := that.logger.With("method", "SystemMove", "session", sessionID)

	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	if session.Epoch != epoch || !session.SystemToMove() {
		log.Debug("stale system move discarded", "epoch", epoch, "current_epoch", session.Epoch)
		return session, nil
	}

	started := time.Now()

	cell, transition, err := that.botService.MakeTurn(&session.Game)
	if err != nil {
		return nil, fmt.Errorf("bot failed to make turn: %w", err)
	}

	if err = that.save(ctx, session); err != nil {
		return nil, err
	}

	log.Debug("system move applied", "cell", cell, "outcome", transition.Outcome, "took", time.Since(started))
	that.render(session.ID, cell, entity.PlayerO, transition)

	return session, nil
}

func (that *gamePlayService) Restart(ctx context.Context, sessionID string) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	session.Restart()

	if err = that.save(ctx, session); err != nil {
		return nil, err
	}

	that.logger.Info("session restarted", "session", session.ID, "epoch", session.Epoch)
	that.renderBoard(session)

	return session, nil
}

// SetMode switches the session's mode, which always restarts the board.
func (that *gamePlayService) SetMode(ctx context.Context, sessionID string, mode entity.Mode) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	session.SetMode(mode)

	if err = that.save(ctx, session); err != nil {
		return nil, err
	}

	that.logger.Info("session mode changed", "session", session.ID, "mode", mode, "epoch", session.Epoch)
	that.renderBoard(session)

	return session, nil
}

func (that *gamePlayService) scheduleSystemMove(ctx context.Context, sessionID string, epoch uint64) {
	// the reply outlives the request that triggered it
	ctx = context.WithoutCancel(ctx)

	that.scheduler.AfterFunc(that.aiMoveDelay, func() {
		if _, err := that.SystemMove(ctx, sessionID, epoch); err != nil {
			that.logger.Error("system move failed", "session", sessionID, "error", err)
		}
	})
}

func (that *gamePlayService) save(ctx context.Context, session *entity.Session) error {
	session.UpdatedAt = time.Now()

	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

func (that *gamePlayService) render(sessionID string, cell int, mark string, transition entity.Transition) {
	that.renderer.RenderCell(sessionID, cell, mark)
	that.renderer.RenderStatus(sessionID, transition.Message())
}

func (that *gamePlayService) renderBoard(session *entity.Session) {
	for cell, mark := range session.Game.Board {
		that.renderer.RenderCell(session.ID, cell, mark)
	}

	that.renderer.RenderStatus(session.ID, session.Game.StatusMessage())
}
