package entity

import (
	"errors"
	"fmt"
	"time"
)

type Mode string

const (
	ModeHumanVsHuman  Mode = "human-vs-human"
	ModeHumanVsSystem Mode = "human-vs-system"
)

var ErrUnknownMode = errors.New("unknown game mode")

// ParseMode validates a mode coming from the page's select box.
func ParseMode(value string) (Mode, error) {
	switch mode := Mode(value); mode {
	case ModeHumanVsHuman, ModeHumanVsSystem:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
}

// Session is the board one browser tab plays on. Epoch grows on every restart so work scheduled
// against an older board can tell it is stale.
type Session struct {
	ID        string    `json:"id"`
	Game      Game      `json:"game"`
	Mode      Mode      `json:"mode"`
	Epoch     uint64    `json:"epoch"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(id string, mode Mode) *Session {
	now := time.Now()

	return &Session{
		ID:        id,
		Game:      *NewGame(),
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (that *Session) IsWithSystem() bool {
	return that.Mode == ModeHumanVsSystem
}

// SystemToMove is true when the AI owes a reply on this board.
func (that *Session) SystemToMove() bool {
	return that.IsWithSystem() && that.Game.Active && that.Game.Turn == PlayerO
}

// Restart resets the board and starts a new epoch.
func (that *Session) Restart() {
	that.Game.Restart()
	that.Epoch++
	that.UpdatedAt = time.Now()
}

// SetMode switches the mode; changing mode always restarts the board.
func (that *Session) SetMode(mode Mode) {
	that.Mode = mode
	that.Restart()
}
