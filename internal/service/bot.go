package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	scoreXWins = -10
	scoreOWins = 10
	scoreTie   = 0
)

var (
	ErrNoAvailableMoves = errors.New("no available moves")
	ErrNotBotTurn       = errors.New("it's not the bot's turn")
)

// SearchResult is the root decision of one minimax run. Nodes counts every board evaluated.
type SearchResult struct {
	Cell  int
	Score int
	Nodes int
}

// BotService plays O with an exhaustive minimax search.
type BotService interface {
	BestMove(board entity.Board) (int, error)
	Search(board entity.Board) (SearchResult, error)
	MakeTurn(game *entity.Game) (int, entity.Transition, error)
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

func (that *botService) BestMove(board entity.Board) (int, error) {
	result, err := that.Search(board)
	if err != nil {
		return -1, err
	}

	return result.Cell, nil
}

// Search scores every free cell for O and keeps the first one with the strictly greatest score.
// Terminal scores are not discounted by depth, so a slow win ranks the same as a fast one.
func (that *botService) Search(board entity.Board) (SearchResult, error) {
	if entity.CheckWinner(board) != entity.EmptyCell {
		return SearchResult{}, apperror.ErrGameFinished
	}

	result := SearchResult{Cell: -1, Score: math.MinInt}

	for _, cell := range entity.EmptyCells(board) {
		next := board
		next[cell] = entity.PlayerO

		score := minimax(next, false, &result.Nodes)
		if score > result.Score {
			result.Score = score
			result.Cell = cell
		}
	}

	if result.Cell < 0 {
		return SearchResult{}, ErrNoAvailableMoves
	}

	return result, nil
}

// MakeTurn plays O's best cell on game and returns the cell with the resulting transition.
func (that *botService) MakeTurn(game *entity.Game) (int, entity.Transition, error) {
	if game.IsFinished() {
		return -1, entity.Transition{}, apperror.ErrGameFinished
	}

	if game.Turn != entity.PlayerO {
		return -1, entity.Transition{}, ErrNotBotTurn
	}

	cell, err := that.BestMove(game.Board)
	if err != nil {
		return -1, entity.Transition{}, fmt.Errorf("bot failed to choose a cell: %w", err)
	}

	transition, ok := game.MakeTurn(cell)
	if !ok {
		return -1, entity.Transition{}, fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	return cell, transition, nil
}

// minimax scores board for O. board is received by value, so trial moves never reach the caller.
func minimax(board entity.Board, maximizing bool, nodes *int) int {
	*nodes++

	switch entity.CheckWinner(board) {
	case entity.PlayerX:
		return scoreXWins
	case entity.PlayerO:
		return scoreOWins
	}

	if entity.IsFull(board) {
		return scoreTie
	}

	mark := entity.PlayerX
	best := math.MaxInt
	if maximizing {
		mark = entity.PlayerO
		best = math.MinInt
	}

	for _, cell := range entity.EmptyCells(board) {
		next := board
		next[cell] = mark

		score := minimax(next, !maximizing, nodes)
		if maximizing {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}

	return best
}
