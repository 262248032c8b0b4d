package entity

import "fmt"

const (
	StatusInProgress = "in_progress"
	StatusXWon       = "x_won"
	StatusOWon       = "o_won"
	StatusDraw       = "draw"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""

	BoardSize = 9
)

const (
	OutcomeWin  = "win"
	OutcomeDraw = "draw"
	OutcomeNext = "next"
)

// WinCombos lists every row, column and diagonal of the board.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a 3x3 grid stored row-major. Being an array, assigning it copies every cell.
type Board [BoardSize]string

// Game holds one match: the board, whose turn it is and whether moves are still accepted.
type Game struct {
	Board  Board  `json:"board"`
	Turn   string `json:"player_turn"`
	Active bool   `json:"active"`
	Winner string `json:"winner"`
}

// Transition reports what happened after an accepted move.
type Transition struct {
	Outcome string `json:"outcome"`
	Mark    string `json:"mark"`
}

func NewGame() *Game {
	return &Game{
		Board:  Board{EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell},
		Turn:   PlayerX,
		Active: true,
	}
}

// CheckWinner returns the mark that completes a winning line, or EmptyCell.
func CheckWinner(board Board) string {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func IsFull(board Board) bool {
	for _, cell := range board {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// IsDraw is true when every cell is taken and nobody completed a line.
func IsDraw(board Board) bool {
	return IsFull(board) && CheckWinner(board) == EmptyCell
}

// EmptyCells returns the free cell indexes in ascending order.
func EmptyCells(board Board) []int {
	cells := make([]int, 0, len(board))
	for i, cell := range board {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

func Opponent(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// ApplyMove places the current mark on cell. It reports false and leaves the game untouched when
// the cell is out of range, already taken, or the game is over.
func (that *Game) ApplyMove(cell int) bool {
	if !that.Active {
		return false
	}

	if cell < 0 || cell >= len(that.Board) {
		return false
	}

	if that.Board[cell] != EmptyCell {
		return false
	}

	that.Board[cell] = that.Turn

	return true
}

// AfterMove settles the game after an accepted move: it ends the game on a win or draw and
// otherwise hands the turn to the other side.
func (that *Game) AfterMove() Transition {
	if winner := CheckWinner(that.Board); winner != EmptyCell {
		that.Active = false
		that.Winner = winner
		return Transition{Outcome: OutcomeWin, Mark: winner}
	}

	if IsDraw(that.Board) {
		that.Active = false
		that.Winner = PlayerTie
		return Transition{Outcome: OutcomeDraw}
	}

	that.Turn = Opponent(that.Turn)

	return Transition{Outcome: OutcomeNext, Mark: that.Turn}
}

// MakeTurn applies a move for the side to play and settles the game.
func (that *Game) MakeTurn(cell int) (Transition, bool) {
	if !that.ApplyMove(cell) {
		return Transition{}, false
	}

	return that.AfterMove(), true
}

func (that *Game) Restart() {
	*that = *NewGame()
}

func (that *Game) Status() string {
	switch that.Winner {
	case PlayerX:
		return StatusXWon
	case PlayerO:
		return StatusOWon
	case PlayerTie:
		return StatusDraw
	default:
		return StatusInProgress
	}
}

func (that *Game) IsFinished() bool {
	return !that.Active
}

// StatusMessage is the line shown to players for the current state.
func (that *Game) StatusMessage() string {
	switch that.Status() {
	case StatusXWon:
		return Transition{Outcome: OutcomeWin, Mark: PlayerX}.Message()
	case StatusOWon:
		return Transition{Outcome: OutcomeWin, Mark: PlayerO}.Message()
	case StatusDraw:
		return Transition{Outcome: OutcomeDraw}.Message()
	default:
		return Transition{Outcome: OutcomeNext, Mark: that.Turn}.Message()
	}
}

func (that Transition) Message() string {
	switch that.Outcome {
	case OutcomeWin:
		return fmt.Sprintf("%s Wins!", that.Mark)
	case OutcomeDraw:
		return "It's a Draw!"
	default:
		return fmt.Sprintf("Player %s's Turn", that.Mark)
	}
}
