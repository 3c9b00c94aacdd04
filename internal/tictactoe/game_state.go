package tictactoe

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

// GameState - history of board snapshots and the move currently displayed.
// History[0] is always the empty board; every later snapshot adds exactly one mark.
type GameState struct {
	history     []entity.Board
	currentMove int
}

// New - returns a game at "game start".
func New() *GameState {
	return &GameState{
		history:     []entity.Board{{}},
		currentMove: 0,
	}
}

// Restore - rebuilds a game from a stored history, rejecting histories
// that could not have been produced by play.
func Restore(history []entity.Board, currentMove int) (*GameState, error) {
	if err := validateHistory(history); err != nil {
		return nil, err
	}

	if currentMove < 0 || currentMove >= len(history) {
		return nil, fmt.Errorf("%w: current move %d outside of %d snapshots", apperror.ErrCorruptedHistory, currentMove, len(history))
	}

	return &GameState{
		history:     slices.Clone(history),
		currentMove: currentMove,
	}, nil
}

// ApplyMove - places the mark of the player to move at index.
// Returns false and leaves the game untouched when the cell is taken,
// the index is off the board or the current board is already won.
func (that *GameState) ApplyMove(index int) bool {
	board := that.Board()

	if !entity.IsValidIndex(index) || board[index] != entity.Empty {
		return false
	}

	if that.Status().IsFinished() {
		return false
	}

	next := board.With(index, that.Turn())

	that.history = append(that.history[:that.currentMove+1], next)
	that.currentMove = len(that.history) - 1

	return true
}

// JumpTo - selects a snapshot without discarding anything after it.
func (that *GameState) JumpTo(move int) error {
	if move < 0 || move >= len(that.history) {
		return fmt.Errorf("%w: move %d, history has %d snapshots", apperror.ErrMoveOutOfRange, move, len(that.history))
	}

	that.currentMove = move

	return nil
}

func (that *GameState) Restart() {
	that.history = []entity.Board{{}}
	that.currentMove = 0
}

// MoveLocation - 1-based row and column of the mark placed at move.
// Move 0 is the game start and has no location.
func (that *GameState) MoveLocation(move int) (entity.Location, bool) {
	index, ok := that.moveIndex(move)
	if !ok {
		return entity.Location{}, false
	}

	return entity.LocationOf(index), true
}

// MoverAt - mark placed at move, Empty for the game start.
func (that *GameState) MoverAt(move int) entity.Cell {
	index, ok := that.moveIndex(move)
	if !ok {
		return entity.Empty
	}

	return that.history[move][index]
}

func (that *GameState) moveIndex(move int) (int, bool) {
	if move < 1 || move >= len(that.history) {
		return -1, false
	}

	return that.history[move-1].Diff(that.history[move])
}

// Board - snapshot at the current move.
func (that *GameState) Board() entity.Board {
	return that.history[that.currentMove]
}

func (that *GameState) CurrentMove() int {
	return that.currentMove
}

// Len - number of snapshots, including the game start.
func (that *GameState) Len() int {
	return len(that.history)
}

// History - copy of every snapshot on the current timeline.
func (that *GameState) History() []entity.Board {
	return slices.Clone(that.history)
}

// Turn - player to move at the current snapshot.
func (that *GameState) Turn() entity.Cell {
	return entity.TurnFor(that.currentMove)
}

func (that *GameState) Winner() (entity.WinResult, bool) {
	return entity.Evaluate(that.Board())
}

func (that *GameState) IsDraw() bool {
	return entity.IsDraw(that.Board())
}

func (that *GameState) Status() entity.Status {
	return entity.StatusOf(that.Board(), that.Turn())
}

// validateHistory - every snapshot adds exactly one mark of the player
// whose turn it was, and nothing is played after a win.
func validateHistory(history []entity.Board) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: no snapshots", apperror.ErrCorruptedHistory)
	}

	if history[0] != (entity.Board{}) {
		return fmt.Errorf("%w: first snapshot is not empty", apperror.ErrCorruptedHistory)
	}

	for move := 1; move < len(history); move++ {
		prev, next := history[move-1], history[move]

		if _, won := entity.Evaluate(prev); won {
			return fmt.Errorf("%w: move %d played after a win", apperror.ErrCorruptedHistory, move)
		}

		index, ok := prev.Diff(next)
		if !ok {
			return fmt.Errorf("%w: move %d does not change exactly one cell", apperror.ErrCorruptedHistory, move)
		}

		if prev[index] != entity.Empty || next[index] != entity.TurnFor(move-1) {
			return fmt.Errorf("%w: move %d places %q over %q", apperror.ErrCorruptedHistory, move, next[index], prev[index])
		}
	}

	return nil
}
