package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
)

// Cell - state of a single board square.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (that Cell) String() string {
	switch that {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

func (that Cell) MarshalText() ([]byte, error) {
	if that > O {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidCellValue, that)
	}

	return []byte(that.String()), nil
}

func (that *Cell) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*that = Empty
	case "X":
		*that = X
	case "O":
		*that = O
	default:
		return fmt.Errorf("%w: %q", apperror.ErrInvalidCellValue, text)
	}

	return nil
}

// TurnFor - the player to move when the game is at the given move number.
// X moves on even moves, O on odd ones.
func TurnFor(move int) Cell {
	if move%2 == 0 {
		return X
	}
	return O
}
