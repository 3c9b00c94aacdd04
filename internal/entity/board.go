package entity

import "fmt"

const (
	BoardSide = 3
	BoardSize = BoardSide * BoardSide
)

// WinCombos - every winning line, in the order they are checked.
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

// Board - 3x3 grid stored row-major.
type Board [BoardSize]Cell

type WinResult struct {
	Player Cell   `json:"player"`
	Line   [3]int `json:"line"`
}

// Location - 1-based row and column of a board index.
type Location struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func LocationOf(index int) Location {
	return Location{
		Row: index/BoardSide + 1,
		Col: index%BoardSide + 1,
	}
}

func (that Location) String() string {
	return fmt.Sprintf("(%d, %d)", that.Row, that.Col)
}

func IsValidIndex(index int) bool {
	return index >= 0 && index < BoardSize
}

// Evaluate - returns the first completed line and its owner.
func Evaluate(board Board) (WinResult, bool) {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != Empty && a == b && b == c {
			return WinResult{Player: a, Line: combo}, true
		}
	}

	return WinResult{}, false
}

// IsDraw - board is full and nobody has a line.
func IsDraw(board Board) bool {
	if _, won := Evaluate(board); won {
		return false
	}

	return board.IsFull()
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == Empty {
			return false
		}
	}

	return true
}

// With - returns a copy of the board with the cell at index replaced.
func (that Board) With(index int, cell Cell) Board {
	that[index] = cell
	return that
}

// Diff - index of the only cell that differs between the two boards.
// Reports false when zero or several cells differ.
func (that Board) Diff(other Board) (int, bool) {
	found := -1

	for i := range that {
		if that[i] == other[i] {
			continue
		}

		if found != -1 {
			return -1, false
		}

		found = i
	}

	return found, found != -1
}
