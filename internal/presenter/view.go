// Package presenter derives everything a renderer needs from a game:
// the board, the status line, the winning cells and the labelled history.
package presenter

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/tictactoe"
)

type Status struct {
	Kind   entity.StatusKind `json:"kind"`
	Player string            `json:"player,omitempty"`
	Text   string            `json:"text"`
}

type HistoryEntry struct {
	Move   int    `json:"move"`
	Mover  string `json:"mover,omitempty"`
	Row    int    `json:"row,omitempty"`
	Col    int    `json:"col,omitempty"`
	Active bool   `json:"active"`
	Label  string `json:"label"`
}

// CellView - one square as drawn.
type CellView struct {
	Index   int    `json:"index"`
	Value   string `json:"value"`
	Winning bool   `json:"winning"`
}

type View struct {
	SessionID   string                   `json:"session_id"`
	Board       [entity.BoardSize]string `json:"board"`
	Status      Status                   `json:"status"`
	WinningLine []int                    `json:"winning_line"`
	History     []HistoryEntry           `json:"history"`
	CurrentMove int                      `json:"current_move"`
	Order       entity.SortOrder         `json:"order"`
	OrderToggle string                   `json:"order_toggle"`
}

// Build - renders the game at its current move. History entries are
// listed in the requested order; the game itself is not touched.
func Build(sessionID string, game *tictactoe.GameState, order entity.SortOrder) *View {
	board := game.Board()
	status := game.Status()

	view := &View{
		SessionID:   sessionID,
		WinningLine: []int{},
		CurrentMove: game.CurrentMove(),
		Order:       order,
		OrderToggle: orderToggleLabel(order),
		Status: Status{
			Kind: status.Kind,
			Text: status.String(),
		},
	}

	if status.Player != entity.Empty {
		view.Status.Player = status.Player.String()
	}

	for i, cell := range board {
		view.Board[i] = cell.String()
	}

	if result, won := entity.Evaluate(board); won {
		view.WinningLine = result.Line[:]
	}

	view.History = make([]HistoryEntry, 0, game.Len())
	for i := range game.Len() {
		move := i
		if order == entity.OrderDescending {
			move = game.Len() - 1 - i
		}

		view.History = append(view.History, historyEntry(game, move))
	}

	return view
}

func historyEntry(game *tictactoe.GameState, move int) HistoryEntry {
	entry := HistoryEntry{
		Move:   move,
		Active: move == game.CurrentMove(),
	}

	location, ok := game.MoveLocation(move)
	if ok {
		entry.Mover = game.MoverAt(move).String()
		entry.Row = location.Row
		entry.Col = location.Col
	}

	switch {
	case move == 0 && entry.Active:
		entry.Label = "Game start"
	case move == 0:
		entry.Label = "Game started"
	case entry.Active:
		entry.Label = fmt.Sprintf("You are at move #%d %s", move, location)
	default:
		entry.Label = fmt.Sprintf("#%d. Player %s moved at %s", move, entry.Mover, location)
	}

	return entry
}

func orderToggleLabel(order entity.SortOrder) string {
	if order == entity.OrderDescending {
		return "↑ Ascending"
	}
	return "↓ Descending"
}

// IsWinning - reports whether the cell at index belongs to the winning line.
func (that *View) IsWinning(index int) bool {
	for _, cell := range that.WinningLine {
		if cell == index {
			return true
		}
	}

	return false
}

// Rows - board split into rows for grid renderers.
func (that *View) Rows() [entity.BoardSide][entity.BoardSide]CellView {
	var rows [entity.BoardSide][entity.BoardSide]CellView

	for i, value := range that.Board {
		rows[i/entity.BoardSide][i%entity.BoardSide] = CellView{
			Index:   i,
			Value:   value,
			Winning: that.IsWinning(i),
		}
	}

	return rows
}

// ActiveIndex - position of the current move within History.
func (that *View) ActiveIndex() int {
	for i, entry := range that.History {
		if entry.Active {
			return i
		}
	}

	return 0
}
