package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
)

// SortOrder - presentation order of the move history.
type SortOrder string

const (
	OrderAscending  SortOrder = "asc"
	OrderDescending SortOrder = "desc"
)

func (that SortOrder) Toggle() SortOrder {
	if that == OrderDescending {
		return OrderAscending
	}
	return OrderDescending
}

func (that SortOrder) Validate() error {
	switch that {
	case OrderAscending, OrderDescending:
		return nil
	default:
		return fmt.Errorf("%w: %q", apperror.ErrUnknownSortOrder, that)
	}
}

// Session - one browser or terminal playing a game, as it is stored.
type Session struct {
	ID          string    `json:"id"`
	History     []Board   `json:"history"`
	CurrentMove int       `json:"current_move"`
	Order       SortOrder `json:"order"`
}

func NewSession(id string) *Session {
	return &Session{
		ID:          id,
		History:     []Board{{}},
		CurrentMove: 0,
		Order:       OrderAscending,
	}
}
