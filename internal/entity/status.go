package entity

import "fmt"

type StatusKind string

const (
	StatusInProgress StatusKind = "in_progress"
	StatusWinner     StatusKind = "winner"
	StatusDraw       StatusKind = "draw"
)

// Status - outcome of a board as seen by the player about to move.
type Status struct {
	Kind   StatusKind `json:"kind"`
	Player Cell       `json:"player"`
}

// StatusOf - derives the status of a board, turn is the player to move next.
func StatusOf(board Board, turn Cell) Status {
	if result, won := Evaluate(board); won {
		return Status{Kind: StatusWinner, Player: result.Player}
	}

	if board.IsFull() {
		return Status{Kind: StatusDraw}
	}

	return Status{Kind: StatusInProgress, Player: turn}
}

func (that Status) IsFinished() bool {
	return that.Kind == StatusWinner || that.Kind == StatusDraw
}

func (that Status) String() string {
	switch that.Kind {
	case StatusWinner:
		return fmt.Sprintf("Winner: %s", that.Player)
	case StatusDraw:
		return "Draw! No one wins"
	default:
		return fmt.Sprintf("Player: %s", that.Player)
	}
}
