package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/presenter"
)

var (
	errMissingField     = errors.New("missing payload field")
	errMalformedMessage = errors.New("malformed message")
	errUnknownAction    = errors.New("unknown action")
)

func (that *Server) handleCellClick(ctx context.Context, sessionID string, msg *Message) (*presenter.View, error) {
	payload, err := decodePayload(msg)
	if err != nil {
		return nil, err
	}

	if payload.Cell == nil {
		return nil, fmt.Errorf("%w: cell", errMissingField)
	}

	return that.manager.Play(ctx, sessionID, *payload.Cell)
}

func (that *Server) handleHistorySelect(ctx context.Context, sessionID string, msg *Message) (*presenter.View, error) {
	payload, err := decodePayload(msg)
	if err != nil {
		return nil, err
	}

	if payload.Move == nil {
		return nil, fmt.Errorf("%w: move", errMissingField)
	}

	return that.manager.JumpTo(ctx, sessionID, *payload.Move)
}

func (that *Server) handleRestart(ctx context.Context, sessionID string, _ *Message) (*presenter.View, error) {
	return that.manager.Restart(ctx, sessionID)
}

func (that *Server) handleOrder(ctx context.Context, sessionID string, _ *Message) (*presenter.View, error) {
	return that.manager.ToggleOrder(ctx, sessionID)
}

func decodePayload(msg *Message) (Payload, error) {
	var payload Payload

	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}

// errorMessage - hides storage failures from the client.
func errorMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return errMalformedMessage.Error()
	case errors.Is(err, errMissingField),
		errors.Is(err, errMalformedMessage),
		errors.Is(err, errUnknownAction),
		errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, apperror.ErrMoveOutOfRange):
		return err.Error()
	default:
		return "internal error"
	}
}
