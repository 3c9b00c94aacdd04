package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/presenter"
)

const (
	actionSync    = "sync"
	actionState   = "state"
	actionClick   = "cell:click"
	actionSelect  = "history:select"
	actionRestart = "game:restart"
	actionOrder   = "history:order"
)

// Message represents an inbound WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Cell *int `json:"cell,omitempty"`
	Move *int `json:"move,omitempty"`
}

// Response - what the server writes back, either a view or an error.
type Response struct {
	Action string          `json:"action"`
	View   *presenter.View `json:"view,omitempty"`
	Error  string          `json:"error,omitempty"`
}
