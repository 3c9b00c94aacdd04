package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/presenter"
)

const sendBufferSize = 16

type client struct {
	sessionID string
	send      chan []byte
}

func newClient(sessionID string) *client {
	return &client{
		sessionID: sessionID,
		send:      make(chan []byte, sendBufferSize),
	}
}

// Hub - keeps the open connections of every session and fans views out to them.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "websocket_hub"),

		clients: make(map[string]map[*client]struct{}),
	}
}

// Publish - sends the view to every connection of the session.
// A connection that cannot keep up is dropped instead of blocking the caller.
func (that *Hub) Publish(sessionID string, view *presenter.View) {
	log := that.logger.With("method", "Publish", "sessionID", sessionID)

	message, err := json.Marshal(Response{Action: actionState, View: view})
	if err != nil {
		log.Error("failed to marshal view", "error", err)
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for c := range that.clients[sessionID] {
		that.deliverLocked(c, message)
	}
}

// Connections - number of open connections of the session.
func (that *Hub) Connections(sessionID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.clients[sessionID])
}

func (that *Hub) register(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	conns, ok := that.clients[c.sessionID]
	if !ok {
		conns = make(map[*client]struct{})
		that.clients[c.sessionID] = conns
	}

	conns[c] = struct{}{}
}

func (that *Hub) unregister(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.removeLocked(c)
}

// deliver - queues a message for a single connection.
func (that *Hub) deliver(c *client, message []byte) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.deliverLocked(c, message)
}

func (that *Hub) deliverLocked(c *client, message []byte) {
	if _, ok := that.clients[c.sessionID][c]; !ok {
		return
	}

	select {
	case c.send <- message:
	default:
		that.logger.Warn("dropping slow connection", "sessionID", c.sessionID)
		that.removeLocked(c)
	}
}

func (that *Hub) removeLocked(c *client) {
	conns, ok := that.clients[c.sessionID]
	if !ok {
		return
	}

	if _, ok = conns[c]; !ok {
		return
	}

	delete(conns, c)
	close(c.send)

	if len(conns) == 0 {
		delete(that.clients, c.sessionID)
	}
}
