package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/presenter"
)

const (
	sessionCookieName = "user_session"

	maxMessageSize  = 4096
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

type gameManager interface {
	State(ctx context.Context, id string) (*presenter.View, error)
	Play(ctx context.Context, id string, cell int) (*presenter.View, error)
	JumpTo(ctx context.Context, id string, move int) (*presenter.View, error)
	Restart(ctx context.Context, id string) (*presenter.View, error)
	ToggleOrder(ctx context.Context, id string) (*presenter.View, error)
}

type handlerFunc func(ctx context.Context, sessionID string, msg *Message) (*presenter.View, error)

type Server struct {
	logger  *slog.Logger
	manager gameManager
	hub     *Hub

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, manager gameManager, hub *Hub) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		manager: manager,
		hub:     hub,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameHostOrigin,
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionClick] = server.handleCellClick
	server.handlers[actionSelect] = server.handleHistorySelect
	server.handlers[actionRestart] = server.handleRestart
	server.handlers[actionOrder] = server.handleOrder

	return server
}

// Routes - exposes the upgrade endpoint.
func (that *Server) Routes(ctx context.Context) http.Handler {
	router := chi.NewRouter()

	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return router
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: that.Routes(ctx),
		// a read deadline would outlive the upgrade, only the handshake is bounded
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection and serves it until the peer leaves.
func (that *Server) upgradeToWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	sessionID, header := that.sessionCookie(r)

	conn, err := that.upgrader.Upgrade(w, r, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)

	c := newClient(sessionID)
	that.hub.register(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		that.writeMessages(conn, c)
	}()

	log.Info("WebSocket connection established", "sessionID", sessionID)

	view, err := that.manager.State(ctx, sessionID)
	if err != nil {
		log.Error("failed to get state", "error", err)
		that.reply(c, actionSync, nil, err)
	} else {
		that.reply(c, actionSync, view, nil)
	}

	if err = that.handleMessages(ctx, conn, c); err != nil {
		log.Info("WebSocket connection closed", "sessionID", sessionID, "reason", err)
	}

	that.hub.unregister(c)
	<-done
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, conn *websocket.Conn, c *client) error {
	log := that.logger.With("method", "handleMessages", "sessionID", c.sessionID)

	for {
		_, body, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(body, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.reply(c, "", nil, errMalformedMessage)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.reply(c, message.Action, nil, fmt.Errorf("%w %q", errUnknownAction, message.Action))
			continue
		}

		view, err := handler(ctx, c.sessionID, &message)
		if err != nil {
			log.Warn("failed to process message", "action", message.Action, "error", err)
		}

		that.reply(c, message.Action, view, err)
	}
}

// writeMessages - the only goroutine writing to conn.
func (that *Server) writeMessages(conn *websocket.Conn, c *client) {
	log := that.logger.With("method", "writeMessages", "sessionID", c.sessionID)

	for message := range c.send {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			log.Error("failed to set write deadline", "error", err)
			conn.Close()
			return
		}

		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Error("failed to write message", "error", err)
			conn.Close()
			return
		}
	}

	deadline := time.Now().Add(writeTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

func (that *Server) reply(c *client, action string, view *presenter.View, err error) {
	response := Response{Action: action, View: view}
	if err != nil {
		response = Response{Action: action, Error: errorMessage(err)}
	}

	message, marshalErr := json.Marshal(response)
	if marshalErr != nil {
		that.logger.Error("failed to marshal response", "error", marshalErr)
		return
	}

	that.hub.deliver(c, message)
}

// sessionCookie - reads the session, or issues one through the upgrade response.
func (that *Server) sessionCookie(r *http.Request) (string, http.Header) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	that.logger.Info("session cookie not found, new one created", "sessionID", id)

	return id, http.Header{"Set-Cookie": []string{cookie.String()}}
}

// sameHostOrigin - the page is served from the HTTP port, so only the
// hostnames are compared. Requests without an Origin are not from a browser.
func sameHostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if h, _, err := net.SplitHostPort(r.Host); err == nil {
		host = h
	}

	return strings.EqualFold(originURL.Hostname(), strings.Trim(host, "[]"))
}
