package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-timetravel/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readTimeout = 5 * time.Second

type testEnv struct {
	url string
	hub *Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := suite.NewLogger()
	hub := NewHub(logger)
	manager := usecase.NewGameManager(logger, repository.NewMemorySessionRepository(time.Hour), hub)

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(New(logger, manager, hub).Routes(ctx))

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return &testEnv{
		url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		hub: hub,
	}
}

func (that *testEnv) dial(t *testing.T, sessionID string) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	if sessionID != "" {
		header.Set("Cookie", sessionCookieName+"="+sessionID)
	}

	conn, resp, err := websocket.DefaultDialer.Dial(that.url, header)
	require.NoError(t, err)
	resp.Body.Close()

	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

// receive - reads the next response, skipping broadcasts unless action is "state".
func receive(t *testing.T, conn *websocket.Conn, action string) Response {
	t.Helper()

	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

		var response Response
		require.NoError(t, conn.ReadJSON(&response))

		if response.Action == action {
			return response
		}
	}
}

func TestServer_Connect(t *testing.T) {
	t.Run("Sends the current view on connect", func(t *testing.T) {
		// Given: a running server
		env := newTestEnv(t)

		// When: a client connects with a session cookie
		conn := env.dial(t, "alice")

		// Then: the first message is a sync with a fresh game
		response := receive(t, conn, actionSync)
		require.NotNil(t, response.View)
		assert.Equal(t, "alice", response.View.SessionID)
		assert.Equal(t, "Player: X", response.View.Status.Text)
		assert.Len(t, response.View.History, 1)
	})

	t.Run("Issues a session cookie when missing", func(t *testing.T) {
		env := newTestEnv(t)

		conn, resp, err := websocket.DefaultDialer.Dial(env.url, nil)
		require.NoError(t, err)
		defer conn.Close()
		defer resp.Body.Close()

		cookies := resp.Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, sessionCookieName, cookies[0].Name)

		response := receive(t, conn, actionSync)
		require.NotNil(t, response.View)
		assert.Equal(t, cookies[0].Value, response.View.SessionID)
	})
}

func TestServer_Actions(t *testing.T) {
	t.Run("Cell click replies with the new view", func(t *testing.T) {
		env := newTestEnv(t)
		conn := env.dial(t, "alice")
		receive(t, conn, actionSync)

		send(t, conn, `{"action":"cell:click","payload":{"cell":4}}`)

		response := receive(t, conn, actionClick)
		require.NotNil(t, response.View)
		assert.Empty(t, response.Error)
		assert.Equal(t, "X", response.View.Board[4])
		assert.Equal(t, "Player: O", response.View.Status.Text)
	})

	t.Run("History select and order toggle", func(t *testing.T) {
		env := newTestEnv(t)
		conn := env.dial(t, "alice")
		receive(t, conn, actionSync)

		send(t, conn, `{"action":"cell:click","payload":{"cell":0}}`)
		receive(t, conn, actionClick)
		send(t, conn, `{"action":"cell:click","payload":{"cell":1}}`)
		receive(t, conn, actionClick)

		send(t, conn, `{"action":"history:select","payload":{"move":1}}`)
		jumped := receive(t, conn, actionSelect)
		require.NotNil(t, jumped.View)
		assert.Equal(t, 1, jumped.View.CurrentMove)
		assert.Len(t, jumped.View.History, 3)

		send(t, conn, `{"action":"history:order"}`)
		ordered := receive(t, conn, actionOrder)
		require.NotNil(t, ordered.View)
		assert.Equal(t, entity.OrderDescending, ordered.View.Order)

		send(t, conn, `{"action":"game:restart"}`)
		restarted := receive(t, conn, actionRestart)
		require.NotNil(t, restarted.View)
		assert.Equal(t, 0, restarted.View.CurrentMove)
		assert.Len(t, restarted.View.History, 1)
	})

	t.Run("Errors are reported to the sender", func(t *testing.T) {
		env := newTestEnv(t)
		conn := env.dial(t, "alice")
		receive(t, conn, actionSync)

		tests := []struct {
			raw    string
			action string
			error  string
		}{
			{raw: `{"action":"history:select","payload":{"move":5}}`, action: actionSelect, error: "out of history range"},
			{raw: `{"action":"cell:click","payload":{"cell":12}}`, action: actionClick, error: "invalid cell index"},
			{raw: `{"action":"cell:click","payload":{}}`, action: actionClick, error: "missing payload field: cell"},
			{raw: `{"action":"cell:click","payload":{"cell":"a"}}`, action: actionClick, error: "malformed message"},
			{raw: `{"action":"game:leave"}`, action: "game:leave", error: "unknown action"},
			{raw: `not json`, action: "", error: "malformed message"},
		}

		for _, tt := range tests {
			send(t, conn, tt.raw)

			response := receive(t, conn, tt.action)
			assert.Nil(t, response.View, tt.raw)
			assert.Contains(t, response.Error, tt.error, tt.raw)
		}
	})
}

func TestServer_Broadcast(t *testing.T) {
	t.Run("Other connections of the session receive the new state", func(t *testing.T) {
		// Given: two tabs of one session and one of another
		env := newTestEnv(t)
		first := env.dial(t, "alice")
		second := env.dial(t, "alice")
		stranger := env.dial(t, "bob")
		receive(t, first, actionSync)
		receive(t, second, actionSync)
		receive(t, stranger, actionSync)

		require.Eventually(t, func() bool {
			return env.hub.Connections("alice") == 2
		}, readTimeout, 10*time.Millisecond)

		// When: the first tab plays
		send(t, first, `{"action":"cell:click","payload":{"cell":8}}`)

		// Then: the second tab gets the state push
		pushed := receive(t, second, actionState)
		require.NotNil(t, pushed.View)
		assert.Equal(t, "X", pushed.View.Board[8])

		// And: the other session is untouched
		send(t, stranger, `{"action":"history:order"}`)
		own := receive(t, stranger, actionOrder)
		require.NotNil(t, own.View)
		assert.Equal(t, "", own.View.Board[8])
	})
}

func TestHub(t *testing.T) {
	t.Run("Drops a client whose buffer is full", func(t *testing.T) {
		hub := NewHub(suite.NewLogger())
		c := newClient("alice")
		hub.register(c)

		for range sendBufferSize + 1 {
			hub.Publish("alice", nil)
		}

		assert.Equal(t, 0, hub.Connections("alice"))

		count := 0
		for range c.send {
			count++
		}
		assert.Equal(t, sendBufferSize, count)
	})

	t.Run("Unregister is idempotent", func(t *testing.T) {
		hub := NewHub(suite.NewLogger())
		c := newClient("alice")
		hub.register(c)

		hub.unregister(c)
		hub.unregister(c)
		hub.deliver(c, []byte("late"))

		assert.Equal(t, 0, hub.Connections("alice"))
	})
}

func TestServer_Origin(t *testing.T) {
	t.Run("Page on another port of the same host may connect", func(t *testing.T) {
		env := newTestEnv(t)

		header := http.Header{}
		header.Set("Origin", "http://127.0.0.1:9090")

		conn, resp, err := websocket.DefaultDialer.Dial(env.url, header)
		require.NoError(t, err)
		defer conn.Close()
		defer resp.Body.Close()

		response := receive(t, conn, actionSync)
		assert.NotNil(t, response.View)
	})

	t.Run("Foreign origin is refused", func(t *testing.T) {
		// Given: a page served by another site
		env := newTestEnv(t)

		header := http.Header{}
		header.Set("Origin", "http://evil.example")

		// When: it tries to open the socket
		conn, resp, err := websocket.DefaultDialer.Dial(env.url, header)

		// Then: the handshake fails with 403
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Nil(t, conn)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestSameHostOrigin(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		origin string
		want   bool
	}{
		{name: "no origin", host: "localhost:9091", origin: "", want: true},
		{name: "same host other port", host: "localhost:9091", origin: "http://localhost:9090", want: true},
		{name: "case insensitive", host: "Example.com:9091", origin: "http://example.COM:9090", want: true},
		{name: "ipv6", host: "[::1]:9091", origin: "http://[::1]:9090", want: true},
		{name: "other host", host: "localhost:9091", origin: "http://evil.example", want: false},
		{name: "broken origin", host: "localhost:9091", origin: "http://%zz", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			assert.Equal(t, tt.want, sameHostOrigin(req))
		})
	}
}
