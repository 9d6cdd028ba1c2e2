package server_test

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/example/roomchat/internal/chat"
	"github.com/example/roomchat/internal/server"
)

var testClock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// startTestServer runs a Server with a fixed clock behind httptest. The hub is
// shut down when the test ends.
func startTestServer(t *testing.T, customize func(cfg *server.Config)) (*server.Server, *httptest.Server) {
	t.Helper()

	cfg := server.NewConfig()
	if customize != nil {
		customize(cfg)
	}
	srv := server.New(cfg, chat.WithClock(func() time.Time { return testClock }))
	srv.StartHub()

	testServer := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(func() {
		testServer.Close()
		_ = srv.Hub().Shutdown(2 * time.Second)
	})
	return srv, testServer
}

func buildWebSocketURL(t *testing.T, baseURL string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(baseURL, "http://"), "unexpected base URL %q", baseURL)
	return "ws://" + strings.TrimPrefix(baseURL, "http://") + "/ws"
}

func dial(t *testing.T, wsURL, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return dialer.Dial(wsURL, header)
}

func connect(t *testing.T, testServer *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, resp, err := dial(t, buildWebSocketURL(t, testServer.URL), "http://localhost:5173")
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func join(t *testing.T, conn *websocket.Conn, username, room string) {
	t.Helper()
	send(t, conn, chat.EventJoin, chat.JoinPayload{Username: username, Room: room})
}

func receive(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func receiveEvent(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()
	f := receive(t, conn)
	require.Equal(t, event, f.Event, "data: %s", f.Data)
	return f
}

func receiveEnvelope(t *testing.T, conn *websocket.Conn) chat.Envelope {
	t.Helper()
	f := receiveEvent(t, conn, chat.EventMessage)
	var env chat.Envelope
	require.NoError(t, json.Unmarshal(f.Data, &env))
	return env
}

func receiveNames(t *testing.T, conn *websocket.Conn, event string) []string {
	t.Helper()
	f := receiveEvent(t, conn, event)
	var names []string
	require.NoError(t, json.Unmarshal(f.Data, &names))
	return names
}

func expectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, raw, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no message, but received %s", raw)
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of message: %v", err)
}
