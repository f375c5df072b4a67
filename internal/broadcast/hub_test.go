package broadcast

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := New(Config{
		PongTimeout:       time.Second,
		PingInterval:      50 * time.Millisecond,
		MessageBufferSize: 4,
		Logger:            zap.NewNop(),
	})
	go h.Run()
	t.Cleanup(h.Stop)

	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastDeliversToConnectedClient(t *testing.T) {
	h, srv := newTestHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return clientCount(h) == 1 }, time.Second, 5*time.Millisecond)

	h.Broadcast([]byte(`{"matchesFound":1}`))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, `{"matchesFound":1}`, string(msg))
}

func TestHub_BroadcastFansOutToMultipleClients(t *testing.T) {
	h, srv := newTestHub(t)
	connA := dial(t, srv)
	connB := dial(t, srv)

	require.Eventually(t, func() bool { return clientCount(h) == 2 }, time.Second, 5*time.Millisecond)

	h.Broadcast([]byte("hello"))

	for _, c := range []*websocket.Conn{connA, connB} {
		_ = c.SetReadDeadline(time.Now().Add(time.Second))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, "hello", string(msg))
	}
}

func TestHub_DisconnectUnregistersClient(t *testing.T) {
	h, srv := newTestHub(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return clientCount(h) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return clientCount(h) == 0 }, time.Second, 5*time.Millisecond)
}

func clientCount(h *Hub) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
