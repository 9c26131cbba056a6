package notify

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewHub(logger)
}

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev event
	require.NoError(t, json.Unmarshal(msg, &ev))
	return ev
}

func TestHubStartsUninitialized(t *testing.T) {
	hub := newTestHub()
	assert.Equal(t, StateUninitialized, hub.State())
	assert.Equal(t, 0, hub.ClientCount())
}

func TestPublishWithZeroSubscribersIsNoOp(t *testing.T) {
	hub := newTestHub()
	err := hub.Publish("limits-reset", map[string]any{"timestamp": "123"})
	assert.NoError(t, err)
}

func TestClientReceivesWelcomeOnConnect(t *testing.T) {
	hub := newTestHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)

	ev := readEvent(t, conn)
	assert.Equal(t, EventWelcome, ev.Event)
	assert.Equal(t, "WebSocket connection established!", ev.Data["message"])
	assert.Equal(t, StateReady, hub.State())
}

func TestPublishReachesAllConnectedClients(t *testing.T) {
	hub := newTestHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	first := dialHub(t, server)
	second := dialHub(t, server)
	readEvent(t, first)  // welcome
	readEvent(t, second) // welcome

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish("limits-reset", map[string]any{"timestamp": "456"}))

	for _, conn := range []*websocket.Conn{first, second} {
		ev := readEvent(t, conn)
		assert.Equal(t, "limits-reset", ev.Event)
		assert.Equal(t, "456", ev.Data["timestamp"])
	}
}

func TestDisconnectedClientIsRemoved(t *testing.T) {
	hub := newTestHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	// Publishing after the disconnect is still a silent no-op.
	assert.NoError(t, hub.Publish("limits-reset", nil))
}

func TestPublishRacingDisconnectDoesNotPanic(t *testing.T) {
	hub := newTestHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := 0; i < 200; i++ {
			hub.Publish("limits-reset", map[string]any{"timestamp": "123"})
		}
	}()

	// Drop the client mid-broadcast; the hub must keep going.
	conn.Close()
	<-published

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.NoError(t, hub.Publish("limits-reset", nil))
}

func TestPublishRacingCloseDoesNotPanic(t *testing.T) {
	hub := newTestHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := 0; i < 200; i++ {
			hub.Publish("limits-reset", map[string]any{"timestamp": "456"})
		}
	}()

	hub.Close()
	<-published

	assert.Equal(t, StateClosed, hub.State())
	assert.Equal(t, 0, hub.ClientCount())
}

func TestClosedHubRefusesSubscriptions(t *testing.T) {
	hub := newTestHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	hub.Close()
	assert.Equal(t, StateClosed, hub.State())

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, 503, resp.StatusCode)
	}
}
