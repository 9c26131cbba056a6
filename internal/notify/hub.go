// Package notify is the in-process broadcast hub behind the /ws endpoint.
// Delivery is advisory only: no queueing for disconnected clients, no
// ordering guarantee across subscribers, no delivery confirmation. Nothing
// that affects eligibility or settings depends on an event arriving.
package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// EventWelcome greets every client immediately after its connection upgrade.
const EventWelcome = "welcome"

type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateClosed
)

const (
	sendBufferSize = 8
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	pongWait       = 60 * time.Second
)

type event struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

type Hub struct {
	log      *logrus.Entry
	upgrader websocket.Upgrader

	mu      sync.Mutex
	state   State
	clients map[*client]struct{}
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		log:   logger.WithField("component", "notify_hub"),
		state: StateUninitialized,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish broadcasts the event to every currently connected client. A client
// whose send buffer is full simply misses the event. Publishing with zero
// subscribers is a silent no-op.
func (h *Hub) Publish(name string, payload map[string]any) error {
	msg, err := json.Marshal(event{Event: name, Data: payload})
	if err != nil {
		return err
	}

	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range targets {
		select {
		case c.send <- msg:
		default:
			dropped++
		}
	}

	h.log.WithFields(logrus.Fields{
		"event":     name,
		"delivered": len(targets) - dropped,
		"dropped":   dropped,
	}).Info("Event published")
	return nil
}

// HandleWS upgrades the request and subscribes the client for the lifetime of
// its connection. The first subscriber moves the hub from uninitialized to
// ready; an upgrade failure is reported to that caller only.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.state == StateClosed {
		h.mu.Unlock()
		http.Error(w, "hub closed", http.StatusServiceUnavailable)
		return
	}
	if h.state == StateUninitialized {
		h.state = StateInitializing
		h.log.Info("Notification hub initializing")
	}
	h.mu.Unlock()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("WebSocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.state != StateReady {
		h.state = StateReady
		h.log.Info("Notification hub ready")
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{
		"remote_addr": r.RemoteAddr,
		"clients":     count,
	}).Info("Client connected")

	welcome, _ := json.Marshal(event{
		Event: EventWelcome,
		Data:  map[string]any{"message": "WebSocket connection established!"},
	})
	select {
	case c.send <- welcome:
	default:
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleWS(w, r)
}

// Close disconnects every client and refuses further subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	h.state = StateClosed
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
		c.conn.Close()
	}
	h.log.Info("Notification hub closed")
}

// remove unsubscribes the client. The send channel is never closed: Publish
// may still be holding a reference from a pre-disconnect snapshot, and a send
// into the orphaned buffer is harmless while a send on a closed channel would
// panic the process.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.done)
	}
	count := len(h.clients)
	h.mu.Unlock()
	c.conn.Close()
	if ok {
		h.log.WithField("clients", count).Info("Client disconnected")
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readPump drains the connection. There is no client-to-server event contract
// beyond the connection lifecycle itself.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
