// Package realtime pushes server events to connected clients over
// WebSocket. Delivery is best effort: slow or dead clients are dropped,
// never waited on.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quali-backend/internal/shared/telemetry"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

// Event is the wire envelope for one pushed notification.
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (cl *client) stop() {
	cl.once.Do(func() {
		close(cl.done)
		cl.conn.Close()
	})
}

// Hub tracks WebSocket connections per user and fans events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}

	upgrader websocket.Upgrader
}

// NewHub constructs a Hub. checkOrigin decides which origins may open a
// socket; nil allows same-origin only.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Serve upgrades the request and keeps the connection registered for the
// user until it closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	cl := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.register(userID, cl)

	go h.writeLoop(userID, cl)
	go h.readLoop(userID, cl)
	return nil
}

// Emit sends an event to every open connection of the user. It never
// blocks: a client with a full buffer is dropped.
func (h *Hub) Emit(userID, event string, payload any) {
	data, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		telemetry.Error("realtime.marshal", map[string]any{
			"event": event,
			"error": err.Error(),
		})
		return
	}

	h.mu.RLock()
	conns := make([]*client, 0, len(h.clients[userID]))
	for cl := range h.clients[userID] {
		conns = append(conns, cl)
	}
	h.mu.RUnlock()

	for _, cl := range conns {
		select {
		case cl.send <- data:
		case <-cl.done:
		default:
			h.unregister(userID, cl)
		}
	}
}

// Close shuts down every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for cl := range conns {
			cl.stop()
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) register(userID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][cl] = struct{}{}
}

func (h *Hub) unregister(userID string, cl *client) {
	h.mu.Lock()
	conns, ok := h.clients[userID]
	if ok {
		delete(conns, cl)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
	h.mu.Unlock()
	cl.stop()
}

func (h *Hub) writeLoop(userID string, cl *client) {
	defer h.unregister(userID, cl)
	for {
		select {
		case data := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-cl.done:
			cl.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// readLoop drains the connection so pings and close frames are handled.
func (h *Hub) readLoop(userID string, cl *client) {
	defer h.unregister(userID, cl)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Noop discards every event. Used when no realtime transport is wired.
type Noop struct{}

// Emit does nothing.
func (Noop) Emit(string, string, any) {}
