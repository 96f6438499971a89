package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tunereel/pkg/workflow"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the server only listens on localhost; the webview shell is the
	// expected origin and sends none
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEvent is the envelope pushed to connected clients.
type wsEvent struct {
	Type    string          `json:"type"` // "state" or "notification"
	State   *workflow.State `json:"state,omitempty"`
	Message string          `json:"message,omitempty"`
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan wsEvent
}

// EventHub pushes workflow state changes and notifications to websocket
// subscribers. Slow clients are dropped rather than allowed to block the
// broadcast path.
type EventHub struct {
	mu      sync.Mutex
	clients map[string]*wsClient
}

func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[string]*wsClient)}
}

// HandleWS upgrades the connection and registers the client.
func (h *EventHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan wsEvent, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	slog.Debug("websocket client connected", "client", c.id)

	go h.writePump(c)
	go h.readPump(c)
}

// BroadcastState pushes a state snapshot to every subscriber.
func (h *EventHub) BroadcastState(s workflow.State) {
	h.broadcast(wsEvent{Type: "state", State: &s})
}

// Notify pushes an interrupt-style notification to every subscriber.
func (h *EventHub) Notify(message string) {
	h.broadcast(wsEvent{Type: "notification", Message: message})
}

func (h *EventHub) broadcast(ev wsEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- ev:
		default:
			slog.Warn("dropping slow websocket client", "client", id)
			close(c.send)
			delete(h.clients, id)
		}
	}
}

func (h *EventHub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		close(c.send)
		delete(h.clients, c.id)
	}
	h.mu.Unlock()
	c.conn.Close()
}

// readPump discards inbound messages; the socket is push-only. It exists to
// notice the peer going away.
func (h *EventHub) readPump(c *wsClient) {
	defer h.remove(c)
	c.conn.SetReadDeadline(time.Time{})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *EventHub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				slog.Debug("websocket write failed", "client", c.id, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// ClientCount reports the number of connected subscribers.
func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
