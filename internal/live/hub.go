// Package live provides WebSocket broadcasting of analysis updates so
// clients can refresh insights as new emotion entries arrive.
package live

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mindmate-insights/internal/logging"
)

// InsightEvent is pushed to subscribed clients whenever a subject's
// analysis results change.
type InsightEvent struct {
	Type      string      `json:"type"`
	SubjectID string      `json:"subject_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Client represents a single WebSocket subscriber
type Client struct {
	ID         string
	Connection *websocket.Conn
	Send       chan InsightEvent
	SubjectID  string // empty subscribes to all subjects
	hub        *Hub
	closed     bool
	mu         sync.Mutex
}

// SafeClose closes the client's send channel at most once
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed && c.Send != nil {
		close(c.Send)
		c.closed = true
	}
}

func (c *Client) wants(event InsightEvent) bool {
	return c.SubjectID == "" || c.SubjectID == event.SubjectID
}

// Hub manages WebSocket connections and broadcasts
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan InsightEvent
	logger     logging.Logger
	mutex      sync.RWMutex
}

// NewHub creates a new broadcast hub
func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan InsightEvent, 256),
		logger:     logger.WithComponent("live_hub"),
	}
}

// NewClient creates a client attached to the hub for the given subject
func (h *Hub) NewClient(conn *websocket.Conn, subjectID string) *Client {
	return &Client{
		ID:         uuid.New().String(),
		Connection: conn,
		Send:       make(chan InsightEvent, 16),
		SubjectID:  subjectID,
		hub:        h,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues an event for delivery to matching clients. If the
// hub's buffer is full the event is dropped; clients re-sync on the
// next one.
func (h *Hub) Broadcast(event InsightEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast buffer full, dropping event", "subject_id", event.SubjectID)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run starts the hub's main loop and blocks until ctx is canceled
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mutex.Lock()
		for client := range h.clients {
			client.SafeClose()
			if err := client.Connection.Close(); err != nil {
				h.logger.Warn("error closing client connection", "client_id", client.ID, "error", err.Error())
			}
		}
		h.clients = make(map[*Client]bool)
		h.mutex.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Debug("client connected", "client_id", client.ID, "subject_id", client.SubjectID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.SafeClose()
			}
			h.mutex.Unlock()
			h.logger.Debug("client disconnected", "client_id", client.ID)

		case event := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				if !client.wants(event) {
					continue
				}
				select {
				case client.Send <- event:
				default:
					// Slow consumer, drop it
					go h.Unregister(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

const writeTimeout = 10 * time.Second

// WritePump delivers queued events to the client's connection. It runs
// until the send channel closes or a write fails.
func (c *Client) WritePump() {
	defer func() { _ = c.Connection.Close() }()

	for event := range c.Send {
		_ = c.Connection.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.Connection.WriteJSON(event); err != nil {
			return
		}
	}
	_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump drains incoming frames so close and pong handling work, and
// unregisters the client when the connection drops.
func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)

	c.Connection.SetReadLimit(512)
	for {
		if _, _, err := c.Connection.ReadMessage(); err != nil {
			return
		}
	}
}
