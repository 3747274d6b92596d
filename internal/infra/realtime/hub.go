package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"streamgate/internal/domain/ports/event"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	writeTimeout  = 10 * time.Second
	sendQueueSize = 16
)

// Hub fans committed lifecycle transitions out to connected admin dashboards.
// It implements event.Publisher; Publish never blocks the lifecycle manager,
// slow consumers simply miss events.
type Hub struct {
	log *zerolog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan event.CodeEvent
}

func NewHub(logger *zerolog.Logger) *Hub {
	l := logger.With().Str("component", "RealtimeHub").Logger()
	return &Hub{
		log:     &l,
		clients: make(map[*client]struct{}),
	}
}

var _ event.Publisher = (*Hub)(nil)

// Publish queues the event for every connected client without blocking.
func (h *Hub) Publish(ev event.CodeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			// Client is not draining its queue; drop rather than stall.
		}
	}
}

// Handle upgrades the request and serves the event stream until the client
// disconnects.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan event.CodeEvent, sendQueueSize)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug().Int("clients", h.ClientCount()).Msg("client connected")

	go h.writeLoop(c)
	h.readLoop(c)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) writeLoop(c *client) {
	for ev := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(ev); err != nil {
			h.log.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}

// readLoop discards inbound messages; the feed is one-way. It exists to
// notice the peer closing the connection.
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}
