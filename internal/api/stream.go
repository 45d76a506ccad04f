package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aura-labs/aura/internal/monitor"
)

// subscriber abstracts a streaming client.
type subscriber interface {
	Send([]byte) error
	Close()
}

// Hub fans each produced snapshot out to connected dashboard clients.
type Hub struct {
	mu      sync.Mutex
	clients map[subscriber]struct{}
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[subscriber]struct{}),
		logger:  logger,
	}
}

func (h *Hub) register(c subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// BroadcastSnapshot serializes the snapshot once and sends it to every
// client. Clients whose send fails are dropped.
func (h *Hub) BroadcastSnapshot(snap *monitor.MetricsSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("snapshot encode failed", zap.Error(err))
		return
	}
	for c := range h.clients {
		if err := c.Send(payload); err != nil {
			c.Close()
			delete(h.clients, c)
		}
	}
}

// --- WebSocket client ---

var upgrader = websocket.Upgrader{
	// Dashboard origin varies per deployment; CORS already applies to
	// the rest of the API.
	CheckOrigin: func(*http.Request) bool { return true },
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
	log  *zap.Logger
}

func (c *wsClient) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.log.Warn("websocket send failed", zap.Error(err))
		_ = c.conn.Close()
		return err
	}
	return nil
}

func (c *wsClient) Close() {
	_ = c.conn.Close()
}

// handleStream upgrades the connection and keeps it registered until
// the client goes away. Incoming frames are drained and discarded.
func (d *Dependencies) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{conn: conn, log: d.Logger}
	d.Hub.register(client)
	defer func() {
		d.Hub.unregister(client)
		client.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
