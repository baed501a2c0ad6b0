package ws

import (
	"encoding/json"
	"sync"

	"finhealth/internal/observability"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Admin feed message types
const (
	MsgScoreCalculated MessageType = "score_calculated"
	MsgCatalogChanged  MessageType = "catalog_changed"
	MsgError           MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans admin feed events out to every connected dashboard
type Hub struct {
	adminConns map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Message

	logger *observability.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	AdminID string
	Send    chan []byte
	Hub     *Hub
}

// NewHub creates a new WebSocket hub
func NewHub(logger *observability.Logger) *Hub {
	if logger == nil {
		logger = observability.NopLogger()
	}
	h := &Hub{
		adminConns: make(map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message, 256),
		logger:     logger.Component("ws"),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.adminConns[conn] = true
			h.mu.Unlock()
			h.logger.Info("admin connected", "admin_id", conn.AdminID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if h.adminConns[conn] {
				delete(h.adminConns, conn)
				close(conn.Send)
				h.logger.Info("admin disconnected", "admin_id", conn.AdminID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, _ := json.Marshal(msg)
			h.mu.RLock()
			for conn := range h.adminConns {
				select {
				case conn.Send <- data:
				default:
					// slow dashboard; drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// AdminCount reports how many dashboards are connected
func (h *Hub) AdminCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.adminConns)
}

// BroadcastToAdmins sends a message to every connected admin (implements service.Broadcaster).
// It never blocks the caller; events are dropped when the queue is full.
func (h *Hub) BroadcastToAdmins(msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("broadcast payload not encodable", "type", msgType, "error", err)
		return
	}
	select {
	case h.broadcast <- &Message{Type: MessageType(msgType), Payload: data}:
	default:
		h.logger.Warn("admin broadcast queue full, event dropped", "type", msgType)
	}
}
