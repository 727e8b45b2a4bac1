// Package notify pushes conversation events to connected operator
// dashboards over WebSocket and tracks operator presence.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/kv"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store"
)

const presenceKey = "online_operators"

// Event is one frame delivered to operator dashboards.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Event names pushed to dashboards.
const (
	EventNewMessage      = "new_message"
	EventNewConversation = "new_conversation"
	EventQueueSizes      = "queue_sizes"
	EventStatusChange    = "conversation_status"
)

// client wraps one operator connection. Writes are serialized per
// connection since gorilla/websocket allows a single concurrent writer.
type client struct {
	operatorID string
	sector     string
	conn       *websocket.Conn
	writeMu    sync.Mutex
}

func (c *client) send(ev Event) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(ev); err != nil {
		slog.Warn("ws write failed", "operator_id", c.operatorID, "error", err)
	}
}

// Hub holds the connected operator dashboards. Construct with NewHub and
// inject into the dispatcher and HTTP server.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*client
	presence kv.Backend
}

func NewHub(presence kv.Backend) *Hub {
	return &Hub{
		clients:  make(map[*websocket.Conn]*client),
		presence: presence,
	}
}

// Register adds an operator connection. The same operator may hold
// several connections (multiple dashboard tabs).
func (h *Hub) Register(ctx context.Context, operatorID, sector string, conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = &client{operatorID: operatorID, sector: sector, conn: conn}
	h.mu.Unlock()

	if err := h.presence.SetAdd(ctx, presenceKey, operatorID); err != nil {
		slog.Warn("presence add failed", "operator_id", operatorID, "error", err)
	}
	slog.Info("operator connected", "operator_id", operatorID, "sector", sector)
}

// Unregister removes an operator connection, clearing presence when it
// was the operator's last one.
func (h *Hub) Unregister(ctx context.Context, conn *websocket.Conn) {
	h.mu.Lock()
	c, ok := h.clients[conn]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, conn)
	remaining := 0
	for _, other := range h.clients {
		if other.operatorID == c.operatorID {
			remaining++
		}
	}
	h.mu.Unlock()

	if remaining == 0 {
		if err := h.presence.SetRemove(ctx, presenceKey, c.operatorID); err != nil {
			slog.Warn("presence remove failed", "operator_id", c.operatorID, "error", err)
		}
	}
	slog.Info("operator disconnected", "operator_id", c.operatorID)
}

// OnlineOperators lists operator IDs with at least one open connection.
func (h *Hub) OnlineOperators(ctx context.Context) ([]string, error) {
	return h.presence.SetMembers(ctx, presenceKey)
}

// BroadcastAll sends the event to every connected dashboard.
func (h *Hub) BroadcastAll(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.send(ev)
	}
}

// BroadcastSector sends the event to dashboards watching the sector.
// Dashboards registered without a sector receive everything.
func (h *Hub) BroadcastSector(sector string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.sector == "" || c.sector == sector {
			c.send(ev)
		}
	}
}

// UnicastOperator sends the event to every connection of one operator.
func (h *Hub) UnicastOperator(operatorID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.operatorID == operatorID {
			c.send(ev)
		}
	}
}

// NotifyMessage pushes an inbound or outbound message to the sector's
// dashboards.
func (h *Hub) NotifyMessage(convID uuid.UUID, sector string, msg *store.Message) {
	h.BroadcastSector(sector, Event{Name: EventNewMessage, Payload: map[string]interface{}{
		"conversation_id": convID,
		"message":         msg,
	}})
}

// NotifyNewConversation announces a conversation entering a wait line.
func (h *Hub) NotifyNewConversation(conv *store.Conversation) {
	h.BroadcastSector(conv.Sector, Event{Name: EventNewConversation, Payload: conv})
}

// NotifyStatusChange announces a lifecycle transition to all dashboards.
func (h *Hub) NotifyStatusChange(conv *store.Conversation) {
	h.BroadcastAll(Event{Name: EventStatusChange, Payload: map[string]interface{}{
		"conversation_id": conv.ID,
		"status":          conv.Status,
		"sector":          conv.Sector,
	}})
}

// NotifyQueueSizes pushes the current wait-line lengths to all dashboards.
func (h *Hub) NotifyQueueSizes(sizes map[string]int64) {
	h.BroadcastAll(Event{Name: EventQueueSizes, Payload: sizes})
}
