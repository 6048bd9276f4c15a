package notification

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub fans freshly created notifications out to the recipient's open
// websocket connections. Delivery is best effort; the database copy is the
// source of truth.
type Hub struct {
	mu    sync.RWMutex
	conns map[primitive.ObjectID]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[primitive.ObjectID]map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Register(userID primitive.ObjectID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
}

func (h *Hub) Unregister(userID primitive.ObjectID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// Push writes the notification to every open connection of the user. Failed
// connections are dropped from the hub.
func (h *Hub) Push(userID primitive.ObjectID, n *Notification) {
	h.mu.RLock()
	set := h.conns[userID]
	targets := make([]*websocket.Conn, 0, len(set))
	for conn := range set {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.WriteJSON(n); err != nil {
			h.Unregister(userID, conn)
			conn.Close()
		}
	}
}
