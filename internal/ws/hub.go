package ws

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"bx-treasury/internal/event"
)

type Hub struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		log:     log,
	}
}

func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.clients, c)
			c.Close()
		}
	}
}

// Message is the envelope sent to websocket clients.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

func (h *Hub) BroadcastJSON(name string, payload interface{}) error {
	b, err := json.Marshal(Message{Event: name, Payload: payload})
	if err != nil {
		return err
	}
	h.Broadcast(b)
	return nil
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Handler(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// Subscribe streams settlements, rebalances and NAV updates to clients.
func (h *Hub) Subscribe(bus *event.Bus) {
	bus.SubscribeAll([]string{
		event.EventBetSettled,
		event.EventRebalanced,
		event.EventNAVUpdated,
	}, func(name string, payload interface{}) {
		if err := h.BroadcastJSON(name, payload); err != nil {
			h.log.Warn("broadcast failed", zap.String("event", name), zap.Error(err))
		}
	})
}
