package notifier

import (
	"log"
	"sync"
)

// Hub fans event payloads out to room subscribers. Delivery is
// best-effort, at-most-once per event: a subscriber whose buffer is full
// is dropped so one slow client cannot block a room. Per-room delivery
// preserves publish order; there is no ordering across rooms.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[*Client]struct{}
	logger *log.Logger
}

// Client is one push-channel subscriber joined to a set of rooms.
type Client struct {
	ID    string
	Rooms []string
	Send  chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// Register joins the client to every room it names.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range client.Rooms {
		subscribers, ok := h.rooms[room]
		if !ok {
			subscribers = make(map[*Client]struct{})
			h.rooms[room] = subscribers
		}
		subscribers[client] = struct{}{}
	}
}

// Unregister removes the client from all rooms and closes its channel.
// Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// Broadcast delivers a payload to every subscriber of one room.
func (h *Hub) Broadcast(room string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.rooms[room] {
		select {
		case client.Send <- payload:
		default:
			// Buffer full: drop the subscriber rather than block the room.
			h.logger.Printf("dropping slow subscriber %s in room %s", client.ID, room)
			h.removeLocked(client)
		}
	}
}

// SubscriberCount returns how many clients are joined to a room.
func (h *Hub) SubscriberCount(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

func (h *Hub) removeLocked(client *Client) {
	removed := false
	for _, room := range client.Rooms {
		if subscribers, ok := h.rooms[room]; ok {
			if _, member := subscribers[client]; member {
				delete(subscribers, client)
				removed = true
			}
			if len(subscribers) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	if removed {
		close(client.Send)
	}
}
