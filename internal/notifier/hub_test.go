package notifier

import (
	"log"
	"os"
	"testing"

	"github.com/peterldowns/testy/check"
)

func testClient(id string, rooms ...string) *Client {
	return &Client{ID: id, Rooms: rooms, Send: make(chan []byte, 4)}
}

func newTestHub() *Hub {
	return NewHub(log.New(os.Stdout, "TEST: ", log.LstdFlags))
}

func TestHub_BroadcastReachesRoomOnly(t *testing.T) {
	hub := newTestHub()
	retailer := testClient("c1", "retailer:r1")
	wholesaler := testClient("c2", "wholesaler:w1")
	hub.Register(retailer)
	hub.Register(wholesaler)

	hub.Broadcast("retailer:r1", []byte("hello"))

	check.Equal(t, 1, len(retailer.Send))
	check.Equal(t, 0, len(wholesaler.Send))
	check.Equal(t, "hello", string(<-retailer.Send))
}

func TestHub_PerRoomOrderPreserved(t *testing.T) {
	hub := newTestHub()
	client := testClient("c1", "request:req1")
	hub.Register(client)

	hub.Broadcast("request:req1", []byte("first"))
	hub.Broadcast("request:req1", []byte("second"))
	hub.Broadcast("request:req1", []byte("third"))

	check.Equal(t, "first", string(<-client.Send))
	check.Equal(t, "second", string(<-client.Send))
	check.Equal(t, "third", string(<-client.Send))
}

func TestHub_SlowSubscriberDropped(t *testing.T) {
	hub := newTestHub()
	slow := &Client{ID: "slow", Rooms: []string{"retailer:r1"}, Send: make(chan []byte, 1)}
	hub.Register(slow)

	hub.Broadcast("retailer:r1", []byte("one"))
	// Buffer is full now; the next publish drops the subscriber instead
	// of blocking the room.
	hub.Broadcast("retailer:r1", []byte("two"))

	check.Equal(t, 0, hub.SubscriberCount("retailer:r1"))
	check.Equal(t, "one", string(<-slow.Send))
	_, open := <-slow.Send
	check.False(t, open)
}

func TestHub_UnregisterIdempotent(t *testing.T) {
	hub := newTestHub()
	client := testClient("c1", "retailer:r1", "request:req1")
	hub.Register(client)
	check.Equal(t, 1, hub.SubscriberCount("retailer:r1"))
	check.Equal(t, 1, hub.SubscriberCount("request:req1"))

	hub.Unregister(client)
	hub.Unregister(client)

	check.Equal(t, 0, hub.SubscriberCount("retailer:r1"))
	check.Equal(t, 0, hub.SubscriberCount("request:req1"))

	// Broadcasting to an empty room is a no-op.
	hub.Broadcast("retailer:r1", []byte("late"))
}
