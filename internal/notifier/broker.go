package notifier

import (
	"context"
	"encoding/json"
	"log"

	"github.com/senyabanana/pharma-bid-service/internal/models"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// journalSubjectPrefix is the NATS subject prefix for the durable event
// journal consumed by the archiver.
const journalSubjectPrefix = "bid.events."

// roomChannelPrefix namespaces Redis pub/sub channels, one per room.
const roomChannelPrefix = "rooms:"

// Publisher is the event distribution contract the state machine
// publishes through. Delivery is best-effort; a publish failure is
// logged, never surfaced to the mutation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event models.Event)
}

// Broker publishes lifecycle events to Redis pub/sub (one channel per
// room, fanned to websocket hubs on every instance) and mirrors them to
// NATS for the archival journal.
type Broker struct {
	redis  *redis.Client
	nats   *nats.Conn
	logger *log.Logger
}

// NewBroker creates a new Broker. The NATS connection may be nil when
// journaling is disabled.
func NewBroker(redisClient *redis.Client, natsConn *nats.Conn, logger *log.Logger) *Broker {
	return &Broker{redis: redisClient, nats: natsConn, logger: logger}
}

// Publish marshals the event once and sends it to every room it names.
func (b *Broker) Publish(ctx context.Context, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Printf("failed to marshal event %s: %v", event.ID, err)
		return
	}

	for _, room := range event.Rooms() {
		if err := b.redis.Publish(ctx, roomChannelPrefix+room, payload).Err(); err != nil {
			b.logger.Printf("failed to publish event %s to room %s: %v", event.ID, room, err)
		}
	}

	if b.nats != nil {
		if err := b.nats.Publish(journalSubjectPrefix+string(event.Kind), payload); err != nil {
			b.logger.Printf("failed to journal event %s: %v", event.ID, err)
		}
	}
}

// Bridge subscribes to every room channel and feeds payloads into the
// local hub. Runs one goroutine for the life of the process.
type Bridge struct {
	redis  *redis.Client
	hub    *Hub
	logger *log.Logger
}

// NewBridge creates a new Bridge.
func NewBridge(redisClient *redis.Client, hub *Hub, logger *log.Logger) *Bridge {
	return &Bridge{redis: redisClient, hub: hub, logger: logger}
}

// Run blocks until the context is done, forwarding room payloads in the
// order Redis delivers them per channel.
func (b *Bridge) Run(ctx context.Context) error {
	pubsub := b.redis.PSubscribe(ctx, roomChannelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			room := msg.Channel[len(roomChannelPrefix):]
			b.hub.Broadcast(room, []byte(msg.Payload))
		}
	}
}
