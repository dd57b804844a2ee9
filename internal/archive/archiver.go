package archive

import (
	"context"
	"encoding/json"
	"log"

	"github.com/senyabanana/pharma-bid-service/internal/models"
	"github.com/senyabanana/pharma-bid-service/internal/repository"

	"github.com/nats-io/nats.go"
)

// Archiver consumes journaled lifecycle events from NATS and persists
// them to the event log. The write path never depends on archival:
// events are best-effort and redelivery is harmless because inserts
// are keyed by event ID.
type Archiver struct {
	nats   *nats.Conn
	repo   repository.EventRepository
	logger *log.Logger
}

// NewArchiver creates a new Archiver.
func NewArchiver(natsConn *nats.Conn, repo repository.EventRepository, logger *log.Logger) *Archiver {
	return &Archiver{nats: natsConn, repo: repo, logger: logger}
}

// Run subscribes to the journal subjects and blocks until the context is
// done.
func (a *Archiver) Run(ctx context.Context) error {
	sub, err := a.nats.Subscribe("bid.events.>", func(msg *nats.Msg) {
		var event models.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			a.logger.Printf("skipping malformed event on %s: %v", msg.Subject, err)
			return
		}
		if err := a.repo.InsertEvent(ctx, event); err != nil {
			a.logger.Printf("failed to archive event %s: %v", event.ID, err)
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return ctx.Err()
}
