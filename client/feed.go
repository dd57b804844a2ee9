package client

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
	"github.com/senyabanana/pharma-bid-service/internal/reconcile"

	"github.com/gorilla/websocket"
)

const (
	feedFetchLimit = 50
	redialBase     = time.Second
	redialMax      = 30 * time.Second
)

// RequestFeed keeps a live local view of the active request list. Push
// events invalidate the view and trigger a refetch; they are never
// merged field by field. Optimistic local writes overlay the confirmed
// view until the next successful refresh settles them.
type RequestFeed struct {
	store  *reconcile.Store[models.BidRequest]
	client *Client
	logger *log.Logger
}

// NewRequestFeed creates a feed refreshing at the given interval.
func NewRequestFeed(c *Client, interval time.Duration, logger *log.Logger) *RequestFeed {
	fetch := func(ctx context.Context) ([]models.BidRequest, error) {
		return c.ActiveRequests(ctx, feedFetchLimit, 0)
	}
	key := func(request models.BidRequest) string { return request.ID }
	return &RequestFeed{
		store:  reconcile.NewStore(fetch, key, interval),
		client: c,
		logger: logger,
	}
}

// Run refreshes the view and listens on the push channel until the
// context is done. The websocket is redialed with backoff; while it is
// down the periodic refetch keeps the view converging.
func (f *RequestFeed) Run(ctx context.Context) {
	go f.store.Run(ctx)
	f.store.Refresh(ctx)

	delay := redialBase
	for ctx.Err() == nil {
		if err := f.listen(ctx); err != nil && ctx.Err() == nil {
			f.logger.Printf("push channel lost, redialing in %s: %v", delay, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if delay *= 2; delay > redialMax {
			delay = redialMax
		}
	}
}

func (f *RequestFeed) listen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.wsURL(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// The watcher must not outlive this connection, or every redial
	// leaks one goroutine until the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var event models.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			f.logger.Printf("dropping malformed event: %v", err)
			continue
		}
		f.store.ApplyEvent(event)
	}
}

func (f *RequestFeed) wsURL() string {
	base := f.client.BaseURL
	if strings.HasPrefix(base, "https") {
		base = "wss" + strings.TrimPrefix(base, "https")
	} else {
		base = "ws" + strings.TrimPrefix(base, "http")
	}
	query := url.Values{"userId": {f.client.UserID}, "role": {f.client.Role}}
	return base + "/ws?" + query.Encode()
}

// Snapshot returns the current view with optimistic writes overlaid.
func (f *RequestFeed) Snapshot() []models.BidRequest {
	return f.store.Snapshot()
}

// StageRequest overlays a locally created request until the next
// successful refresh confirms or discards it.
func (f *RequestFeed) StageRequest(request models.BidRequest) {
	f.store.StageOptimistic(request)
}

// RollbackRequest discards a staged request after its submission failed
// with a non-transient error.
func (f *RequestFeed) RollbackRequest(requestID string) {
	f.store.Rollback(requestID)
}

// Stale reports whether an invalidation is pending a refetch.
func (f *RequestFeed) Stale() bool {
	return f.store.Stale()
}
