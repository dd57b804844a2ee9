package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
)

// DefaultCartDebounce is the quiet period before a staged cart snapshot
// is persisted.
const DefaultCartDebounce = 300 * time.Millisecond

// persistFunc writes one whole-cart snapshot.
type persistFunc func(ctx context.Context, retailerID string, payload models.SyncCartPayload) error

// CartCoordinator debounces whole-cart snapshots per retailer. Rapid
// successive stages within the quiet period coalesce into one persisted
// write of the last staged state; intermediate snapshots are discarded,
// never replayed.
type CartCoordinator struct {
	delay   time.Duration
	persist persistFunc
	logger  *log.Logger

	mu     sync.Mutex
	staged map[string]models.SyncCartPayload
	timers map[string]*time.Timer
}

// NewCartCoordinator creates a coordinator that persists through the
// cart service. A non-positive delay falls back to the default.
func NewCartCoordinator(cart *CartService, delay time.Duration, logger *log.Logger) *CartCoordinator {
	persist := func(ctx context.Context, retailerID string, payload models.SyncCartPayload) error {
		_, err := cart.SyncCart(ctx, retailerID, payload)
		return err
	}
	return newCartCoordinator(persist, delay, logger)
}

func newCartCoordinator(persist persistFunc, delay time.Duration, logger *log.Logger) *CartCoordinator {
	if delay <= 0 {
		delay = DefaultCartDebounce
	}
	return &CartCoordinator{
		delay:   delay,
		persist: persist,
		logger:  logger,
		staged:  make(map[string]models.SyncCartPayload),
		timers:  make(map[string]*time.Timer),
	}
}

// Stage records the latest cart snapshot for a retailer and restarts the
// quiet-period timer.
func (c *CartCoordinator) Stage(retailerID string, payload models.SyncCartPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.staged[retailerID] = payload
	if timer, ok := c.timers[retailerID]; ok {
		timer.Reset(c.delay)
		return
	}
	c.timers[retailerID] = time.AfterFunc(c.delay, func() {
		c.Flush(retailerID)
	})
}

// Flush persists the staged snapshot immediately, if any. Persistence
// failures are logged; the client observes them through its next
// refetch, since a failed sync leaves the stored version unchanged.
func (c *CartCoordinator) Flush(retailerID string) {
	c.mu.Lock()
	payload, ok := c.staged[retailerID]
	if ok {
		delete(c.staged, retailerID)
	}
	if timer, exists := c.timers[retailerID]; exists {
		timer.Stop()
		delete(c.timers, retailerID)
	}
	c.mu.Unlock()

	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.persist(ctx, retailerID, payload); err != nil {
		c.logger.Printf("cart sync for %s failed: %v", retailerID, err)
	}
}

// FlushAll persists every staged snapshot. Called on shutdown.
func (c *CartCoordinator) FlushAll() {
	c.mu.Lock()
	retailers := make([]string, 0, len(c.staged))
	for retailerID := range c.staged {
		retailers = append(retailers, retailerID)
	}
	c.mu.Unlock()

	for _, retailerID := range retailers {
		c.Flush(retailerID)
	}
}
