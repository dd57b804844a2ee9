package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
)

// FetchFunc returns the authoritative server-held collection.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// KeyFunc extracts an entity's identity for the optimistic overlay.
type KeyFunc[T any] func(T) string

// Store merges three inputs into one consistent view per entity
// collection: optimistic local writes, periodic refetch, and push
// events. Events are pure invalidation hints: receiving one marks the
// collection stale and triggers a refetch instead of field patching,
// since denormalized events can race with the authoritative ranking.
type Store[T any] struct {
	fetch    FetchFunc[T]
	key      KeyFunc[T]
	interval time.Duration
	kick     chan struct{}

	mu        sync.Mutex
	confirmed []T
	pending   map[string]T
	stale     bool
	lastErr   error
}

// NewStore creates a store polling at the given interval.
func NewStore[T any](fetch FetchFunc[T], key KeyFunc[T], interval time.Duration) *Store[T] {
	return &Store[T]{
		fetch:    fetch,
		key:      key,
		interval: interval,
		kick:     make(chan struct{}, 1),
		pending:  make(map[string]T),
		stale:    true,
	}
}

// Run refetches periodically and whenever an event invalidates the
// collection, until the context is done.
func (s *Store[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.kick:
		}
		s.Refresh(ctx)
	}
}

// Refresh fetches the authoritative collection once. A successful fetch
// confirms or discards every pending optimistic write; a failed fetch
// keeps the previous view and leaves the collection stale.
func (s *Store[T]) Refresh(ctx context.Context) error {
	items, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return err
	}
	s.confirmed = items
	s.pending = make(map[string]T)
	s.stale = false
	s.lastErr = nil
	return nil
}

// ApplyEvent invalidates the collection and triggers a refetch. The
// event payload itself is never merged.
func (s *Store[T]) ApplyEvent(models.Event) {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// StageOptimistic overlays a local mutation until the next successful
// refetch confirms it or Rollback discards it.
func (s *Store[T]) StageOptimistic(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[s.key(item)] = item
}

// Rollback discards one optimistic write after its mutation call failed.
func (s *Store[T]) Rollback(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}

// Snapshot returns the confirmed collection with pending optimistic
// writes overlaid: staged items replace confirmed ones with the same
// key, and unmatched staged items are appended.
func (s *Store[T]) Snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]T, 0, len(s.confirmed)+len(s.pending))
	seen := make(map[string]bool, len(s.pending))
	for _, item := range s.confirmed {
		k := s.key(item)
		if staged, ok := s.pending[k]; ok {
			merged = append(merged, staged)
			seen[k] = true
		} else {
			merged = append(merged, item)
		}
	}
	for k, staged := range s.pending {
		if !seen[k] {
			merged = append(merged, staged)
		}
	}
	return merged
}

// Stale reports whether an invalidation is awaiting a refetch.
func (s *Store[T]) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// LastError returns the most recent refetch failure, if any.
func (s *Store[T]) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
