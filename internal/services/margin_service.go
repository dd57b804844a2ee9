package services

import (
	"context"
	"sync"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
	"github.com/senyabanana/pharma-bid-service/internal/repository"
)

// MarginService serves the class margin table from a read-mostly cache
// with a bounded staleness window. A failed refresh falls back to the
// stale table rather than failing pricing.
type MarginService struct {
	Repo repository.MarginRepository
	TTL  time.Duration

	mu        sync.RWMutex
	table     models.MarginTable
	fetchedAt time.Time
}

// NewMarginService creates a new MarginService.
func NewMarginService(repo repository.MarginRepository, ttl time.Duration) *MarginService {
	return &MarginService{Repo: repo, TTL: ttl}
}

// GetTable returns the margin table, refreshing it when the staleness
// window has elapsed.
func (s *MarginService) GetTable(ctx context.Context) (models.MarginTable, error) {
	s.mu.RLock()
	if s.table != nil && time.Since(s.fetchedAt) < s.TTL {
		table := s.table
		s.mu.RUnlock()
		return table, nil
	}
	s.mu.RUnlock()

	fresh, err := s.Repo.GetMarginTable(ctx)
	if err != nil {
		s.mu.RLock()
		stale := s.table
		s.mu.RUnlock()
		if stale != nil {
			return stale, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.table = fresh
	s.fetchedAt = time.Now()
	s.mu.Unlock()
	return fresh, nil
}
