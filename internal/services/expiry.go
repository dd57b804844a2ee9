package services

import (
	"context"
	"log"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/repository"
)

// BidExpirer periodically expires pending bids that outlived their
// maximum age on requests still accepting bids. The sweep is optional
// infrastructure around the core: a zero interval disables it.
type BidExpirer struct {
	Repo     repository.BidRepository
	Interval time.Duration
	MaxAge   time.Duration
	Logger   *log.Logger
}

// NewBidExpirer creates a new BidExpirer.
func NewBidExpirer(repo repository.BidRepository, interval, maxAge time.Duration, logger *log.Logger) *BidExpirer {
	return &BidExpirer{Repo: repo, Interval: interval, MaxAge: maxAge, Logger: logger}
}

// Run sweeps on a ticker until the context is done. Returns immediately
// when the sweep is disabled.
func (e *BidExpirer) Run(ctx context.Context) {
	if e.Interval <= 0 || e.MaxAge <= 0 {
		return
	}

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-e.MaxAge)
			expired, err := e.Repo.ExpireStaleBids(ctx, cutoff)
			if err != nil {
				e.Logger.Printf("bid expiry sweep failed: %v", err)
				continue
			}
			if expired > 0 {
				e.Logger.Printf("expired %d stale bid(s)", expired)
			}
		}
	}
}
