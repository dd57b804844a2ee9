package client

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"

	"github.com/gorilla/websocket"
)

func TestClientDecodesErrorKinds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(models.NewKindError(models.KindBidTooLow, http.StatusConflict, "bid does not beat the current one"))
	}))
	defer server.Close()

	c := New(server.URL, "ws1", "wholesaler")
	_, err := c.SubmitBid(context.Background(), models.SubmitBidPayload{RequestID: "req1", DiscountPercent: 10, MRP: 100})
	if models.KindOf(err) != models.KindBidTooLow {
		t.Fatalf("expected BidTooLow, got %v", err)
	}
}

func TestClientRetriesOnlyTransient(t *testing.T) {
	t.Run("5xx is retried until success", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			json.NewEncoder(w).Encode(models.Bid{ID: "bid1", Status: models.PendingBid})
		}))
		defer server.Close()

		c := New(server.URL, "ws1", "wholesaler")
		bid, err := c.SubmitBid(context.Background(), models.SubmitBidPayload{RequestID: "req1", DiscountPercent: 10, MRP: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bid.ID != "bid1" {
			t.Errorf("unexpected bid: %+v", bid)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 attempts, got %d", calls.Load())
		}
	})

	t.Run("validation failure is not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(models.NewKindError(models.KindInvalidBidTerms, http.StatusBadRequest, "discount out of range"))
		}))
		defer server.Close()

		c := New(server.URL, "ws1", "wholesaler")
		_, err := c.SubmitBid(context.Background(), models.SubmitBidPayload{RequestID: "req1", DiscountPercent: 120, MRP: 100})
		if models.KindOf(err) != models.KindInvalidBidTerms {
			t.Fatalf("expected InvalidBidTerms, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected a single attempt, got %d", calls.Load())
		}
	})
}

func TestClientSendsIdentityHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-User-Id") != "ret1" || r.Header.Get("X-User-Role") != "retailer" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(models.CartSnapshot{RetailerID: "ret1", Version: 2})
	}))
	defer server.Close()

	c := New(server.URL, "ret1", "retailer")
	snapshot, err := c.GetCart(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.Version != 2 {
		t.Errorf("expected version 2, got %d", snapshot.Version)
	}
}

func TestRequestFeedListenLeavesNoGoroutineBehind(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer server.Close()

	c := New(server.URL, "ws1", "wholesaler")
	feed := NewRequestFeed(c, time.Minute, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		feed.listen(ctx)
	}
	time.Sleep(100 * time.Millisecond)

	if after := runtime.NumGoroutine(); after > before+3 {
		t.Fatalf("goroutines grew from %d to %d across redials", before, after)
	}
}

func TestRequestFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.BidRequest{
			{ID: "req1", RetailerID: "ret1", ProductID: "p1", Status: models.ActiveRequest},
		})
	}))
	defer server.Close()

	c := New(server.URL, "ws1", "wholesaler")
	feed := NewRequestFeed(c, time.Minute, log.New(io.Discard, "", 0))

	feed.store.Refresh(context.Background())
	if snapshot := feed.Snapshot(); len(snapshot) != 1 || snapshot[0].ID != "req1" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if feed.Stale() {
		t.Errorf("freshly refreshed feed must not be stale")
	}

	feed.store.ApplyEvent(models.Event{Kind: models.EventBidCreated, RequestID: "req1"})
	if !feed.Stale() {
		t.Errorf("an event must mark the feed stale until the next refetch")
	}

	feed.StageRequest(models.BidRequest{ID: "req2", Status: models.ActiveRequest})
	if snapshot := feed.Snapshot(); len(snapshot) != 2 {
		t.Errorf("staged request must overlay the view, got %d entries", len(snapshot))
	}
	feed.RollbackRequest("req2")
	if snapshot := feed.Snapshot(); len(snapshot) != 1 {
		t.Errorf("rolled back request must disappear, got %d entries", len(snapshot))
	}
}
