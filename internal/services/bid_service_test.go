package services

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
)

func newTestBidService(store *memStore) (*BidService, *fakePublisher) {
	publisher := &fakePublisher{}
	logger := log.New(io.Discard, "", 0)
	margins := NewMarginService(&fakeMarginRepo{store: store}, time.Minute)
	service := NewBidService(
		&fakeBidRepo{store: store},
		&fakeRequestRepo{store: store},
		&fakeProductRepo{store: store},
		margins,
		publisher,
		logger,
	)
	return service, publisher
}

func TestSubmitBid(t *testing.T) {
	ctx := context.Background()

	t.Run("first bid on an active request becomes current", func(t *testing.T) {
		store := newMemStore()
		store.addProduct("p1", "Paracetamol 500mg", models.ClassD)
		store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
		service, publisher := newTestBidService(store)

		bid, err := service.SubmitBid(ctx, "ws1", models.SubmitBidPayload{RequestID: "req1", DiscountPercent: 20, MRP: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bid.Status != models.PendingBid {
			t.Errorf("expected PENDING status, got %s", bid.Status)
		}

		kinds := publisher.kinds()
		if len(kinds) != 1 || kinds[0] != models.EventBidCreated {
			t.Errorf("expected one bid-created event, got %v", kinds)
		}
		// Denormalized price: 100 at 20% wholesale minus 6% class D margin.
		if got := publisher.events[0].RetailerPrice; got != 86 {
			t.Errorf("expected retailer price 86 in event, got %v", got)
		}
	})

	t.Run("bid not beating the current one is rejected and current is unchanged", func(t *testing.T) {
		store := newMemStore()
		store.addProduct("p1", "Paracetamol 500mg", models.ClassD)
		store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
		store.addBid("bid1", "req1", "ws1", 20, models.PendingBid, time.Now().Add(-time.Minute))
		service, publisher := newTestBidService(store)

		_, err := service.SubmitBid(ctx, "ws2", models.SubmitBidPayload{RequestID: "req1", DiscountPercent: 20, MRP: 100})
		if models.KindOf(err) != models.KindBidTooLow {
			t.Fatalf("expected BidTooLow, got %v", err)
		}
		if len(publisher.kinds()) != 0 {
			t.Errorf("rejected bid must not publish events")
		}

		view, err := service.GetRequestBids(ctx, "", "req1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.Current == nil || view.Current.ID != "bid1" {
			t.Errorf("current bid changed after a rejected submission")
		}
	})

	t.Run("strictly higher discount displaces the current bid", func(t *testing.T) {
		store := newMemStore()
		store.addProduct("p1", "Paracetamol 500mg", models.ClassD)
		store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
		store.addBid("bid1", "req1", "ws1", 20, models.PendingBid, time.Now().Add(-time.Minute))
		service, _ := newTestBidService(store)

		bid, err := service.SubmitBid(ctx, "ws2", models.SubmitBidPayload{RequestID: "req1", DiscountPercent: 20.1, MRP: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		view, err := service.GetRequestBids(ctx, "", "req1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.Current.ID != bid.ID {
			t.Errorf("expected the new bid to be current")
		}
		if view.Ranked[1].Position != models.SurpassedPosition {
			t.Errorf("expected the old bid to be marked SURPASSED")
		}
	})

	t.Run("concurrent equal submissions serialize to one winner", func(t *testing.T) {
		store := newMemStore()
		store.addProduct("p1", "Paracetamol 500mg", models.ClassD)
		store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
		service, _ := newTestBidService(store)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i, wholesalerID := range []string{"ws1", "ws2"} {
			wg.Add(1)
			go func(i int, wholesalerID string) {
				defer wg.Done()
				_, errs[i] = service.SubmitBid(ctx, wholesalerID, models.SubmitBidPayload{RequestID: "req1", DiscountPercent: 20, MRP: 100})
			}(i, wholesalerID)
		}
		wg.Wait()

		var succeeded int
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else if models.KindOf(err) != models.KindBidTooLow {
				t.Errorf("loser must see BidTooLow, got %v", err)
			}
		}
		if succeeded != 1 {
			t.Errorf("expected exactly one winner, got %d", succeeded)
		}
		if len(store.bids) != 1 {
			t.Errorf("expected exactly one stored bid, got %d", len(store.bids))
		}
	})

	t.Run("concurrent submissions from one wholesaler store at most one bid", func(t *testing.T) {
		store := newMemStore()
		store.addProduct("p1", "Paracetamol 500mg", models.ClassD)
		store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
		service, _ := newTestBidService(store)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i, discount := range []float64{20, 25} {
			wg.Add(1)
			go func(i int, discount float64) {
				defer wg.Done()
				_, errs[i] = service.SubmitBid(ctx, "ws1", models.SubmitBidPayload{RequestID: "req1", DiscountPercent: discount, MRP: 100})
			}(i, discount)
		}
		wg.Wait()

		var succeeded int
		for _, err := range errs {
			if err == nil {
				succeeded++
			}
		}
		if succeeded != 1 {
			t.Errorf("expected exactly one accepted submission, got %d", succeeded)
		}
		if len(store.bids) != 1 {
			t.Errorf("expected exactly one stored bid, got %d", len(store.bids))
		}
	})

	t.Run("terminal request accepts no new bids", func(t *testing.T) {
		store := newMemStore()
		store.addProduct("p1", "Paracetamol 500mg", models.ClassD)
		store.addRequest("req1", "ret1", "p1", models.CancelledRequest)
		service, _ := newTestBidService(store)

		_, err := service.SubmitBid(ctx, "ws1", models.SubmitBidPayload{RequestID: "req1", DiscountPercent: 20, MRP: 100})
		if models.KindOf(err) != models.KindAlreadyTerminal {
			t.Fatalf("expected AlreadyTerminal, got %v", err)
		}
	})

	t.Run("second pending bid from the same wholesaler conflicts", func(t *testing.T) {
		store := newMemStore()
		store.addProduct("p1", "Paracetamol 500mg", models.ClassD)
		store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
		store.addBid("bid1", "req1", "ws1", 20, models.PendingBid, time.Now().Add(-time.Minute))
		service, _ := newTestBidService(store)

		_, err := service.SubmitBid(ctx, "ws1", models.SubmitBidPayload{RequestID: "req1", DiscountPercent: 25, MRP: 100})
		resp, ok := err.(*models.ErrorResponse)
		if !ok || resp.StatusCode != 409 {
			t.Fatalf("expected 409 conflict, got %v", err)
		}
	})

	t.Run("out of range discount is invalid", func(t *testing.T) {
		store := newMemStore()
		store.addProduct("p1", "Paracetamol 500mg", models.ClassD)
		store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
		service, _ := newTestBidService(store)

		_, err := service.SubmitBid(ctx, "ws1", models.SubmitBidPayload{RequestID: "req1", DiscountPercent: 120, MRP: 100})
		if models.KindOf(err) != models.KindInvalidBidTerms {
			t.Fatalf("expected InvalidBidTerms, got %v", err)
		}
	})

	t.Run("missing identity is unauthorized", func(t *testing.T) {
		store := newMemStore()
		service, _ := newTestBidService(store)

		_, err := service.SubmitBid(ctx, "", models.SubmitBidPayload{RequestID: "req1", DiscountPercent: 20, MRP: 100})
		if models.KindOf(err) != models.KindUnauthorized {
			t.Fatalf("expected Unauthorized, got %v", err)
		}
	})
}

func TestCancelBid(t *testing.T) {
	ctx := context.Background()

	t.Run("owner cancels a pending bid and ranking recomputes", func(t *testing.T) {
		store := newMemStore()
		store.addProduct("p1", "Paracetamol 500mg", models.ClassD)
		store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
		store.addBid("bid1", "req1", "ws1", 20, models.PendingBid, time.Now().Add(-2*time.Minute))
		store.addBid("bid2", "req1", "ws2", 15, models.PendingBid, time.Now().Add(-time.Minute))
		service, publisher := newTestBidService(store)

		bid, err := service.CancelBid(ctx, "ws1", "bid1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bid.Status != models.RejectedBid {
			t.Errorf("expected REJECTED status, got %s", bid.Status)
		}

		view, err := service.GetRequestBids(ctx, "", "req1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.Current == nil || view.Current.ID != "bid2" {
			t.Errorf("expected the surviving bid to become current")
		}
		if len(view.History) != 2 {
			t.Errorf("cancelled bid must stay in history, got %d entries", len(view.History))
		}

		kinds := publisher.kinds()
		if len(kinds) != 1 || kinds[0] != models.EventBidCancelled {
			t.Errorf("expected one bid-cancelled event, got %v", kinds)
		}
	})

	t.Run("cancelling someone else's bid is forbidden", func(t *testing.T) {
		store := newMemStore()
		store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
		store.addBid("bid1", "req1", "ws1", 20, models.PendingBid, time.Now())
		service, _ := newTestBidService(store)

		_, err := service.CancelBid(ctx, "ws2", "bid1")
		if models.KindOf(err) != models.KindUnauthorized {
			t.Fatalf("expected Unauthorized, got %v", err)
		}
	})

	t.Run("cancelling a terminal bid reports AlreadyTerminal", func(t *testing.T) {
		store := newMemStore()
		store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
		store.addBid("bid1", "req1", "ws1", 20, models.AcceptedBid, time.Now())
		service, _ := newTestBidService(store)

		_, err := service.CancelBid(ctx, "ws1", "bid1")
		if models.KindOf(err) != models.KindAlreadyTerminal {
			t.Fatalf("expected AlreadyTerminal, got %v", err)
		}
	})
}

func TestGetRequestBids(t *testing.T) {
	ctx := context.Background()

	t.Run("ranked view carries margin-adjusted prices and ownership flags", func(t *testing.T) {
		store := newMemStore()
		store.addProduct("p1", "Amoxicillin 250mg", models.ClassA)
		store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
		store.addBid("bid1", "req1", "ws1", 20, models.PendingBid, time.Now().Add(-time.Minute))
		service, _ := newTestBidService(store)

		view, err := service.GetRequestBids(ctx, "ws1", "req1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Class A margin is 15: shown discount 5.0, price 95.00 on MRP 100.
		if view.Current.ShownDiscount != 5 {
			t.Errorf("expected shown discount 5, got %v", view.Current.ShownDiscount)
		}
		if view.Current.RetailerPrice != 95 {
			t.Errorf("expected retailer price 95, got %v", view.Current.RetailerPrice)
		}
		if !view.Current.IsOwnWholesaler {
			t.Errorf("expected the caller's own bid to be flagged")
		}
	})

	t.Run("unknown request is not found", func(t *testing.T) {
		store := newMemStore()
		service, _ := newTestBidService(store)

		_, err := service.GetRequestBids(ctx, "", "nope")
		resp, ok := err.(*models.ErrorResponse)
		if !ok || resp.StatusCode != 404 {
			t.Fatalf("expected 404, got %v", err)
		}
	})
}

func TestGetWholesalerBids(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	store.addProduct("p1", "Paracetamol 500mg", models.ClassD)
	store.addRequest("req1", "ret1", "p1", models.ActiveRequest)
	store.addRequest("req2", "ret1", "p1", models.ActiveRequest)
	store.addBid("bid1", "req1", "ws1", 20, models.PendingBid, time.Now().Add(-2*time.Minute))
	store.addBid("bid2", "req1", "ws2", 25, models.PendingBid, time.Now().Add(-time.Minute))
	store.addBid("bid3", "req2", "ws1", 10, models.PendingBid, time.Now())
	service, _ := newTestBidService(store)

	views, err := service.GetWholesalerBids(ctx, "ws1", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 bids, got %d", len(views))
	}
	for _, view := range views {
		switch view.ID {
		case "bid1":
			if view.Winning {
				t.Errorf("bid1 is surpassed and must not be winning")
			}
		case "bid3":
			if !view.Winning {
				t.Errorf("bid3 is the only bid on req2 and must be winning")
			}
		}
	}
}
