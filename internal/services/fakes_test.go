package services

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
	"github.com/senyabanana/pharma-bid-service/internal/ranking"

	"github.com/google/uuid"
)

// memStore backs the in-memory fake repositories. One store is shared by
// every fake so cross-entity invariants (atomic accept, cart clearing)
// behave like the real schema.
type memStore struct {
	mu       sync.Mutex
	requests map[string]*models.BidRequest
	bids     map[string]*models.Bid
	orders   map[string]*models.Order
	carts    map[string][]models.CartItem
	versions map[string]int64
	products map[string]*models.Product
	margins  models.MarginTable
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[string]*models.BidRequest),
		bids:     make(map[string]*models.Bid),
		orders:   make(map[string]*models.Order),
		carts:    make(map[string][]models.CartItem),
		versions: make(map[string]int64),
		products: make(map[string]*models.Product),
		margins: models.MarginTable{
			models.ClassA: 15, models.ClassB: 12, models.ClassC: 9,
			models.ClassD: 6, models.ClassE: 3,
		},
	}
}

func (s *memStore) addProduct(id, name string, class models.MarginClass) {
	s.products[id] = &models.Product{ID: id, Name: name, MarginClass: class, CreatedAt: time.Now().UTC()}
}

func (s *memStore) addRequest(id, retailerID, productID string, status models.RequestStatus) {
	s.requests[id] = &models.BidRequest{
		ID: id, RetailerID: retailerID, ProductID: productID,
		Quantity: 1, Status: status, CreatedAt: time.Now().UTC(),
	}
}

func (s *memStore) addBid(id, requestID, wholesalerID string, discount float64, status models.BidStatus, createdAt time.Time) {
	s.bids[id] = &models.Bid{
		ID: id, RequestID: requestID, WholesalerID: wholesalerID,
		DiscountPercent: discount, MRP: 100, Status: status, CreatedAt: createdAt,
	}
}

type fakeRequestRepo struct{ store *memStore }

func (r *fakeRequestRepo) CreateRequest(ctx context.Context, retailerID string, item models.CreateRequestItem) (*models.BidRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	request := &models.BidRequest{
		ID: uuid.New().String(), RetailerID: retailerID, ProductID: item.ProductID,
		Quantity: item.Quantity, Status: models.ActiveRequest, CreatedAt: time.Now().UTC(),
	}
	r.store.requests[request.ID] = request
	out := *request
	return &out, nil
}

func (r *fakeRequestRepo) GetRequestByID(ctx context.Context, requestID string) (*models.BidRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	request, ok := r.store.requests[requestID]
	if !ok {
		return nil, nil
	}
	out := *request
	return &out, nil
}

func (r *fakeRequestRepo) GetActiveForWholesaler(ctx context.Context, wholesalerID string, limit, offset int) ([]models.BidRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var active []models.BidRequest
	for _, request := range r.store.requests {
		if request.Status == models.ActiveRequest {
			active = append(active, *request)
		}
	}
	return active, nil
}

func (r *fakeRequestRepo) GetRetailerRequests(ctx context.Context, retailerID string, limit, offset int) ([]models.BidRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var own []models.BidRequest
	for _, request := range r.store.requests {
		if request.RetailerID == retailerID {
			own = append(own, *request)
		}
	}
	return own, nil
}

func (r *fakeRequestRepo) CancelRequest(ctx context.Context, requestID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	request, ok := r.store.requests[requestID]
	if !ok || request.Status != models.ActiveRequest {
		return false, nil
	}
	request.Status = models.CancelledRequest
	return true, nil
}

func (r *fakeRequestRepo) SupersedeActiveForProduct(ctx context.Context, retailerID, productID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, request := range r.store.requests {
		if request.RetailerID == retailerID && request.ProductID == productID && request.Status == models.ActiveRequest {
			request.Status = models.CancelledRequest
			count++
		}
	}
	return count, nil
}

type fakeBidRepo struct{ store *memStore }

// SubmitBid validates and inserts under the store lock, matching the
// Postgres implementation's row-lock serialization.
func (r *fakeBidRepo) SubmitBid(ctx context.Context, requestID, wholesalerID string, discountPercent, mrp float64) (*models.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	request, ok := r.store.requests[requestID]
	if !ok {
		return nil, models.NewErrorResponse(http.StatusNotFound, "request not found")
	}
	if request.Status != models.ActiveRequest {
		return nil, models.NewKindError(models.KindAlreadyTerminal, http.StatusConflict, "request accepts no new bids")
	}
	var bids []models.Bid
	for _, bid := range r.store.bids {
		if bid.RequestID != requestID {
			continue
		}
		if bid.WholesalerID == wholesalerID && bid.Status == models.PendingBid {
			return nil, models.NewErrorResponse(http.StatusConflict, "cancel your existing bid before submitting a new one")
		}
		bids = append(bids, *bid)
	}
	current, _ := ranking.Rank(bids)
	if validationErr := ranking.ValidateSubmission(discountPercent, mrp, current); validationErr != nil {
		return nil, validationErr
	}

	bid := &models.Bid{
		ID: uuid.New().String(), RequestID: requestID, WholesalerID: wholesalerID,
		DiscountPercent: discountPercent, MRP: mrp, Status: models.PendingBid, CreatedAt: time.Now().UTC(),
	}
	r.store.bids[bid.ID] = bid
	out := *bid
	return &out, nil
}

func (r *fakeBidRepo) GetBidByID(ctx context.Context, bidID string) (*models.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	bid, ok := r.store.bids[bidID]
	if !ok {
		return nil, nil
	}
	out := *bid
	return &out, nil
}

func (r *fakeBidRepo) GetRequestBids(ctx context.Context, requestID string) ([]models.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var bids []models.Bid
	for _, bid := range r.store.bids {
		if bid.RequestID == requestID {
			bids = append(bids, *bid)
		}
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i].CreatedAt.Before(bids[j].CreatedAt) })
	return bids, nil
}

func (r *fakeBidRepo) GetWholesalerBids(ctx context.Context, wholesalerID string, limit, offset int) ([]models.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var bids []models.Bid
	for _, bid := range r.store.bids {
		if bid.WholesalerID == wholesalerID {
			bids = append(bids, *bid)
		}
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i].CreatedAt.After(bids[j].CreatedAt) })
	return bids, nil
}

func (r *fakeBidRepo) CancelBid(ctx context.Context, bidID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	bid, ok := r.store.bids[bidID]
	if !ok || bid.Status != models.PendingBid {
		return false, nil
	}
	bid.Status = models.RejectedBid
	return true, nil
}

func (r *fakeBidRepo) ExpireStaleBids(ctx context.Context, cutoff time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, bid := range r.store.bids {
		request := r.store.requests[bid.RequestID]
		if bid.Status == models.PendingBid && bid.CreatedAt.Before(cutoff) && request != nil && request.Status == models.ActiveRequest {
			bid.Status = models.ExpiredBid
			count++
		}
	}
	return count, nil
}

type fakeOrderRepo struct{ store *memStore }

func (r *fakeOrderRepo) CreateFromBid(ctx context.Context, bidID, retailerID, pickupPoint string) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	bid, ok := r.store.bids[bidID]
	if !ok {
		return nil, models.NewErrorResponse(http.StatusNotFound, "bid not found")
	}
	request := r.store.requests[bid.RequestID]
	if request.RetailerID != retailerID {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusForbidden, "request does not belong to this retailer")
	}
	if request.Status != models.ActiveRequest {
		return nil, models.NewKindError(models.KindRequestNoLongerActive, http.StatusConflict, "request is no longer active")
	}
	if bid.Status != models.PendingBid {
		return nil, models.NewKindError(models.KindAlreadyTerminal, http.StatusConflict, "bid is no longer pending")
	}

	bid.Status = models.AcceptedBid
	request.Status = models.CompletedRequest
	order := &models.Order{
		ID: uuid.New().String(), BidID: bidID, RequestID: bid.RequestID,
		RetailerID: retailerID, WholesalerID: bid.WholesalerID,
		PickupPoint: pickupPoint, Status: models.PlacedOrder, CreatedAt: time.Now().UTC(),
	}
	r.store.orders[order.ID] = order
	out := *order
	return &out, nil
}

func (r *fakeOrderRepo) GetRetailerOrders(ctx context.Context, retailerID string, limit, offset int) ([]models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var orders []models.Order
	for _, order := range r.store.orders {
		if order.RetailerID == retailerID {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

type fakeCartRepo struct{ store *memStore }

func (r *fakeCartRepo) GetCart(ctx context.Context, retailerID string) (*models.CartSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return &models.CartSnapshot{
		RetailerID: retailerID,
		Version:    r.store.versions[retailerID],
		Items:      append([]models.CartItem(nil), r.store.carts[retailerID]...),
	}, nil
}

func (r *fakeCartRepo) UpsertItem(ctx context.Context, retailerID string, item models.CartItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	items := r.store.carts[retailerID]
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity = item.Quantity
			return nil
		}
	}
	r.store.carts[retailerID] = append(items, item)
	return nil
}

func (r *fakeCartRepo) DeleteItem(ctx context.Context, retailerID, productID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	items := r.store.carts[retailerID]
	for i := range items {
		if items[i].ProductID == productID {
			r.store.carts[retailerID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeCartRepo) ReplaceAll(ctx context.Context, retailerID string, baseVersion int64, items []models.CartItem) (*models.CartSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.versions[retailerID] != baseVersion {
		return nil, models.NewKindError(models.KindSyncConflict, http.StatusConflict, "cart was modified elsewhere, refetch before syncing")
	}
	r.store.carts[retailerID] = append([]models.CartItem(nil), items...)
	r.store.versions[retailerID]++
	return &models.CartSnapshot{RetailerID: retailerID, Version: r.store.versions[retailerID], Items: items}, nil
}

func (r *fakeCartRepo) Clear(ctx context.Context, retailerID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.carts[retailerID] = nil
	return nil
}

type fakeProductRepo struct{ store *memStore }

func (r *fakeProductRepo) GetProductByID(ctx context.Context, productID string) (*models.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	product, ok := r.store.products[productID]
	if !ok {
		return nil, nil
	}
	out := *product
	return &out, nil
}

func (r *fakeProductRepo) ProductExists(ctx context.Context, productID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	_, ok := r.store.products[productID]
	return ok, nil
}

func (r *fakeProductRepo) AddDistributor(ctx context.Context, productID, wholesalerID string) error {
	return nil
}

func (r *fakeProductRepo) RemoveDistributor(ctx context.Context, productID, wholesalerID string) error {
	return nil
}

type fakeMarginRepo struct{ store *memStore }

func (r *fakeMarginRepo) GetMarginTable(ctx context.Context) (models.MarginTable, error) {
	return r.store.margins, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) kinds() []models.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]models.EventKind, len(p.events))
	for i, event := range p.events {
		kinds[i] = event.Kind
	}
	return kinds
}
