package services

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
	"github.com/senyabanana/pharma-bid-service/internal/notifier"
	"github.com/senyabanana/pharma-bid-service/internal/repository"
	"github.com/senyabanana/pharma-bid-service/internal/utils"

	"github.com/google/uuid"
)

// OrderService converts accepted bids into orders. Acceptance is atomic:
// the bid, its request and the new order change together or not at all,
// so a half-applied state can never allow double acceptance.
type OrderService struct {
	Orders    repository.OrderRepository
	Requests  repository.RequestRepository
	Cart      repository.CartRepository
	Publisher notifier.Publisher
	Logger    *log.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders repository.OrderRepository, requests repository.RequestRepository, cart repository.CartRepository, publisher notifier.Publisher, logger *log.Logger) *OrderService {
	return &OrderService{
		Orders:    orders,
		Requests:  requests,
		Cart:      cart,
		Publisher: publisher,
		Logger:    logger,
	}
}

// AcceptBid creates an order from a pending bid on the retailer's own
// ACTIVE request. Losing an accept race yields RequestNoLongerActive and
// the client is expected to refetch, not retry.
func (s *OrderService) AcceptBid(ctx context.Context, retailerID string, payload models.CreateOrderPayload) (*models.Order, error) {
	if retailerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "retailer identity is required")
	}
	if payload.BidID == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "bidId is required")
	}

	order, err := s.Orders.CreateFromBid(ctx, payload.BidID, retailerID, payload.PickupPoint)
	if err != nil {
		if _, ok := err.(*models.ErrorResponse); ok {
			return nil, err
		}
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to create order")
	}

	s.publishAccepted(ctx, *order)
	return order, nil
}

// BulkAccept fans out one order creation per item concurrently. Each
// item succeeds or fails independently; a partial result is an accepted
// outcome, not an error. The cart is cleared iff at least one item
// succeeded.
func (s *OrderService) BulkAccept(ctx context.Context, retailerID string, payload models.BulkOrderPayload) (*models.BulkOrderSummary, error) {
	if retailerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "retailer identity is required")
	}
	if len(payload.Items) == 0 {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "at least one item is required")
	}

	outcomes := make([]models.BulkItemOutcome, len(payload.Items))
	var wg sync.WaitGroup
	for i, item := range payload.Items {
		if item.PickupPoint == "" {
			item.PickupPoint = payload.PickupPoint
		}
		wg.Add(1)
		go func(i int, item models.CreateOrderPayload) {
			defer wg.Done()
			outcome := models.BulkItemOutcome{BidID: item.BidID}
			order, err := s.AcceptBid(ctx, retailerID, item)
			if err != nil {
				outcome.Kind = models.KindOf(err)
				outcome.Reason = err.Error()
			} else {
				outcome.OrderID = order.ID
			}
			outcomes[i] = outcome
		}(i, item)
	}
	wg.Wait()

	summary := models.BulkOrderSummary{Outcomes: outcomes}
	for _, outcome := range outcomes {
		if outcome.OrderID != "" {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	if summary.Succeeded > 0 {
		if err := s.Cart.Clear(ctx, retailerID); err != nil {
			s.Logger.Printf("failed to clear cart for %s after bulk accept: %v", retailerID, err)
		} else {
			summary.CartCleared = true
		}
	}
	return &summary, nil
}

// GetRetailerOrders lists a retailer's orders.
func (s *OrderService) GetRetailerOrders(ctx context.Context, retailerID, limitStr, offsetStr string) ([]models.Order, error) {
	if retailerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "retailer identity is required")
	}
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	return s.Orders.GetRetailerOrders(ctx, retailerID, limit, offset)
}

func (s *OrderService) publishAccepted(ctx context.Context, order models.Order) {
	event := models.Event{
		ID:           uuid.New().String(),
		Kind:         models.EventBidUpdated,
		RequestID:    order.RequestID,
		BidID:        order.BidID,
		RetailerID:   order.RetailerID,
		WholesalerID: order.WholesalerID,
		CreatedAt:    time.Now().UTC(),
	}
	if request, err := s.Requests.GetRequestByID(ctx, order.RequestID); err == nil && request != nil {
		event.ProductID = request.ProductID
		event.ProductName = request.ProductName
	}
	s.Publisher.Publish(ctx, event)
}
