package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
	"github.com/senyabanana/pharma-bid-service/internal/notifier"
	"github.com/senyabanana/pharma-bid-service/internal/pricing"
	"github.com/senyabanana/pharma-bid-service/internal/ranking"
	"github.com/senyabanana/pharma-bid-service/internal/repository"
	"github.com/senyabanana/pharma-bid-service/internal/utils"

	"github.com/google/uuid"
)

// BidService owns bid submission, cancellation and ranked listings. The
// current bid is always computed against the full server-held bid set,
// which is the single decision point that serializes concurrent
// submissions.
type BidService struct {
	Bids      repository.BidRepository
	Requests  repository.RequestRepository
	Products  repository.ProductRepository
	Margins   *MarginService
	Publisher notifier.Publisher
	Logger    *log.Logger
}

// NewBidService creates a new BidService.
func NewBidService(bids repository.BidRepository, requests repository.RequestRepository, products repository.ProductRepository, margins *MarginService, publisher notifier.Publisher, logger *log.Logger) *BidService {
	return &BidService{
		Bids:      bids,
		Requests:  requests,
		Products:  products,
		Margins:   margins,
		Publisher: publisher,
		Logger:    logger,
	}
}

// SubmitBid records a new bid. Validation against the current winning
// bid happens inside the repository while the request row is locked, so
// concurrent submissions serialize there and the loser fails with
// BidTooLow instead of slipping past the winner. A failed submission is
// rejected at the boundary, never silently lowered.
func (s *BidService) SubmitBid(ctx context.Context, wholesalerID string, payload models.SubmitBidPayload) (*models.Bid, error) {
	if wholesalerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "wholesaler identity is required")
	}
	if payload.RequestID == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "requestId is required")
	}

	bid, err := s.Bids.SubmitBid(ctx, payload.RequestID, wholesalerID, payload.DiscountPercent, payload.MRP)
	if err != nil {
		if _, ok := err.(*models.ErrorResponse); ok {
			return nil, err
		}
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to create bid")
	}

	request, err := s.Requests.GetRequestByID(ctx, bid.RequestID)
	if err != nil || request == nil {
		s.Logger.Printf("created bid %s but could not load request %s for the event", bid.ID, bid.RequestID)
		return bid, nil
	}
	s.publishBidEvent(ctx, models.EventBidCreated, *bid, request)
	return bid, nil
}

// CancelBid moves a wholesaler's PENDING bid to REJECTED. Duplicate
// cancels are harmless no-op failures.
func (s *BidService) CancelBid(ctx context.Context, wholesalerID, bidID string) (*models.Bid, error) {
	if wholesalerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "wholesaler identity is required")
	}

	bid, err := s.Bids.GetBidByID(ctx, bidID)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to load bid")
	}
	if bid == nil {
		return nil, models.NewErrorResponse(http.StatusNotFound, "bid not found")
	}
	if bid.WholesalerID != wholesalerID {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusForbidden, "bid does not belong to this wholesaler")
	}

	cancelled, err := s.Bids.CancelBid(ctx, bidID)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to cancel bid")
	}
	if !cancelled {
		return nil, models.NewKindError(models.KindAlreadyTerminal, http.StatusConflict, "bid is already accepted, rejected or expired")
	}

	bid.Status = models.RejectedBid
	request, err := s.Requests.GetRequestByID(ctx, bid.RequestID)
	if err != nil || request == nil {
		s.Logger.Printf("cancelled bid %s but could not load request %s for the event", bidID, bid.RequestID)
		return bid, nil
	}
	s.publishBidEvent(ctx, models.EventBidCancelled, *bid, request)
	return bid, nil
}

// GetRequestBids returns the authoritative ranked view for one request:
// the current bid, every surpassed bid with its retailer-facing price,
// and full history including rejected and expired bids.
func (s *BidService) GetRequestBids(ctx context.Context, callerID, requestID string) (*models.RequestBidsView, error) {
	request, err := s.Requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to load request")
	}
	if request == nil {
		return nil, models.NewErrorResponse(http.StatusNotFound, "request not found")
	}

	bids, err := s.Bids.GetRequestBids(ctx, requestID)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to load bids")
	}

	_, ranked := ranking.Rank(bids)

	class := models.ClassD
	if product, err := s.Products.GetProductByID(ctx, request.ProductID); err == nil && product != nil {
		class = product.MarginClass
	}
	margins, err := s.Margins.GetTable(ctx)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to load margin table")
	}

	view := models.RequestBidsView{RequestID: requestID, History: bids, Ranked: make([]models.RankedBid, len(ranked))}
	for i, rankedBid := range ranked {
		rankedBid.ShownDiscount = pricing.RetailerDiscount(rankedBid.DiscountPercent, class, margins)
		rankedBid.RetailerPrice = pricing.RetailerPrice(rankedBid.MRP, rankedBid.DiscountPercent, class, margins)
		rankedBid.IsOwnWholesaler = callerID != "" && rankedBid.WholesalerID == callerID
		view.Ranked[i] = rankedBid
	}
	if len(view.Ranked) > 0 {
		view.Current = &view.Ranked[0]
	}
	return &view, nil
}

// GetWholesalerBids lists a wholesaler's own bids with their standing
// against the current bid on each request.
func (s *BidService) GetWholesalerBids(ctx context.Context, wholesalerID, limitStr, offsetStr string) ([]models.WholesalerBidView, error) {
	if wholesalerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "wholesaler identity is required")
	}
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	bids, err := s.Bids.GetWholesalerBids(ctx, wholesalerID, limit, offset)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to load bids")
	}

	views := make([]models.WholesalerBidView, len(bids))
	for i, bid := range bids {
		view := models.WholesalerBidView{Bid: bid}
		if bid.Status == models.PendingBid {
			requestBids, err := s.Bids.GetRequestBids(ctx, bid.RequestID)
			if err != nil {
				return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to load request bids")
			}
			view.Winning = ranking.IsWinning(requestBids, wholesalerID)
		}
		views[i] = view
	}
	return views, nil
}

func (s *BidService) publishBidEvent(ctx context.Context, kind models.EventKind, bid models.Bid, request *models.BidRequest) {
	event := models.Event{
		ID:              uuid.New().String(),
		Kind:            kind,
		RequestID:       bid.RequestID,
		BidID:           bid.ID,
		ProductID:       request.ProductID,
		ProductName:     request.ProductName,
		RetailerID:      request.RetailerID,
		WholesalerID:    bid.WholesalerID,
		DiscountPercent: bid.DiscountPercent,
		MRP:             bid.MRP,
		CreatedAt:       time.Now().UTC(),
	}

	// Denormalized hint only: subscribers refetch authoritative state.
	if product, err := s.Products.GetProductByID(ctx, request.ProductID); err == nil && product != nil {
		if margins, err := s.Margins.GetTable(ctx); err == nil {
			event.RetailerPrice = pricing.RetailerPrice(bid.MRP, bid.DiscountPercent, product.MarginClass, margins)
		}
	}
	s.Publisher.Publish(ctx, event)
}
