package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
	"github.com/senyabanana/pharma-bid-service/internal/notifier"
	"github.com/senyabanana/pharma-bid-service/internal/repository"
	"github.com/senyabanana/pharma-bid-service/internal/utils"

	"github.com/google/uuid"
)

// RequestService owns the BidRequest lifecycle.
type RequestService struct {
	Repo      repository.RequestRepository
	Products  repository.ProductRepository
	Publisher notifier.Publisher
	Logger    *log.Logger
}

// NewRequestService creates a new RequestService.
func NewRequestService(repo repository.RequestRepository, products repository.ProductRepository, publisher notifier.Publisher, logger *log.Logger) *RequestService {
	return &RequestService{Repo: repo, Products: products, Publisher: publisher, Logger: logger}
}

// CreateRequests creates one ACTIVE request per submitted item. A newer
// request supersedes the retailer's older ACTIVE requests for the same
// product.
func (s *RequestService) CreateRequests(ctx context.Context, retailerID string, payload models.CreateRequestsPayload) ([]models.BidRequest, error) {
	if retailerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "retailer identity is required")
	}
	if len(payload.Items) == 0 {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "at least one request item is required")
	}

	for _, item := range payload.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			return nil, models.NewErrorResponse(http.StatusBadRequest, "each item needs a product and a quantity of at least 1")
		}
		exists, err := s.Products.ProductExists(ctx, item.ProductID)
		if err != nil {
			return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to check product existence")
		}
		if !exists {
			return nil, models.NewErrorResponse(http.StatusNotFound, "product not found: "+item.ProductID)
		}
	}

	var created []models.BidRequest
	for _, item := range payload.Items {
		superseded, err := s.Repo.SupersedeActiveForProduct(ctx, retailerID, item.ProductID)
		if err != nil {
			return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to supersede older requests")
		}
		if superseded > 0 {
			s.Logger.Printf("superseded %d older request(s) for product %s", superseded, item.ProductID)
		}

		request, err := s.Repo.CreateRequest(ctx, retailerID, item)
		if err != nil {
			return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to create request")
		}

		product, err := s.Products.GetProductByID(ctx, item.ProductID)
		if err == nil && product != nil {
			request.ProductName = product.Name
		}
		created = append(created, *request)

		s.Publisher.Publish(ctx, models.Event{
			ID:          uuid.New().String(),
			Kind:        models.EventRequestCreated,
			RequestID:   request.ID,
			ProductID:   request.ProductID,
			ProductName: request.ProductName,
			RetailerID:  retailerID,
			CreatedAt:   time.Now().UTC(),
		})
	}
	return created, nil
}

// Cancel moves an ACTIVE request to CANCELLED. A duplicate cancel on an
// already-terminal request is a harmless no-op failure.
func (s *RequestService) Cancel(ctx context.Context, retailerID, requestID string) (*models.BidRequest, error) {
	if retailerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "retailer identity is required")
	}

	request, err := s.Repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to load request")
	}
	if request == nil {
		return nil, models.NewErrorResponse(http.StatusNotFound, "request not found")
	}
	if request.RetailerID != retailerID {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusForbidden, "request does not belong to this retailer")
	}

	cancelled, err := s.Repo.CancelRequest(ctx, requestID)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to cancel request")
	}
	if !cancelled {
		return nil, models.NewKindError(models.KindAlreadyTerminal, http.StatusConflict, "request is already cancelled or completed")
	}

	request.Status = models.CancelledRequest
	s.Publisher.Publish(ctx, models.Event{
		ID:          uuid.New().String(),
		Kind:        models.EventRequestCancelled,
		RequestID:   request.ID,
		ProductID:   request.ProductID,
		ProductName: request.ProductName,
		RetailerID:  retailerID,
		CreatedAt:   time.Now().UTC(),
	})
	return request, nil
}

// GetActiveForWholesaler lists open requests for products the wholesaler
// stocks.
func (s *RequestService) GetActiveForWholesaler(ctx context.Context, wholesalerID, limitStr, offsetStr string) ([]models.BidRequest, error) {
	if wholesalerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "wholesaler identity is required")
	}
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	return s.Repo.GetActiveForWholesaler(ctx, wholesalerID, limit, offset)
}

// GetRetailerRequests lists a retailer's own requests.
func (s *RequestService) GetRetailerRequests(ctx context.Context, retailerID, limitStr, offsetStr string) ([]models.BidRequest, error) {
	if retailerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "retailer identity is required")
	}
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	return s.Repo.GetRetailerRequests(ctx, retailerID, limit, offset)
}
