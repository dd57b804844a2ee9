package services

import (
	"context"
	"log"
	"net/http"

	"github.com/senyabanana/pharma-bid-service/internal/models"
	"github.com/senyabanana/pharma-bid-service/internal/repository"
)

// CartService owns the staged cart. Items have no bidding semantics;
// they exist purely to stage a future request submission.
type CartService struct {
	Repo   repository.CartRepository
	Logger *log.Logger
}

// NewCartService creates a new CartService.
func NewCartService(repo repository.CartRepository, logger *log.Logger) *CartService {
	return &CartService{Repo: repo, Logger: logger}
}

// GetCart returns the retailer's cart snapshot.
func (s *CartService) GetCart(ctx context.Context, retailerID string) (*models.CartSnapshot, error) {
	if retailerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "retailer identity is required")
	}
	snapshot, err := s.Repo.GetCart(ctx, retailerID)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to load cart")
	}
	return snapshot, nil
}

// PutItem sets the quantity for one product.
func (s *CartService) PutItem(ctx context.Context, retailerID string, item models.CartItem) error {
	if retailerID == "" {
		return models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "retailer identity is required")
	}
	if item.ProductID == "" || item.Quantity < 1 {
		return models.NewErrorResponse(http.StatusBadRequest, "a product and a quantity of at least 1 are required")
	}
	if err := s.Repo.UpsertItem(ctx, retailerID, item); err != nil {
		return models.NewErrorResponse(http.StatusInternalServerError, "failed to store cart item")
	}
	return nil
}

// DeleteItem removes one product from the cart.
func (s *CartService) DeleteItem(ctx context.Context, retailerID, productID string) error {
	if retailerID == "" {
		return models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "retailer identity is required")
	}
	if productID == "" {
		return models.NewErrorResponse(http.StatusBadRequest, "productId is required")
	}
	if err := s.Repo.DeleteItem(ctx, retailerID, productID); err != nil {
		return models.NewErrorResponse(http.StatusInternalServerError, "failed to delete cart item")
	}
	return nil
}

// SyncCart replaces the whole cart. The base version must match the
// stored cart, otherwise the sync fails with SyncConflict and the caller
// must refetch before retrying.
func (s *CartService) SyncCart(ctx context.Context, retailerID string, payload models.SyncCartPayload) (*models.CartSnapshot, error) {
	if retailerID == "" {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized, "retailer identity is required")
	}
	for _, item := range payload.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			return nil, models.NewErrorResponse(http.StatusBadRequest, "each item needs a product and a quantity of at least 1")
		}
	}
	snapshot, err := s.Repo.ReplaceAll(ctx, retailerID, payload.BaseVersion, payload.Items)
	if err != nil {
		if _, ok := err.(*models.ErrorResponse); ok {
			return nil, err
		}
		return nil, models.NewErrorResponse(http.StatusInternalServerError, "failed to sync cart")
	}
	return snapshot, nil
}
