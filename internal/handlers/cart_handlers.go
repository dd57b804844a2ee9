package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
	"github.com/senyabanana/pharma-bid-service/internal/services"
	"github.com/senyabanana/pharma-bid-service/internal/utils"
)

// CartHandler handles HTTP requests for the staged cart.
type CartHandler struct {
	Service     *services.CartService
	Coordinator *services.CartCoordinator
	Logger      *log.Logger
	Timeout     time.Duration
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, coordinator *services.CartCoordinator, logger *log.Logger, timeout time.Duration) *CartHandler {
	return &CartHandler{
		Service:     service,
		Coordinator: coordinator,
		Logger:      logger,
		Timeout:     timeout,
	}
}

// GetCart returns the retailer's cart snapshot with its version.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	retailerID, ok := utils.RequireRole(w, r, utils.RoleRetailer)
	if !ok {
		return
	}

	snapshot, err := h.Service.GetCart(ctx, retailerID)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendError(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to fetch cart")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		h.Logger.Println(err)
	}
}

// PutItem sets the quantity of one product in the cart.
func (h *CartHandler) PutItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only PUT is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	retailerID, ok := utils.RequireRole(w, r, utils.RoleRetailer)
	if !ok {
		return
	}

	var item models.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.PutItem(ctx, retailerID, item); err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendError(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to store cart item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteItem removes one product from the cart.
func (h *CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only DELETE is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	retailerID, ok := utils.RequireRole(w, r, utils.RoleRetailer)
	if !ok {
		return
	}

	productId := r.PathValue("productId")

	if err := h.Service.DeleteItem(ctx, retailerID, productId); err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendError(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to delete cart item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SyncCart replaces the whole cart against a base version. With
// mode=deferred the snapshot is staged and persisted after a quiet
// period; rapid successive syncs coalesce into one write of the last
// staged state.
func (h *CartHandler) SyncCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only PUT is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	retailerID, ok := utils.RequireRole(w, r, utils.RoleRetailer)
	if !ok {
		return
	}

	var payload models.SyncCartPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if r.URL.Query().Get("mode") == "deferred" {
		h.Coordinator.Stage(retailerID, payload)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	snapshot, err := h.Service.SyncCart(ctx, retailerID, payload)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendError(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to sync cart")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		h.Logger.Println(err)
	}
}
