package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/services"
	"github.com/senyabanana/pharma-bid-service/internal/utils"
)

// MarginHandler serves the margin table.
type MarginHandler struct {
	Service *services.MarginService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewMarginHandler creates a new MarginHandler.
func NewMarginHandler(service *services.MarginService, logger *log.Logger, timeout time.Duration) *MarginHandler {
	return &MarginHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetMargins returns the per-class margin percentages.
func (h *MarginHandler) GetMargins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	table, err := h.Service.GetTable(ctx)
	if err != nil {
		h.Logger.Println(err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "failed to fetch margins")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(table); err != nil {
		h.Logger.Println(err)
	}
}
