// Package client is a Go SDK for the bid service. It speaks the HTTP
// surface with the trusted identity headers, decodes error kinds so
// callers can tell validation failures from stale-state conflicts, and
// retries mutations only on transient failures.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
	"github.com/senyabanana/pharma-bid-service/internal/reconcile"
	"github.com/senyabanana/pharma-bid-service/internal/utils"
)

const (
	retryAttempts = 3
	retryBase     = 200 * time.Millisecond
)

// Client talks to one bid service instance as one identified caller.
type Client struct {
	BaseURL string
	UserID  string
	Role    string
	HTTP    *http.Client
}

// New creates a client for the given identity. Role is "retailer" or
// "wholesaler".
func New(baseURL, userID, role string) *Client {
	return &Client{
		BaseURL: baseURL,
		UserID:  userID,
		Role:    role,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// do issues one request. A non-2xx response comes back as a
// *models.ErrorResponse carrying the server's kind; network failures are
// reported as transient so RetryTransient picks them up.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(utils.HeaderUserID, c.UserID)
	req.Header.Set(utils.HeaderUserRole, c.Role)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return models.NewKindError(models.KindTransientFailure, http.StatusServiceUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errResp := &models.ErrorResponse{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(errResp); err != nil {
			errResp.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return errResp
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ActiveRequests lists ACTIVE requests visible to the caller.
func (c *Client) ActiveRequests(ctx context.Context, limit, offset int) ([]models.BidRequest, error) {
	var requests []models.BidRequest
	path := "/api/requests?limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// RequestBids fetches the authoritative ranked view for one request.
func (c *Client) RequestBids(ctx context.Context, requestID string) (*models.RequestBidsView, error) {
	var view models.RequestBidsView
	if err := c.do(ctx, http.MethodGet, "/api/bids/"+requestID+"/list", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// CreateRequests submits one or more purchase requests.
func (c *Client) CreateRequests(ctx context.Context, payload models.CreateRequestsPayload) ([]models.BidRequest, error) {
	var requests []models.BidRequest
	err := reconcile.RetryTransient(ctx, retryAttempts, retryBase, func() error {
		return c.do(ctx, http.MethodPost, "/api/requests/new", payload, &requests)
	})
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// SubmitBid submits a bid. Rejections like BidTooLow come back as-is;
// only transient failures are retried.
func (c *Client) SubmitBid(ctx context.Context, payload models.SubmitBidPayload) (*models.Bid, error) {
	var bid models.Bid
	err := reconcile.RetryTransient(ctx, retryAttempts, retryBase, func() error {
		return c.do(ctx, http.MethodPost, "/api/bids/new", payload, &bid)
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// CancelBid cancels the caller's own pending bid.
func (c *Client) CancelBid(ctx context.Context, bidID string) (*models.Bid, error) {
	var bid models.Bid
	if err := c.do(ctx, http.MethodPut, "/api/bids/"+bidID+"/cancel", nil, &bid); err != nil {
		return nil, err
	}
	return &bid, nil
}

// AcceptBid places an order from a bid. A retried attempt that finds the
// order already placed surfaces AlreadyTerminal, which the caller treats
// as settled.
func (c *Client) AcceptBid(ctx context.Context, payload models.CreateOrderPayload) (*models.Order, error) {
	var order models.Order
	err := reconcile.RetryTransient(ctx, retryAttempts, retryBase, func() error {
		return c.do(ctx, http.MethodPost, "/api/orders/new", payload, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AcceptBulk places several orders at once and returns the per-item
// summary.
func (c *Client) AcceptBulk(ctx context.Context, payload models.BulkOrderPayload) (*models.BulkOrderSummary, error) {
	var summary models.BulkOrderSummary
	if err := c.do(ctx, http.MethodPost, "/api/orders/bulk", payload, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetCart fetches the caller's cart snapshot.
func (c *Client) GetCart(ctx context.Context) (*models.CartSnapshot, error) {
	var snapshot models.CartSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SyncCart replaces the whole cart. A SyncConflict means the local base
// version is stale: refetch with GetCart, rebase, and sync again.
func (c *Client) SyncCart(ctx context.Context, payload models.SyncCartPayload) (*models.CartSnapshot, error) {
	var snapshot models.CartSnapshot
	if err := c.do(ctx, http.MethodPut, "/api/cart/sync", payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
