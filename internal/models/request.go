package models

import "time"

type RequestStatus string // Status of a purchase request

const (
	ActiveRequest    RequestStatus = "ACTIVE"    // Request is open for bids
	CancelledRequest RequestStatus = "CANCELLED" // Retailer cancelled or superseded the request
	CompletedRequest RequestStatus = "COMPLETED" // An order was created from one of its bids
)

// IsTerminal reports whether the status accepts no further transitions.
func (s RequestStatus) IsTerminal() bool {
	return s == CancelledRequest || s == CompletedRequest
}

// BidRequest represents a retailer's purchase request for one product.
type BidRequest struct {
	ID          string        `json:"id"`
	RetailerID  string        `json:"retailerId"`
	ProductID   string        `json:"productId"`
	ProductName string        `json:"productName,omitempty"`
	Quantity    int           `json:"quantity"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	Bids        []Bid         `json:"bids,omitempty"`
}

// CreateRequestItem is one line of a (possibly bulk) request submission.
type CreateRequestItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateRequestsPayload is the request body for creating purchase requests.
type CreateRequestsPayload struct {
	Items []CreateRequestItem `json:"items"`
}
