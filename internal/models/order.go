package models

import "time"

type OrderStatus string // Fulfillment status of an order

const (
	PlacedOrder OrderStatus = "PLACED" // Initial status at creation
)

// Order is created exactly once per accepted bid. Immutable afterwards
// except for status progression owned by fulfillment.
type Order struct {
	ID           string      `json:"id"`
	BidID        string      `json:"bidId"`
	RequestID    string      `json:"requestId"`
	RetailerID   string      `json:"retailerId"`
	WholesalerID string      `json:"wholesalerId"`
	PickupPoint  string      `json:"pickupPoint"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// CreateOrderPayload is the request body for creating an order from a bid.
type CreateOrderPayload struct {
	BidID       string `json:"bidId"`
	PickupPoint string `json:"pickupPoint"`
}

// BulkOrderPayload is the request body for bulk order acceptance.
type BulkOrderPayload struct {
	Items       []CreateOrderPayload `json:"items"`
	PickupPoint string               `json:"pickupPoint,omitempty"`
}

// BulkItemOutcome is the per-item result of a bulk acceptance fan-out.
// Each item succeeds or fails independently.
type BulkItemOutcome struct {
	BidID   string    `json:"bidId"`
	OrderID string    `json:"orderId,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Reason  string    `json:"reason,omitempty"`
}

// BulkOrderSummary aggregates a bulk acceptance fan-out.
type BulkOrderSummary struct {
	Succeeded   int               `json:"succeeded"`
	Failed      int               `json:"failed"`
	CartCleared bool              `json:"cartCleared"`
	Outcomes    []BulkItemOutcome `json:"outcomes"`
}
