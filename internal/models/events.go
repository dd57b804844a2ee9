package models

import "time"

type EventKind string // Kind of a lifecycle event published by the notifier

const (
	EventBidCreated       EventKind = "bid-created"
	EventBidUpdated       EventKind = "bid-updated"
	EventBidCancelled     EventKind = "bid-cancelled"
	EventRequestCreated   EventKind = "bid-request-created"
	EventRequestCancelled EventKind = "bid-request-cancelled"
)

// Event carries enough denormalized data for a subscriber to update a
// list view without a round trip. Subscribers must still treat events as
// hints to refetch authoritative state, not as the source of truth.
type Event struct {
	ID              string    `json:"id"`
	Kind            EventKind `json:"kind"`
	RequestID       string    `json:"requestId"`
	BidID           string    `json:"bidId,omitempty"`
	ProductID       string    `json:"productId"`
	ProductName     string    `json:"productName,omitempty"`
	RetailerID      string    `json:"retailerId"`
	WholesalerID    string    `json:"wholesalerId,omitempty"`
	DiscountPercent float64   `json:"discountPercent,omitempty"`
	RetailerPrice   float64   `json:"retailerPrice,omitempty"`
	MRP             float64   `json:"mrp,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Room name builders. One room per retailer, one per wholesaler, and
// optionally one per request for focused observers.
func RetailerRoom(retailerID string) string     { return "retailer:" + retailerID }
func WholesalerRoom(wholesalerID string) string { return "wholesaler:" + wholesalerID }
func RequestRoom(requestID string) string       { return "request:" + requestID }

// Rooms returns every room this event should be delivered to.
func (e Event) Rooms() []string {
	rooms := make([]string, 0, 3)
	if e.RetailerID != "" {
		rooms = append(rooms, RetailerRoom(e.RetailerID))
	}
	if e.WholesalerID != "" {
		rooms = append(rooms, WholesalerRoom(e.WholesalerID))
	}
	if e.RequestID != "" {
		rooms = append(rooms, RequestRoom(e.RequestID))
	}
	return rooms
}
