package models

import "time"

type (
	BidStatus   string // Status of a wholesaler's bid
	BidPosition string // Derived standing relative to the current bid
)

const (
	PendingBid  BidStatus = "PENDING"  // Bid is live and rankable
	AcceptedBid BidStatus = "ACCEPTED" // Retailer accepted the bid, order created
	RejectedBid BidStatus = "REJECTED" // Wholesaler cancelled the bid
	ExpiredBid  BidStatus = "EXPIRED"  // Bid aged out by the expiry sweep

	CurrentPosition   BidPosition = "CURRENT"
	SurpassedPosition BidPosition = "SURPASSED"
)

// IsTerminal reports whether the bid status accepts no further transitions.
func (s BidStatus) IsTerminal() bool {
	return s == AcceptedBid || s == RejectedBid || s == ExpiredBid
}

// Rankable reports whether a bid with this status participates in ranking.
// Rejected and expired bids are retained for history but never rank; an
// expired bid becoming current again would undo the sweep. Accepted bids
// stay rankable so the winner remains current in a completed request's
// view; acceptance completes the request, so nothing competes with them.
func (s BidStatus) Rankable() bool {
	return s == PendingBid || s == AcceptedBid
}

// Bid represents a wholesaler's anonymous discount bid on a request.
type Bid struct {
	ID              string    `json:"id"`
	RequestID       string    `json:"requestId"`
	WholesalerID    string    `json:"wholesalerId"`
	DiscountPercent float64   `json:"discountPercent"`
	MRP             float64   `json:"mrp"`
	Status          BidStatus `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SubmitBidPayload is the request body for submitting a bid.
type SubmitBidPayload struct {
	RequestID       string  `json:"requestId"`
	DiscountPercent float64 `json:"discountPercent"`
	MRP             float64 `json:"mrp"`
}

// RankedBid is a bid annotated with its derived position and the
// retailer-facing price after margin adjustment. Position is computed,
// never persisted.
type RankedBid struct {
	Bid
	Position        BidPosition `json:"position"`
	RetailerPrice   float64     `json:"retailerPrice"`
	ShownDiscount   float64     `json:"shownDiscount"`
	IsOwnWholesaler bool        `json:"isOwnWholesaler,omitempty"`
}
