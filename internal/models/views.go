package models

// RequestBidsView is the ranked bid list the core exposes to the UI
// layer for one request. Ranked holds only rankable bids in ranking
// order; History additionally includes rejected and expired bids.
type RequestBidsView struct {
	RequestID string      `json:"requestId"`
	Current   *RankedBid  `json:"current,omitempty"`
	Ranked    []RankedBid `json:"ranked"`
	History   []Bid       `json:"history"`
}

// WholesalerBidView is one of a wholesaler's own bids annotated with its
// standing against the current bid on the request.
type WholesalerBidView struct {
	Bid
	Winning bool `json:"winning"`
}
