package models

import "time"

// CartItem stages a future request submission. No bidding semantics.
type CartItem struct {
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// CartSnapshot is the whole-cart state synchronized with last-write-wins
// semantics. Version guards replace-all against a stale base.
type CartSnapshot struct {
	RetailerID string     `json:"retailerId"`
	Version    int64      `json:"version"`
	Items      []CartItem `json:"items"`
}

// SyncCartPayload is the request body for a replace-all cart sync.
type SyncCartPayload struct {
	BaseVersion int64      `json:"baseVersion"`
	Items       []CartItem `json:"items"`
}
