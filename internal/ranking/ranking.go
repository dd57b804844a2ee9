package ranking

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/senyabanana/pharma-bid-service/internal/models"
)

// Rank computes the current winning bid for one request and every bid's
// relative position. Among rankable bids the current bid is the one with
// the strictly highest discount percent; ties break by earliest creation
// time so a flood of identical re-submissions cannot displace an honest
// earlier bid. Rejected bids are excluded, and so are expired ones even
// though only cancellation is a wholesaler action: a bid aged out by the
// expiry sweep must never become current. Both stay in the history the
// callers retain.
func Rank(bids []models.Bid) (*models.Bid, []models.RankedBid) {
	eligible := make([]models.Bid, 0, len(bids))
	for _, bid := range bids {
		if bid.Status.Rankable() {
			eligible = append(eligible, bid)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].DiscountPercent != eligible[j].DiscountPercent {
			return eligible[i].DiscountPercent > eligible[j].DiscountPercent
		}
		if !eligible[i].CreatedAt.Equal(eligible[j].CreatedAt) {
			return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
		}
		return eligible[i].ID < eligible[j].ID
	})

	current := eligible[0]
	ordered := make([]models.RankedBid, len(eligible))
	for i, bid := range eligible {
		position := models.SurpassedPosition
		if i == 0 {
			position = models.CurrentPosition
		}
		ordered[i] = models.RankedBid{Bid: bid, Position: position}
	}
	return &current, ordered
}

// IsWinning reports whether a wholesaler owns the current bid. Identity
// comparison, never array position.
func IsWinning(bids []models.Bid, wholesalerID string) bool {
	current, _ := Rank(bids)
	return current != nil && current.WholesalerID == wholesalerID
}

// ValidateSubmission checks a new bid's terms against the current bid at
// submission time. A failed submission is rejected at the boundary, never
// silently lowered; the client keeps the entered values for correction.
func ValidateSubmission(discountPercent, mrp float64, current *models.Bid) *models.ErrorResponse {
	if discountPercent < 0 || discountPercent > 100 {
		return models.NewKindError(models.KindInvalidBidTerms, http.StatusBadRequest,
			"discount percent must be between 0 and 100")
	}
	if mrp <= 0 {
		return models.NewKindError(models.KindInvalidBidTerms, http.StatusBadRequest,
			"mrp must be greater than zero")
	}
	if current != nil && discountPercent <= current.DiscountPercent {
		return models.NewKindError(models.KindBidTooLow, http.StatusConflict,
			fmt.Sprintf("bid must exceed the current discount of %.1f%%", current.DiscountPercent))
	}
	return nil
}
