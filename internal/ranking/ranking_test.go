package ranking

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"github.com/senyabanana/pharma-bid-service/internal/models"
)

func bidAt(id, wholesaler string, discount float64, t time.Time, status models.BidStatus) models.Bid {
	return models.Bid{
		ID:              id,
		RequestID:       "req-1",
		WholesalerID:    wholesaler,
		DiscountPercent: discount,
		MRP:             100,
		Status:          status,
		CreatedAt:       t,
	}
}

func TestRank_HighestDiscountWins(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	bids := []models.Bid{
		bidAt("b1", "w1", 10, base, models.PendingBid),
		bidAt("b2", "w2", 12.5, base.Add(time.Minute), models.PendingBid),
		bidAt("b3", "w3", 11, base.Add(2*time.Minute), models.PendingBid),
	}

	current, ordered := Rank(bids)

	check.NotNil(t, current)
	check.Equal(t, "b2", current.ID)
	check.Equal(t, 3, len(ordered))
	check.Equal(t, models.CurrentPosition, ordered[0].Position)
	check.Equal(t, models.SurpassedPosition, ordered[1].Position)
	check.Equal(t, models.SurpassedPosition, ordered[2].Position)
	check.Equal(t, "b3", ordered[1].ID)
	check.Equal(t, "b1", ordered[2].ID)
}

func TestRank_TieBreaksByEarliestCreation(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	bids := []models.Bid{
		bidAt("b2", "w2", 10, base.Add(time.Second), models.PendingBid),
		bidAt("b1", "w1", 10, base, models.PendingBid),
	}

	current, _ := Rank(bids)

	check.NotNil(t, current)
	check.Equal(t, "b1", current.ID)

	// A strictly higher bid displaces the tie winner.
	bids = append(bids, bidAt("b3", "w3", 10.1, base.Add(2*time.Second), models.PendingBid))
	current, _ = Rank(bids)
	check.Equal(t, "b3", current.ID)
}

func TestRank_RejectedExcluded(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	bids := []models.Bid{
		bidAt("b1", "w1", 20, base, models.RejectedBid),
		bidAt("b2", "w2", 15, base.Add(time.Second), models.PendingBid),
		bidAt("b3", "w3", 18, base.Add(2*time.Second), models.ExpiredBid),
	}

	current, ordered := Rank(bids)

	check.NotNil(t, current)
	check.Equal(t, "b2", current.ID)
	check.Equal(t, 1, len(ordered))
}

func TestRank_Empty(t *testing.T) {
	current, ordered := Rank(nil)
	check.Nil(t, current)
	check.Equal(t, 0, len(ordered))

	current, ordered = Rank([]models.Bid{
		bidAt("b1", "w1", 20, time.Now(), models.RejectedBid),
	})
	check.Nil(t, current)
	check.Equal(t, 0, len(ordered))
}

func TestIsWinning(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	bids := []models.Bid{
		bidAt("b1", "w1", 10, base, models.PendingBid),
		bidAt("b2", "w2", 12, base.Add(time.Second), models.PendingBid),
	}

	check.True(t, IsWinning(bids, "w2"))
	check.False(t, IsWinning(bids, "w1"))
	check.False(t, IsWinning(nil, "w1"))
}

func TestValidateSubmission(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	current := bidAt("b1", "w1", 10, base, models.PendingBid)

	err := ValidateSubmission(10, 100, &current)
	check.NotNil(t, err)
	check.Equal(t, models.KindBidTooLow, err.Kind)

	err = ValidateSubmission(9.9, 100, &current)
	check.NotNil(t, err)
	check.Equal(t, models.KindBidTooLow, err.Kind)

	err = ValidateSubmission(101, 100, &current)
	check.NotNil(t, err)
	check.Equal(t, models.KindInvalidBidTerms, err.Kind)

	err = ValidateSubmission(10.1, 0, &current)
	check.NotNil(t, err)
	check.Equal(t, models.KindInvalidBidTerms, err.Kind)

	check.Nil(t, ValidateSubmission(10.1, 100, &current))
	check.Nil(t, ValidateSubmission(0, 100, nil))
}
