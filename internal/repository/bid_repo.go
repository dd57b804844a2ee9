package repository

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"
	"github.com/senyabanana/pharma-bid-service/internal/ranking"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BidRepository defines access to wholesalers' bids.
type BidRepository interface {
	SubmitBid(ctx context.Context, requestID, wholesalerID string, discountPercent, mrp float64) (*models.Bid, error)
	GetBidByID(ctx context.Context, bidID string) (*models.Bid, error)
	GetRequestBids(ctx context.Context, requestID string) ([]models.Bid, error)
	GetWholesalerBids(ctx context.Context, wholesalerID string, limit, offset int) ([]models.Bid, error)
	CancelBid(ctx context.Context, bidID string) (bool, error)
	ExpireStaleBids(ctx context.Context, cutoff time.Time) (int64, error)
}

// PostgresBidRepository implements BidRepository over Postgres.
type PostgresBidRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresBidRepository creates a new PostgresBidRepository.
func NewPostgresBidRepository(db *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{DB: db}
}

// SubmitBid validates and inserts a bid while holding the owning
// request row lock, so concurrent submissions on one request serialize
// at this single decision point: the loser of a race re-validates
// against the winner's bid and fails with BidTooLow instead of slipping
// past it.
func (r *PostgresBidRepository) SubmitBid(ctx context.Context, requestID, wholesalerID string, discountPercent, mrp float64) (*models.Bid, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var requestStatus models.RequestStatus
	lockQuery := `SELECT status FROM bid_request WHERE id = $1 FOR UPDATE`
	if err = tx.QueryRow(ctx, lockQuery, requestID).Scan(&requestStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.NewErrorResponse(http.StatusNotFound, "request not found")
		}
		return nil, err
	}
	if requestStatus != models.ActiveRequest {
		return nil, models.NewKindError(models.KindAlreadyTerminal, http.StatusConflict,
			"request accepts no new bids")
	}

	var hasActive bool
	existsQuery := `SELECT EXISTS(SELECT 1 FROM bid WHERE request_id = $1 AND wholesaler_id = $2 AND status = $3)`
	if err = tx.QueryRow(ctx, existsQuery, requestID, wholesalerID, models.PendingBid).Scan(&hasActive); err != nil {
		return nil, err
	}
	if hasActive {
		return nil, models.NewErrorResponse(http.StatusConflict,
			"cancel your existing bid before submitting a new one")
	}

	bidsQuery := `SELECT id, request_id, wholesaler_id, discount_percent, mrp, status, created_at
	              FROM bid WHERE request_id = $1
	              ORDER BY created_at`
	rows, err := tx.Query(ctx, bidsQuery, requestID)
	if err != nil {
		return nil, err
	}
	bids, err := scanBids(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	current, _ := ranking.Rank(bids)
	if validationErr := ranking.ValidateSubmission(discountPercent, mrp, current); validationErr != nil {
		return nil, validationErr
	}

	newBid := models.Bid{
		ID:              uuid.New().String(),
		RequestID:       requestID,
		WholesalerID:    wholesalerID,
		DiscountPercent: discountPercent,
		MRP:             mrp,
		Status:          models.PendingBid,
		CreatedAt:       time.Now().UTC(),
	}
	insertQuery := `INSERT INTO bid (id, request_id, wholesaler_id, discount_percent, mrp, status, created_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.Exec(
		ctx,
		insertQuery,
		newBid.ID,
		newBid.RequestID,
		newBid.WholesalerID,
		newBid.DiscountPercent,
		newBid.MRP,
		newBid.Status,
		newBid.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &newBid, nil
}

// GetBidByID returns one bid, or nil when it does not exist.
func (r *PostgresBidRepository) GetBidByID(ctx context.Context, bidID string) (*models.Bid, error) {
	var bid models.Bid
	query := `SELECT id, request_id, wholesaler_id, discount_percent, mrp, status, created_at
	          FROM bid WHERE id = $1`
	err := r.DB.QueryRow(ctx, query, bidID).Scan(
		&bid.ID,
		&bid.RequestID,
		&bid.WholesalerID,
		&bid.DiscountPercent,
		&bid.MRP,
		&bid.Status,
		&bid.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

// GetRequestBids returns the full bid set for a request, including
// rejected and expired bids for history. Ranking is computed by the
// caller against this authoritative set.
func (r *PostgresBidRepository) GetRequestBids(ctx context.Context, requestID string) ([]models.Bid, error) {
	query := `SELECT id, request_id, wholesaler_id, discount_percent, mrp, status, created_at
	          FROM bid WHERE request_id = $1
	          ORDER BY created_at`
	rows, err := r.DB.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBids(rows)
}

// GetWholesalerBids lists a wholesaler's own bids, newest first.
func (r *PostgresBidRepository) GetWholesalerBids(ctx context.Context, wholesalerID string, limit, offset int) ([]models.Bid, error) {
	query := `SELECT id, request_id, wholesaler_id, discount_percent, mrp, status, created_at
	          FROM bid WHERE wholesaler_id = $1
	          ORDER BY created_at DESC
	          LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, wholesalerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBids(rows)
}

// CancelBid moves a PENDING bid to REJECTED. Returns false when the bid
// was already terminal, keeping duplicate cancels idempotent failures.
func (r *PostgresBidRepository) CancelBid(ctx context.Context, bidID string) (bool, error) {
	updateQuery := `UPDATE bid SET status = $1 WHERE id = $2 AND status = $3`
	tag, err := r.DB.Exec(ctx, updateQuery, models.RejectedBid, bidID, models.PendingBid)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExpireStaleBids expires PENDING bids created before the cutoff on
// requests that are still ACTIVE, and returns how many were expired.
func (r *PostgresBidRepository) ExpireStaleBids(ctx context.Context, cutoff time.Time) (int64, error) {
	updateQuery := `
		UPDATE bid SET status = $1
		WHERE status = $2 AND created_at < $3
		AND request_id IN (SELECT id FROM bid_request WHERE status = $4)`
	tag, err := r.DB.Exec(ctx, updateQuery, models.ExpiredBid, models.PendingBid, cutoff, models.ActiveRequest)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanBids(rows pgx.Rows) ([]models.Bid, error) {
	var bids []models.Bid
	for rows.Next() {
		var bid models.Bid
		if err := rows.Scan(
			&bid.ID,
			&bid.RequestID,
			&bid.WholesalerID,
			&bid.DiscountPercent,
			&bid.MRP,
			&bid.Status,
			&bid.CreatedAt); err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}
