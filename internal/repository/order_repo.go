package repository

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepository defines order creation and listing. Creation is the
// single atomic decision point that resolves accept races: the bid moves
// to ACCEPTED, the request to COMPLETED and the order row is inserted in
// one transaction.
type OrderRepository interface {
	CreateFromBid(ctx context.Context, bidID, retailerID, pickupPoint string) (*models.Order, error)
	GetRetailerOrders(ctx context.Context, retailerID string, limit, offset int) ([]models.Order, error)
}

// PostgresOrderRepository implements OrderRepository over Postgres.
type PostgresOrderRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository.
func NewPostgresOrderRepository(db *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: db}
}

// CreateFromBid accepts a bid on behalf of the retailer. The owning
// request row is locked for the duration, so a concurrent accept on the
// same request observes COMPLETED and fails with RequestNoLongerActive.
func (r *PostgresOrderRepository) CreateFromBid(ctx context.Context, bidID, retailerID, pickupPoint string) (*models.Order, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var (
		requestID     string
		wholesalerID  string
		bidStatus     models.BidStatus
		requestOwner  string
		requestStatus models.RequestStatus
	)
	lockQuery := `
		SELECT b.request_id, b.wholesaler_id, b.status, br.retailer_id, br.status
		FROM bid b
		JOIN bid_request br ON b.request_id = br.id
		WHERE b.id = $1
		FOR UPDATE`
	err = tx.QueryRow(ctx, lockQuery, bidID).Scan(
		&requestID,
		&wholesalerID,
		&bidStatus,
		&requestOwner,
		&requestStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.NewErrorResponse(http.StatusNotFound, "bid not found")
		}
		return nil, err
	}

	if requestOwner != retailerID {
		return nil, models.NewKindError(models.KindUnauthorized, http.StatusForbidden,
			"request does not belong to this retailer")
	}
	if requestStatus != models.ActiveRequest {
		return nil, models.NewKindError(models.KindRequestNoLongerActive, http.StatusConflict,
			"request is no longer active")
	}
	if bidStatus != models.PendingBid {
		return nil, models.NewKindError(models.KindAlreadyTerminal, http.StatusConflict,
			"bid is no longer pending")
	}

	newOrder := models.Order{
		ID:           uuid.New().String(),
		BidID:        bidID,
		RequestID:    requestID,
		RetailerID:   retailerID,
		WholesalerID: wholesalerID,
		PickupPoint:  pickupPoint,
		Status:       models.PlacedOrder,
		CreatedAt:    time.Now().UTC(),
	}

	updateBidQuery := `UPDATE bid SET status = $1 WHERE id = $2`
	if _, err = tx.Exec(ctx, updateBidQuery, models.AcceptedBid, bidID); err != nil {
		return nil, err
	}

	updateRequestQuery := `UPDATE bid_request SET status = $1 WHERE id = $2`
	if _, err = tx.Exec(ctx, updateRequestQuery, models.CompletedRequest, requestID); err != nil {
		return nil, err
	}

	insertQuery := `INSERT INTO orders (id, bid_id, request_id, retailer_id, wholesaler_id, pickup_point, status, created_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = tx.Exec(
		ctx,
		insertQuery,
		newOrder.ID,
		newOrder.BidID,
		newOrder.RequestID,
		newOrder.RetailerID,
		newOrder.WholesalerID,
		newOrder.PickupPoint,
		newOrder.Status,
		newOrder.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &newOrder, nil
}

// GetRetailerOrders lists a retailer's orders, newest first.
func (r *PostgresOrderRepository) GetRetailerOrders(ctx context.Context, retailerID string, limit, offset int) ([]models.Order, error) {
	query := `SELECT id, bid_id, request_id, retailer_id, wholesaler_id, pickup_point, status, created_at
	          FROM orders WHERE retailer_id = $1
	          ORDER BY created_at DESC
	          LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, retailerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(
			&order.ID,
			&order.BidID,
			&order.RequestID,
			&order.RetailerID,
			&order.WholesalerID,
			&order.PickupPoint,
			&order.Status,
			&order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
