package repository

import (
	"context"
	"errors"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RequestRepository defines access to retailers' purchase requests.
type RequestRepository interface {
	CreateRequest(ctx context.Context, retailerID string, item models.CreateRequestItem) (*models.BidRequest, error)
	GetRequestByID(ctx context.Context, requestID string) (*models.BidRequest, error)
	GetActiveForWholesaler(ctx context.Context, wholesalerID string, limit, offset int) ([]models.BidRequest, error)
	GetRetailerRequests(ctx context.Context, retailerID string, limit, offset int) ([]models.BidRequest, error)
	CancelRequest(ctx context.Context, requestID string) (bool, error)
	SupersedeActiveForProduct(ctx context.Context, retailerID, productID string) (int64, error)
}

// PostgresRequestRepository implements RequestRepository over Postgres.
type PostgresRequestRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresRequestRepository creates a new PostgresRequestRepository.
func NewPostgresRequestRepository(db *pgxpool.Pool) *PostgresRequestRepository {
	return &PostgresRequestRepository{DB: db}
}

// CreateRequest inserts a new ACTIVE request.
func (r *PostgresRequestRepository) CreateRequest(ctx context.Context, retailerID string, item models.CreateRequestItem) (*models.BidRequest, error) {
	newRequest := models.BidRequest{
		ID:         uuid.New().String(),
		RetailerID: retailerID,
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
		Status:     models.ActiveRequest,
		CreatedAt:  time.Now().UTC(),
	}
	insertQuery := `INSERT INTO bid_request (id, retailer_id, product_id, quantity, status, created_at)
	               VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		newRequest.ID,
		newRequest.RetailerID,
		newRequest.ProductID,
		newRequest.Quantity,
		newRequest.Status,
		newRequest.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &newRequest, nil
}

// GetRequestByID returns one request, or nil when it does not exist.
func (r *PostgresRequestRepository) GetRequestByID(ctx context.Context, requestID string) (*models.BidRequest, error) {
	var request models.BidRequest
	query := `SELECT br.id, br.retailer_id, br.product_id, p.name, br.quantity, br.status, br.created_at
	          FROM bid_request br JOIN product p ON br.product_id = p.id
	          WHERE br.id = $1`
	err := r.DB.QueryRow(ctx, query, requestID).Scan(
		&request.ID,
		&request.RetailerID,
		&request.ProductID,
		&request.ProductName,
		&request.Quantity,
		&request.Status,
		&request.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// GetActiveForWholesaler lists ACTIVE requests for products the
// wholesaler stocks.
func (r *PostgresRequestRepository) GetActiveForWholesaler(ctx context.Context, wholesalerID string, limit, offset int) ([]models.BidRequest, error) {
	query := `
		SELECT br.id, br.retailer_id, br.product_id, p.name, br.quantity, br.status, br.created_at
		FROM bid_request br
		JOIN product p ON br.product_id = p.id
		JOIN product_distributor pd ON pd.product_id = br.product_id
		WHERE br.status = 'ACTIVE' AND pd.wholesaler_id = $1
		ORDER BY br.created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, wholesalerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

// GetRetailerRequests lists a retailer's own requests, newest first.
func (r *PostgresRequestRepository) GetRetailerRequests(ctx context.Context, retailerID string, limit, offset int) ([]models.BidRequest, error) {
	query := `
		SELECT br.id, br.retailer_id, br.product_id, p.name, br.quantity, br.status, br.created_at
		FROM bid_request br
		JOIN product p ON br.product_id = p.id
		WHERE br.retailer_id = $1
		ORDER BY br.created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, retailerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

// CancelRequest moves an ACTIVE request to CANCELLED. Returns false when
// the request was already terminal, so a duplicate cancel stays a
// harmless no-op failure.
func (r *PostgresRequestRepository) CancelRequest(ctx context.Context, requestID string) (bool, error) {
	updateQuery := `UPDATE bid_request SET status = $1 WHERE id = $2 AND status = $3`
	tag, err := r.DB.Exec(ctx, updateQuery, models.CancelledRequest, requestID, models.ActiveRequest)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SupersedeActiveForProduct cancels a retailer's older ACTIVE requests
// for the same product. A newer request supersedes them.
func (r *PostgresRequestRepository) SupersedeActiveForProduct(ctx context.Context, retailerID, productID string) (int64, error) {
	updateQuery := `UPDATE bid_request SET status = $1 WHERE retailer_id = $2 AND product_id = $3 AND status = $4`
	tag, err := r.DB.Exec(ctx, updateQuery, models.CancelledRequest, retailerID, productID, models.ActiveRequest)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRequests(rows pgx.Rows) ([]models.BidRequest, error) {
	var requests []models.BidRequest
	for rows.Next() {
		var request models.BidRequest
		if err := rows.Scan(
			&request.ID,
			&request.RetailerID,
			&request.ProductID,
			&request.ProductName,
			&request.Quantity,
			&request.Status,
			&request.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}
