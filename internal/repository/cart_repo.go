package repository

import (
	"context"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CartRepository defines durable storage for retailers' staged carts.
// The cart is synchronized as a whole snapshot with last-write-wins
// semantics; version guards replace-all against a stale base.
type CartRepository interface {
	GetCart(ctx context.Context, retailerID string) (*models.CartSnapshot, error)
	UpsertItem(ctx context.Context, retailerID string, item models.CartItem) error
	DeleteItem(ctx context.Context, retailerID, productID string) error
	ReplaceAll(ctx context.Context, retailerID string, baseVersion int64, items []models.CartItem) (*models.CartSnapshot, error)
	Clear(ctx context.Context, retailerID string) error
}

// PostgresCartRepository implements CartRepository over Postgres.
type PostgresCartRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresCartRepository creates a new PostgresCartRepository.
func NewPostgresCartRepository(db *pgxpool.Pool) *PostgresCartRepository {
	return &PostgresCartRepository{DB: db}
}

// GetCart returns the retailer's cart snapshot. A retailer with no cart
// row yet gets an empty snapshot at version zero.
func (r *PostgresCartRepository) GetCart(ctx context.Context, retailerID string) (*models.CartSnapshot, error) {
	snapshot := models.CartSnapshot{RetailerID: retailerID}

	versionQuery := `SELECT COALESCE((SELECT version FROM cart WHERE retailer_id = $1), 0)`
	if err := r.DB.QueryRow(ctx, versionQuery, retailerID).Scan(&snapshot.Version); err != nil {
		return nil, err
	}

	itemsQuery := `SELECT product_id, quantity, updated_at FROM cart_item WHERE retailer_id = $1 ORDER BY product_id`
	rows, err := r.DB.Query(ctx, itemsQuery, retailerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UpdatedAt); err != nil {
			return nil, err
		}
		snapshot.Items = append(snapshot.Items, item)
	}
	return &snapshot, rows.Err()
}

// UpsertItem sets the quantity for one product in the cart.
func (r *PostgresCartRepository) UpsertItem(ctx context.Context, retailerID string, item models.CartItem) error {
	if err := r.ensureCart(ctx, retailerID); err != nil {
		return err
	}
	query := `INSERT INTO cart_item (retailer_id, product_id, quantity, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (retailer_id, product_id) DO UPDATE SET quantity = $3, updated_at = $4`
	_, err := r.DB.Exec(ctx, query, retailerID, item.ProductID, item.Quantity, time.Now().UTC())
	return err
}

// DeleteItem removes one product from the cart.
func (r *PostgresCartRepository) DeleteItem(ctx context.Context, retailerID, productID string) error {
	query := `DELETE FROM cart_item WHERE retailer_id = $1 AND product_id = $2`
	_, err := r.DB.Exec(ctx, query, retailerID, productID)
	return err
}

// ReplaceAll replaces the whole cart in one transaction. The stored
// version must match baseVersion, otherwise the sync is rejected with
// SyncConflict and the caller must refetch.
func (r *PostgresCartRepository) ReplaceAll(ctx context.Context, retailerID string, baseVersion int64, items []models.CartItem) (*models.CartSnapshot, error) {
	if err := r.ensureCart(ctx, retailerID); err != nil {
		return nil, err
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var version int64
	lockQuery := `SELECT version FROM cart WHERE retailer_id = $1 FOR UPDATE`
	if err = tx.QueryRow(ctx, lockQuery, retailerID).Scan(&version); err != nil {
		return nil, err
	}
	if version != baseVersion {
		return nil, models.NewKindError(models.KindSyncConflict, http.StatusConflict,
			"cart was modified elsewhere, refetch before syncing")
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_item WHERE retailer_id = $1`, retailerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	insertQuery := `INSERT INTO cart_item (retailer_id, product_id, quantity, updated_at) VALUES ($1, $2, $3, $4)`
	for _, item := range items {
		if _, err = tx.Exec(ctx, insertQuery, retailerID, item.ProductID, item.Quantity, now); err != nil {
			return nil, err
		}
	}

	var newVersion int64
	bumpQuery := `UPDATE cart SET version = version + 1 WHERE retailer_id = $1 RETURNING version`
	if err = tx.QueryRow(ctx, bumpQuery, retailerID).Scan(&newVersion); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	snapshot := models.CartSnapshot{RetailerID: retailerID, Version: newVersion, Items: items}
	return &snapshot, nil
}

// Clear empties the cart without touching its version guard.
func (r *PostgresCartRepository) Clear(ctx context.Context, retailerID string) error {
	query := `DELETE FROM cart_item WHERE retailer_id = $1`
	_, err := r.DB.Exec(ctx, query, retailerID)
	return err
}

func (r *PostgresCartRepository) ensureCart(ctx context.Context, retailerID string) error {
	query := `INSERT INTO cart (retailer_id, version) VALUES ($1, 0) ON CONFLICT DO NOTHING`
	_, err := r.DB.Exec(ctx, query, retailerID)
	return err
}
