package repository

import (
	"context"
	"errors"

	"github.com/senyabanana/pharma-bid-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository defines catalog access. Products are created by the
// ingestion collaborator; only the distributor set is mutable here.
type ProductRepository interface {
	GetProductByID(ctx context.Context, productID string) (*models.Product, error)
	ProductExists(ctx context.Context, productID string) (bool, error)
	AddDistributor(ctx context.Context, productID, wholesalerID string) error
	RemoveDistributor(ctx context.Context, productID, wholesalerID string) error
}

// PostgresProductRepository implements ProductRepository over Postgres.
type PostgresProductRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresProductRepository creates a new PostgresProductRepository.
func NewPostgresProductRepository(db *pgxpool.Pool) *PostgresProductRepository {
	return &PostgresProductRepository{DB: db}
}

// GetProductByID returns one product with its distributor set.
func (r *PostgresProductRepository) GetProductByID(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	query := `SELECT id, name, manufacturer, mrp, margin_class, created_at FROM product WHERE id = $1`
	err := r.DB.QueryRow(ctx, query, productID).Scan(
		&product.ID,
		&product.Name,
		&product.Manufacturer,
		&product.MRP,
		&product.MarginClass,
		&product.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	distQuery := `SELECT wholesaler_id FROM product_distributor WHERE product_id = $1 ORDER BY wholesaler_id`
	rows, err := r.DB.Query(ctx, distQuery, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var wholesalerID string
		if err := rows.Scan(&wholesalerID); err != nil {
			return nil, err
		}
		product.DistributorIDs = append(product.DistributorIDs, wholesalerID)
	}
	return &product, nil
}

// ProductExists checks whether a product exists.
func (r *PostgresProductRepository) ProductExists(ctx context.Context, productID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM product WHERE id = $1)`
	err := r.DB.QueryRow(ctx, query, productID).Scan(&exists)
	return exists, err
}

// AddDistributor records that a wholesaler stocks the product.
func (r *PostgresProductRepository) AddDistributor(ctx context.Context, productID, wholesalerID string) error {
	query := `INSERT INTO product_distributor (product_id, wholesaler_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := r.DB.Exec(ctx, query, productID, wholesalerID)
	return err
}

// RemoveDistributor removes a wholesaler from the product's distributor set.
func (r *PostgresProductRepository) RemoveDistributor(ctx context.Context, productID, wholesalerID string) error {
	query := `DELETE FROM product_distributor WHERE product_id = $1 AND wholesaler_id = $2`
	_, err := r.DB.Exec(ctx, query, productID, wholesalerID)
	return err
}
