package repository

import (
	"context"

	"github.com/senyabanana/pharma-bid-service/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MarginRepository loads the class margin table. Read-mostly; callers
// cache it with a short staleness window.
type MarginRepository interface {
	GetMarginTable(ctx context.Context) (models.MarginTable, error)
}

// PostgresMarginRepository implements MarginRepository over Postgres.
type PostgresMarginRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresMarginRepository creates a new PostgresMarginRepository.
func NewPostgresMarginRepository(db *pgxpool.Pool) *PostgresMarginRepository {
	return &PostgresMarginRepository{DB: db}
}

// GetMarginTable returns the class letter to margin percent mapping.
func (r *PostgresMarginRepository) GetMarginTable(ctx context.Context) (models.MarginTable, error) {
	query := `SELECT class, percent FROM margin`
	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := make(models.MarginTable)
	for rows.Next() {
		var class string
		var percent float64
		if err := rows.Scan(&class, &percent); err != nil {
			return nil, err
		}
		table[models.MarginClass(class)] = percent
	}
	return table, rows.Err()
}
