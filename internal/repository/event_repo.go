package repository

import (
	"context"
	"encoding/json"

	"github.com/senyabanana/pharma-bid-service/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository archives published lifecycle events for audit and
// history listings.
type EventRepository interface {
	InsertEvent(ctx context.Context, event models.Event) error
	GetRequestEvents(ctx context.Context, requestID string, limit, offset int) ([]models.Event, error)
}

// PostgresEventRepository implements EventRepository over Postgres.
type PostgresEventRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository.
func NewPostgresEventRepository(db *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{DB: db}
}

// InsertEvent appends one event to the journal. Duplicate event IDs are
// ignored so redelivery stays harmless.
func (r *PostgresEventRepository) InsertEvent(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var bidID *string
	if event.BidID != "" {
		bidID = &event.BidID
	}
	query := `INSERT INTO bid_event_log (id, kind, request_id, bid_id, payload, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`
	_, err = r.DB.Exec(ctx, query, event.ID, event.Kind, event.RequestID, bidID, payload, event.CreatedAt)
	return err
}

// GetRequestEvents lists archived events for one request, oldest first.
func (r *PostgresEventRepository) GetRequestEvents(ctx context.Context, requestID string, limit, offset int) ([]models.Event, error) {
	query := `SELECT payload FROM bid_event_log WHERE request_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, requestID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var event models.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
