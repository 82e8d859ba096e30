package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// priceRepository implements domain.PriceRepository
type priceRepository struct {
	db *DB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *DB) domain.PriceRepository {
	return &priceRepository{db: db}
}

// Upsert stores an observation, relying on the (security_id, price_date)
// primary key so concurrent writers resolve last-committed-wins.
func (r *priceRepository) Upsert(ctx context.Context, obs *domain.PriceObservation) error {
	query := `
		INSERT INTO price_observations (security_id, price_date, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (security_id, price_date) DO UPDATE SET price = EXCLUDED.price
	`

	_, err := r.db.ExecContext(ctx, query,
		obs.SecurityID,
		domain.Day(obs.Date),
		obs.Price.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price observation: %w", err)
	}
	return nil
}

// GetByKey retrieves the observation for an exact (security, day) key
func (r *priceRepository) GetByKey(ctx context.Context, securityID string, day time.Time) (*domain.PriceObservation, error) {
	query := `SELECT security_id, price_date, price FROM price_observations WHERE security_id = $1 AND price_date = $2`

	obs, err := scanObservation(r.db.QueryRowContext(ctx, query, securityID, domain.Day(day)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no price for %s on %s", domain.ErrNotFound, securityID, domain.Day(day).Format("2006-01-02"))
		}
		return nil, fmt.Errorf("failed to get price observation: %w", err)
	}
	return obs, nil
}

// ListBySecurity retrieves all observations for one security, oldest first
func (r *priceRepository) ListBySecurity(ctx context.Context, securityID string) ([]*domain.PriceObservation, error) {
	query := `SELECT security_id, price_date, price FROM price_observations WHERE security_id = $1 ORDER BY price_date`

	rows, err := r.db.QueryContext(ctx, query, securityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list price observations: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.PriceObservation, 0)
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		result = append(result, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price rows: %w", err)
	}
	return result, nil
}

func scanObservation(row rowScanner) (*domain.PriceObservation, error) {
	var obs domain.PriceObservation
	var priceStr string

	if err := row.Scan(&obs.SecurityID, &obs.Date, &priceStr); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	obs.Price = price
	obs.Date = domain.Day(obs.Date)

	return &obs, nil
}
