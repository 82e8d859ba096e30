package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// holdingRepository implements domain.HoldingRepository
type holdingRepository struct {
	db *DB
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *DB) domain.HoldingRepository {
	return &holdingRepository{db: db}
}

const holdingColumns = `id, security_id, security_name, quantity, price, purchase_price, purchase_date, asset_class, status, owner_id`

// Create stores a new holding record
func (r *holdingRepository) Create(ctx context.Context, holding *domain.HoldingRecord) error {
	query := `
		INSERT INTO holdings (` + holdingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var purchasePrice interface{}
	if holding.HasPurchase {
		purchasePrice = holding.PurchasePrice.String()
	}

	_, err := r.db.ExecContext(ctx, query,
		holding.ID,
		holding.SecurityID,
		holding.SecurityName,
		holding.Quantity.String(),
		holding.Price.String(),
		purchasePrice,
		nullableTime(holding.PurchaseDate),
		holding.AssetClass,
		string(holding.Status),
		holding.OwnerID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("%w: holding %s already exists", domain.ErrConflict, holding.ID)
		}
		return fmt.Errorf("failed to create holding: %w", err)
	}

	return nil
}

// GetByID retrieves a holding by its ID
func (r *holdingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.HoldingRecord, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE id = $1`

	holding, err := scanHolding(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: holding %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get holding by ID: %w", err)
	}
	return holding, nil
}

// List retrieves holdings, optionally filtered by status
func (r *holdingRepository) List(ctx context.Context, statuses ...domain.HoldingStatus) ([]*domain.HoldingRecord, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings`
	args := make([]interface{}, 0, len(statuses))

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, string(s))
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY purchase_date, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.HoldingRecord, 0)
	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding row: %w", err)
		}
		result = append(result, holding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holding rows: %w", err)
	}
	return result, nil
}

// Update replaces the stored fields of a record that is still pending.
// The status predicate makes the write conditional in the database, so
// an edit racing a review cannot overwrite the committed terminal
// status; the status column itself is never written through this path.
func (r *holdingRepository) Update(ctx context.Context, holding *domain.HoldingRecord) error {
	query := `
		UPDATE holdings
		SET security_id = $2, security_name = $3, quantity = $4, price = $5,
		    purchase_price = $6, purchase_date = $7, asset_class = $8
		WHERE id = $1 AND status = $9
	`

	var purchasePrice interface{}
	if holding.HasPurchase {
		purchasePrice = holding.PurchasePrice.String()
	}

	res, err := r.db.ExecContext(ctx, query,
		holding.ID,
		holding.SecurityID,
		holding.SecurityName,
		holding.Quantity.String(),
		holding.Price.String(),
		purchasePrice,
		nullableTime(holding.PurchaseDate),
		holding.AssetClass,
		string(domain.HoldingStatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// No row matched: distinguish an unknown holding from a record that
	// reached a terminal status after the caller read it
	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM holdings WHERE id = $1`, holding.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: holding %s", domain.ErrNotFound, holding.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to check holding status: %w", err)
	}
	return fmt.Errorf("%w: holding is %s and can no longer be updated", domain.ErrInvalidState, current)
}

// TransitionStatus moves a holding between statuses as a single
// conditional UPDATE, so the database resolves concurrent reviews:
// only one UPDATE can match the `status = from` predicate.
func (r *holdingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.HoldingStatus) error {
	query := `UPDATE holdings SET status = $1 WHERE id = $2 AND status = $3`

	res, err := r.db.ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to transition holding status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read transition result: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// No row matched: distinguish an unknown holding from a lost race
	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM holdings WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: holding %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to check holding status: %w", err)
	}
	return fmt.Errorf("%w: holding is %s, expected %s", domain.ErrInvalidState, current, from)
}

// Delete removes a holding at any status
func (r *holdingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holdings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: holding %s", domain.ErrNotFound, id)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func scanHolding(row rowScanner) (*domain.HoldingRecord, error) {
	var holding domain.HoldingRecord
	var quantityStr, priceStr, status string
	var purchasePriceStr sql.NullString
	var purchaseDate sql.NullTime

	err := row.Scan(
		&holding.ID,
		&holding.SecurityID,
		&holding.SecurityName,
		&quantityStr,
		&priceStr,
		&purchasePriceStr,
		&purchaseDate,
		&holding.AssetClass,
		&status,
		&holding.OwnerID,
	)
	if err != nil {
		return nil, err
	}

	holding.Quantity, err = decimal.NewFromString(quantityStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quantity: %w", err)
	}
	holding.Price, err = decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	if purchasePriceStr.Valid {
		holding.PurchasePrice, err = decimal.NewFromString(purchasePriceStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse purchase_price: %w", err)
		}
		holding.HasPurchase = true
	}
	if purchaseDate.Valid {
		holding.PurchaseDate = purchaseDate.Time
	} else {
		holding.PurchaseDate = time.Time{}
	}
	holding.Status = domain.HoldingStatus(status)

	return &holding, nil
}
