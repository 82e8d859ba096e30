package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// ItemValuation is the per-holding result of a point-in-time valuation.
// UsedFallback is set when no price observation existed for the requested
// day and the holding's stored current price was used instead; it drives
// the "supply a price" prompt on the caller side.
type ItemValuation struct {
	HoldingID     uuid.UUID
	SecurityID    string
	ResolvedPrice decimal.Decimal
	ResolvedValue decimal.Decimal
	UsedFallback  bool
}

// Snapshot is a whole-portfolio valuation as of one calendar day.
// Computed on demand, never persisted.
type Snapshot struct {
	Date       time.Time
	Items      []ItemValuation
	TotalValue decimal.Decimal
}

// Service computes point-in-time valuations of a holdings snapshot
// against the historical price series.
type Service struct {
	PriceRepo domain.PriceRepository
}

// NewService creates a new valuation Service instance
func NewService(priceRepo domain.PriceRepository) *Service {
	return &Service{PriceRepo: priceRepo}
}

// ValueAsOf values each holding at the price observed on the given day.
// A missing observation never fails the computation: the item degrades to
// the holding's stored current price and is flagged with UsedFallback.
// Store errors other than a key miss do propagate.
func (s *Service) ValueAsOf(ctx context.Context, holdings []*domain.HoldingRecord, date time.Time) (*Snapshot, error) {
	day := domain.Day(date)
	snapshot := &Snapshot{
		Date:       day,
		Items:      make([]ItemValuation, 0, len(holdings)),
		TotalValue: decimal.Zero,
	}

	for _, h := range holdings {
		item := ItemValuation{
			HoldingID:  h.ID,
			SecurityID: h.SecurityID,
		}

		obs, err := s.PriceRepo.GetByKey(ctx, h.SecurityID, day)
		switch {
		case err == nil:
			item.ResolvedPrice = obs.Price
		case errors.Is(err, domain.ErrNotFound):
			item.ResolvedPrice = h.Price
			item.UsedFallback = true
		default:
			return nil, fmt.Errorf("failed to resolve price for %s: %w", h.SecurityID, err)
		}

		item.ResolvedValue = h.Quantity.Mul(item.ResolvedPrice)
		snapshot.Items = append(snapshot.Items, item)
		snapshot.TotalValue = snapshot.TotalValue.Add(item.ResolvedValue)
	}

	return snapshot, nil
}
