package pricing

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// Service manages the historical price series: point-in-time observations
// keyed by (security, calendar day).
type Service struct {
	PriceRepo domain.PriceRepository
}

// NewService creates a new pricing Service instance
func NewService(priceRepo domain.PriceRepository) *Service {
	return &Service{PriceRepo: priceRepo}
}

// RecordPrice upserts an observation for (securityID, date), overwriting
// any existing one for that key. Recording the same observation twice
// leaves exactly one stored row.
func (s *Service) RecordPrice(ctx context.Context, securityID string, date time.Time, price decimal.Decimal) (*domain.PriceObservation, error) {
	obs := &domain.PriceObservation{
		SecurityID: strings.ToUpper(strings.TrimSpace(securityID)),
		Date:       domain.Day(date),
		Price:      price,
	}

	if err := obs.Validate(); err != nil {
		return nil, err
	}

	if err := s.PriceRepo.Upsert(ctx, obs); err != nil {
		return nil, err
	}

	return obs, nil
}

// ResolvePrice looks up the price for the exact calendar day. A miss
// returns ErrNotFound: no interpolation and no nearest-earlier-date
// fallback, signaling the caller to prompt for a manual entry.
func (s *Service) ResolvePrice(ctx context.Context, securityID string, date time.Time) (decimal.Decimal, error) {
	obs, err := s.PriceRepo.GetByKey(ctx, strings.ToUpper(strings.TrimSpace(securityID)), domain.Day(date))
	if err != nil {
		return decimal.Zero, err
	}
	return obs.Price, nil
}

// History returns all observations for one security, oldest first.
func (s *Service) History(ctx context.Context, securityID string) ([]*domain.PriceObservation, error) {
	return s.PriceRepo.ListBySecurity(ctx, strings.ToUpper(strings.TrimSpace(securityID)))
}
