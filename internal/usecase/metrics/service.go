package metrics

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Snapshot holds the derived portfolio-wide figures. Computed on demand
// from a holdings snapshot using each item's current price, never the
// historical series.
type Snapshot struct {
	TotalAUM        decimal.Decimal
	TotalGainLoss   decimal.Decimal
	GainLossPercent decimal.Decimal
	AssetBreakdown  map[string]decimal.Decimal
}

// Service derives AUM, gain/loss, and asset-class breakdown figures
type Service struct {
	HoldingRepo domain.HoldingRepository
}

// NewService creates a new metrics Service instance
func NewService(holdingRepo domain.HoldingRepository) *Service {
	return &Service{HoldingRepo: holdingRepo}
}

// Compute aggregates the holdings matching the status filter. An empty
// filter includes every holding regardless of status, pending and
// rejected alike; pass explicit statuses to restrict (e.g. approved-only).
func (s *Service) Compute(ctx context.Context, statuses ...domain.HoldingStatus) (*Snapshot, error) {
	holdings, err := s.HoldingRepo.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return Aggregate(holdings), nil
}

// Aggregate computes the metrics snapshot from an explicit holdings set.
//
//	currentValue  = quantity * price
//	purchaseValue = quantity * (purchasePrice if recorded, else price)
//	totalAUM      = sum(currentValue)
//	totalGainLoss = totalAUM - sum(purchaseValue)
//
// GainLossPercent is rounded to 2 decimal places and defined as zero when
// the total purchase value is zero, never NaN.
func Aggregate(holdings []*domain.HoldingRecord) *Snapshot {
	snapshot := &Snapshot{
		TotalAUM:        decimal.Zero,
		TotalGainLoss:   decimal.Zero,
		GainLossPercent: decimal.Zero,
		AssetBreakdown:  make(map[string]decimal.Decimal),
	}

	totalPurchase := decimal.Zero
	for _, h := range holdings {
		currentValue := h.Quantity.Mul(h.Price)
		purchaseValue := h.Quantity.Mul(h.CostBasisPrice())

		snapshot.TotalAUM = snapshot.TotalAUM.Add(currentValue)
		totalPurchase = totalPurchase.Add(purchaseValue)

		class := h.BreakdownClass()
		snapshot.AssetBreakdown[class] = snapshot.AssetBreakdown[class].Add(currentValue)
	}

	snapshot.TotalGainLoss = snapshot.TotalAUM.Sub(totalPurchase)
	if !totalPurchase.IsZero() {
		snapshot.GainLossPercent = snapshot.TotalGainLoss.Div(totalPurchase).Mul(hundred).Round(2)
	}

	return snapshot
}
