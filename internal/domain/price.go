package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation represents a single recorded price for one security on
// one calendar day. Exactly one observation exists per (SecurityID, Date)
// key; a later write for the same key overwrites the earlier one.
type PriceObservation struct {
	SecurityID string
	Date       time.Time // normalized to midnight UTC, day granularity
	Price      decimal.Decimal
}

// Day normalizes a timestamp to its calendar day at midnight UTC.
// Price observations are keyed by day, never by time of day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PriceKey returns the canonical map key for a (security, day) pair.
func PriceKey(securityID string, day time.Time) string {
	return securityID + "@" + Day(day).Format("2006-01-02")
}

// Validate ensures the observation adheres to domain rules.
func (p *PriceObservation) Validate() error {
	if !ValidISIN(p.SecurityID) {
		return fmt.Errorf("%w: security identifier %q is not a valid ISIN format", ErrValidation, p.SecurityID)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	return nil
}
