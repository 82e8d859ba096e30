package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HoldingStatus represents the lifecycle state of a holding record
type HoldingStatus string

const (
	HoldingStatusPending  HoldingStatus = "PENDING"
	HoldingStatusApproved HoldingStatus = "APPROVED"
	HoldingStatusRejected HoldingStatus = "REJECTED"
)

// isinRegex checks the basic ISIN structure: 2 letters (country prefix),
// 9 alphanumeric characters, 1 check digit. Format only; the check digit
// itself is not verified.
var isinRegex = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// DefaultAssetClass is used for breakdown grouping when a holding has no
// asset class recorded.
const DefaultAssetClass = "Equity"

// HoldingRecord represents a portfolio line item in the domain layer.
// It is created by a maker in PENDING state and moves to a terminal
// APPROVED or REJECTED state through a checker review.
type HoldingRecord struct {
	ID            uuid.UUID
	SecurityID    string // ISIN
	SecurityName  string
	Quantity      decimal.Decimal
	Price         decimal.Decimal // current/live price
	PurchasePrice decimal.Decimal
	HasPurchase   bool // false when no purchase price was recorded
	PurchaseDate  time.Time
	AssetClass    string
	Status        HoldingStatus
	OwnerID       string // maker who created the record
}

// IsTerminal reports whether the status admits no further transition.
func (s HoldingStatus) IsTerminal() bool {
	return s == HoldingStatusApproved || s == HoldingStatusRejected
}

// ValidISIN reports whether the security identifier matches the ISIN
// format (2 uppercase letters, 9 alphanumerics, 1 digit).
func ValidISIN(securityID string) bool {
	return isinRegex.MatchString(securityID)
}

// Validate ensures the holding adheres to domain rules.
// Returns an error wrapping ErrValidation if any rule fails.
func (h *HoldingRecord) Validate() error {
	if strings.TrimSpace(h.SecurityID) == "" {
		return fmt.Errorf("%w: security identifier cannot be empty", ErrValidation)
	}
	if !ValidISIN(h.SecurityID) {
		return fmt.Errorf("%w: security identifier %q is not a valid ISIN format", ErrValidation, h.SecurityID)
	}
	if strings.TrimSpace(h.SecurityName) == "" {
		return fmt.Errorf("%w: security name cannot be empty", ErrValidation)
	}
	if h.Quantity.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if h.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if h.HasPurchase && h.PurchasePrice.IsNegative() {
		return fmt.Errorf("%w: purchase price cannot be negative", ErrValidation)
	}
	return nil
}

// CostBasisPrice returns the price used as cost basis for gain/loss
// calculations. When no purchase price was recorded it falls back to the
// current price, yielding zero gain/loss for the item.
func (h *HoldingRecord) CostBasisPrice() decimal.Decimal {
	if h.HasPurchase {
		return h.PurchasePrice
	}
	return h.Price
}

// BreakdownClass returns the asset class used for allocation grouping.
func (h *HoldingRecord) BreakdownClass() string {
	if h.AssetClass == "" {
		return DefaultAssetClass
	}
	return h.AssetClass
}
