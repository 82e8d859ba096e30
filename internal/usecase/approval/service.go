package approval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// Decision is the checker's verdict on a pending holding.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// SubmitInput represents a maker's draft of a holding.
// Status and owner are never taken from the draft: Submit forces
// status=pending and owner=actor, regardless of what the caller supplies.
type SubmitInput struct {
	SecurityID    string
	SecurityName  string
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	PurchasePrice *decimal.Decimal // nil when no cost basis is recorded
	PurchaseDate  time.Time
	AssetClass    string
}

// EditInput carries the fields an owning maker may change while the
// holding is still pending. Nil pointers leave the stored value untouched.
type EditInput struct {
	SecurityID    *string
	SecurityName  *string
	Quantity      *decimal.Decimal
	Price         *decimal.Decimal
	PurchasePrice *decimal.Decimal
	PurchaseDate  *time.Time
	AssetClass    *string
}

// Service enforces the maker-checker state machine over holding records
type Service struct {
	HoldingRepo domain.HoldingRepository
}

// NewService creates a new approval Service instance
func NewService(holdingRepo domain.HoldingRepository) *Service {
	return &Service{HoldingRepo: holdingRepo}
}

// Submit validates a draft and stores it as a new pending holding owned
// by the submitting actor. Status and owner supplied by the caller are
// always overwritten.
func (s *Service) Submit(ctx context.Context, actor domain.Actor, input SubmitInput) (*domain.HoldingRecord, error) {
	if !actor.Role.Can(domain.ActionSubmitHolding) {
		return nil, fmt.Errorf("%w: role %s may not submit holdings", domain.ErrUnauthorized, actor.Role)
	}

	holding := &domain.HoldingRecord{
		ID:           uuid.New(),
		SecurityID:   strings.ToUpper(strings.TrimSpace(input.SecurityID)),
		SecurityName: strings.TrimSpace(input.SecurityName),
		Quantity:     input.Quantity,
		Price:        input.Price,
		PurchaseDate: input.PurchaseDate,
		AssetClass:   strings.TrimSpace(input.AssetClass),
		Status:       domain.HoldingStatusPending,
		OwnerID:      actor.ID,
	}
	if input.PurchasePrice != nil {
		holding.PurchasePrice = *input.PurchasePrice
		holding.HasPurchase = true
	}

	if err := holding.Validate(); err != nil {
		return nil, err
	}

	if err := s.HoldingRepo.Create(ctx, holding); err != nil {
		return nil, err
	}

	return holding, nil
}

// Review moves a pending holding to its terminal status. The transition
// is a single compare-and-swap on (id, status): of two concurrent
// reviewers the first committer wins and the loser gets ErrInvalidState.
func (s *Service) Review(ctx context.Context, actor domain.Actor, holdingID uuid.UUID, decision Decision) (*domain.HoldingRecord, error) {
	if !actor.Role.Can(domain.ActionReviewHolding) {
		return nil, fmt.Errorf("%w: role %s may not review holdings", domain.ErrUnauthorized, actor.Role)
	}

	var target domain.HoldingStatus
	switch decision {
	case DecisionApprove:
		target = domain.HoldingStatusApproved
	case DecisionReject:
		target = domain.HoldingStatusRejected
	default:
		return nil, fmt.Errorf("%w: unknown review decision %q", domain.ErrValidation, decision)
	}

	if err := s.HoldingRepo.TransitionStatus(ctx, holdingID, domain.HoldingStatusPending, target); err != nil {
		return nil, err
	}

	return s.HoldingRepo.GetByID(ctx, holdingID)
}

// Edit applies field changes to a pending holding. Only the owning maker
// or an admin may edit; approved and rejected records are immutable via
// this path.
func (s *Service) Edit(ctx context.Context, actor domain.Actor, holdingID uuid.UUID, input EditInput) (*domain.HoldingRecord, error) {
	if !actor.Role.Can(domain.ActionEditHolding) {
		return nil, fmt.Errorf("%w: role %s may not edit holdings", domain.ErrUnauthorized, actor.Role)
	}

	holding, err := s.HoldingRepo.GetByID(ctx, holdingID)
	if err != nil {
		return nil, err
	}

	if actor.Role != domain.RoleAdmin && holding.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: only the owning maker or an admin may edit this holding", domain.ErrUnauthorized)
	}

	if holding.Status != domain.HoldingStatusPending {
		return nil, fmt.Errorf("%w: holding is %s and can no longer be edited", domain.ErrInvalidState, holding.Status)
	}

	if input.SecurityID != nil {
		holding.SecurityID = strings.ToUpper(strings.TrimSpace(*input.SecurityID))
	}
	if input.SecurityName != nil {
		holding.SecurityName = strings.TrimSpace(*input.SecurityName)
	}
	if input.Quantity != nil {
		holding.Quantity = *input.Quantity
	}
	if input.Price != nil {
		holding.Price = *input.Price
	}
	if input.PurchasePrice != nil {
		holding.PurchasePrice = *input.PurchasePrice
		holding.HasPurchase = true
	}
	if input.PurchaseDate != nil {
		holding.PurchaseDate = *input.PurchaseDate
	}
	if input.AssetClass != nil {
		holding.AssetClass = strings.TrimSpace(*input.AssetClass)
	}

	// Re-validate the merged record before persisting
	if err := holding.Validate(); err != nil {
		return nil, err
	}

	if err := s.HoldingRepo.Update(ctx, holding); err != nil {
		return nil, err
	}

	return holding, nil
}

// Remove deletes a holding at any status. Admin only.
func (s *Service) Remove(ctx context.Context, actor domain.Actor, holdingID uuid.UUID) error {
	if !actor.Role.Can(domain.ActionRemoveHolding) {
		return fmt.Errorf("%w: role %s may not remove holdings", domain.ErrUnauthorized, actor.Role)
	}

	// Verify the holding exists so callers get a proper not-found error
	if _, err := s.HoldingRepo.GetByID(ctx, holdingID); err != nil {
		return err
	}

	return s.HoldingRepo.Delete(ctx, holdingID)
}
