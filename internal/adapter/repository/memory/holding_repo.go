package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// holdingRepository implements domain.HoldingRepository over a
// mutex-guarded map. Safe for concurrent use by many actors; every
// operation touches exactly one record under the lock, so TransitionStatus
// is a true compare-and-swap.
type holdingRepository struct {
	mu       sync.RWMutex
	holdings map[uuid.UUID]domain.HoldingRecord
}

// NewHoldingRepository creates a new in-memory holding repository
func NewHoldingRepository() domain.HoldingRepository {
	return &holdingRepository{holdings: make(map[uuid.UUID]domain.HoldingRecord)}
}

// Create stores a new holding record
func (r *holdingRepository) Create(ctx context.Context, holding *domain.HoldingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.holdings[holding.ID]; exists {
		return fmt.Errorf("%w: holding %s already exists", domain.ErrConflict, holding.ID)
	}
	r.holdings[holding.ID] = *holding
	return nil
}

// GetByID retrieves a holding by its ID
func (r *holdingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.HoldingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	holding, exists := r.holdings[id]
	if !exists {
		return nil, fmt.Errorf("%w: holding %s", domain.ErrNotFound, id)
	}
	// Return a copy so callers cannot mutate the store
	return &holding, nil
}

// List retrieves holdings, optionally filtered by status
func (r *holdingRepository) List(ctx context.Context, statuses ...domain.HoldingStatus) ([]*domain.HoldingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.HoldingRecord, 0, len(r.holdings))
	for _, holding := range r.holdings {
		if len(statuses) > 0 && !statusIn(holding.Status, statuses) {
			continue
		}
		h := holding
		result = append(result, &h)
	}
	return result, nil
}

// Update replaces the stored record if it is still pending. The status
// re-check happens under the write lock, so an edit racing a review can
// never overwrite the terminal status the review committed.
func (r *holdingRepository) Update(ctx context.Context, holding *domain.HoldingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.holdings[holding.ID]
	if !exists {
		return fmt.Errorf("%w: holding %s", domain.ErrNotFound, holding.ID)
	}
	if stored.Status != domain.HoldingStatusPending {
		return fmt.Errorf("%w: holding is %s and can no longer be updated", domain.ErrInvalidState, stored.Status)
	}
	r.holdings[holding.ID] = *holding
	return nil
}

// TransitionStatus performs the read-verify-write of a status transition
// as one indivisible unit under the write lock. Two simultaneous calls on
// the same record can never both succeed.
func (r *holdingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.HoldingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	holding, exists := r.holdings[id]
	if !exists {
		return fmt.Errorf("%w: holding %s", domain.ErrNotFound, id)
	}
	if holding.Status != from {
		return fmt.Errorf("%w: holding is %s, expected %s", domain.ErrInvalidState, holding.Status, from)
	}

	holding.Status = to
	r.holdings[id] = holding
	return nil
}

// Delete removes a holding at any status
func (r *holdingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.holdings[id]; !exists {
		return fmt.Errorf("%w: holding %s", domain.ErrNotFound, id)
	}
	delete(r.holdings, id)
	return nil
}

func statusIn(status domain.HoldingStatus, statuses []domain.HoldingStatus) bool {
	for _, s := range statuses {
		if status == s {
			return true
		}
	}
	return false
}
