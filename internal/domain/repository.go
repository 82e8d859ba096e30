package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HoldingRepository defines the interface for holding record persistence operations
type HoldingRepository interface {
	// Create stores a new holding record
	Create(ctx context.Context, holding *HoldingRecord) error

	// GetByID retrieves a holding by its ID
	// Returns an error wrapping ErrNotFound when no such holding exists
	GetByID(ctx context.Context, id uuid.UUID) (*HoldingRecord, error)

	// List retrieves holdings, optionally filtered by status
	// With no statuses given, all holdings are returned
	List(ctx context.Context, statuses ...HoldingStatus) ([]*HoldingRecord, error)

	// Update replaces the stored record, conditional on the stored
	// status still being PENDING: an edit can never overwrite a record
	// that reached a terminal status after the caller read it. Returns
	// an error wrapping ErrNotFound for an unknown holding, or
	// ErrInvalidState when the stored record is no longer pending.
	Update(ctx context.Context, holding *HoldingRecord) error

	// TransitionStatus atomically moves a holding from one status to
	// another as a single compare-and-swap. Returns an error wrapping
	// ErrNotFound for an unknown holding, or ErrInvalidState when the
	// current status is not `from` (including a lost review race).
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to HoldingStatus) error

	// Delete removes a holding at any status
	Delete(ctx context.Context, id uuid.UUID) error
}

// PriceRepository defines the interface for price series persistence operations
type PriceRepository interface {
	// Upsert stores an observation, overwriting any existing one for the
	// same (security, day) key. Atomic per key; concurrent writes resolve
	// last-committed-wins with no mixed state observable.
	Upsert(ctx context.Context, obs *PriceObservation) error

	// GetByKey retrieves the observation for an exact (security, day) key.
	// Returns an error wrapping ErrNotFound on a miss: no interpolation,
	// no nearest-earlier-date fallback.
	GetByKey(ctx context.Context, securityID string, day time.Time) (*PriceObservation, error)

	// ListBySecurity retrieves all observations for one security,
	// ordered by date ascending
	ListBySecurity(ctx context.Context, securityID string) ([]*PriceObservation, error)
}

// UserRepository defines the interface for user directory persistence operations
type UserRepository interface {
	// Create stores a new user. Returns an error wrapping ErrConflict
	// when the username is already registered.
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)
}
