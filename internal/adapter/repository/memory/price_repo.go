package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// priceRepository implements domain.PriceRepository over a mutex-guarded
// map keyed by (security, day). Upserts are atomic per key and resolve
// last-committed-wins.
type priceRepository struct {
	mu           sync.RWMutex
	observations map[string]domain.PriceObservation
}

// NewPriceRepository creates a new in-memory price repository
func NewPriceRepository() domain.PriceRepository {
	return &priceRepository{observations: make(map[string]domain.PriceObservation)}
}

// Upsert stores an observation, overwriting any existing one for the key
func (r *priceRepository) Upsert(ctx context.Context, obs *domain.PriceObservation) error {
	normalized := *obs
	normalized.Date = domain.Day(obs.Date)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations[domain.PriceKey(normalized.SecurityID, normalized.Date)] = normalized
	return nil
}

// GetByKey retrieves the observation for an exact (security, day) key
func (r *priceRepository) GetByKey(ctx context.Context, securityID string, day time.Time) (*domain.PriceObservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	obs, exists := r.observations[domain.PriceKey(securityID, day)]
	if !exists {
		return nil, fmt.Errorf("%w: no price for %s on %s", domain.ErrNotFound, securityID, domain.Day(day).Format("2006-01-02"))
	}
	return &obs, nil
}

// ListBySecurity retrieves all observations for one security, oldest first
func (r *priceRepository) ListBySecurity(ctx context.Context, securityID string) ([]*domain.PriceObservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.PriceObservation, 0)
	for _, obs := range r.observations {
		if obs.SecurityID == securityID {
			o := obs
			result = append(result, &o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}
