package refdata

import (
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// SecurityInfo is the reference-data record for one instrument, used only
// to pre-fill submit drafts. The workflow engine's invariants never
// depend on it.
type SecurityInfo struct {
	SecurityID string
	Name       string
	AssetClass string
	Country    string
}

// Service is the reference-data mapping collaborator: an in-memory
// ISIN → security table loaded at startup and refreshed by imports.
type Service struct {
	mu         sync.RWMutex
	securities map[string]SecurityInfo
}

// NewService creates a new reference-data Service instance
func NewService() *Service {
	return &Service{securities: make(map[string]SecurityInfo)}
}

// Import loads or replaces mapping rows. Rows with a malformed ISIN are
// rejected wholesale so a bad file cannot partially load.
func (s *Service) Import(rows []SecurityInfo) error {
	for _, row := range rows {
		if !domain.ValidISIN(strings.ToUpper(row.SecurityID)) {
			return fmt.Errorf("%w: reference row has malformed ISIN %q", domain.ErrValidation, row.SecurityID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		row.SecurityID = strings.ToUpper(row.SecurityID)
		s.securities[row.SecurityID] = row
	}
	return nil
}

// LookupSecurity resolves an ISIN to its reference record.
// Returns ErrNotFound for an unmapped identifier.
func (s *Service) LookupSecurity(securityID string) (SecurityInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.securities[strings.ToUpper(strings.TrimSpace(securityID))]
	if !ok {
		return SecurityInfo{}, fmt.Errorf("%w: no reference data for security %s", domain.ErrNotFound, securityID)
	}
	return info, nil
}
