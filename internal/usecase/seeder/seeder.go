package seeder

import (
	"context"
	"errors"

	"github.com/custodia-systems/custodia-backend/internal/domain"
	"github.com/custodia-systems/custodia-backend/internal/usecase/refdata"
	"github.com/custodia-systems/custodia-backend/internal/usecase/userdir"
)

// BootstrapUser describes an account the seeder guarantees to exist
type BootstrapUser struct {
	Username string
	Password string
	Role     domain.Role
}

// Seeder ensures the bootstrap accounts and the reference-data table
// exist at startup. Re-running it is harmless: existing users are left
// untouched.
type Seeder struct {
	Users   *userdir.Service
	RefData *refdata.Service
}

// NewSeeder creates a new Seeder instance
func NewSeeder(users *userdir.Service, refData *refdata.Service) *Seeder {
	return &Seeder{Users: users, RefData: refData}
}

// defaultSecurities is a minimal mapping table for local runs; production
// deployments replace it through the import path.
var defaultSecurities = []refdata.SecurityInfo{
	{SecurityID: "US0378331005", Name: "Apple Inc.", AssetClass: "Equity", Country: "US"},
	{SecurityID: "US5949181045", Name: "Microsoft Corp.", AssetClass: "Equity", Country: "US"},
	{SecurityID: "DE0001102580", Name: "Bundesrepublik Deutschland 2.6% 2034", AssetClass: "Bond", Country: "DE"},
	{SecurityID: "FR0000120271", Name: "TotalEnergies SE", AssetClass: "Equity", Country: "FR"},
}

// Seed registers the given bootstrap users and loads the default
// reference-data table. Users that already exist are skipped.
func (s *Seeder) Seed(ctx context.Context, users []BootstrapUser) error {
	for _, u := range users {
		_, err := s.Users.Register(ctx, u.Username, u.Password, u.Role)
		if err != nil && !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}

	return s.RefData.Import(defaultSecurities)
}
