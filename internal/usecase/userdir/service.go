package userdir

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// Service is the user directory: it owns credential storage and answers
// authenticate calls with an actor identity. The workflow engine only
// ever sees the resulting {ID, Role} pair.
type Service struct {
	UserRepo domain.UserRepository
}

// NewService creates a new user directory Service instance
func NewService(userRepo domain.UserRepository) *Service {
	return &Service{UserRepo: userRepo}
}

// Register creates a new user with a bcrypt-hashed password.
// Returns ErrConflict when the username is already registered.
func (s *Service) Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", domain.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	if _, ok := domain.ParseRole(string(role)); !ok {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies the credentials and returns the actor identity.
// Unknown usernames report ErrNotFound; a wrong password reports
// ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, username, password string) (domain.Actor, error) {
	user, err := s.UserRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return domain.Actor{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.Actor{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	return domain.Actor{ID: user.ID, Role: user.Role}, nil
}

// Lookup resolves a user ID back to an actor, used by the auth middleware
// to re-validate token subjects.
func (s *Service) Lookup(ctx context.Context, userID string) (domain.Actor, error) {
	user, err := s.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{ID: user.ID, Role: user.Role}, nil
}
