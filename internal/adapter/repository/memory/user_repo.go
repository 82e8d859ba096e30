package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// userRepository implements domain.UserRepository over mutex-guarded maps
type userRepository struct {
	mu         sync.RWMutex
	byID       map[string]domain.User
	byUsername map[string]string // username -> ID
}

// NewUserRepository creates a new in-memory user repository
func NewUserRepository() domain.UserRepository {
	return &userRepository{
		byID:       make(map[string]domain.User),
		byUsername: make(map[string]string),
	}
}

// Create stores a new user, rejecting duplicate usernames
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return fmt.Errorf("%w: username %q already registered", domain.ErrConflict, user.Username)
	}
	r.byID[user.ID] = *user
	r.byUsername[user.Username] = user.ID
	return nil
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byUsername[username]
	if !exists {
		return nil, fmt.Errorf("%w: user %q", domain.ErrNotFound, username)
	}
	user := r.byID[id]
	return &user, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.byID[id]
	if !exists {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return &user, nil
}
