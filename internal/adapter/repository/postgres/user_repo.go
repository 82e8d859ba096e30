package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-systems/custodia-backend/internal/domain"
)

// userRepository implements domain.UserRepository
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) domain.UserRepository {
	return &userRepository{db: db}
}

// Create stores a new user, rejecting duplicate usernames
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, username, password_hash, role) VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.PasswordHash, string(user.Role))
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("%w: username %q already registered", domain.ErrConflict, user.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT id, username, password_hash, role FROM users WHERE username = $1`
	return r.getOne(ctx, query, username)
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, username, password_hash, role FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	var role string

	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Username, &user.PasswordHash, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %v", domain.ErrNotFound, arg)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	parsed, ok := domain.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("user %s has unknown role %q", user.ID, role)
	}
	user.Role = parsed

	return &user, nil
}
