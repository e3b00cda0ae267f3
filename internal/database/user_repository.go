package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, email, password_hash, name, phone, role, status, is_active, created_at, updated_at`

// CreateUser inserts a parent or driver account. A taken email is a ValidationError.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, name, phone,
			role, status, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		user.ID,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Name,
		user.Phone,
		user.Role,
		user.Status,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}

	return nil
}

// GetUser retrieves a user by ID
func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, notFound(err, "user", "")
	}
	return &user, nil
}

// ListUsersByStatus lists accounts of one role and status, oldest first
func (r *UserRepository) ListUsersByStatus(ctx context.Context, role models.UserRole, status models.AccountStatus) ([]models.User, error) {
	users := []models.User{}
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = $1 AND status = $2
		ORDER BY created_at, id
	`

	if err := r.db.SelectContext(ctx, &users, query, role, status); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUserStatus sets the approval status of an account
func (r *UserRepository) UpdateUserStatus(ctx context.Context, id string, status models.AccountStatus) error {
	query := `
		UPDATE users
		SET status = $1,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	return requireRow(result, "user", id)
}
