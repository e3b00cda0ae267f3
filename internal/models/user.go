package models

import (
	"errors"
	"strings"
	"time"
)

// UserRole is the single role an account holds
type UserRole string

const (
	RoleParent UserRole = "parent"
	RoleDriver UserRole = "driver"
)

// AccountStatus tracks parent approval
type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "pending"
	AccountStatusApproved AccountStatus = "approved"
	AccountStatusRejected AccountStatus = "rejected"
)

// User represents a parent or driver account
type User struct {
	ID           string        `json:"id" db:"id"`
	Email        string        `json:"email" db:"email"`
	PasswordHash string        `json:"-" db:"password_hash"`
	Name         string        `json:"name" db:"name"`
	Phone        *string       `json:"phone,omitempty" db:"phone"`
	Role         UserRole      `json:"role" db:"role"`
	Status       AccountStatus `json:"status" db:"status"`
	IsActive     bool          `json:"is_active" db:"is_active"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// CanLogin reports whether the account may obtain tokens
func (u *User) CanLogin() bool {
	return u.IsActive && u.Status == AccountStatusApproved
}

// SignupRequest represents a parent signup request
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

// Validate normalises and validates the signup request
func (r *SignupRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(r.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenPair is returned on successful login
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
}
