package database

import (
	"context"
	"fmt"
	"time"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// RefreshTokenRepository handles refresh token database operations.
// Tokens are looked up by their SHA-256 hash; the raw token is never stored.
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		db: db,
	}
}

const refreshTokenColumns = `
	id, user_id, token_hash, device_type, ip_address, user_agent,
	created_at, expires_at, last_used_at, revoked, revoked_at`

// StoreRefreshToken stores a refresh token in the database
func (r *RefreshTokenRepository) StoreRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, device_type,
			ip_address, user_agent, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.DeviceType,
		token.IPAddress,
		token.UserAgent,
		token.CreatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", translateError(err))
	}

	return nil
}

// GetRefreshToken retrieves a refresh token by its hash
func (r *RefreshTokenRepository) GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token_hash = $1`

	if err := r.db.GetContext(ctx, &refreshToken, query, tokenHash); err != nil {
		return nil, notFound(err, "refresh token", "")
	}

	return &refreshToken, nil
}

// TouchRefreshToken updates the last_used_at timestamp for a token
func (r *RefreshTokenRepository) TouchRefreshToken(ctx context.Context, tokenHash string, at time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET last_used_at = $1
		WHERE token_hash = $2
	`

	result, err := r.db.ExecContext(ctx, query, at, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to update last used timestamp: %w", err)
	}

	return requireRow(result, "refresh token", "")
}

// RevokeRefreshToken revokes a specific refresh token
func (r *RefreshTokenRepository) RevokeRefreshToken(ctx context.Context, tokenHash string, at time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE,
		    revoked_at = COALESCE(revoked_at, $1)
		WHERE token_hash = $2
	`

	result, err := r.db.ExecContext(ctx, query, at, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return requireRow(result, "refresh token", "")
}

// RevokeUserTokens revokes all refresh tokens for a user
func (r *RefreshTokenRepository) RevokeUserTokens(ctx context.Context, userID string, at time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE,
		    revoked_at = $1
		WHERE user_id = $2 AND revoked = FALSE
	`

	if _, err := r.db.ExecContext(ctx, query, at, userID); err != nil {
		return fmt.Errorf("failed to revoke all user tokens: %w", err)
	}

	return nil
}

// PurgeExpiredRefreshTokens removes tokens that expired before the cutoff
func (r *RefreshTokenRepository) PurgeExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1
	`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
