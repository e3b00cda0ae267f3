package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/utils"
	"github.com/kidshuttle/shuttle-backend/pkg/jwt"
	"github.com/kidshuttle/shuttle-backend/pkg/validator"
)

// RefreshTokenStore keeps hashes of issued refresh tokens
type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, token *models.RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	TouchRefreshToken(ctx context.Context, tokenHash string, at time.Time) error
	RevokeRefreshToken(ctx context.Context, tokenHash string, at time.Time) error
	RevokeUserTokens(ctx context.Context, userID string, at time.Time) error
	PurgeExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

// AuthError is a login or token failure the client must fix by re-authenticating
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	ErrInvalidCredentials  = &AuthError{Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
	ErrAccountPending      = &AuthError{Code: "ACCOUNT_PENDING", Message: "your account is awaiting driver approval"}
	ErrAccountRejected     = &AuthError{Code: "ACCOUNT_REJECTED", Message: "your account request was rejected"}
	ErrAccountInactive     = &AuthError{Code: "ACCOUNT_INACTIVE", Message: "account is inactive"}
	ErrInvalidRefreshToken = &AuthError{Code: "INVALID_REFRESH_TOKEN", Message: "refresh token is invalid or expired"}
)

// AuthService handles signup, login, token refresh and parent approval
type AuthService struct {
	users      UserStore
	tokens     RefreshTokenStore
	jwtService *jwt.Service
	phones     *validator.PhoneValidator
	bcryptCost int
	refreshTTL time.Duration
	clock      Clock
	logger     logrus.FieldLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserStore,
	tokens RefreshTokenStore,
	jwtService *jwt.Service,
	bcryptCost int,
	refreshTTL time.Duration,
	clock Clock,
	logger logrus.FieldLogger,
) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwtService: jwtService,
		phones:     validator.NewPhoneValidator(),
		bcryptCost: bcryptCost,
		refreshTTL: refreshTTL,
		clock:      clock,
		logger:     logger,
	}
}

// HashPassword hashes a password with the given bcrypt cost
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// HashToken returns the storage hash of a refresh token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Signup creates a pending parent account
func (s *AuthService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.Validation(err)
	}

	var phone *string
	if strings.TrimSpace(req.Phone) != "" {
		e164, err := s.phones.Validate(req.Phone)
		if err != nil {
			return nil, domain.ValidationError{Field: "phone", Msg: err.Error(), Err: err}
		}
		phone = &e164
	}

	if _, err := s.users.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, domain.ValidationError{Field: "email", Msg: "an account with this email already exists"}
	} else if !domain.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Phone:        phone,
		Role:         models.RoleParent,
		Status:       models.AccountStatusPending,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("Parent signed up, awaiting approval")
	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest, client utils.ClientInfo) (*models.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := loginAllowed(user); err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"role":        user.Role,
		"device_type": client.DeviceType,
	}).Info("User logged in")
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	hash := HashToken(refreshToken)
	stored, err := s.tokens.GetRefreshToken(ctx, hash)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	now := s.clock.Now()
	if !stored.IsUsable(now) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := loginAllowed(user); err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	if err := s.tokens.TouchRefreshToken(ctx, hash, now); err != nil {
		s.logger.WithError(err).Warn("Failed to update refresh token last use")
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokens.RevokeRefreshToken(ctx, HashToken(refreshToken), s.clock.Now())
	if err != nil && !domain.IsNotFound(err) {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// Me returns the account behind an authenticated request
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetUser(ctx, userID)
}

// ListPendingParents returns parents awaiting approval, oldest first
func (s *AuthService) ListPendingParents(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsersByStatus(ctx, models.RoleParent, models.AccountStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending parents: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// ApproveParent lets a pending parent log in
func (s *AuthService) ApproveParent(ctx context.Context, driverID, parentID string) (*models.User, error) {
	return s.setParentStatus(ctx, driverID, parentID, models.AccountStatusApproved)
}

// RejectParent refuses a pending parent and revokes any tokens they hold
func (s *AuthService) RejectParent(ctx context.Context, driverID, parentID string) (*models.User, error) {
	user, err := s.setParentStatus(ctx, driverID, parentID, models.AccountStatusRejected)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.RevokeUserTokens(ctx, user.ID, s.clock.Now()); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to revoke tokens of rejected parent")
	}
	return user, nil
}

func (s *AuthService) setParentStatus(ctx context.Context, driverID, parentID string, status models.AccountStatus) (*models.User, error) {
	user, err := s.users.GetUser(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleParent {
		return nil, domain.NotFoundError{Resource: "parent", ID: parentID}
	}
	if user.Status != models.AccountStatusPending {
		return nil, domain.InvalidStateError{
			Resource: "parent",
			Msg:      fmt.Sprintf("account is already %s", user.Status),
		}
	}

	if err := s.users.UpdateUserStatus(ctx, user.ID, status); err != nil {
		return nil, err
	}
	user.Status = status

	s.logger.WithFields(logrus.Fields{
		"driver_id": driverID,
		"parent_id": user.ID,
		"status":    status,
	}).Info("Parent account reviewed")
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User, client utils.ClientInfo) (*models.TokenPair, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &models.RefreshToken{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		TokenHash:  HashToken(refreshToken),
		DeviceType: optional(client.DeviceType),
		IPAddress:  optional(client.IP),
		UserAgent:  optional(client.UserAgent),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.refreshTTL),
	}
	if err := s.tokens.StoreRefreshToken(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

func loginAllowed(user *models.User) error {
	if !user.IsActive {
		return ErrAccountInactive
	}
	switch user.Status {
	case models.AccountStatusApproved:
		return nil
	case models.AccountStatusPending:
		return ErrAccountPending
	default:
		return ErrAccountRejected
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
