package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/pkg/jwt"
)

// UserContextKey is the key used to store user information in Gin context
const UserContextKey = "user"

// UserContext represents the authenticated user's information
type UserContext struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
}

// AuthMiddleware creates a middleware that validates JWT tokens
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logrus.WithFields(logrus.Fields{
			"path": c.Request.URL.Path,
			"ip":   c.ClientIP(),
		})

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Auth failed: missing authorization header")
			abort(c, http.StatusUnauthorized, "unauthorized", "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Warn("Auth failed: invalid authorization format")
			abort(c, http.StatusUnauthorized, "unauthorized", "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			log.Warn("Auth failed: empty token")
			abort(c, http.StatusUnauthorized, "unauthorized", "Token cannot be empty", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			if jwt.IsExpired(err) {
				log.WithError(err).Info("Auth failed: token expired")
				abort(c, http.StatusUnauthorized, "token_expired", "Access token has expired. Please refresh your token.", "TOKEN_EXPIRED")
			} else {
				log.WithError(err).Warn("Auth failed: invalid token")
				abort(c, http.StatusUnauthorized, "invalid_token", "Invalid access token", "INVALID_TOKEN")
			}
			return
		}

		c.Set(UserContextKey, UserContext{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   models.UserRole(claims.Role),
		})
		c.Next()
	}
}

// RequireRole creates a middleware that checks if user has one of the roles
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			abort(c, http.StatusUnauthorized, "unauthorized", "User context not found. Auth middleware may not be applied.", "MISSING_USER_CONTEXT")
			return
		}

		for _, role := range roles {
			if userCtx.Role == role {
				c.Next()
				return
			}
		}

		abort(c, http.StatusForbidden, "forbidden", "You don't have permission to access this resource", "INSUFFICIENT_PERMISSIONS")
	}
}

// RequireParent only lets parent accounts through
func RequireParent() gin.HandlerFunc {
	return RequireRole(models.RoleParent)
}

// RequireDriver only lets driver accounts through
func RequireDriver() gin.HandlerFunc {
	return RequireRole(models.RoleDriver)
}

// GetUserContext retrieves the user context from Gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}

	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}

	return userCtx, true
}

// CurrentParentID returns the authenticated parent's id
func CurrentParentID(c *gin.Context) (string, bool) {
	return currentIDFor(c, models.RoleParent)
}

// CurrentDriverID returns the authenticated driver's id
func CurrentDriverID(c *gin.Context) (string, bool) {
	return currentIDFor(c, models.RoleDriver)
}

func currentIDFor(c *gin.Context, role models.UserRole) (string, bool) {
	userCtx, ok := GetUserContext(c)
	if !ok || userCtx.Role != role || userCtx.UserID == "" {
		return "", false
	}
	return userCtx.UserID, true
}

func abort(c *gin.Context, status int, errCode, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":   errCode,
		"message": message,
		"code":    code,
	})
}
