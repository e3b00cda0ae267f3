package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// UserLookup loads an account by id
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// RequireApprovedAccount rejects tokens whose account has since been
// deactivated or rejected. Must be used after AuthMiddleware.
func RequireApprovedAccount(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			abort(c, http.StatusUnauthorized, "unauthorized", "User context not found", "MISSING_USER_CONTEXT")
			return
		}

		user, err := users.GetUser(c.Request.Context(), userCtx.UserID)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userCtx.UserID).Warn("Failed to load account for status check")
			abort(c, http.StatusUnauthorized, "unauthorized", "Account not found", "ACCOUNT_NOT_FOUND")
			return
		}

		if !user.CanLogin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":          "not_approved",
				"message":        "Your account is not approved. Please contact the driver.",
				"code":           "ACCOUNT_NOT_APPROVED",
				"account_status": user.Status,
			})
			return
		}

		c.Next()
	}
}
