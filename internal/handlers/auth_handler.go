package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/middleware"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/services"
	"github.com/kidshuttle/shuttle-backend/internal/utils"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth   *services.AuthService
	logger logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: email, password and name are required")
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. A driver must approve it before you can log in.",
		"user":    user,
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: email and password are required")
		return
	}

	client := utils.ClientFromRequest(c)
	pair, err := h.auth.Login(c.Request.Context(), &req, client)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"ip":          client.IP,
			"device_type": client.DeviceType,
		}).WithError(err).Info("Login rejected")
		RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: refresh_token is required")
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: refresh_token is required")
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GetProfile handles GET /api/v1/auth/me
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userCtx.UserID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
