package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RespondError maps a service error onto its HTTP status and error body.
// Unrecognised errors are logged and reported as 500 without detail.
func RespondError(c *gin.Context, logger logrus.FieldLogger, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
		_ = c.Error(err)
	}
	c.JSON(status, body)
}

func classify(err error) (int, ErrorResponse) {
	var authErr *services.AuthError
	switch {
	case errors.As(err, &authErr):
		status := http.StatusUnauthorized
		switch authErr {
		case services.ErrAccountPending, services.ErrAccountRejected, services.ErrAccountInactive:
			status = http.StatusForbidden
		}
		return status, ErrorResponse{Error: "unauthorized", Message: authErr.Message, Code: authErr.Code}
	case domain.IsValidation(err):
		return http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error(), Code: "VALIDATION_ERROR"}
	case domain.IsOwnership(err):
		return http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: err.Error(), Code: "FORBIDDEN"}
	case domain.IsNotFound(err):
		return http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error(), Code: "NOT_FOUND"}
	case domain.IsCapacityExceeded(err):
		return http.StatusConflict, ErrorResponse{Error: "fully_booked", Message: err.Error(), Code: "FULLY_BOOKED"}
	case domain.IsInvalidState(err):
		return http.StatusConflict, ErrorResponse{Error: "invalid_state", Message: err.Error(), Code: "INVALID_STATE"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "An unexpected error occurred", Code: "INTERNAL_ERROR"}
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: message,
		Code:    "VALIDATION_ERROR",
	})
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: "User not authenticated",
		Code:    "MISSING_USER_CONTEXT",
	})
}
