package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/middleware"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/services"
)

// AdminHandler handles the driver's administrative requests: route
// assignments and parent account approval
type AdminHandler struct {
	auth        *services.AuthService
	assignments services.AssignmentStore
	logger      logrus.FieldLogger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(auth *services.AuthService, assignments services.AssignmentStore, logger logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{auth: auth, assignments: assignments, logger: logger}
}

// GetAssignments handles GET /api/v1/driver/assignments
func (h *AdminHandler) GetAssignments(c *gin.Context) {
	driverID, ok := middleware.CurrentDriverID(c)
	if !ok {
		unauthorized(c)
		return
	}

	assignments, err := h.assignments.ListAssignments(c.Request.Context(), driverID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	if assignments == nil {
		assignments = []models.DriverAssignment{}
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// GetPendingParents handles GET /api/v1/driver/parents/pending
func (h *AdminHandler) GetPendingParents(c *gin.Context) {
	parents, err := h.auth.ListPendingParents(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"parents": parents,
		"total":   len(parents),
	})
}

// ApproveParent handles POST /api/v1/driver/parents/:id/approve
func (h *AdminHandler) ApproveParent(c *gin.Context) {
	driverID, ok := middleware.CurrentDriverID(c)
	if !ok {
		unauthorized(c)
		return
	}

	user, err := h.auth.ApproveParent(c.Request.Context(), driverID, c.Param("id"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parent approved", "user": user})
}

// RejectParent handles POST /api/v1/driver/parents/:id/reject
func (h *AdminHandler) RejectParent(c *gin.Context) {
	driverID, ok := middleware.CurrentDriverID(c)
	if !ok {
		unauthorized(c)
		return
	}

	user, err := h.auth.RejectParent(c.Request.Context(), driverID, c.Param("id"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parent rejected", "user": user})
}
