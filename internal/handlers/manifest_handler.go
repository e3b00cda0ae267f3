package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/middleware"
	"github.com/kidshuttle/shuttle-backend/internal/services"
)

// ManifestHandler serves the driver's pickup manifest
type ManifestHandler struct {
	manifests *services.ManifestService
	clock     services.Clock
	logger    logrus.FieldLogger
}

// NewManifestHandler creates a new ManifestHandler
func NewManifestHandler(manifests *services.ManifestService, clock services.Clock, logger logrus.FieldLogger) *ManifestHandler {
	return &ManifestHandler{manifests: manifests, clock: clock, logger: logger}
}

// OpenManifest handles POST /api/v1/driver/manifest/open?date=&time_slot=
// Every pickup flag of the session is reset.
func (h *ManifestHandler) OpenManifest(c *gin.Context) {
	driverID, ok := middleware.CurrentDriverID(c)
	if !ok {
		unauthorized(c)
		return
	}
	slot, date, err := slotAndDate(c, h.clock)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	manifest, err := h.manifests.OpenDriverManifest(c.Request.Context(), driverID, slot, date)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, manifest)
}

// GetManifest handles GET /api/v1/driver/manifest?date=&time_slot=
func (h *ManifestHandler) GetManifest(c *gin.Context) {
	driverID, ok := middleware.CurrentDriverID(c)
	if !ok {
		unauthorized(c)
		return
	}
	slot, date, err := slotAndDate(c, h.clock)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	manifest, err := h.manifests.DriverManifest(c.Request.Context(), driverID, slot, date)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, manifest)
}

// GetManifestPDF handles GET /api/v1/driver/manifest.pdf?date=&time_slot=
func (h *ManifestHandler) GetManifestPDF(c *gin.Context) {
	driverID, ok := middleware.CurrentDriverID(c)
	if !ok {
		unauthorized(c)
		return
	}
	slot, date, err := slotAndDate(c, h.clock)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	pdf, err := h.manifests.ManifestPDF(c.Request.Context(), driverID, slot, date)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("manifest-%s-%s.pdf", date, slot)
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// TogglePickup handles POST /api/v1/driver/manifest/pickups/:student_id/toggle?date=&time_slot=
func (h *ManifestHandler) TogglePickup(c *gin.Context) {
	driverID, ok := middleware.CurrentDriverID(c)
	if !ok {
		unauthorized(c)
		return
	}
	slot, date, err := slotAndDate(c, h.clock)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	studentID := c.Param("student_id")
	picked, err := h.manifests.TogglePickup(c.Request.Context(), driverID, slot, date, studentID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"student_id":   studentID,
		"is_picked_up": picked,
	})
}
