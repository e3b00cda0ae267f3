package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/middleware"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/services"
)

// StopHandler lets a driver manage the stops of their route
type StopHandler struct {
	stops  *services.StopAdminService
	logger logrus.FieldLogger
}

// NewStopHandler creates a new StopHandler
func NewStopHandler(stops *services.StopAdminService, logger logrus.FieldLogger) *StopHandler {
	return &StopHandler{stops: stops, logger: logger}
}

// ListStops handles GET /api/v1/driver/stops?time_slot=
func (h *StopHandler) ListStops(c *gin.Context) {
	driverID, ok := middleware.CurrentDriverID(c)
	if !ok {
		unauthorized(c)
		return
	}
	slot := models.TimeSlot(c.DefaultQuery("time_slot", string(models.TimeSlotMorning)))
	if !slot.Valid() {
		badRequest(c, "time_slot must be morning or afternoon")
		return
	}

	stops, err := h.stops.ListDriverStops(c.Request.Context(), driverID, slot)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	if stops == nil {
		stops = []models.Stop{}
	}
	c.JSON(http.StatusOK, gin.H{"stops": stops})
}

// CreateStop handles POST /api/v1/driver/stops
func (h *StopHandler) CreateStop(c *gin.Context) {
	driverID, ok := middleware.CurrentDriverID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req models.StopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	stop, err := h.stops.CreateStop(c.Request.Context(), driverID, &req)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, stop)
}

// UpdateStop handles PUT /api/v1/driver/stops/:id
func (h *StopHandler) UpdateStop(c *gin.Context) {
	driverID, ok := middleware.CurrentDriverID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req models.StopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	stop, err := h.stops.UpdateStop(c.Request.Context(), driverID, c.Param("id"), &req)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stop)
}

// DeleteStop handles DELETE /api/v1/driver/stops/:id
func (h *StopHandler) DeleteStop(c *gin.Context) {
	driverID, ok := middleware.CurrentDriverID(c)
	if !ok {
		unauthorized(c)
		return
	}

	if err := h.stops.DeleteStop(c.Request.Context(), driverID, c.Param("id")); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stop deleted"})
}
