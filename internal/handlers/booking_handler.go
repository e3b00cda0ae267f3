package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/middleware"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/services"
)

// BookingHandler handles a parent's shuttle bookings
type BookingHandler struct {
	bookings *services.BookingService
	logger   logrus.FieldLogger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings *services.BookingService, logger logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// ListBookings handles GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	parentID, ok := middleware.CurrentParentID(c)
	if !ok {
		unauthorized(c)
		return
	}

	bookings, err := h.bookings.ListBookings(c.Request.Context(), parentID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	parentID, ok := middleware.CurrentParentID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: student_id, route_id, stop_id, date and time_slot are required")
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), parentID, &req)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	parentID, ok := middleware.CurrentParentID(c)
	if !ok {
		unauthorized(c)
		return
	}

	booking, err := h.bookings.CancelBooking(c.Request.Context(), c.Param("id"), parentID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
