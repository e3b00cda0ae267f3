package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/services"
)

// RouteHandler serves the public route catalogue and seat availability
type RouteHandler struct {
	routes    services.RouteStore
	directory *services.StopDirectory
	ledger    *services.CapacityLedger
	clock     services.Clock
	logger    logrus.FieldLogger
}

// NewRouteHandler creates a new RouteHandler
func NewRouteHandler(routes services.RouteStore, directory *services.StopDirectory, ledger *services.CapacityLedger, clock services.Clock, logger logrus.FieldLogger) *RouteHandler {
	return &RouteHandler{routes: routes, directory: directory, ledger: ledger, clock: clock, logger: logger}
}

// ListRoutes handles GET /api/v1/routes
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	routes, err := h.routes.ListRoutes(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	if routes == nil {
		routes = []models.Route{}
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

// GetRoute handles GET /api/v1/routes/:id
// Stops come back in the order of ?time_slot= (morning by default).
func (h *RouteHandler) GetRoute(c *gin.Context) {
	ctx := c.Request.Context()
	slot, _, err := slotAndDate(c, h.clock)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	route, err := h.routes.GetRoute(ctx, c.Param("id"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	stops, err := h.directory.ListStopsForSlot(ctx, route.ID, slot)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	if stops == nil {
		stops = []models.Stop{}
	}

	c.JSON(http.StatusOK, models.RouteWithStops{Route: *route, Stops: stops})
}

// GetAvailability handles GET /api/v1/routes/:id/availability?date=&time_slot=
func (h *RouteHandler) GetAvailability(c *gin.Context) {
	slot, date, err := slotAndDate(c, h.clock)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	availability, err := h.ledger.RouteAvailability(c.Request.Context(), c.Param("id"), slot, date)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}
