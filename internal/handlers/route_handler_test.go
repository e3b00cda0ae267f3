package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

func TestListAndGetRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/routes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Routes []models.Route `json:"routes"`
	}
	decode(t, w, &list)
	assert.Len(t, list.Routes, 2)

	w = s.do(t, http.MethodGet, "/api/v1/routes/"+s.seed.FriscoRouteID+"?time_slot=afternoon", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var route models.RouteWithStops
	decode(t, w, &route)
	require.Len(t, route.Stops, 3)
	assert.Equal(t, "Soccer Academy", route.Stops[0].Name)
	assert.Equal(t, "Main Street Plaza", route.Stops[2].Name)

	w = s.do(t, http.MethodGet, "/api/v1/routes/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestGetAvailability(t *testing.T) {
	s := newTestServer(t)
	path := "/api/v1/routes/" + s.seed.FriscoRouteID + "/availability"

	w := s.do(t, http.MethodGet, path+"?date="+s.today.String()+"&time_slot=morning", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var avail models.RouteAvailability
	decode(t, w, &avail)
	assert.Equal(t, models.DayVariantRegular, avail.DayVariant)
	require.Len(t, avail.Stops, 3)
	assert.Equal(t, 1, avail.Stops[0].BookedSeats)
	assert.Equal(t, models.DefaultRouteCapacity-1, avail.Stops[0].AvailableSeats)
	assert.Equal(t, "07:30", avail.Stops[0].ScheduleTime)

	// Defaults to today's morning run
	w = s.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &avail)
	assert.Equal(t, models.TimeSlotMorning, avail.TimeSlot)
	assert.Equal(t, s.today, avail.Date)

	// Friday times
	w = s.do(t, http.MethodGet, path+"?date=2026-03-13&time_slot=afternoon", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &avail)
	assert.Equal(t, models.DayVariantFriday, avail.DayVariant)
	assert.Equal(t, "15:15", avail.Stops[0].ScheduleTime)

	w = s.do(t, http.MethodGet, path+"?time_slot=evening", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, path+"?date=13-03-2026", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/routes/missing/availability", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
