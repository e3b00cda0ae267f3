package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
)

func (f *fixture) stopAdmin() *StopAdminService {
	return NewStopAdminService(f.store, f.store, f.store, f.directory(), f.clock, f.logger)
}

func TestNextMorningOrder(t *testing.T) {
	assert.Equal(t, 1, nextMorningOrder(nil))
	assert.Equal(t, 3, nextMorningOrder([]models.Stop{{}, {}}))
	assert.Equal(t, 8, nextMorningOrder([]models.Stop{{MorningOrder: intPtr(7)}, {MorningOrder: intPtr(2)}}))
}

func TestListDriverStops(t *testing.T) {
	f := newFixture(t)
	stops, err := f.stopAdmin().ListDriverStops(context.Background(), f.driverID, models.TimeSlotAfternoon)
	require.NoError(t, err)
	assert.Equal(t, []string{"stop-s", "stop-c", "stop-n"}, stopIDs(stops))

	_, err = f.stopAdmin().ListDriverStops(context.Background(), "driver-9", models.TimeSlotMorning)
	assert.True(t, domain.IsNotFound(err))
}

func TestCreateStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.stopAdmin()

	stop, err := svc.CreateStop(ctx, f.driverID, &models.StopRequest{
		Name:              strPtr("  West  "),
		Address:           strPtr("4 West Blvd"),
		MorningPickupTime: strPtr("08:10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "West", stop.Name)
	assert.Equal(t, f.route.ID, stop.RouteID)
	require.NotNil(t, stop.MorningOrder)
	assert.Equal(t, 4, *stop.MorningOrder)
	assert.Nil(t, stop.AfternoonOrder)

	stops, err := svc.ListDriverStops(ctx, f.driverID, models.TimeSlotMorning)
	require.NoError(t, err)
	assert.Equal(t, stop.ID, stops[3].ID)

	// Unordered for the afternoon, so it trails the ordered stops
	stops, err = svc.ListDriverStops(ctx, f.driverID, models.TimeSlotAfternoon)
	require.NoError(t, err)
	assert.Equal(t, stop.ID, stops[3].ID)
}

func TestCreateStop_Invalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.stopAdmin()

	tests := []struct {
		name string
		req  models.StopRequest
	}{
		{"missing name", models.StopRequest{Address: strPtr("x")}},
		{"missing address", models.StopRequest{Name: strPtr("x")}},
		{"bad time", models.StopRequest{Name: strPtr("x"), Address: strPtr("x"), MorningPickupTime: strPtr("7:30am")}},
		{"zero order", models.StopRequest{Name: strPtr("x"), Address: strPtr("x"), MorningOrder: intPtr(0)}},
		{"duplicate morning order", models.StopRequest{Name: strPtr("x"), Address: strPtr("x"), MorningOrder: intPtr(2)}},
		{"duplicate afternoon order", models.StopRequest{Name: strPtr("x"), Address: strPtr("x"), AfternoonOrder: intPtr(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateStop(ctx, f.driverID, &tt.req)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}

	_, err := svc.CreateStop(ctx, "driver-9", &models.StopRequest{Name: strPtr("x"), Address: strPtr("x")})
	assert.True(t, domain.IsNotFound(err))
}

func TestUpdateStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.stopAdmin()

	// Swap north and south in the morning through a free order
	_, err := svc.UpdateStop(ctx, f.driverID, "stop-n", &models.StopRequest{MorningOrder: intPtr(9)})
	require.NoError(t, err)
	_, err = svc.UpdateStop(ctx, f.driverID, "stop-s", &models.StopRequest{MorningOrder: intPtr(1)})
	require.NoError(t, err)
	updated, err := svc.UpdateStop(ctx, f.driverID, "stop-n", &models.StopRequest{
		MorningOrder:         intPtr(3),
		AfternoonDropoffTime: strPtr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.AfternoonDropoffTime)
	assert.Equal(t, "North", updated.Name)
	assert.Equal(t, f.clock.now, updated.UpdatedAt)

	stops, err := svc.ListDriverStops(ctx, f.driverID, models.TimeSlotMorning)
	require.NoError(t, err)
	assert.Equal(t, []string{"stop-s", "stop-c", "stop-n"}, stopIDs(stops))

	// Keeping its own order is not a conflict
	_, err = svc.UpdateStop(ctx, f.driverID, "stop-c", &models.StopRequest{MorningOrder: intPtr(2), Name: strPtr("Central Park")})
	assert.NoError(t, err)

	_, err = svc.UpdateStop(ctx, f.driverID, "stop-c", &models.StopRequest{MorningOrder: intPtr(1)})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.UpdateStop(ctx, f.driverID, "stop-d", &models.StopRequest{Name: strPtr("Mine now")})
	assert.True(t, domain.IsOwnership(err))

	_, err = svc.UpdateStop(ctx, f.driverID, "stop-9", &models.StopRequest{})
	assert.True(t, domain.IsNotFound(err))
}

func TestDeleteStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.stopAdmin()
	f.book(t, "b1", "student-a", "stop-c", models.TimeSlotMorning, 0)

	err := svc.DeleteStop(ctx, f.driverID, "stop-c")
	assert.True(t, domain.IsInvalidState(err))

	_, err = f.store.CancelIfConfirmed(ctx, "b1", f.clock.now)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteStop(ctx, f.driverID, "stop-c"))

	_, err = f.store.GetStop(ctx, "stop-c")
	assert.True(t, domain.IsNotFound(err))

	assert.True(t, domain.IsOwnership(svc.DeleteStop(ctx, f.driverID, "stop-d")))
	assert.True(t, domain.IsNotFound(svc.DeleteStop(ctx, f.driverID, "stop-c")))
}

func TestDeleteStop_PastBookingsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.InsertIfAvailable(ctx, &models.Booking{
		ID: "old", StudentID: "student-a", RouteID: f.route.ID, StopID: "stop-s",
		Date: models.NewDate(2026, time.March, 2), TimeSlot: models.TimeSlotMorning,
		Status: models.BookingStatusConfirmed,
	}, 3))

	assert.NoError(t, f.stopAdmin().DeleteStop(ctx, f.driverID, "stop-s"))
}
