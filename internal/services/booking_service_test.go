package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
)

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{}
	m := newRecordingMetrics()
	svc := f.bookingService(pub, m)

	booking, err := svc.CreateBooking(context.Background(), f.parentID, f.request("student-a", "stop-c", models.TimeSlotMorning))
	require.NoError(t, err)

	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, f.date, booking.Date)
	assert.Equal(t, f.clock.now, booking.CreatedAt)

	stored, err := f.store.GetBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "stop-c", stored.StopID)

	assert.Equal(t, 1, m.created)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.BookingEventCreated, pub.events[0].Type)
	assert.Equal(t, booking.ID, pub.events[0].BookingID)
	assert.Equal(t, f.route.ID, pub.events[0].RouteID)
}

func TestCreateBooking_TodayAllowed(t *testing.T) {
	f := newFixture(t)
	svc := f.bookingService(nil, nil)

	req := f.request("student-a", "stop-n", models.TimeSlotAfternoon)
	req.Date = f.clock.Today().String()
	_, err := svc.CreateBooking(context.Background(), f.parentID, req)
	assert.NoError(t, err)
}

func TestCreateBooking_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		mutate func(r *models.CreateBookingRequest)
		check  func(error) bool
		reason string
	}{
		{
			name:   "missing student",
			mutate: func(r *models.CreateBookingRequest) { r.StudentID = "  " },
			check:  domain.IsValidation,
			reason: RejectValidation,
		},
		{
			name:   "bad slot",
			mutate: func(r *models.CreateBookingRequest) { r.TimeSlot = "evening" },
			check:  domain.IsValidation,
			reason: RejectValidation,
		},
		{
			name:   "bad date",
			mutate: func(r *models.CreateBookingRequest) { r.Date = "03/10/2026" },
			check:  domain.IsValidation,
			reason: RejectValidation,
		},
		{
			name:   "past date",
			mutate: func(r *models.CreateBookingRequest) { r.Date = "2026-03-08" },
			check:  domain.IsValidation,
			reason: RejectValidation,
		},
		{
			name:   "unknown student",
			mutate: func(r *models.CreateBookingRequest) { r.StudentID = "ghost" },
			check:  domain.IsNotFound,
			reason: RejectNotFound,
		},
		{
			name:   "another parent's student",
			mutate: func(r *models.CreateBookingRequest) { r.StudentID = "student-x" },
			check:  domain.IsOwnership,
			reason: RejectOwnership,
		},
		{
			name:   "unknown route",
			mutate: func(r *models.CreateBookingRequest) { r.RouteID = "route-9" },
			check:  domain.IsNotFound,
			reason: RejectNotFound,
		},
		{
			name:   "unknown stop",
			mutate: func(r *models.CreateBookingRequest) { r.StopID = "stop-9" },
			check:  domain.IsNotFound,
			reason: RejectNotFound,
		},
		{
			name:   "stop on another route",
			mutate: func(r *models.CreateBookingRequest) { r.StopID = "stop-d" },
			check:  domain.IsValidation,
			reason: RejectValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			pub := &recordingPublisher{}
			m := newRecordingMetrics()
			svc := f.bookingService(pub, m)

			req := f.request("student-a", "stop-n", models.TimeSlotMorning)
			tt.mutate(req)
			_, err := svc.CreateBooking(context.Background(), f.parentID, req)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type: %v", err)
			assert.Equal(t, 1, m.rejected[tt.reason])
			assert.Empty(t, pub.events)
		})
	}
}

func TestCreateBooking_OneSeatPerStudentAndSlot(t *testing.T) {
	f := newFixture(t)
	m := newRecordingMetrics()
	svc := f.bookingService(nil, m)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, f.parentID, f.request("student-a", "stop-n", models.TimeSlotMorning))
	require.NoError(t, err)

	// Same slot at a different stop is still a duplicate
	_, err = svc.CreateBooking(ctx, f.parentID, f.request("student-a", "stop-c", models.TimeSlotMorning))
	assert.True(t, domain.IsInvalidState(err))
	assert.Equal(t, 1, m.rejected[RejectDuplicate])

	// The other slot of the same day is fine
	_, err = svc.CreateBooking(ctx, f.parentID, f.request("student-a", "stop-c", models.TimeSlotAfternoon))
	assert.NoError(t, err)
}

func TestCreateBooking_FullyBooked(t *testing.T) {
	f := newFixture(t)
	m := newRecordingMetrics()
	svc := f.bookingService(nil, m)
	ctx := context.Background()
	f.fill(t, "stop-n", models.TimeSlotMorning, 3)

	_, err := svc.CreateBooking(ctx, f.parentID, f.request("student-a", "stop-n", models.TimeSlotMorning))
	require.Error(t, err)
	assert.True(t, domain.IsCapacityExceeded(err))
	var capErr domain.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "stop-n", capErr.StopID)
	assert.Equal(t, 3, capErr.Capacity)
	assert.Equal(t, 1, m.rejected[RejectFullyBooked])

	// Neighbouring stop still has seats
	_, err = svc.CreateBooking(ctx, f.parentID, f.request("student-a", "stop-c", models.TimeSlotMorning))
	assert.NoError(t, err)
}

func TestCreateBooking_ConcurrentLastSeats(t *testing.T) {
	f := newFixture(t)
	svc := f.bookingService(nil, newRecordingMetrics())
	ctx := context.Background()

	const attempts = 12
	for i := 0; i < attempts; i++ {
		st := models.Student{ID: fmt.Sprintf("racer-%d", i), ParentID: f.parentID, Name: "Racer", Grade: "5th"}
		require.NoError(t, f.store.CreateStudent(ctx, &st))
	}

	var wg sync.WaitGroup
	var ok, full int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateBooking(ctx, f.parentID, f.request(fmt.Sprintf("racer-%d", i), "stop-n", models.TimeSlotMorning))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case domain.IsCapacityExceeded(err):
				atomic.AddInt32(&full, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, f.route.Capacity, ok)
	assert.EqualValues(t, attempts-f.route.Capacity, full)

	n, err := f.store.CountConfirmed(ctx, models.CapacityKey{RouteID: f.route.ID, StopID: "stop-n", Date: f.date, TimeSlot: models.TimeSlotMorning})
	require.NoError(t, err)
	assert.Equal(t, f.route.Capacity, n)
}

func TestCreateBooking_ConcurrentSameStudent(t *testing.T) {
	f := newFixture(t)
	svc := f.bookingService(nil, newRecordingMetrics())
	ctx := context.Background()
	stops := []string{"stop-n", "stop-c", "stop-s"}

	const attempts = 12
	var wg sync.WaitGroup
	var ok, duplicate int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateBooking(ctx, f.parentID, f.request("student-a", stops[i%len(stops)], models.TimeSlotMorning))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case domain.IsInvalidState(err):
				atomic.AddInt32(&duplicate, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok)
	assert.EqualValues(t, attempts-1, duplicate)

	has, err := f.store.HasConfirmedForStudent(ctx, "student-a", models.TimeSlotMorning, f.date)
	require.NoError(t, err)
	assert.True(t, has)
	total := 0
	for _, stopID := range stops {
		n, err := f.store.CountConfirmed(ctx, models.CapacityKey{RouteID: f.route.ID, StopID: stopID, Date: f.date, TimeSlot: models.TimeSlotMorning})
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, 1, total)
}

func TestCreateBooking_PublishFailureKeepsBooking(t *testing.T) {
	f := newFixture(t)
	svc := f.bookingService(&recordingPublisher{err: errBoom}, nil)

	booking, err := svc.CreateBooking(context.Background(), f.parentID, f.request("student-a", "stop-n", models.TimeSlotMorning))
	require.NoError(t, err)

	_, err = f.store.GetBooking(context.Background(), booking.ID)
	assert.NoError(t, err)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{}
	m := newRecordingMetrics()
	svc := f.bookingService(pub, m)
	ctx := context.Background()
	f.fill(t, "stop-n", models.TimeSlotMorning, 2)

	booking, err := svc.CreateBooking(ctx, f.parentID, f.request("student-a", "stop-n", models.TimeSlotMorning))
	require.NoError(t, err)

	// Another parent cannot cancel it
	_, err = svc.CancelBooking(ctx, booking.ID, f.otherParent)
	assert.True(t, domain.IsOwnership(err))

	cancelled, err := svc.CancelBooking(ctx, booking.ID, f.parentID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, f.clock.now, *cancelled.CancelledAt)
	assert.Equal(t, 1, m.cancelled)
	require.Len(t, pub.events, 2)
	assert.Equal(t, models.BookingEventCancelled, pub.events[1].Type)

	// Seat is free again
	left, err := f.ledger().AvailableSeats(ctx, &f.route, "stop-n", models.TimeSlotMorning, f.date)
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	// Second cancel is an illegal transition
	_, err = svc.CancelBooking(ctx, booking.ID, f.parentID)
	assert.True(t, domain.IsInvalidState(err))
	assert.Equal(t, 1, m.cancelled)

	_, err = svc.CancelBooking(ctx, "missing", f.parentID)
	assert.True(t, domain.IsNotFound(err))
}

func TestCancelBooking_ThenRebook(t *testing.T) {
	f := newFixture(t)
	svc := f.bookingService(nil, nil)
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, f.parentID, f.request("student-a", "stop-n", models.TimeSlotMorning))
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, first.ID, f.parentID)
	require.NoError(t, err)

	second, err := svc.CreateBooking(ctx, f.parentID, f.request("student-a", "stop-c", models.TimeSlotMorning))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestListBookings(t *testing.T) {
	f := newFixture(t)
	svc := f.bookingService(nil, nil)
	ctx := context.Background()

	empty, err := svc.ListBookings(ctx, f.parentID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.CreateBooking(ctx, f.parentID, f.request("student-a", "stop-n", models.TimeSlotMorning))
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, f.parentID, f.request("student-e", "stop-s", models.TimeSlotMorning))
	require.NoError(t, err)
	f.fill(t, "stop-c", models.TimeSlotMorning, 1)

	list, err := svc.ListBookings(ctx, f.parentID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, b := range list {
		assert.Equal(t, "Frisco Route", b.RouteName)
		assert.NotEmpty(t, b.StudentName)
		assert.NotEmpty(t, b.StopName)
	}
}
