package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/kidshuttle/shuttle-backend/internal/memstore"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/pickupstore"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time     { return c.now }
func (c fixedClock) Today() models.Date { return models.DateOf(c.now) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.BookingEvent
	err    error
}

func (p *recordingPublisher) PublishBookingEvent(ctx context.Context, event models.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type recordingMetrics struct {
	mu        sync.Mutex
	created   int
	cancelled int
	rejected  map[string]int
	toggles   map[bool]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{rejected: map[string]int{}, toggles: map[bool]int{}}
}

func (m *recordingMetrics) BookingCreated(string, models.TimeSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *recordingMetrics) BookingRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[reason]++
}

func (m *recordingMetrics) BookingCancelled(string, models.TimeSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled++
}

func (m *recordingMetrics) PickupToggled(pickedUp bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggles[pickedUp]++
}

type fakeRenderer struct {
	got *models.Manifest
	err error
}

func (r *fakeRenderer) RenderManifest(m *models.Manifest) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.got = m
	return []byte("%PDF-fake"), nil
}

// fixture is a small world: one three-stop route with three seats per
// stop, a second route, one parent with two students, another parent
// with one student, and a driver assigned to the first route.
type fixture struct {
	store       *memstore.Store
	clock       fixedClock
	logger      logrus.FieldLogger
	route       models.Route
	otherRoute  models.Route
	stops       []models.Stop // north, central, south
	otherStop   models.Stop
	parentID    string
	otherParent string
	students    []models.Student
	foreign     models.Student
	driverID    string
	date        models.Date
}

func intPtr(v int) *int { return &v }
func strPtr(v string) *string { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	// Monday morning; bookings go on Tuesday
	now := time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)
	f := &fixture{
		store:       memstore.New(),
		clock:       fixedClock{now: now},
		logger:      logger,
		parentID:    "parent-1",
		otherParent: "parent-2",
		driverID:    "driver-1",
		date:        models.NewDate(2026, time.March, 10),
	}

	f.route = models.Route{ID: "route-1", Name: "Frisco Route", Area: "frisco", Capacity: 3, CreatedAt: now, UpdatedAt: now}
	f.otherRoute = models.Route{ID: "route-2", Name: "Dallas Route", Area: "dallas", Capacity: 3, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.store.CreateRoute(ctx, &f.route))
	require.NoError(t, f.store.CreateRoute(ctx, &f.otherRoute))

	f.stops = []models.Stop{
		{ID: "stop-n", RouteID: "route-1", Name: "North", Address: "1 North St", MorningOrder: intPtr(1), AfternoonOrder: intPtr(3),
			MorningPickupTime: strPtr("07:30"), AfternoonDropoffTime: strPtr("15:45"),
			FridayMorningPickupTime: strPtr("07:35"), FridayAfternoonDropoffTime: strPtr("14:45"),
			EarlyReleaseMorningPickupTime: strPtr("07:40"), EarlyReleaseAfternoonDropoffTime: strPtr("13:45")},
		{ID: "stop-c", RouteID: "route-1", Name: "Central", Address: "2 Central Ave", MorningOrder: intPtr(2), AfternoonOrder: intPtr(2),
			MorningPickupTime: strPtr("07:45"), AfternoonDropoffTime: strPtr("16:00")},
		{ID: "stop-s", RouteID: "route-1", Name: "South", Address: "3 South Rd", MorningOrder: intPtr(3), AfternoonOrder: intPtr(1),
			MorningPickupTime: strPtr("08:00")},
	}
	for i := range f.stops {
		require.NoError(t, f.store.CreateStop(ctx, &f.stops[i]))
	}
	f.otherStop = models.Stop{ID: "stop-d", RouteID: "route-2", Name: "Downtown", Address: "100 Commerce St", MorningOrder: intPtr(1)}
	require.NoError(t, f.store.CreateStop(ctx, &f.otherStop))

	f.students = []models.Student{
		{ID: "student-a", ParentID: f.parentID, Name: "Alex Johnson", Grade: "4th", CreatedAt: now},
		{ID: "student-e", ParentID: f.parentID, Name: "Emma Davis", Grade: "6th", CreatedAt: now},
	}
	for i := range f.students {
		require.NoError(t, f.store.CreateStudent(ctx, &f.students[i]))
	}
	f.foreign = models.Student{ID: "student-x", ParentID: f.otherParent, Name: "Noah Smith", Grade: "5th", CreatedAt: now}
	require.NoError(t, f.store.CreateStudent(ctx, &f.foreign))

	require.NoError(t, f.store.AddAssignment(ctx, &models.DriverAssignment{
		ID: "assign-1", DriverID: f.driverID, RouteID: f.route.ID, TimeSlot: models.TimeSlotMorning, IsActive: true, CreatedAt: now,
	}))
	return f
}

func (f *fixture) directory() *StopDirectory {
	return NewStopDirectory(f.store, f.store)
}

func (f *fixture) ledger() *CapacityLedger {
	return NewCapacityLedger(f.store, f.store, f.directory())
}

func (f *fixture) bookingService(events EventPublisher, metrics Metrics) *BookingService {
	return NewBookingService(f.store, f.store, f.store, f.store, f.ledger(), events, metrics, f.clock, f.logger)
}

func (f *fixture) manifestService(renderer ManifestRenderer, metrics Metrics) *ManifestService {
	tracker := NewPickupTracker(pickupstore.NewMemoryStore(), metrics, f.logger)
	return NewManifestService(f.store, f.store, f.store, f.store, f.directory(), tracker, renderer, f.logger)
}

func (f *fixture) request(studentID, stopID string, slot models.TimeSlot) *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		StudentID: studentID,
		RouteID:   f.route.ID,
		StopID:    stopID,
		Date:      f.date.String(),
		TimeSlot:  slot,
	}
}

// fill books n seats at a stop using throwaway students of otherParent
func (f *fixture) fill(t *testing.T, stopID string, slot models.TimeSlot, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		st := models.Student{ID: stopID + "-filler-" + string(rune('a'+i)), ParentID: f.otherParent, Name: "Filler", Grade: "3rd"}
		require.NoError(t, f.store.CreateStudent(ctx, &st))
		require.NoError(t, f.store.InsertIfAvailable(ctx, &models.Booking{
			ID:        st.ID + "-booking",
			StudentID: st.ID,
			RouteID:   f.route.ID,
			StopID:    stopID,
			Date:      f.date,
			TimeSlot:  slot,
			Status:    models.BookingStatusConfirmed,
			CreatedAt: f.clock.now.Add(time.Duration(i) * time.Second),
		}, f.route.Capacity))
	}
}

var errBoom = errors.New("boom")
