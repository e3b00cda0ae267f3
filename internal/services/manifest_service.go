package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// ManifestRenderer turns a manifest into a printable document
type ManifestRenderer interface {
	RenderManifest(m *models.Manifest) ([]byte, error)
}

// ManifestService derives driver pickup lists from confirmed bookings
type ManifestService struct {
	routes      RouteStore
	bookings    BookingStore
	students    StudentStore
	assignments AssignmentStore
	directory   *StopDirectory
	pickups     *PickupTracker
	renderer    ManifestRenderer
	logger      logrus.FieldLogger
}

// NewManifestService creates a new ManifestService
func NewManifestService(
	routes RouteStore,
	bookings BookingStore,
	students StudentStore,
	assignments AssignmentStore,
	directory *StopDirectory,
	pickups *PickupTracker,
	renderer ManifestRenderer,
	logger logrus.FieldLogger,
) *ManifestService {
	return &ManifestService{
		routes:      routes,
		bookings:    bookings,
		students:    students,
		assignments: assignments,
		directory:   directory,
		pickups:     pickups,
		renderer:    renderer,
		logger:      logger,
	}
}

// BuildManifest groups the confirmed bookings of a route, slot and date by
// stop. Stops follow the slot's order key and students within a stop keep
// booking order. Every route stop is listed, even one with no students.
// All pickup flags start false.
func (s *ManifestService) BuildManifest(ctx context.Context, routeID string, slot models.TimeSlot, date models.Date) (*models.Manifest, error) {
	if !slot.Valid() {
		return nil, domain.ValidationError{Field: "time_slot", Msg: "must be morning or afternoon"}
	}

	route, err := s.routes.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	stops, err := s.directory.ListStopsForSlot(ctx, routeID, slot)
	if err != nil {
		return nil, err
	}

	variant, err := s.directory.DayVariantFor(ctx, date)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListConfirmed(ctx, routeID, slot, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed bookings: %w", err)
	}

	studentIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		studentIDs = append(studentIDs, b.StudentID)
	}
	students, err := s.students.GetStudentsByIDs(ctx, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest students: %w", err)
	}
	byID := make(map[string]models.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	stopIndex := make(map[string]int, len(stops))
	manifest := &models.Manifest{
		RouteID:    route.ID,
		RouteName:  route.Name,
		Capacity:   route.Capacity,
		TimeSlot:   slot,
		Date:       date,
		DayVariant: variant,
		Stops:      make([]models.ManifestStop, 0, len(stops)),
	}
	for i, stop := range stops {
		stopIndex[stop.ID] = i
		manifest.Stops = append(manifest.Stops, models.ManifestStop{
			Stop:         stop,
			ScheduleTime: ScheduleTimeFor(stop, slot, variant),
			Students:     []models.ManifestStudent{},
		})
	}

	for _, b := range bookings {
		idx, ok := stopIndex[b.StopID]
		if !ok {
			s.logger.WithFields(logrus.Fields{
				"booking_id": b.ID,
				"stop_id":    b.StopID,
			}).Warn("Confirmed booking references a stop outside the route")
			continue
		}
		st, ok := byID[b.StudentID]
		if !ok {
			s.logger.WithField("booking_id", b.ID).Warn("Confirmed booking references a missing student")
			continue
		}
		entry := &manifest.Stops[idx]
		entry.Students = append(entry.Students, models.ManifestStudent{
			BookingID: b.ID,
			StudentID: st.ID,
			Name:      st.Name,
			Grade:     st.Grade,
			StopName:  entry.Stop.Name,
		})
	}

	manifest.ApplyPickupState(nil)
	return manifest, nil
}

// OpenDriverManifest builds the manifest of the driver's route and starts a
// fresh pickup session for it
func (s *ManifestService) OpenDriverManifest(ctx context.Context, driverID string, slot models.TimeSlot, date models.Date) (*models.Manifest, error) {
	manifest, key, err := s.driverManifest(ctx, driverID, slot, date)
	if err != nil {
		return nil, err
	}
	if err := s.pickups.Start(ctx, key, manifest.StudentIDs()); err != nil {
		return nil, err
	}
	return manifest, nil
}

// DriverManifest builds the manifest of the driver's route with the open
// session's pickup flags applied. Refetching never resets the session, so
// flags survive polling; only OpenDriverManifest starts a fresh one.
func (s *ManifestService) DriverManifest(ctx context.Context, driverID string, slot models.TimeSlot, date models.Date) (*models.Manifest, error) {
	manifest, key, err := s.driverManifest(ctx, driverID, slot, date)
	if err != nil {
		return nil, err
	}
	state, _, err := s.pickups.State(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read pickup session: %w", err)
	}
	manifest.ApplyPickupState(state)
	return manifest, nil
}

// TogglePickup flips a student's flag in the driver's open session
func (s *ManifestService) TogglePickup(ctx context.Context, driverID string, slot models.TimeSlot, date models.Date, studentID string) (bool, error) {
	if !slot.Valid() {
		return false, domain.ValidationError{Field: "time_slot", Msg: "must be morning or afternoon"}
	}
	routeID, err := s.assignments.AssignedRouteID(ctx, driverID)
	if err != nil {
		return false, err
	}
	return s.pickups.Toggle(ctx, sessionKey(driverID, routeID, slot, date), studentID)
}

// ManifestPDF renders the driver's current manifest as a printable sheet
func (s *ManifestService) ManifestPDF(ctx context.Context, driverID string, slot models.TimeSlot, date models.Date) ([]byte, error) {
	manifest, err := s.DriverManifest(ctx, driverID, slot, date)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderManifest(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to render manifest: %w", err)
	}
	return pdf, nil
}

func (s *ManifestService) driverManifest(ctx context.Context, driverID string, slot models.TimeSlot, date models.Date) (*models.Manifest, models.PickupSessionKey, error) {
	routeID, err := s.assignments.AssignedRouteID(ctx, driverID)
	if err != nil {
		return nil, models.PickupSessionKey{}, err
	}
	manifest, err := s.BuildManifest(ctx, routeID, slot, date)
	if err != nil {
		return nil, models.PickupSessionKey{}, err
	}
	return manifest, sessionKey(driverID, routeID, slot, date), nil
}

func sessionKey(driverID, routeID string, slot models.TimeSlot, date models.Date) models.PickupSessionKey {
	return models.PickupSessionKey{DriverID: driverID, RouteID: routeID, Date: date, TimeSlot: slot}
}
