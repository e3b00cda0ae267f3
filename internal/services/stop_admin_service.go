package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// StopAdminService lets a driver manage the stops of their assigned route
type StopAdminService struct {
	stops       StopStore
	bookings    BookingStore
	assignments AssignmentStore
	directory   *StopDirectory
	clock       Clock
	logger      logrus.FieldLogger
}

// NewStopAdminService creates a new StopAdminService
func NewStopAdminService(
	stops StopStore,
	bookings BookingStore,
	assignments AssignmentStore,
	directory *StopDirectory,
	clock Clock,
	logger logrus.FieldLogger,
) *StopAdminService {
	return &StopAdminService{
		stops:       stops,
		bookings:    bookings,
		assignments: assignments,
		directory:   directory,
		clock:       clock,
		logger:      logger,
	}
}

// ListDriverStops returns the stops of the driver's route in slot order
func (s *StopAdminService) ListDriverStops(ctx context.Context, driverID string, slot models.TimeSlot) ([]models.Stop, error) {
	routeID, err := s.assignments.AssignedRouteID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return s.directory.ListStopsForSlot(ctx, routeID, slot)
}

// CreateStop adds a stop to the driver's route. A stop created without a
// morning order goes after the last ordered stop.
func (s *StopAdminService) CreateStop(ctx context.Context, driverID string, req *models.StopRequest) (*models.Stop, error) {
	routeID, err := s.assignments.AssignedRouteID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	existing, err := s.stops.ListStopsByRoute(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}

	now := s.clock.Now()
	stop := &models.Stop{
		ID:        uuid.NewString(),
		RouteID:   routeID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.ApplyTo(stop)
	if stop.MorningOrder == nil {
		next := nextMorningOrder(existing)
		stop.MorningOrder = &next
	}

	if err := s.validate(stop, existing); err != nil {
		return nil, err
	}
	if err := s.stops.CreateStop(ctx, stop); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"driver_id": driverID,
		"route_id":  routeID,
		"stop_id":   stop.ID,
	}).Info("Stop created")
	return stop, nil
}

// UpdateStop applies the non-nil fields of req to one of the driver's stops
func (s *StopAdminService) UpdateStop(ctx context.Context, driverID, stopID string, req *models.StopRequest) (*models.Stop, error) {
	stop, err := s.ownedStop(ctx, driverID, stopID)
	if err != nil {
		return nil, err
	}

	existing, err := s.stops.ListStopsByRoute(ctx, stop.RouteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}

	req.ApplyTo(stop)
	stop.UpdatedAt = s.clock.Now()

	if err := s.validate(stop, existing); err != nil {
		return nil, err
	}
	if err := s.stops.UpdateStop(ctx, stop); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"driver_id": driverID,
		"stop_id":   stop.ID,
	}).Info("Stop updated")
	return stop, nil
}

// DeleteStop removes a stop that has no upcoming confirmed bookings
func (s *StopAdminService) DeleteStop(ctx context.Context, driverID, stopID string) error {
	stop, err := s.ownedStop(ctx, driverID, stopID)
	if err != nil {
		return err
	}

	upcoming, err := s.bookings.CountUpcomingForStop(ctx, stop.ID, s.clock.Today())
	if err != nil {
		return fmt.Errorf("failed to count stop bookings: %w", err)
	}
	if upcoming > 0 {
		return domain.InvalidStateError{
			Resource: "stop",
			Msg:      fmt.Sprintf("%s still has %d confirmed booking(s)", stop.Name, upcoming),
		}
	}

	if err := s.stops.DeleteStop(ctx, stop.ID); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"driver_id": driverID,
		"stop_id":   stop.ID,
	}).Info("Stop deleted")
	return nil
}

func (s *StopAdminService) ownedStop(ctx context.Context, driverID, stopID string) (*models.Stop, error) {
	routeID, err := s.assignments.AssignedRouteID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	stop, err := s.stops.GetStop(ctx, stopID)
	if err != nil {
		return nil, err
	}
	if stop.RouteID != routeID {
		return nil, domain.OwnershipError{Resource: "stop", ID: stopID}
	}
	return stop, nil
}

func (s *StopAdminService) validate(stop *models.Stop, existing []models.Stop) error {
	if err := stop.Validate(); err != nil {
		return domain.Validation(err)
	}
	for _, other := range existing {
		if other.ID == stop.ID {
			continue
		}
		if sameOrder(stop.MorningOrder, other.MorningOrder) {
			return domain.ValidationError{
				Field: "morning_order",
				Msg:   fmt.Sprintf("order %d is already used by %s", *stop.MorningOrder, other.Name),
			}
		}
		if sameOrder(stop.AfternoonOrder, other.AfternoonOrder) {
			return domain.ValidationError{
				Field: "afternoon_order",
				Msg:   fmt.Sprintf("order %d is already used by %s", *stop.AfternoonOrder, other.Name),
			}
		}
	}
	return nil
}

func sameOrder(a, b *int) bool {
	return a != nil && b != nil && *a == *b
}

func nextMorningOrder(stops []models.Stop) int {
	next := len(stops) + 1
	for _, st := range stops {
		if st.MorningOrder != nil && *st.MorningOrder >= next {
			next = *st.MorningOrder + 1
		}
	}
	return next
}
