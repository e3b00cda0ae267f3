package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// EventPublisher announces committed booking transitions
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event models.BookingEvent) error
}

// Metrics records booking and pickup activity
type Metrics interface {
	BookingCreated(routeID string, slot models.TimeSlot)
	BookingRejected(reason string)
	BookingCancelled(routeID string, slot models.TimeSlot)
	PickupToggled(pickedUp bool)
}

type nopMetrics struct{}

func (nopMetrics) BookingCreated(string, models.TimeSlot)   {}
func (nopMetrics) BookingRejected(string)                   {}
func (nopMetrics) BookingCancelled(string, models.TimeSlot) {}
func (nopMetrics) PickupToggled(bool)                       {}

// Rejection reasons reported to Metrics
const (
	RejectValidation  = "validation"
	RejectNotFound    = "not_found"
	RejectOwnership   = "ownership"
	RejectDuplicate   = "duplicate"
	RejectFullyBooked = "fully_booked"
	RejectInternal    = "internal"
)

// BookingService is the only component that mutates bookings
type BookingService struct {
	bookings BookingStore
	students StudentStore
	routes   RouteStore
	stops    StopStore
	ledger   *CapacityLedger
	events   EventPublisher
	metrics  Metrics
	clock    Clock
	logger   logrus.FieldLogger
}

// NewBookingService creates a new BookingService. events and metrics may be nil.
func NewBookingService(
	bookings BookingStore,
	students StudentStore,
	routes RouteStore,
	stops StopStore,
	ledger *CapacityLedger,
	events EventPublisher,
	metrics Metrics,
	clock Clock,
	logger logrus.FieldLogger,
) *BookingService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &BookingService{
		bookings: bookings,
		students: students,
		routes:   routes,
		stops:    stops,
		ledger:   ledger,
		events:   events,
		metrics:  metrics,
		clock:    clock,
		logger:   logger,
	}
}

// CreateBooking reserves a seat for the parent's student
func (s *BookingService) CreateBooking(ctx context.Context, parentID string, req *models.CreateBookingRequest) (*models.Booking, error) {
	booking, err := s.createBooking(ctx, parentID, req)
	if err != nil {
		s.metrics.BookingRejected(rejectionReason(err))
		return nil, err
	}

	s.metrics.BookingCreated(booking.RouteID, booking.TimeSlot)
	s.publish(ctx, models.BookingEventCreated, booking)

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"student_id": booking.StudentID,
		"route_id":   booking.RouteID,
		"stop_id":    booking.StopID,
		"date":       booking.Date.String(),
		"time_slot":  booking.TimeSlot,
	}).Info("Booking confirmed")

	return booking, nil
}

func (s *BookingService) createBooking(ctx context.Context, parentID string, req *models.CreateBookingRequest) (*models.Booking, error) {
	date, err := req.Validate()
	if err != nil {
		return nil, domain.Validation(err)
	}
	if date.Before(s.clock.Today()) {
		return nil, domain.ValidationError{Field: "date", Msg: "cannot book a date in the past"}
	}

	student, err := s.students.GetStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !student.BelongsTo(parentID) {
		return nil, domain.OwnershipError{Resource: "student", ID: student.ID}
	}

	route, err := s.routes.GetRoute(ctx, req.RouteID)
	if err != nil {
		return nil, err
	}

	stop, err := s.stops.GetStop(ctx, req.StopID)
	if err != nil {
		return nil, err
	}
	if stop.RouteID != route.ID {
		return nil, domain.ValidationError{Field: "stop_id", Msg: "stop does not belong to route"}
	}

	already, err := s.bookings.HasConfirmedForStudent(ctx, student.ID, req.TimeSlot, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing bookings: %w", err)
	}
	if already {
		return nil, domain.InvalidStateError{
			Resource: "booking",
			Msg:      fmt.Sprintf("%s already has a %s booking on %s", student.Name, req.TimeSlot, date),
		}
	}

	// Fast path; the store re-checks under its own lock
	bookable, err := s.ledger.IsBookable(ctx, route, stop.ID, req.TimeSlot, date)
	if err != nil {
		return nil, err
	}
	if !bookable {
		return nil, capacityError(route, stop.ID, req.TimeSlot, date)
	}

	booking := &models.Booking{
		ID:        uuid.NewString(),
		StudentID: student.ID,
		RouteID:   route.ID,
		StopID:    stop.ID,
		Date:      date,
		TimeSlot:  req.TimeSlot,
		Status:    models.BookingStatusConfirmed,
		CreatedAt: s.clock.Now(),
	}
	if err := s.bookings.InsertIfAvailable(ctx, booking, route.Capacity); err != nil {
		if domain.IsCapacityExceeded(err) {
			return nil, capacityError(route, stop.ID, req.TimeSlot, date)
		}
		return nil, err
	}
	return booking, nil
}

// CancelBooking cancels one of the parent's confirmed bookings
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, parentID string) (*models.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	student, err := s.students.GetStudent(ctx, booking.StudentID)
	if err != nil {
		return nil, err
	}
	if !student.BelongsTo(parentID) {
		return nil, domain.OwnershipError{Resource: "booking", ID: booking.ID}
	}

	if !booking.CanBeCancelled() {
		return nil, domain.InvalidStateError{Resource: "booking", Msg: "booking is already cancelled"}
	}

	now := s.clock.Now()
	ok, err := s.bookings.CancelIfConfirmed(ctx, booking.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !ok {
		// Lost a race with another cancel
		return nil, domain.InvalidStateError{Resource: "booking", Msg: "booking is already cancelled"}
	}

	booking.Status = models.BookingStatusCancelled
	booking.CancelledAt = &now

	s.metrics.BookingCancelled(booking.RouteID, booking.TimeSlot)
	s.publish(ctx, models.BookingEventCancelled, booking)

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"parent_id":  parentID,
	}).Info("Booking cancelled")

	return booking, nil
}

// ListBookings returns the parent's bookings, newest first
func (s *BookingService) ListBookings(ctx context.Context, parentID string) ([]models.BookingDetails, error) {
	bookings, err := s.bookings.ListBookingsByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []models.BookingDetails{}
	}
	return bookings, nil
}

func (s *BookingService) publish(ctx context.Context, t models.BookingEventType, b *models.Booking) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBookingEvent(ctx, models.NewBookingEvent(t, b, s.clock.Now())); err != nil {
		s.logger.WithError(err).WithField("booking_id", b.ID).Warn("Failed to publish booking event")
	}
}

func capacityError(route *models.Route, stopID string, slot models.TimeSlot, date models.Date) error {
	return domain.CapacityExceededError{
		RouteID:  route.ID,
		StopID:   stopID,
		Date:     date.String(),
		TimeSlot: string(slot),
		Capacity: route.Capacity,
	}
}

func rejectionReason(err error) string {
	switch {
	case domain.IsValidation(err):
		return RejectValidation
	case domain.IsNotFound(err):
		return RejectNotFound
	case domain.IsOwnership(err):
		return RejectOwnership
	case domain.IsCapacityExceeded(err):
		return RejectFullyBooked
	case domain.IsInvalidState(err):
		return RejectDuplicate
	default:
		return RejectInternal
	}
}
