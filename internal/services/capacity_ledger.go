package services

import (
	"context"
	"fmt"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// limitedSeatsThreshold is the highest seat count still shown as "limited"
const limitedSeatsThreshold = 2

// CapacityLedger answers seat questions for a (route, stop, date, slot) pool.
// Capacity is the route's capacity applied independently to each stop.
type CapacityLedger struct {
	routes    RouteStore
	bookings  BookingStore
	directory *StopDirectory
}

// NewCapacityLedger creates a new CapacityLedger
func NewCapacityLedger(routes RouteStore, bookings BookingStore, directory *StopDirectory) *CapacityLedger {
	return &CapacityLedger{
		routes:    routes,
		bookings:  bookings,
		directory: directory,
	}
}

// AvailableSeats returns capacity minus confirmed bookings, never below zero
func (l *CapacityLedger) AvailableSeats(ctx context.Context, route *models.Route, stopID string, slot models.TimeSlot, date models.Date) (int, error) {
	booked, err := l.bookings.CountConfirmed(ctx, models.CapacityKey{
		RouteID:  route.ID,
		StopID:   stopID,
		Date:     date,
		TimeSlot: slot,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}
	return seatsLeft(route.Capacity, booked), nil
}

// IsBookable reports whether at least one seat is left
func (l *CapacityLedger) IsBookable(ctx context.Context, route *models.Route, stopID string, slot models.TimeSlot, date models.Date) (bool, error) {
	left, err := l.AvailableSeats(ctx, route, stopID, slot, date)
	if err != nil {
		return false, err
	}
	return left > 0, nil
}

// RouteAvailability lists every stop of the route in slot order with its
// schedule time for the date and the seats still free.
func (l *CapacityLedger) RouteAvailability(ctx context.Context, routeID string, slot models.TimeSlot, date models.Date) (*models.RouteAvailability, error) {
	route, err := l.routes.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	stops, err := l.directory.ListStopsForSlot(ctx, routeID, slot)
	if err != nil {
		return nil, err
	}

	variant, err := l.directory.DayVariantFor(ctx, date)
	if err != nil {
		return nil, err
	}

	booked, err := l.bookings.CountConfirmedByStop(ctx, routeID, slot, date)
	if err != nil {
		return nil, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}

	result := &models.RouteAvailability{
		Route:      *route,
		TimeSlot:   slot,
		Date:       date,
		DayVariant: variant,
		Stops:      make([]models.StopAvailability, 0, len(stops)),
	}
	for _, stop := range stops {
		left := seatsLeft(route.Capacity, booked[stop.ID])
		result.Stops = append(result.Stops, models.StopAvailability{
			Stop:           stop,
			ScheduleTime:   ScheduleTimeFor(stop, slot, variant),
			BookedSeats:    booked[stop.ID],
			AvailableSeats: left,
			IsBookable:     left > 0,
			Level:          AvailabilityLevelFor(left),
		})
	}
	return result, nil
}

// AvailabilityLevelFor buckets a seat count for display
func AvailabilityLevelFor(available int) models.AvailabilityLevel {
	switch {
	case available <= 0:
		return models.AvailabilityFull
	case available <= limitedSeatsThreshold:
		return models.AvailabilityLimited
	default:
		return models.AvailabilityOpen
	}
}

func seatsLeft(capacity, booked int) int {
	if booked >= capacity {
		return 0
	}
	return capacity - booked
}
