package services

import (
	"context"
	"time"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// Store interfaces consumed by the booking core. Lookups of a missing
// row must return a domain.NotFoundError so callers can surface it as-is.

// RouteStore reads routes
type RouteStore interface {
	ListRoutes(ctx context.Context) ([]models.Route, error)
	GetRoute(ctx context.Context, id string) (*models.Route, error)
}

// StopStore reads and writes the stops of a route
type StopStore interface {
	ListStopsByRoute(ctx context.Context, routeID string) ([]models.Stop, error)
	GetStop(ctx context.Context, id string) (*models.Stop, error)
	CreateStop(ctx context.Context, stop *models.Stop) error
	UpdateStop(ctx context.Context, stop *models.Stop) error
	DeleteStop(ctx context.Context, id string) error
}

// StudentStore reads and writes students
type StudentStore interface {
	ListStudentsByParent(ctx context.Context, parentID string) ([]models.Student, error)
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	GetStudentsByIDs(ctx context.Context, ids []string) ([]models.Student, error)
	CreateStudent(ctx context.Context, student *models.Student) error
}

// BookingStore is the single shared mutable resource of the core.
//
// InsertIfAvailable must make the confirmed-count check and the insert
// atomic with respect to other inserts into the same capacity pool, and
// return a domain.CapacityExceededError when the pool already holds
// capacity confirmed bookings.
//
// CancelIfConfirmed flips a confirmed booking to cancelled and reports
// false when the booking was not confirmed at the time of the update.
type BookingStore interface {
	CountConfirmed(ctx context.Context, key models.CapacityKey) (int, error)
	CountConfirmedByStop(ctx context.Context, routeID string, slot models.TimeSlot, date models.Date) (map[string]int, error)
	InsertIfAvailable(ctx context.Context, booking *models.Booking, capacity int) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CancelIfConfirmed(ctx context.Context, id string, at time.Time) (bool, error)
	ListBookingsByParent(ctx context.Context, parentID string) ([]models.BookingDetails, error)
	ListConfirmed(ctx context.Context, routeID string, slot models.TimeSlot, date models.Date) ([]models.Booking, error)
	HasConfirmedForStudent(ctx context.Context, studentID string, slot models.TimeSlot, date models.Date) (bool, error)
	CountUpcomingForStop(ctx context.Context, stopID string, from models.Date) (int, error)
}

// AssignmentStore answers which route a driver runs
type AssignmentStore interface {
	ListAssignments(ctx context.Context, driverID string) ([]models.DriverAssignment, error)
	AssignedRouteID(ctx context.Context, driverID string) (string, error)
}

// CalendarStore knows the school's early-release days
type CalendarStore interface {
	IsEarlyRelease(ctx context.Context, date models.Date) (bool, error)
}

// UserStore reads and writes parent and driver accounts
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	ListUsersByStatus(ctx context.Context, role models.UserRole, status models.AccountStatus) ([]models.User, error)
	UpdateUserStatus(ctx context.Context, id string, status models.AccountStatus) error
}

// Clock tells the service which calendar day it is
type Clock interface {
	Now() time.Time
	Today() models.Date
}

// SystemClock reads the wall clock in the service's time zone
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the service location
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Today returns the current calendar day in the service location
func (c SystemClock) Today() models.Date {
	return models.DateOf(c.Now())
}
