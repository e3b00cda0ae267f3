package models

import (
	"errors"
	"time"
)

// DefaultRouteCapacity is the seat count of the standard shuttle van
const DefaultRouteCapacity = 14

// Route is a fixed shuttle run serving one area
type Route struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Area      string    `json:"area" db:"area"`
	Capacity  int       `json:"capacity" db:"capacity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RouteWithStops is a route together with its stops in display order
type RouteWithStops struct {
	Route
	Stops []Stop `json:"stops"`
}

// Validate checks the route's own fields
func (r *Route) Validate() error {
	if r.Name == "" {
		return errors.New("route name is required")
	}
	if r.Capacity <= 0 {
		return errors.New("capacity must be greater than 0")
	}
	return nil
}

// DriverAssignment binds a driver to a route for a time slot
type DriverAssignment struct {
	ID        string    `json:"id" db:"id"`
	DriverID  string    `json:"driver_id" db:"driver_id"`
	RouteID   string    `json:"route_id" db:"route_id"`
	TimeSlot  TimeSlot  `json:"time_slot" db:"time_slot"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
