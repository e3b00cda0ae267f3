package models

import (
	"errors"
	"strings"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking reserves one seat for a student at a stop on a route, for one date and slot
type Booking struct {
	ID          string        `json:"id" db:"id"`
	StudentID   string        `json:"student_id" db:"student_id"`
	RouteID     string        `json:"route_id" db:"route_id"`
	StopID      string        `json:"stop_id" db:"stop_id"`
	Date        Date          `json:"date" db:"service_date"`
	TimeSlot    TimeSlot      `json:"time_slot" db:"time_slot"`
	Status      BookingStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
}

// BookingDetails is a booking joined with the names a parent needs to see
type BookingDetails struct {
	Booking
	StudentName string `json:"student_name" db:"student_name"`
	RouteName   string `json:"route_name" db:"route_name"`
	StopName    string `json:"stop_name" db:"stop_name"`
	StopAddress string `json:"stop_address" db:"stop_address"`
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	StudentID string   `json:"student_id" binding:"required"`
	RouteID   string   `json:"route_id" binding:"required"`
	StopID    string   `json:"stop_id" binding:"required"`
	Date      string   `json:"date" binding:"required"`
	TimeSlot  TimeSlot `json:"time_slot" binding:"required"`
}

// Validate validates the create booking request and returns the parsed date
func (r *CreateBookingRequest) Validate() (Date, error) {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.RouteID = strings.TrimSpace(r.RouteID)
	r.StopID = strings.TrimSpace(r.StopID)

	if r.StudentID == "" || r.RouteID == "" || r.StopID == "" {
		return Date{}, errors.New("student_id, route_id and stop_id are required")
	}
	if !r.TimeSlot.Valid() {
		return Date{}, errors.New("time_slot must be morning or afternoon")
	}
	return ParseDate(r.Date)
}

// CanBeCancelled checks if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == BookingStatusConfirmed
}

// IsConfirmed reports whether the booking holds a seat
func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// CapacityKey identifies the seat pool a booking draws from
func (b *Booking) CapacityKey() CapacityKey {
	return CapacityKey{RouteID: b.RouteID, StopID: b.StopID, Date: b.Date, TimeSlot: b.TimeSlot}
}

// CapacityKey identifies one independently counted seat pool
type CapacityKey struct {
	RouteID  string
	StopID   string
	Date     Date
	TimeSlot TimeSlot
}

// String renders the key in a stable form usable as a lock name
func (k CapacityKey) String() string {
	return k.RouteID + "|" + k.StopID + "|" + k.Date.String() + "|" + string(k.TimeSlot)
}
