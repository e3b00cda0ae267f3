package models

import "time"

// BookingEventType names a booking lifecycle transition
type BookingEventType string

const (
	BookingEventCreated   BookingEventType = "created"
	BookingEventCancelled BookingEventType = "cancelled"
)

// BookingEvent is published after a booking transition is committed
type BookingEvent struct {
	Type       BookingEventType `json:"type"`
	BookingID  string           `json:"booking_id"`
	StudentID  string           `json:"student_id"`
	RouteID    string           `json:"route_id"`
	StopID     string           `json:"stop_id"`
	Date       Date             `json:"date"`
	TimeSlot   TimeSlot         `json:"time_slot"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewBookingEvent builds an event from a booking
func NewBookingEvent(t BookingEventType, b *Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       t,
		BookingID:  b.ID,
		StudentID:  b.StudentID,
		RouteID:    b.RouteID,
		StopID:     b.StopID,
		Date:       b.Date,
		TimeSlot:   b.TimeSlot,
		OccurredAt: at.UTC(),
	}
}
