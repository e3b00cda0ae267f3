package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ScheduleTimeNotSet is shown when a stop has no time for the requested slot and day
const ScheduleTimeNotSet = "not set"

var clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Stop is a physical pickup/dropoff point on a route.
// MorningOrder and AfternoonOrder are nil until a driver assigns them.
type Stop struct {
	ID                               string    `json:"id" db:"id"`
	RouteID                          string    `json:"route_id" db:"route_id"`
	Name                             string    `json:"name" db:"name"`
	Address                          string    `json:"address" db:"address"`
	MorningOrder                     *int      `json:"morning_order" db:"morning_order"`
	AfternoonOrder                   *int      `json:"afternoon_order" db:"afternoon_order"`
	MorningPickupTime                *string   `json:"morning_pickup_time" db:"morning_pickup_time"`
	AfternoonDropoffTime             *string   `json:"afternoon_dropoff_time" db:"afternoon_dropoff_time"`
	FridayMorningPickupTime          *string   `json:"friday_morning_pickup_time" db:"friday_morning_pickup_time"`
	FridayAfternoonDropoffTime       *string   `json:"friday_afternoon_dropoff_time" db:"friday_afternoon_dropoff_time"`
	EarlyReleaseMorningPickupTime    *string   `json:"early_release_morning_pickup_time" db:"early_release_morning_pickup_time"`
	EarlyReleaseAfternoonDropoffTime *string   `json:"early_release_afternoon_dropoff_time" db:"early_release_afternoon_dropoff_time"`
	CreatedAt                        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                        time.Time `json:"updated_at" db:"updated_at"`
}

// OrderFor returns the stop's position for the slot, or false when unassigned
func (s *Stop) OrderFor(slot TimeSlot) (int, bool) {
	var order *int
	if slot == TimeSlotAfternoon {
		order = s.AfternoonOrder
	} else {
		order = s.MorningOrder
	}
	if order == nil {
		return 0, false
	}
	return *order, true
}

// StopRequest carries the writable fields of a stop.
// On update, nil fields are left unchanged.
type StopRequest struct {
	Name                             *string `json:"name"`
	Address                          *string `json:"address"`
	MorningOrder                     *int    `json:"morning_order"`
	AfternoonOrder                   *int    `json:"afternoon_order"`
	MorningPickupTime                *string `json:"morning_pickup_time"`
	AfternoonDropoffTime             *string `json:"afternoon_dropoff_time"`
	FridayMorningPickupTime          *string `json:"friday_morning_pickup_time"`
	FridayAfternoonDropoffTime       *string `json:"friday_afternoon_dropoff_time"`
	EarlyReleaseMorningPickupTime    *string `json:"early_release_morning_pickup_time"`
	EarlyReleaseAfternoonDropoffTime *string `json:"early_release_afternoon_dropoff_time"`
}

// ApplyTo copies every non-nil field onto the stop. Empty time strings clear the time.
func (r *StopRequest) ApplyTo(s *Stop) {
	if r.Name != nil {
		s.Name = strings.TrimSpace(*r.Name)
	}
	if r.Address != nil {
		s.Address = strings.TrimSpace(*r.Address)
	}
	if r.MorningOrder != nil {
		v := *r.MorningOrder
		s.MorningOrder = &v
	}
	if r.AfternoonOrder != nil {
		v := *r.AfternoonOrder
		s.AfternoonOrder = &v
	}
	applyClock(&s.MorningPickupTime, r.MorningPickupTime)
	applyClock(&s.AfternoonDropoffTime, r.AfternoonDropoffTime)
	applyClock(&s.FridayMorningPickupTime, r.FridayMorningPickupTime)
	applyClock(&s.FridayAfternoonDropoffTime, r.FridayAfternoonDropoffTime)
	applyClock(&s.EarlyReleaseMorningPickupTime, r.EarlyReleaseMorningPickupTime)
	applyClock(&s.EarlyReleaseAfternoonDropoffTime, r.EarlyReleaseAfternoonDropoffTime)
}

func applyClock(dst **string, src *string) {
	if src == nil {
		return
	}
	v := strings.TrimSpace(*src)
	if v == "" {
		*dst = nil
		return
	}
	*dst = &v
}

// Validate checks a fully populated stop
func (s *Stop) Validate() error {
	if s.Name == "" {
		return errors.New("stop name is required")
	}
	if s.Address == "" {
		return errors.New("stop address is required")
	}
	if s.MorningOrder != nil && *s.MorningOrder < 1 {
		return errors.New("morning_order must be at least 1")
	}
	if s.AfternoonOrder != nil && *s.AfternoonOrder < 1 {
		return errors.New("afternoon_order must be at least 1")
	}

	clocks := map[string]*string{
		"morning_pickup_time":                  s.MorningPickupTime,
		"afternoon_dropoff_time":               s.AfternoonDropoffTime,
		"friday_morning_pickup_time":           s.FridayMorningPickupTime,
		"friday_afternoon_dropoff_time":        s.FridayAfternoonDropoffTime,
		"early_release_morning_pickup_time":    s.EarlyReleaseMorningPickupTime,
		"early_release_afternoon_dropoff_time": s.EarlyReleaseAfternoonDropoffTime,
	}
	for field, v := range clocks {
		if v != nil && !clockRegex.MatchString(*v) {
			return fmt.Errorf("%s must be HH:MM, got %q", field, *v)
		}
	}
	return nil
}
