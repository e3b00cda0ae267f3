package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// StopDirectory exposes the ordered stops of a route and their schedule times
type StopDirectory struct {
	stops    StopStore
	calendar CalendarStore
}

// NewStopDirectory creates a new StopDirectory
func NewStopDirectory(stops StopStore, calendar CalendarStore) *StopDirectory {
	return &StopDirectory{stops: stops, calendar: calendar}
}

// ListStops returns the route's stops in morning order
func (d *StopDirectory) ListStops(ctx context.Context, routeID string) ([]models.Stop, error) {
	return d.ListStopsForSlot(ctx, routeID, models.TimeSlotMorning)
}

// ListStopsForSlot returns the route's stops ordered for the slot
func (d *StopDirectory) ListStopsForSlot(ctx context.Context, routeID string, slot models.TimeSlot) ([]models.Stop, error) {
	stops, err := d.stops.ListStopsByRoute(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}
	SortStops(stops, slot)
	return stops, nil
}

// SortStops orders stops by the slot's order key. Stops without an order
// for the slot sort after every ordered stop; ties break on name then id.
func SortStops(stops []models.Stop, slot models.TimeSlot) {
	sort.SliceStable(stops, func(i, j int) bool {
		oi, iok := stops[i].OrderFor(slot)
		oj, jok := stops[j].OrderFor(slot)
		if iok != jok {
			return iok
		}
		if iok && oi != oj {
			return oi < oj
		}
		if stops[i].Name != stops[j].Name {
			return stops[i].Name < stops[j].Name
		}
		return stops[i].ID < stops[j].ID
	})
}

// ScheduleTimeFor picks the stop's time for the slot and day variant,
// or models.ScheduleTimeNotSet when that time was never configured.
func ScheduleTimeFor(stop models.Stop, slot models.TimeSlot, variant models.DayVariant) string {
	var t *string
	switch variant {
	case models.DayVariantFriday:
		t = pickSlot(slot, stop.FridayMorningPickupTime, stop.FridayAfternoonDropoffTime)
	case models.DayVariantEarlyRelease:
		t = pickSlot(slot, stop.EarlyReleaseMorningPickupTime, stop.EarlyReleaseAfternoonDropoffTime)
	default:
		t = pickSlot(slot, stop.MorningPickupTime, stop.AfternoonDropoffTime)
	}
	if t == nil || *t == "" {
		return models.ScheduleTimeNotSet
	}
	return *t
}

func pickSlot(slot models.TimeSlot, morning, afternoon *string) *string {
	if slot == models.TimeSlotAfternoon {
		return afternoon
	}
	return morning
}

// DayVariantFor decides which schedule applies on a date.
// Early release wins over Friday.
func (d *StopDirectory) DayVariantFor(ctx context.Context, date models.Date) (models.DayVariant, error) {
	if d.calendar != nil {
		early, err := d.calendar.IsEarlyRelease(ctx, date)
		if err != nil {
			return "", fmt.Errorf("failed to check early release calendar: %w", err)
		}
		if early {
			return models.DayVariantEarlyRelease, nil
		}
	}
	if date.Weekday() == time.Friday {
		return models.DayVariantFriday, nil
	}
	return models.DayVariantRegular, nil
}
