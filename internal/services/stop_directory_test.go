package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

func stopIDs(stops []models.Stop) []string {
	ids := make([]string, 0, len(stops))
	for _, s := range stops {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestListStopsForSlot_Ordering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	morning, err := f.directory().ListStopsForSlot(ctx, f.route.ID, models.TimeSlotMorning)
	require.NoError(t, err)
	assert.Equal(t, []string{"stop-n", "stop-c", "stop-s"}, stopIDs(morning))

	afternoon, err := f.directory().ListStopsForSlot(ctx, f.route.ID, models.TimeSlotAfternoon)
	require.NoError(t, err)
	assert.Equal(t, []string{"stop-s", "stop-c", "stop-n"}, stopIDs(afternoon))

	def, err := f.directory().ListStops(ctx, f.route.ID)
	require.NoError(t, err)
	assert.Equal(t, stopIDs(morning), stopIDs(def))
}

func TestSortStops_UnorderedLast(t *testing.T) {
	stops := []models.Stop{
		{ID: "z", Name: "Zeta"},
		{ID: "b", Name: "Beta", MorningOrder: intPtr(2)},
		{ID: "a2", Name: "Alpha"},
		{ID: "a1", Name: "Alpha"},
		{ID: "c", Name: "Gamma", MorningOrder: intPtr(1)},
	}
	SortStops(stops, models.TimeSlotMorning)
	assert.Equal(t, []string{"c", "b", "a1", "a2", "z"}, stopIDs(stops))

	// No afternoon orders at all: name then id
	SortStops(stops, models.TimeSlotAfternoon)
	assert.Equal(t, []string{"a1", "a2", "b", "c", "z"}, stopIDs(stops))
}

func TestScheduleTimeFor(t *testing.T) {
	f := newFixture(t)
	north, central, south := f.stops[0], f.stops[1], f.stops[2]

	tests := []struct {
		name    string
		stop    models.Stop
		slot    models.TimeSlot
		variant models.DayVariant
		want    string
	}{
		{"regular morning", north, models.TimeSlotMorning, models.DayVariantRegular, "07:30"},
		{"regular afternoon", north, models.TimeSlotAfternoon, models.DayVariantRegular, "15:45"},
		{"friday morning", north, models.TimeSlotMorning, models.DayVariantFriday, "07:35"},
		{"friday afternoon", north, models.TimeSlotAfternoon, models.DayVariantFriday, "14:45"},
		{"early release morning", north, models.TimeSlotMorning, models.DayVariantEarlyRelease, "07:40"},
		{"early release afternoon", north, models.TimeSlotAfternoon, models.DayVariantEarlyRelease, "13:45"},
		{"friday not configured", central, models.TimeSlotMorning, models.DayVariantFriday, models.ScheduleTimeNotSet},
		{"afternoon not configured", south, models.TimeSlotAfternoon, models.DayVariantRegular, models.ScheduleTimeNotSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScheduleTimeFor(tt.stop, tt.slot, tt.variant))
		})
	}

	empty := ""
	blank := models.Stop{MorningPickupTime: &empty}
	assert.Equal(t, models.ScheduleTimeNotSet, ScheduleTimeFor(blank, models.TimeSlotMorning, models.DayVariantRegular))
}

func TestDayVariantFor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir := f.directory()

	tuesday := models.NewDate(2026, time.March, 10)
	friday := models.NewDate(2026, time.March, 13)
	earlyFriday := models.NewDate(2026, time.March, 20)
	earlyWednesday := models.NewDate(2026, time.March, 25)
	require.NoError(t, f.store.AddEarlyReleaseDay(ctx, earlyFriday))
	require.NoError(t, f.store.AddEarlyReleaseDay(ctx, earlyWednesday))

	v, err := dir.DayVariantFor(ctx, tuesday)
	require.NoError(t, err)
	assert.Equal(t, models.DayVariantRegular, v)

	v, err = dir.DayVariantFor(ctx, friday)
	require.NoError(t, err)
	assert.Equal(t, models.DayVariantFriday, v)

	v, err = dir.DayVariantFor(ctx, earlyFriday)
	require.NoError(t, err)
	assert.Equal(t, models.DayVariantEarlyRelease, v)

	v, err = dir.DayVariantFor(ctx, earlyWednesday)
	require.NoError(t, err)
	assert.Equal(t, models.DayVariantEarlyRelease, v)

	// Without a calendar only Fridays are special
	plain := NewStopDirectory(f.store, nil)
	v, err = plain.DayVariantFor(ctx, earlyWednesday)
	require.NoError(t, err)
	assert.Equal(t, models.DayVariantRegular, v)
}
