package models

// ManifestStudent is one student expected at a stop
type ManifestStudent struct {
	BookingID  string `json:"booking_id"`
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Grade      string `json:"grade"`
	StopName   string `json:"stop_name"`
	IsPickedUp bool   `json:"is_picked_up"`
}

// ManifestStop groups the students boarding at one stop
type ManifestStop struct {
	Stop          Stop              `json:"stop"`
	ScheduleTime  string            `json:"schedule_time"`
	Students      []ManifestStudent `json:"students"`
	PickedUpCount int               `json:"picked_up_count"`
	IsComplete    bool              `json:"is_complete"`
	IsNext        bool              `json:"is_next"`
}

// Manifest is the driver-facing pickup list for one route, slot and date
type Manifest struct {
	RouteID       string         `json:"route_id"`
	RouteName     string         `json:"route_name"`
	Capacity      int            `json:"capacity"`
	TimeSlot      TimeSlot       `json:"time_slot"`
	Date          Date           `json:"date"`
	DayVariant    DayVariant     `json:"day_variant"`
	Stops         []ManifestStop `json:"stops"`
	TotalStudents int            `json:"total_students"`
	PickedUpCount int            `json:"picked_up_count"`
	NextStopID    *string        `json:"next_stop_id"`
}

// StudentIDs lists every student on the manifest in manifest order
func (m *Manifest) StudentIDs() []string {
	ids := make([]string, 0, m.TotalStudents)
	for _, stop := range m.Stops {
		for _, st := range stop.Students {
			ids = append(ids, st.StudentID)
		}
	}
	return ids
}

// ApplyPickupState overlays pickup flags and recomputes the per-stop
// counts, completion and the next-stop hint. Students absent from
// state are treated as not picked up. Stops without students are
// complete and never the next stop.
func (m *Manifest) ApplyPickupState(state map[string]bool) {
	m.TotalStudents = 0
	m.PickedUpCount = 0
	m.NextStopID = nil

	for i := range m.Stops {
		stop := &m.Stops[i]
		stop.PickedUpCount = 0
		for j := range stop.Students {
			picked := state[stop.Students[j].StudentID]
			stop.Students[j].IsPickedUp = picked
			if picked {
				stop.PickedUpCount++
			}
		}
		stop.IsComplete = stop.PickedUpCount == len(stop.Students)
		stop.IsNext = false

		m.TotalStudents += len(stop.Students)
		m.PickedUpCount += stop.PickedUpCount

		// Next stop: first in order that has students and none picked up yet
		if m.NextStopID == nil && len(stop.Students) > 0 && stop.PickedUpCount == 0 {
			id := stop.Stop.ID
			m.NextStopID = &id
			stop.IsNext = true
		}
	}
}

// AvailabilityLevel summarises how full a stop is for the booking UI
type AvailabilityLevel string

const (
	AvailabilityOpen    AvailabilityLevel = "open"
	AvailabilityLimited AvailabilityLevel = "limited"
	AvailabilityFull    AvailabilityLevel = "full"
)

// StopAvailability is the seat picture at one stop for a date and slot
type StopAvailability struct {
	Stop           Stop              `json:"stop"`
	ScheduleTime   string            `json:"schedule_time"`
	BookedSeats    int               `json:"booked_seats"`
	AvailableSeats int               `json:"available_seats"`
	IsBookable     bool              `json:"is_bookable"`
	Level          AvailabilityLevel `json:"level"`
}

// RouteAvailability lists stop availability in slot order
type RouteAvailability struct {
	Route      Route              `json:"route"`
	TimeSlot   TimeSlot           `json:"time_slot"`
	Date       Date               `json:"date"`
	DayVariant DayVariant         `json:"day_variant"`
	Stops      []StopAvailability `json:"stops"`
}

// PickupSessionKey identifies one driver's live pickup checklist
type PickupSessionKey struct {
	DriverID string
	RouteID  string
	Date     Date
	TimeSlot TimeSlot
}

// String renders the key as a storage key
func (k PickupSessionKey) String() string {
	return "pickup:" + k.DriverID + ":" + k.RouteID + ":" + k.Date.String() + ":" + string(k.TimeSlot)
}
