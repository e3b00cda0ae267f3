package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a service date
const DateLayout = "2006-01-02"

// TimeSlot identifies one of the two daily runs of a route
type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
)

// Valid reports whether the slot is morning or afternoon
func (s TimeSlot) Valid() bool {
	return s == TimeSlotMorning || s == TimeSlotAfternoon
}

// DayVariant selects which of a stop's schedule-time sets applies on a date
type DayVariant string

const (
	DayVariantRegular      DayVariant = "regular"
	DayVariantFriday       DayVariant = "friday"
	DayVariantEarlyRelease DayVariant = "early_release"
)

// Valid reports whether the variant is known
func (v DayVariant) Valid() bool {
	switch v {
	case DayVariantRegular, DayVariantFriday, DayVariantEarlyRelease:
		return true
	}
	return false
}

// Date is a calendar day without a time-of-day component.
// The zero value means "no date".
type Date struct {
	t time.Time
}

// NewDate builds a Date from its parts
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of the date
func (d Date) Time() time.Time { return d.t }

// Weekday returns the day of the week
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// Before reports whether d is strictly earlier than o
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// Equal reports whether d and o are the same calendar day
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// AddDays returns the date n days later (or earlier for negative n)
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return json.Marshal(nil)
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
