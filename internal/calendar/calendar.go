// Package calendar provides period-boundary math and stable period
// identifiers for the two supported calendar systems.
package calendar

import (
	"fmt"
	"time"
)

// Type is the calendar system an adapter or period operates in.
type Type string

const (
	Gregorian Type = "gregorian"
	Jalali    Type = "jalali"
)

// Types lists every supported calendar system. Compression writes one
// aggregate row per entry.
var Types = []Type{Gregorian, Jalali}

// ParseType validates a calendar name from configuration or a request.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Gregorian, Jalali:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown calendar %q", s)
}

// Granularity is the bucket size of a period or series tick.
type Granularity string

const (
	Hourly  Granularity = "hourly"
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// ParseGranularity validates a granularity name from configuration or a
// request. Adapters themselves panic on unknown granularities: once past
// this check, an unsupported value is a programming error.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case Hourly, Daily, Weekly, Monthly, Yearly:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// Adapter is the per-calendar date math contract. All boundary methods are
// inclusive (startOfX(d) <= d <= endOfX(d)) and pure functions of the input
// date and the configured timezone.
type Adapter interface {
	Type() Type

	StartOfDay(t time.Time) time.Time
	EndOfDay(t time.Time) time.Time
	StartOfWeek(t time.Time) time.Time
	EndOfWeek(t time.Time) time.Time
	StartOfMonth(t time.Time) time.Time
	EndOfMonth(t time.Time) time.Time
	StartOfYear(t time.Time) time.Time
	EndOfYear(t time.Time) time.Time

	// Date builds midnight of the given day in this calendar's numbering.
	Date(year, month, day int) time.Time

	// PeriodKey returns a stable identifier for the period containing t,
	// lexically comparable within one calendar+granularity.
	PeriodKey(t time.Time, g Granularity) string

	// PeriodLabel returns a human-readable name for the period containing
	// t. Never used as a lookup key.
	PeriodLabel(t time.Time, g Granularity) string
}

// Manager holds the configured adapters and answers calendar lookups.
type Manager struct {
	def       Type
	loc       *time.Location
	gregorian *GregorianAdapter
	jalali    *JalaliAdapter
}

// NewManager builds a Manager for the given default calendar, timezone and
// Gregorian week start. The Jalali week start is fixed to Saturday.
func NewManager(def Type, loc *time.Location, weekStart time.Weekday) *Manager {
	return &Manager{
		def:       def,
		loc:       loc,
		gregorian: NewGregorianAdapter(loc, weekStart),
		jalali:    NewJalaliAdapter(loc),
	}
}

// Adapter returns the adapter for a calendar type.
func (m *Manager) Adapter(t Type) Adapter {
	switch t {
	case Gregorian:
		return m.gregorian
	case Jalali:
		return m.jalali
	}
	panic(fmt.Sprintf("calendar: no adapter for %q", t))
}

// Default returns the adapter for the configured default calendar.
func (m *Manager) Default() Adapter {
	return m.Adapter(m.def)
}

// DefaultType returns the configured default calendar type.
func (m *Manager) DefaultType() Type {
	return m.def
}

// Location returns the configured timezone.
func (m *Manager) Location() *time.Location {
	return m.loc
}

// Advance moves t forward by one granularity unit using the adapter's
// boundary math, so month and year steps have calendar-correct variable
// lengths.
func Advance(a Adapter, t time.Time, g Granularity) time.Time {
	switch g {
	case Hourly:
		return t.Add(time.Hour)
	case Daily:
		return t.AddDate(0, 0, 1)
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return a.EndOfMonth(t).Add(time.Nanosecond)
	case Yearly:
		return a.EndOfYear(t).Add(time.Nanosecond)
	}
	panic(fmt.Sprintf("calendar: cannot advance by granularity %q", g))
}
