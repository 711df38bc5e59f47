package calendar

import (
	"fmt"
	"time"
)

// GregorianAdapter implements Adapter using standard calendar arithmetic.
// The week start is configurable.
type GregorianAdapter struct {
	loc       *time.Location
	weekStart time.Weekday
}

// NewGregorianAdapter creates a Gregorian adapter for a timezone and week
// start weekday.
func NewGregorianAdapter(loc *time.Location, weekStart time.Weekday) *GregorianAdapter {
	return &GregorianAdapter{loc: loc, weekStart: weekStart}
}

func (a *GregorianAdapter) Type() Type {
	return Gregorian
}

func (a *GregorianAdapter) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
}

func (a *GregorianAdapter) EndOfDay(t time.Time) time.Time {
	return a.StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (a *GregorianAdapter) StartOfWeek(t time.Time) time.Time {
	d := a.StartOfDay(t)
	back := (int(d.Weekday()) - int(a.weekStart) + 7) % 7
	return d.AddDate(0, 0, -back)
}

func (a *GregorianAdapter) EndOfWeek(t time.Time) time.Time {
	return a.StartOfWeek(t).AddDate(0, 0, 7).Add(-time.Nanosecond)
}

func (a *GregorianAdapter) StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.In(a.loc).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, a.loc)
}

func (a *GregorianAdapter) EndOfMonth(t time.Time) time.Time {
	return a.StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func (a *GregorianAdapter) StartOfYear(t time.Time) time.Time {
	return time.Date(t.In(a.loc).Year(), time.January, 1, 0, 0, 0, 0, a.loc)
}

func (a *GregorianAdapter) EndOfYear(t time.Time) time.Time {
	return a.StartOfYear(t).AddDate(1, 0, 0).Add(-time.Nanosecond)
}

func (a *GregorianAdapter) Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, a.loc)
}

func (a *GregorianAdapter) PeriodKey(t time.Time, g Granularity) string {
	d := t.In(a.loc)
	switch g {
	case Hourly:
		return d.Format("2006-01-02-15")
	case Daily:
		return d.Format("2006-01-02")
	case Weekly:
		year, week := d.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return d.Format("2006-01")
	case Yearly:
		return d.Format("2006")
	}
	panic(fmt.Sprintf("calendar: unsupported granularity %q", g))
}

func (a *GregorianAdapter) PeriodLabel(t time.Time, g Granularity) string {
	d := t.In(a.loc)
	switch g {
	case Hourly:
		return d.Format("Jan 02, 15:00")
	case Daily:
		return d.Format("Jan 02, 2006")
	case Weekly:
		year, week := d.ISOWeek()
		return fmt.Sprintf("Week %d, %d", week, year)
	case Monthly:
		return d.Format("January 2006")
	case Yearly:
		return d.Format("2006")
	}
	panic(fmt.Sprintf("calendar: unsupported granularity %q", g))
}
