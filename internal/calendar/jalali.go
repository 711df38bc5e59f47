package calendar

import (
	"fmt"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// jalaliMonthNames are the Persian month names used in period labels.
var jalaliMonthNames = [13]string{
	"", // months are 1-based
	"فروردین",
	"اردیبهشت",
	"خرداد",
	"تیر",
	"مرداد",
	"شهریور",
	"مهر",
	"آبان",
	"آذر",
	"دی",
	"بهمن",
	"اسفند",
}

// JalaliAdapter implements Adapter for the Iranian lunisolar calendar.
// Conversions go through the Gregorian instant; the week always starts on
// Saturday, independent of the configured Gregorian week start.
type JalaliAdapter struct {
	loc *time.Location
}

// NewJalaliAdapter creates a Jalali adapter for a timezone.
func NewJalaliAdapter(loc *time.Location) *JalaliAdapter {
	return &JalaliAdapter{loc: loc}
}

func (a *JalaliAdapter) Type() Type {
	return Jalali
}

// jalali converts an instant to its Jalali date in the adapter timezone.
func (a *JalaliAdapter) jalali(t time.Time) ptime.Time {
	return ptime.New(t.In(a.loc))
}

func (a *JalaliAdapter) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
}

func (a *JalaliAdapter) EndOfDay(t time.Time) time.Time {
	return a.StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (a *JalaliAdapter) StartOfWeek(t time.Time) time.Time {
	d := a.StartOfDay(t)
	back := (int(d.Weekday()) - int(time.Saturday) + 7) % 7
	return d.AddDate(0, 0, -back)
}

func (a *JalaliAdapter) EndOfWeek(t time.Time) time.Time {
	return a.StartOfWeek(t).AddDate(0, 0, 7).Add(-time.Nanosecond)
}

func (a *JalaliAdapter) StartOfMonth(t time.Time) time.Time {
	j := a.jalali(t)
	return a.Date(j.Year(), int(j.Month()), 1)
}

func (a *JalaliAdapter) EndOfMonth(t time.Time) time.Time {
	j := a.jalali(t)
	last := a.Date(j.Year(), int(j.Month()), monthDays(j.Year(), int(j.Month())))
	return a.EndOfDay(last)
}

func (a *JalaliAdapter) StartOfYear(t time.Time) time.Time {
	return a.Date(a.jalali(t).Year(), 1, 1)
}

func (a *JalaliAdapter) EndOfYear(t time.Time) time.Time {
	year := a.jalali(t).Year()
	return a.EndOfDay(a.Date(year, 12, monthDays(year, 12)))
}

func (a *JalaliAdapter) Date(year, month, day int) time.Time {
	return ptime.Date(year, ptime.Month(month), day, 0, 0, 0, 0, a.loc).Time()
}

func (a *JalaliAdapter) PeriodKey(t time.Time, g Granularity) string {
	j := a.jalali(t)
	switch g {
	case Hourly:
		return fmt.Sprintf("%d-%02d-%02d-%02d", j.Year(), int(j.Month()), j.Day(), t.In(a.loc).Hour())
	case Daily:
		return fmt.Sprintf("%d-%02d-%02d", j.Year(), int(j.Month()), j.Day())
	case Weekly:
		return fmt.Sprintf("%d-W%02d", j.Year(), a.weekOfYear(j))
	case Monthly:
		return fmt.Sprintf("%d-%02d", j.Year(), int(j.Month()))
	case Yearly:
		return fmt.Sprintf("%d", j.Year())
	}
	panic(fmt.Sprintf("calendar: unsupported granularity %q", g))
}

func (a *JalaliAdapter) PeriodLabel(t time.Time, g Granularity) string {
	j := a.jalali(t)
	month := jalaliMonthNames[int(j.Month())]
	switch g {
	case Hourly:
		return fmt.Sprintf("%d %s، ساعت %02d", j.Day(), month, t.In(a.loc).Hour())
	case Daily:
		return fmt.Sprintf("%d %s %d", j.Day(), month, j.Year())
	case Weekly:
		return fmt.Sprintf("هفته %d، %d", a.weekOfYear(j), j.Year())
	case Monthly:
		return fmt.Sprintf("%s %d", month, j.Year())
	case Yearly:
		return fmt.Sprintf("%d", j.Year())
	}
	panic(fmt.Sprintf("calendar: unsupported granularity %q", g))
}

// weekOfYear numbers Saturday-started weeks from Farvardin 1.
func (a *JalaliAdapter) weekOfYear(j ptime.Time) int {
	yearDay := j.Day()
	for m := 1; m < int(j.Month()); m++ {
		yearDay += monthDays(j.Year(), m)
	}

	farvardin1 := a.Date(j.Year(), 1, 1)
	offset := (int(farvardin1.Weekday()) - int(time.Saturday) + 7) % 7

	return (yearDay-1+offset)/7 + 1
}

// monthDays returns the length of a Jalali month: the first six months have
// 31 days, the next five have 30, and Esfand has 29 or 30 in a leap year.
func monthDays(year, month int) int {
	switch {
	case month <= 6:
		return 31
	case month <= 11:
		return 30
	default:
		if isLeapYear(year) {
			return 30
		}
		return 29
	}
}

func isLeapYear(year int) bool {
	return ptime.Date(year, ptime.Farvardin, 1, 0, 0, 0, 0, ptime.Iran()).IsLeap()
}
