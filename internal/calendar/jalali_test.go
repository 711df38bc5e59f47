package calendar

import (
	"testing"
	"time"
)

func TestJalaliDateConversion(t *testing.T) {
	a := NewJalaliAdapter(time.UTC)

	// Nowruz 1403 fell on March 20, 2024.
	nowruz := a.Date(1403, 1, 1)
	if y, m, d := nowruz.Date(); y != 2024 || m != time.March || d != 20 {
		t.Fatalf("expected 1403-01-01 to be 2024-03-20, got %v", nowruz)
	}
}

func TestJalaliPeriodKeyRoundTrip(t *testing.T) {
	a := NewJalaliAdapter(time.UTC)

	dates := []time.Time{
		time.Date(2024, 3, 19, 15, 0, 0, 0, time.UTC), // last day of 1402
		time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC), // Nowruz 1403
		time.Date(2024, 8, 1, 0, 30, 0, 0, time.UTC),
		time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC),
	}

	for _, d := range dates {
		j := a.jalali(d)
		back := a.Date(j.Year(), int(j.Month()), j.Day())

		if !a.StartOfDay(back).Equal(a.StartOfDay(d)) {
			t.Fatalf("round trip of %v landed on different day: %v", d, back)
		}
	}
}

func TestJalaliMonthDays(t *testing.T) {
	tests := []struct {
		year, month, want int
	}{
		{1403, 1, 31},  // Farvardin
		{1403, 6, 31},  // Shahrivar, last 31-day month
		{1403, 7, 30},  // Mehr
		{1403, 11, 30}, // Bahman
		{1403, 12, 30}, // Esfand in a leap year
		{1402, 12, 29}, // Esfand in a common year
	}

	for _, tt := range tests {
		if got := monthDays(tt.year, tt.month); got != tt.want {
			t.Fatalf("monthDays(%d, %d): expected %d, got %d", tt.year, tt.month, tt.want, got)
		}
	}
}

func TestJalaliBoundariesContainDate(t *testing.T) {
	a := NewJalaliAdapter(time.UTC)

	dates := []time.Time{
		time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 9, 10, 6, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 19, 23, 0, 0, 0, time.UTC),
	}

	for _, d := range dates {
		if a.StartOfMonth(d).After(d) || a.EndOfMonth(d).Before(d) {
			t.Fatalf("month bounds do not contain %v", d)
		}
		if a.StartOfYear(d).After(d) || a.EndOfYear(d).Before(d) {
			t.Fatalf("year bounds do not contain %v", d)
		}
		if a.StartOfWeek(d).After(d) || a.EndOfWeek(d).Before(d) {
			t.Fatalf("week bounds do not contain %v", d)
		}
	}
}

func TestJalaliWeekStartsSaturday(t *testing.T) {
	a := NewJalaliAdapter(time.UTC)

	// Wednesday June 12 2024
	d := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	start := a.StartOfWeek(d)
	if start.Weekday() != time.Saturday {
		t.Fatalf("expected week to start on Saturday, got %v", start.Weekday())
	}
	if start.Day() != 8 {
		t.Fatalf("expected Saturday June 8, got %v", start)
	}
}

func TestJalaliPeriodKeys(t *testing.T) {
	a := NewJalaliAdapter(time.UTC)

	// 2024-03-20 = 1403-01-01
	d := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

	if got := a.PeriodKey(d, Daily); got != "1403-01-01" {
		t.Fatalf("expected daily key 1403-01-01, got %q", got)
	}
	if got := a.PeriodKey(d, Monthly); got != "1403-01" {
		t.Fatalf("expected monthly key 1403-01, got %q", got)
	}
	if got := a.PeriodKey(d, Yearly); got != "1403" {
		t.Fatalf("expected yearly key 1403, got %q", got)
	}
	if got := a.PeriodKey(d, Hourly); got != "1403-01-01-09" {
		t.Fatalf("expected hourly key 1403-01-01-09, got %q", got)
	}
}

func TestJalaliEndOfYearLeap(t *testing.T) {
	a := NewJalaliAdapter(time.UTC)

	// 1403 is a leap year: Esfand 30, 1403 is the last day.
	end := a.EndOfYear(a.Date(1403, 1, 1))
	j := a.jalali(end)
	if int(j.Month()) != 12 || j.Day() != 30 {
		t.Fatalf("expected 1403 to end on Esfand 30, got %d-%d", int(j.Month()), j.Day())
	}

	// 1402 is a common year: Esfand 29.
	end = a.EndOfYear(a.Date(1402, 1, 1))
	j = a.jalali(end)
	if int(j.Month()) != 12 || j.Day() != 29 {
		t.Fatalf("expected 1402 to end on Esfand 29, got %d-%d", int(j.Month()), j.Day())
	}
}
