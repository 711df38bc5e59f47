package calendar

import (
	"testing"
	"time"
)

func TestGregorianBoundariesContainDate(t *testing.T) {
	a := NewGregorianAdapter(time.UTC, time.Monday)

	dates := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 12, 30, 0, 0, time.UTC), // leap day
		time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2025, 6, 15, 8, 45, 12, 0, time.UTC),
	}

	type span struct {
		name  string
		start func(time.Time) time.Time
		end   func(time.Time) time.Time
	}
	spans := []span{
		{"day", a.StartOfDay, a.EndOfDay},
		{"week", a.StartOfWeek, a.EndOfWeek},
		{"month", a.StartOfMonth, a.EndOfMonth},
		{"year", a.StartOfYear, a.EndOfYear},
	}

	for _, d := range dates {
		for _, s := range spans {
			start, end := s.start(d), s.end(d)
			if start.After(d) || end.Before(d) {
				t.Fatalf("%s bounds [%v, %v] do not contain %v", s.name, start, end, d)
			}
			// boundaries are stable under repeated application
			if !s.start(start).Equal(start) {
				t.Fatalf("startOf%s not idempotent for %v", s.name, d)
			}
			if !s.end(end).Equal(end) {
				t.Fatalf("endOf%s not idempotent for %v", s.name, d)
			}
		}
		if a.StartOfMonth(d).After(a.StartOfDay(d)) {
			t.Fatalf("startOfMonth after startOfDay for %v", d)
		}
		if a.EndOfDay(d).After(a.EndOfMonth(d)) {
			t.Fatalf("endOfDay after endOfMonth for %v", d)
		}
	}
}

func TestGregorianWeekStart(t *testing.T) {
	// Wednesday June 12 2024
	d := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

	monday := NewGregorianAdapter(time.UTC, time.Monday)
	if got := monday.StartOfWeek(d); got.Day() != 10 {
		t.Fatalf("expected Monday June 10, got %v", got)
	}

	saturday := NewGregorianAdapter(time.UTC, time.Saturday)
	if got := saturday.StartOfWeek(d); got.Day() != 8 {
		t.Fatalf("expected Saturday June 8, got %v", got)
	}
	if got := saturday.EndOfWeek(d); got.Day() != 14 {
		t.Fatalf("expected Friday June 14, got %v", got)
	}
}

func TestGregorianPeriodKeys(t *testing.T) {
	a := NewGregorianAdapter(time.UTC, time.Monday)
	d := time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		g    Granularity
		want string
	}{
		{Hourly, "2024-01-15-13"},
		{Daily, "2024-01-15"},
		{Weekly, "2024-W03"},
		{Monthly, "2024-01"},
		{Yearly, "2024"},
	}

	for _, tt := range tests {
		if got := a.PeriodKey(d, tt.g); got != tt.want {
			t.Fatalf("%s key: expected %q, got %q", tt.g, tt.want, got)
		}
	}
}

func TestGregorianKeysSortWithinGranularity(t *testing.T) {
	a := NewGregorianAdapter(time.UTC, time.Monday)

	prev := ""
	d := time.Date(2023, 11, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 90; i++ {
		key := a.PeriodKey(d, Daily)
		if key <= prev {
			t.Fatalf("daily keys not strictly increasing: %q then %q", prev, key)
		}
		prev = key
		d = d.AddDate(0, 0, 1)
	}
}

func TestPeriodKeyPanicsOnUnknownGranularity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown granularity")
		}
	}()

	a := NewGregorianAdapter(time.UTC, time.Monday)
	a.PeriodKey(time.Now(), Granularity("decade"))
}
