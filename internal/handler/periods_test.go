package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/karnoweb/viewable/internal/calendar"
)

func periodsTestManager() *calendar.Manager {
	return calendar.NewManager(calendar.Gregorian, time.UTC, time.Monday)
}

func TestParsePeriod_Default(t *testing.T) {
	m := periodsTestManager()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	req := httptest.NewRequest("GET", "/v1/analytics/post/1", nil)
	period, err := parsePeriod(req, m, now)
	if err != nil {
		t.Fatalf("parsePeriod failed: %v", err)
	}

	if got := period.Days(); got != 30 {
		t.Errorf("expected 30 day default period, got %d", got)
	}
	if period.Granularity != calendar.Daily {
		t.Errorf("expected daily granularity, got %s", period.Granularity)
	}
}

func TestParsePeriod_Named(t *testing.T) {
	m := periodsTestManager()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		wantDays int
	}{
		{"today", 1},
		{"yesterday", 1},
		{"this_week", 7},
		{"last_week", 7},
		{"last_7_days", 7},
		{"last_30_days", 30},
		{"last_90_days", 90},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/v1/analytics/post/1?period="+tt.name, nil)
		period, err := parsePeriod(req, m, now)
		if err != nil {
			t.Fatalf("period %s failed: %v", tt.name, err)
		}
		if got := period.Days(); got != tt.wantDays {
			t.Errorf("period %s: expected %d days, got %d", tt.name, tt.wantDays, got)
		}
	}
}

func TestParsePeriod_Last24Hours(t *testing.T) {
	m := periodsTestManager()
	now := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)

	req := httptest.NewRequest("GET", "/?period=last_24_hours", nil)
	period, err := parsePeriod(req, m, now)
	if err != nil {
		t.Fatalf("parsePeriod failed: %v", err)
	}

	if period.Granularity != calendar.Hourly {
		t.Errorf("expected hourly granularity, got %s", period.Granularity)
	}
}

func TestParsePeriod_Unknown(t *testing.T) {
	m := periodsTestManager()

	req := httptest.NewRequest("GET", "/?period=fortnight", nil)
	if _, err := parsePeriod(req, m, time.Now()); err == nil {
		t.Fatal("expected error for unknown period name")
	}
}

func TestParsePeriod_JalaliMonth(t *testing.T) {
	m := periodsTestManager()

	req := httptest.NewRequest("GET", "/?jalali_month=1403-01", nil)
	period, err := parsePeriod(req, m, time.Now())
	if err != nil {
		t.Fatalf("parsePeriod failed: %v", err)
	}

	if period.Calendar != calendar.Jalali {
		t.Errorf("expected jalali calendar, got %s", period.Calendar)
	}
	if got := period.Days(); got != 31 {
		t.Errorf("expected 31 days in Farvardin 1403, got %d", got)
	}

	for _, bad := range []string{"1403", "1403-13", "1403-0", "garbage"} {
		req := httptest.NewRequest("GET", "/?jalali_month="+bad, nil)
		if _, err := parsePeriod(req, m, time.Now()); err == nil {
			t.Errorf("expected error for jalali_month=%s", bad)
		}
	}
}

func TestParsePeriod_DateRange(t *testing.T) {
	m := periodsTestManager()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	req := httptest.NewRequest("GET", "/?from=2024-01-01&to=2024-01-31", nil)
	period, err := parsePeriod(req, m, now)
	if err != nil {
		t.Fatalf("parsePeriod failed: %v", err)
	}

	if got := period.Days(); got != 31 {
		t.Errorf("expected 31 days, got %d", got)
	}
	if period.Start.Day() != 1 || period.Start.Month() != time.January {
		t.Errorf("unexpected start %v", period.Start)
	}

	req = httptest.NewRequest("GET", "/?from=2024-02-01&to=2024-01-01", nil)
	if _, err := parsePeriod(req, m, now); err == nil {
		t.Fatal("expected error when to precedes from")
	}
}

func TestParsePeriod_Overrides(t *testing.T) {
	m := periodsTestManager()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	req := httptest.NewRequest("GET", "/?period=this_month&calendar=jalali&granularity=weekly", nil)
	period, err := parsePeriod(req, m, now)
	if err != nil {
		t.Fatalf("parsePeriod failed: %v", err)
	}

	if period.Calendar != calendar.Jalali {
		t.Errorf("expected jalali calendar, got %s", period.Calendar)
	}
	if period.Granularity != calendar.Weekly {
		t.Errorf("expected weekly granularity, got %s", period.Granularity)
	}

	req = httptest.NewRequest("GET", "/?calendar=mayan", nil)
	if _, err := parsePeriod(req, m, now); err == nil {
		t.Fatal("expected error for unknown calendar")
	}
}

func TestParseScope(t *testing.T) {
	req := httptest.NewRequest("GET", "/?collection=homepage&branch=7", nil)
	collection, branchID, err := parseScope(req)
	if err != nil {
		t.Fatalf("parseScope failed: %v", err)
	}
	if collection == nil || *collection != "homepage" {
		t.Errorf("unexpected collection: %v", collection)
	}
	if branchID == nil || *branchID != 7 {
		t.Errorf("unexpected branch: %v", branchID)
	}

	// An explicitly empty collection filters for rows without one.
	req = httptest.NewRequest("GET", "/?collection=", nil)
	collection, branchID, err = parseScope(req)
	if err != nil {
		t.Fatalf("parseScope failed: %v", err)
	}
	if collection == nil || *collection != "" {
		t.Errorf("expected empty collection filter, got %v", collection)
	}
	if branchID != nil {
		t.Errorf("expected nil branch, got %v", branchID)
	}

	req = httptest.NewRequest("GET", "/?branch=abc", nil)
	if _, _, err := parseScope(req); err == nil {
		t.Fatal("expected error for non-numeric branch")
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 10},
		{"limit=5", 5},
		{"limit=500", 100},
		{"limit=0", 10},
		{"limit=abc", 10},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/?"+tt.query, nil)
		if got := parseLimit(req, 10, 100); got != tt.want {
			t.Errorf("query %q: expected limit %d, got %d", tt.query, tt.want, got)
		}
	}
}
