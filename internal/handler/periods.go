package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/karnoweb/viewable/internal/calendar"
)

// parsePeriod resolves the reporting period from query parameters.
// Supported forms, in precedence order:
//
//	period=today|yesterday|this_week|last_week|this_month|last_month|
//	       this_year|last_7_days|last_30_days|last_90_days|last_24_hours
//	jalali_month=1403-01, jalali_year=1403
//	from=2024-01-01&to=2024-01-31
//
// calendar= and granularity= override the period's defaults. With nothing
// given the period is the last 30 days.
func parsePeriod(r *http.Request, m *calendar.Manager, now time.Time) (calendar.Period, error) {
	q := r.URL.Query()
	var period calendar.Period

	switch {
	case q.Get("period") != "":
		p, err := namedPeriod(m, q.Get("period"), now)
		if err != nil {
			return calendar.Period{}, err
		}
		period = p
	case q.Get("jalali_month") != "":
		var year, month int
		if _, err := fmt.Sscanf(q.Get("jalali_month"), "%d-%d", &year, &month); err != nil || month < 1 || month > 12 {
			return calendar.Period{}, fmt.Errorf("invalid jalali_month %q", q.Get("jalali_month"))
		}
		period = m.JalaliMonth(year, month)
	case q.Get("jalali_year") != "":
		year, err := strconv.Atoi(q.Get("jalali_year"))
		if err != nil {
			return calendar.Period{}, fmt.Errorf("invalid jalali_year %q", q.Get("jalali_year"))
		}
		period = m.JalaliYear(year)
	case q.Get("from") != "" || q.Get("to") != "":
		from, to, err := parseDateRange(m, q.Get("from"), q.Get("to"), now)
		if err != nil {
			return calendar.Period{}, err
		}
		period = m.Between(from, to)
	default:
		period = m.LastNDays(now, 30)
	}

	if c := q.Get("calendar"); c != "" {
		parsed, err := calendar.ParseType(c)
		if err != nil {
			return calendar.Period{}, err
		}
		period = period.WithCalendar(parsed)
	}
	if g := q.Get("granularity"); g != "" {
		parsed, err := calendar.ParseGranularity(g)
		if err != nil {
			return calendar.Period{}, err
		}
		period = period.WithGranularity(parsed)
	}

	return period, nil
}

func namedPeriod(m *calendar.Manager, name string, now time.Time) (calendar.Period, error) {
	switch name {
	case "today":
		return m.Today(now), nil
	case "yesterday":
		return m.Yesterday(now), nil
	case "this_week":
		return m.ThisWeek(now), nil
	case "last_week":
		return m.LastWeek(now), nil
	case "this_month":
		return m.ThisMonth(now), nil
	case "last_month":
		return m.LastMonth(now), nil
	case "this_year":
		return m.ThisYear(now), nil
	case "last_7_days":
		return m.LastNDays(now, 7), nil
	case "last_30_days":
		return m.LastNDays(now, 30), nil
	case "last_90_days":
		return m.LastNDays(now, 90), nil
	case "last_24_hours":
		return m.LastNHours(now, 24), nil
	default:
		return calendar.Period{}, fmt.Errorf("unknown period %q", name)
	}
}

func parseDateRange(m *calendar.Manager, fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	gregorian := m.Adapter(calendar.Gregorian)
	from := gregorian.StartOfDay(now.AddDate(0, 0, -29))
	to := gregorian.EndOfDay(now)

	if fromStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", fromStr, m.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", fromStr)
		}
		from = gregorian.StartOfDay(parsed)
	}
	if toStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toStr, m.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", toStr)
		}
		to = gregorian.EndOfDay(parsed)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to date precedes from date")
	}
	return from, to, nil
}

// parseScope reads the optional collection and branch filters.
func parseScope(r *http.Request) (collection *string, branchID *int64, err error) {
	q := r.URL.Query()
	if q.Has("collection") {
		c := q.Get("collection")
		collection = &c
	}
	if b := q.Get("branch"); b != "" {
		id, parseErr := strconv.ParseInt(b, 10, 64)
		if parseErr != nil {
			return nil, nil, fmt.Errorf("invalid branch %q", b)
		}
		branchID = &id
	}
	return collection, branchID, nil
}

// parseLimit reads a bounded limit parameter with a default.
func parseLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
