package calendar

import "time"

// Period is a bounded date range with a reporting granularity and the
// calendar its keys and labels resolve through. Start and End are inclusive
// instants; Start <= End always holds for manager-built periods.
type Period struct {
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Calendar    Type        `json:"calendar"`
	Granularity Granularity `json:"granularity"`
}

// PeriodDescriptor is the serializable description of a period, with the
// label and key resolved through the period's calendar adapter.
type PeriodDescriptor struct {
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Calendar    Type        `json:"calendar"`
	Granularity Granularity `json:"granularity"`
	Label       string      `json:"label"`
	Key         string      `json:"key"`
	Days        int         `json:"days"`
}

// Days returns the inclusive number of days covered by the period.
func (p Period) Days() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// PreviousPeriod returns the window of equal day length immediately
// preceding this one, ending the instant before Start. Used as the growth
// comparison baseline regardless of granularity.
func (p Period) PreviousPeriod() Period {
	return Period{
		Start:       p.Start.AddDate(0, 0, -p.Days()),
		End:         p.Start.Add(-time.Nanosecond),
		Calendar:    p.Calendar,
		Granularity: p.Granularity,
	}
}

// WithCalendar returns a copy of the period resolving through a different
// calendar. The underlying instants do not change.
func (p Period) WithCalendar(t Type) Period {
	p.Calendar = t
	return p
}

// WithGranularity returns a copy of the period with a different tick size.
func (p Period) WithGranularity(g Granularity) Period {
	p.Granularity = g
	return p
}

// Describe resolves the period's label and key via its calendar adapter.
// Label and key describe the period start, for display of the period
// itself; series points carry their own per-tick labels.
func (m *Manager) Describe(p Period) PeriodDescriptor {
	a := m.Adapter(p.Calendar)
	return PeriodDescriptor{
		Start:       p.Start,
		End:         p.End,
		Calendar:    p.Calendar,
		Granularity: p.Granularity,
		Label:       a.PeriodLabel(p.Start, p.Granularity),
		Key:         a.PeriodKey(p.Start, p.Granularity),
		Days:        p.Days(),
	}
}

// Today is the current calendar day.
func (m *Manager) Today(now time.Time) Period {
	a := m.gregorian
	return Period{Start: a.StartOfDay(now), End: a.EndOfDay(now), Calendar: m.def, Granularity: Daily}
}

// Yesterday is the day before the current one.
func (m *Manager) Yesterday(now time.Time) Period {
	return m.Today(now.AddDate(0, 0, -1))
}

// ThisWeek is the week containing now, honoring the configured week start.
func (m *Manager) ThisWeek(now time.Time) Period {
	a := m.gregorian
	return Period{Start: a.StartOfWeek(now), End: a.EndOfWeek(now), Calendar: m.def, Granularity: Daily}
}

// LastWeek is the week before the one containing now.
func (m *Manager) LastWeek(now time.Time) Period {
	return m.ThisWeek(now.AddDate(0, 0, -7))
}

// ThisMonth is the Gregorian month containing now.
func (m *Manager) ThisMonth(now time.Time) Period {
	a := m.gregorian
	return Period{Start: a.StartOfMonth(now), End: a.EndOfMonth(now), Calendar: m.def, Granularity: Daily}
}

// LastMonth is the Gregorian month before the one containing now.
func (m *Manager) LastMonth(now time.Time) Period {
	prev := m.gregorian.StartOfMonth(now).AddDate(0, 0, -1)
	return m.ThisMonth(prev)
}

// ThisYear is the Gregorian year containing now, ticked monthly.
func (m *Manager) ThisYear(now time.Time) Period {
	a := m.gregorian
	return Period{Start: a.StartOfYear(now), End: a.EndOfYear(now), Calendar: m.def, Granularity: Monthly}
}

// LastNDays covers the n calendar days ending today.
func (m *Manager) LastNDays(now time.Time, n int) Period {
	a := m.gregorian
	return Period{
		Start:       a.StartOfDay(now.AddDate(0, 0, -(n - 1))),
		End:         a.EndOfDay(now),
		Calendar:    m.def,
		Granularity: Daily,
	}
}

// LastNHours covers the n hours ending now, ticked hourly.
func (m *Manager) LastNHours(now time.Time, n int) Period {
	return Period{
		Start:       now.Add(-time.Duration(n) * time.Hour),
		End:         now,
		Calendar:    m.def,
		Granularity: Hourly,
	}
}

// Between covers an arbitrary inclusive range, ticked daily.
func (m *Manager) Between(start, end time.Time) Period {
	return Period{Start: start, End: end, Calendar: m.def, Granularity: Daily}
}

// JalaliMonth is one month of the Jalali calendar, ticked daily.
func (m *Manager) JalaliMonth(year, month int) Period {
	start := m.jalali.Date(year, month, 1)
	return Period{
		Start:       start,
		End:         m.jalali.EndOfMonth(start),
		Calendar:    Jalali,
		Granularity: Daily,
	}
}

// JalaliYear is one year of the Jalali calendar, ticked monthly.
func (m *Manager) JalaliYear(year int) Period {
	start := m.jalali.Date(year, 1, 1)
	return Period{
		Start:       start,
		End:         m.jalali.EndOfYear(start),
		Calendar:    Jalali,
		Granularity: Monthly,
	}
}
