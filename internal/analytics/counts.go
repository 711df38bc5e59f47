package analytics

import (
	"context"
	"time"

	"github.com/karnoweb/viewable/internal/calendar"
	"github.com/karnoweb/viewable/internal/model"
)

// ViewsCount returns the total view count for an entity. A nil period
// means all time.
func (e *Engine) ViewsCount(ctx context.Context, q Query, period *calendar.Period, now time.Time) (int64, error) {
	counts, err := e.counts(ctx, q, period, now)
	if err != nil {
		return 0, err
	}
	return counts.Total, nil
}

// UniqueViewsCount returns the unique visitor count for an entity. A nil
// period means all time; uniques are summed per stored day, so a visitor
// returning on another day counts again.
func (e *Engine) UniqueViewsCount(ctx context.Context, q Query, period *calendar.Period, now time.Time) (int64, error) {
	counts, err := e.counts(ctx, q, period, now)
	if err != nil {
		return 0, err
	}
	return counts.Unique, nil
}

func (e *Engine) counts(ctx context.Context, q Query, period *calendar.Period, now time.Time) (model.Counts, error) {
	started := time.Now()
	defer func() { e.recorder.ObserveAnalyticsQueryDuration(time.Since(started)) }()

	cal := e.calendars.DefaultType()
	start, end := time.Time{}, now
	if period != nil {
		cal = period.Calendar
		start, end = period.Start, period.End
	}
	return e.rangeCounts(ctx, q, cal, start, end, now)
}
