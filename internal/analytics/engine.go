// Package analytics reads aggregates and live events into reports.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/karnoweb/viewable/internal/calendar"
	"github.com/karnoweb/viewable/internal/metrics"
	"github.com/karnoweb/viewable/internal/model"
)

// AggregateSource reads rollup rows.
type AggregateSource interface {
	Sum(ctx context.Context, f model.AggregateFilter) (model.Counts, error)
	List(ctx context.Context, f model.AggregateFilter) ([]model.Aggregate, error)
	EntityTotals(ctx context.Context, f model.AggregateFilter) ([]model.GroupCount, error)
	TopEntities(ctx context.Context, f model.AggregateFilter, limit int) ([]model.GroupCount, error)
}

// EventSource reads live counts from raw, not-yet-compressed events.
type EventSource interface {
	CountRange(ctx context.Context, entityType, entityID string, collection *string, branchID *int64, start, end time.Time) (model.Counts, error)
}

// EntityResolver hydrates entity references for ranking and trending.
type EntityResolver interface {
	Resolve(ctx context.Context, entityType string, ids []string) (map[string]model.Entity, error)
}

// Query scopes an analytics read to one entity, or to all entities of a
// type when EntityID is empty. Nil Collection and BranchID mean "all".
type Query struct {
	EntityType string
	EntityID   string
	Collection *string
	BranchID   *int64
}

// Engine computes analytics over compressed aggregates, optionally merging
// today's raw events for days compression has not reached yet.
type Engine struct {
	aggregates   AggregateSource
	events       EventSource
	entities     EntityResolver
	calendars    *calendar.Manager
	includeToday bool
	logger       *slog.Logger
	recorder     metrics.Recorder
}

// NewEngine creates an analytics engine.
func NewEngine(aggregates AggregateSource, events EventSource, entities EntityResolver, calendars *calendar.Manager, includeToday bool, logger *slog.Logger, recorder metrics.Recorder) *Engine {
	return &Engine{
		aggregates:   aggregates,
		events:       events,
		entities:     entities,
		calendars:    calendars,
		includeToday: includeToday,
		logger:       logger,
		recorder:     recorder,
	}
}

// GetAnalytics builds the full report for one entity and period: totals,
// growth against the preceding window of equal length, the per-tick series
// and its peak and lowest ticks.
func (e *Engine) GetAnalytics(ctx context.Context, q Query, period calendar.Period, now time.Time) (*model.AnalyticsResult, error) {
	started := time.Now()
	defer func() { e.recorder.ObserveAnalyticsQueryDuration(time.Since(started)) }()

	series, err := e.GetTimeSeries(ctx, q, period, now)
	if err != nil {
		return nil, err
	}

	// Series ticks tile the period exactly, so their sums are the period
	// totals. Unique counts sum per stored period and may overcount
	// visitors active in several.
	var total, unique int64
	for _, p := range series {
		total += p.Total
		unique += p.Unique
	}

	// The baseline is the previous period walked the same way, so both
	// sides of the comparison read the same sources. An hourly period's
	// baseline stays live-only, like its own series.
	prevSeries, err := e.GetTimeSeries(ctx, q, period.PreviousPeriod(), now)
	if err != nil {
		return nil, fmt.Errorf("previous period series: %w", err)
	}
	var prevTotal int64
	for _, p := range prevSeries {
		prevTotal += p.Total
	}

	result := &model.AnalyticsResult{
		Period:      e.calendars.Describe(period),
		TotalViews:  total,
		UniqueViews: unique,
		Growth:      model.CalculateGrowth(total, prevTotal),
		TimeSeries:  series,
	}

	if len(series) > 0 {
		peak, lowest := series[0], series[0]
		for _, p := range series[1:] {
			if p.Total > peak.Total {
				peak = p
			}
			if p.Total < lowest.Total {
				lowest = p
			}
		}
		result.Peak = peak
		result.Lowest = lowest
	} else {
		zero := e.zeroPoint(period)
		result.Peak = zero
		result.Lowest = zero
	}
	if days := period.Days(); days > 0 {
		result.AverageDaily = math.Round(float64(total)/float64(days)*100) / 100
	}

	return result, nil
}

// GetTimeSeries walks the period tick by tick in the period's calendar and
// granularity. Daily rollup rows for the whole range are fetched once up
// front; daily ticks match them by period key, coarser ticks sum the rows
// falling in the tick span. Hourly ticks read nothing from storage, since
// only daily rollups exist; their counts come entirely from the live-event
// merge. Each point's growth compares it to the preceding tick, 0 when the
// preceding tick had no views.
func (e *Engine) GetTimeSeries(ctx context.Context, q Query, period calendar.Period, now time.Time) ([]model.TimeSeriesPoint, error) {
	adapter := e.calendars.Adapter(period.Calendar)

	var rows []model.Aggregate
	byKey := map[string]model.Counts{}
	if period.Granularity != calendar.Hourly {
		var err error
		rows, err = e.aggregates.List(ctx, model.AggregateFilter{
			EntityType:  q.EntityType,
			EntityID:    q.EntityID,
			Collection:  q.Collection,
			BranchID:    q.BranchID,
			Calendar:    period.Calendar,
			Granularity: calendar.Daily,
			Start:       period.Start,
			End:         period.End,
		})
		if err != nil {
			return nil, fmt.Errorf("prefetch aggregates: %w", err)
		}
		for _, a := range rows {
			c := byKey[a.PeriodKey]
			c.Total += a.TotalViews
			c.Unique += a.UniqueViews
			byKey[a.PeriodKey] = c
		}
	}

	var points []model.TimeSeriesPoint
	var prevTotal int64

	for cursor := period.Start; !cursor.After(period.End); cursor = calendar.Advance(adapter, cursor, period.Granularity) {
		tickEnd := tickSpanEnd(adapter, cursor, period.Granularity)
		if tickEnd.After(period.End) {
			tickEnd = period.End
		}

		var counts model.Counts
		switch period.Granularity {
		case calendar.Hourly:
		case calendar.Daily:
			counts = byKey[adapter.PeriodKey(cursor, calendar.Daily)]
		default:
			for _, a := range rows {
				if !a.PeriodStart.Before(cursor) && !a.PeriodStart.After(tickEnd) {
					counts.Total += a.TotalViews
					counts.Unique += a.UniqueViews
				}
			}
		}

		live, err := e.liveCounts(ctx, q, cursor, tickEnd.Add(time.Nanosecond), now)
		if err != nil {
			return nil, fmt.Errorf("tick %s live merge: %w", adapter.PeriodKey(cursor, period.Granularity), err)
		}
		counts.Total += live.Total
		counts.Unique += live.Unique

		// Tick growth is relative change only: an empty preceding tick
		// reads as 0, unlike the period-level metric's 100%-on-zero rule.
		growth := 0.0
		if len(points) > 0 && prevTotal > 0 {
			growth = math.Round(float64(counts.Total-prevTotal)/float64(prevTotal)*10000) / 100
		}

		points = append(points, model.TimeSeriesPoint{
			Date:             cursor,
			Label:            adapter.PeriodLabel(cursor, period.Granularity),
			Key:              adapter.PeriodKey(cursor, period.Granularity),
			Total:            counts.Total,
			Unique:           counts.Unique,
			GrowthPercentage: growth,
		})
		prevTotal = counts.Total
	}

	return points, nil
}

// GetRanking returns the most viewed entities of a type over the period.
// Rankings always read Gregorian daily aggregates; the caller's calendar
// only affects labels elsewhere, never which rows exist. Entities deleted
// since their views were recorded are dropped from the result.
func (e *Engine) GetRanking(ctx context.Context, q Query, period calendar.Period, limit int, now time.Time) ([]model.RankingEntry, error) {
	started := time.Now()
	defer func() { e.recorder.ObserveAnalyticsQueryDuration(time.Since(started)) }()

	top, err := e.aggregates.TopEntities(ctx, e.rankingFilter(q, period), limit)
	if err != nil {
		return nil, fmt.Errorf("top entities: %w", err)
	}
	if len(top) == 0 {
		return nil, nil
	}

	resolved, err := e.resolveEntities(ctx, q.EntityType, top)
	if err != nil {
		return nil, err
	}

	entries := make([]model.RankingEntry, 0, len(top))
	for _, g := range top {
		entity, ok := resolved[g.EntityID]
		if !ok {
			continue
		}
		entries = append(entries, model.RankingEntry{
			Entity:      entity,
			TotalViews:  g.TotalViews,
			UniqueViews: g.UniqueViews,
		})
	}
	return entries, nil
}

// GetTrending returns the entities whose views grew fastest against the
// preceding window of equal length, ordered by growth percentage. Every
// entity viewed in the period is a candidate; the limit cuts the list only
// after sorting by growth, so a small entity growing fast outranks a big
// one coasting. Entities below minViews current views are filtered out
// before ranking, which keeps 1-to-2-view jumps off the list.
func (e *Engine) GetTrending(ctx context.Context, q Query, period calendar.Period, limit int, minViews int64, now time.Time) ([]model.TrendingEntry, error) {
	started := time.Now()
	defer func() { e.recorder.ObserveAnalyticsQueryDuration(time.Since(started)) }()

	current, err := e.aggregates.EntityTotals(ctx, e.rankingFilter(q, period))
	if err != nil {
		return nil, fmt.Errorf("current entity totals: %w", err)
	}
	if len(current) == 0 {
		return nil, nil
	}

	prevGroups, err := e.aggregates.EntityTotals(ctx, e.rankingFilter(q, period.PreviousPeriod()))
	if err != nil {
		return nil, fmt.Errorf("previous entity totals: %w", err)
	}
	prevViews := make(map[string]int64, len(prevGroups))
	for _, g := range prevGroups {
		prevViews[g.EntityID] = g.TotalViews
	}

	// current comes back views-desc; the stable sort keeps that ordering
	// as the tie-break at equal growth.
	candidates := make([]model.GroupCount, 0, len(current))
	for _, g := range current {
		if g.TotalViews >= minViews {
			candidates = append(candidates, g)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		gi := model.CalculateGrowth(candidates[i].TotalViews, prevViews[candidates[i].EntityID])
		gj := model.CalculateGrowth(candidates[j].TotalViews, prevViews[candidates[j].EntityID])
		return gi.Percentage > gj.Percentage
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	resolved, err := e.resolveEntities(ctx, q.EntityType, candidates)
	if err != nil {
		return nil, err
	}

	entries := make([]model.TrendingEntry, 0, len(candidates))
	for _, g := range candidates {
		entity, ok := resolved[g.EntityID]
		if !ok {
			continue
		}
		prev := prevViews[g.EntityID]
		entries = append(entries, model.TrendingEntry{
			Entity:        entity,
			CurrentViews:  g.TotalViews,
			PreviousViews: prev,
			Growth:        model.CalculateGrowth(g.TotalViews, prev),
		})
	}
	return entries, nil
}

// rangeCounts sums counts over an arbitrary window: compressed daily rows
// plus the live merge for any part of the window falling on today.
func (e *Engine) rangeCounts(ctx context.Context, q Query, cal calendar.Type, start, end time.Time, now time.Time) (model.Counts, error) {
	counts, err := e.aggregates.Sum(ctx, model.AggregateFilter{
		EntityType:  q.EntityType,
		EntityID:    q.EntityID,
		Collection:  q.Collection,
		BranchID:    q.BranchID,
		Calendar:    cal,
		Granularity: calendar.Daily,
		Start:       start,
		End:         end,
	})
	if err != nil {
		return model.Counts{}, err
	}

	live, err := e.liveCounts(ctx, q, start, end.Add(time.Nanosecond), now)
	if err != nil {
		return model.Counts{}, err
	}
	counts.Total += live.Total
	counts.Unique += live.Unique
	return counts, nil
}

// liveCounts reads raw events for the part of [start, end) overlapping the
// current day. Today's events are the only raw rows analytics ever sees;
// older days are already compressed (and their raw rows deleted), so the
// merge cannot double count.
func (e *Engine) liveCounts(ctx context.Context, q Query, start, end time.Time, now time.Time) (model.Counts, error) {
	if !e.includeToday {
		return model.Counts{}, nil
	}

	gregorian := e.calendars.Adapter(calendar.Gregorian)
	todayStart := gregorian.StartOfDay(now)
	todayEnd := todayStart.AddDate(0, 0, 1)

	if start.Before(todayStart) {
		start = todayStart
	}
	if end.After(todayEnd) {
		end = todayEnd
	}
	if !start.Before(end) {
		return model.Counts{}, nil
	}

	return e.events.CountRange(ctx, q.EntityType, q.EntityID, q.Collection, q.BranchID, start, end)
}

// zeroPoint synthesizes an empty first tick so Peak and Lowest stay
// meaningful when a degenerate range produces no series.
func (e *Engine) zeroPoint(period calendar.Period) model.TimeSeriesPoint {
	adapter := e.calendars.Adapter(period.Calendar)
	return model.TimeSeriesPoint{
		Date:  period.Start,
		Label: adapter.PeriodLabel(period.Start, period.Granularity),
		Key:   adapter.PeriodKey(period.Start, period.Granularity),
	}
}

func (e *Engine) rankingFilter(q Query, period calendar.Period) model.AggregateFilter {
	return model.AggregateFilter{
		EntityType:  q.EntityType,
		Collection:  q.Collection,
		BranchID:    q.BranchID,
		Calendar:    calendar.Gregorian,
		Granularity: calendar.Daily,
		Start:       period.Start,
		End:         period.End,
	}
}

func (e *Engine) resolveEntities(ctx context.Context, entityType string, groups []model.GroupCount) (map[string]model.Entity, error) {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.EntityID)
	}
	resolved, err := e.entities.Resolve(ctx, entityType, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve entities: %w", err)
	}
	return resolved, nil
}

// tickSpanEnd returns the inclusive end of the tick starting at cursor.
func tickSpanEnd(a calendar.Adapter, cursor time.Time, g calendar.Granularity) time.Time {
	switch g {
	case calendar.Hourly:
		return cursor.Add(time.Hour - time.Nanosecond)
	case calendar.Daily:
		return a.EndOfDay(cursor)
	case calendar.Weekly:
		return a.EndOfWeek(cursor)
	case calendar.Monthly:
		return a.EndOfMonth(cursor)
	case calendar.Yearly:
		return a.EndOfYear(cursor)
	default:
		panic(fmt.Sprintf("unknown granularity %q", g))
	}
}
