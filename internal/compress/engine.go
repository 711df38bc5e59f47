// Package compress rolls raw view events up into daily aggregates.
package compress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/karnoweb/viewable/internal/calendar"
	"github.com/karnoweb/viewable/internal/metrics"
	"github.com/karnoweb/viewable/internal/model"
)

// EventSource reads and prunes raw view events.
type EventSource interface {
	GroupedCounts(ctx context.Context, start, end time.Time, branchID *int64, limit, offset int) ([]model.GroupCount, error)
	DeleteRange(ctx context.Context, start, end time.Time, branchID *int64) (int64, error)
}

// AggregateStore persists rollup rows.
type AggregateStore interface {
	UpsertBatch(ctx context.Context, aggregates []*model.Aggregate) error
}

// Engine compresses one day of raw events into aggregate rows. Each
// (entity, collection, branch) group yields one daily row per calendar, so
// analytics never needs to convert dates at read time.
type Engine struct {
	events     EventSource
	aggregates AggregateStore
	calendars  *calendar.Manager
	chunkSize  int
	logger     *slog.Logger
	recorder   metrics.Recorder

	// OnComplete, when set, is invoked after each successful run.
	OnComplete func(model.CompressionResult)
}

// NewEngine creates a compression engine.
func NewEngine(events EventSource, aggregates AggregateStore, calendars *calendar.Manager, chunkSize int, logger *slog.Logger, recorder metrics.Recorder) *Engine {
	if chunkSize < 1 {
		chunkSize = 1000
	}
	return &Engine{
		events:     events,
		aggregates: aggregates,
		calendars:  calendars,
		chunkSize:  chunkSize,
		logger:     logger,
		recorder:   recorder,
	}
}

// CompressDay rolls up all raw events of the calendar day containing day.
// Groups are read in chunks; raw rows are deleted only after every chunk
// has been written, so a failed run leaves the raw events intact and the
// next run overwrites whatever aggregates it already wrote. A nil branchID
// compresses all branches together.
func (e *Engine) CompressDay(ctx context.Context, day time.Time, branchID *int64) (*model.CompressionResult, error) {
	started := time.Now()

	gregorian := e.calendars.Adapter(calendar.Gregorian)
	start := gregorian.StartOfDay(day)
	end := start.AddDate(0, 0, 1)

	groupsProcessed := 0
	for offset := 0; ; offset += e.chunkSize {
		groups, err := e.events.GroupedCounts(ctx, start, end, branchID, e.chunkSize, offset)
		if err != nil {
			e.recorder.IncCompressionRun("failed")
			return nil, fmt.Errorf("read grouped counts at offset %d: %w", offset, err)
		}
		if len(groups) == 0 {
			break
		}

		batch := make([]*model.Aggregate, 0, len(groups)*len(calendar.Types))
		for _, g := range groups {
			for _, calType := range calendar.Types {
				batch = append(batch, e.buildAggregate(g, calType, start))
			}
		}
		if err := e.aggregates.UpsertBatch(ctx, batch); err != nil {
			e.recorder.IncCompressionRun("failed")
			return nil, fmt.Errorf("write aggregates at offset %d: %w", offset, err)
		}

		groupsProcessed += len(groups)
		if len(groups) < e.chunkSize {
			break
		}
	}

	deleted, err := e.events.DeleteRange(ctx, start, end, branchID)
	if err != nil {
		e.recorder.IncCompressionRun("failed")
		return nil, fmt.Errorf("delete raw events: %w", err)
	}

	result := model.CompressionResult{
		Date:            start.Format("2006-01-02"),
		GroupsProcessed: groupsProcessed,
		RowsDeleted:     deleted,
		BranchID:        branchID,
	}

	e.recorder.IncCompressionRun("success")
	e.recorder.ObserveCompressionGroups(groupsProcessed)
	e.recorder.ObserveCompressionDeleted(deleted)
	e.recorder.ObserveCompressionDuration(time.Since(started))

	e.logger.Info("compressed day",
		slog.String("date", result.Date),
		slog.Int("groups", groupsProcessed),
		slog.Int64("deleted", deleted),
		slog.Duration("took", time.Since(started)),
	)

	if e.OnComplete != nil {
		e.OnComplete(result)
	}
	return &result, nil
}

// buildAggregate shapes one group into a daily row for the given calendar.
// Both rows cover the same physical day; only the key differs.
func (e *Engine) buildAggregate(g model.GroupCount, calType calendar.Type, dayStart time.Time) *model.Aggregate {
	adapter := e.calendars.Adapter(calType)
	return &model.Aggregate{
		BranchID:    g.BranchID,
		EntityType:  g.EntityType,
		EntityID:    g.EntityID,
		Collection:  g.Collection,
		Calendar:    calType,
		Granularity: calendar.Daily,
		PeriodKey:   adapter.PeriodKey(dayStart, calendar.Daily),
		PeriodStart: dayStart,
		PeriodEnd:   adapter.EndOfDay(dayStart),
		TotalViews:  g.TotalViews,
		UniqueViews: g.UniqueViews,
	}
}
