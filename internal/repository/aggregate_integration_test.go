//go:build integration

package repository

import (
	"testing"
	"time"

	"github.com/karnoweb/viewable/internal/calendar"
	"github.com/karnoweb/viewable/internal/model"
	"github.com/karnoweb/viewable/internal/testutil"
)

func TestIntegrationAggregateRepository_UpsertReplaces(t *testing.T) {
	ctx, repo := newViewsTestEnv(t)
	aggregates := NewAggregateRepository(repo)

	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	entityID := testutil.UniqueEntityID("post")

	first := testutil.NewTestAggregate(t, "post", entityID, day, 10, 4)
	if err := aggregates.UpsertBatch(ctx, []*model.Aggregate{first}); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}

	// Re-compressing the same day replaces the counts.
	second := testutil.NewTestAggregate(t, "post", entityID, day, 12, 5)
	if err := aggregates.UpsertBatch(ctx, []*model.Aggregate{second}); err != nil {
		t.Fatalf("UpsertBatch (replace) failed: %v", err)
	}

	rows, err := aggregates.List(ctx, model.AggregateFilter{
		EntityType:  "post",
		EntityID:    entityID,
		Calendar:    calendar.Gregorian,
		Granularity: calendar.Daily,
		Start:       day.AddDate(0, 0, -1),
		End:         day.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].TotalViews != 12 || rows[0].UniqueViews != 5 {
		t.Errorf("counts = %d/%d, want 12/5", rows[0].TotalViews, rows[0].UniqueViews)
	}
}

func TestIntegrationAggregateRepository_NullBranchUnique(t *testing.T) {
	ctx, repo := newViewsTestEnv(t)
	aggregates := NewAggregateRepository(repo)

	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	entityID := testutil.UniqueEntityID("post")
	branch := int64(3)

	global := testutil.NewTestAggregate(t, "post", entityID, day, 5, 2)
	branched := testutil.NewTestAggregate(t, "post", entityID, day, 8, 3)
	branched.BranchID = &branch

	if err := aggregates.UpsertBatch(ctx, []*model.Aggregate{global, branched}); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}
	// Upsert the NULL-branch row again; must conflict with itself, not
	// insert a duplicate.
	if err := aggregates.UpsertBatch(ctx, []*model.Aggregate{global}); err != nil {
		t.Fatalf("UpsertBatch (null branch) failed: %v", err)
	}

	all, err := aggregates.List(ctx, model.AggregateFilter{
		EntityType:  "post",
		EntityID:    entityID,
		Calendar:    calendar.Gregorian,
		Granularity: calendar.Daily,
		Start:       day,
		End:         day,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d rows, want 2 (one per branch)", len(all))
	}
}

func TestIntegrationAggregateRepository_SumAndTop(t *testing.T) {
	ctx, repo := newViewsTestEnv(t)
	aggregates := NewAggregateRepository(repo)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	alpha := testutil.UniqueEntityID("alpha")
	beta := testutil.UniqueEntityID("beta")
	gamma := testutil.UniqueEntityID("gamma")

	batch := []*model.Aggregate{
		testutil.NewTestAggregate(t, "post", alpha, base, 30, 10),
		testutil.NewTestAggregate(t, "post", alpha, base.AddDate(0, 0, 1), 20, 8),
		testutil.NewTestAggregate(t, "post", beta, base, 80, 40),
		testutil.NewTestAggregate(t, "post", gamma, base, 40, 20),
	}
	if err := aggregates.UpsertBatch(ctx, batch); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}

	filter := model.AggregateFilter{
		EntityType:  "post",
		EntityID:    alpha,
		Calendar:    calendar.Gregorian,
		Granularity: calendar.Daily,
		Start:       base,
		End:         base.AddDate(0, 0, 6),
	}
	counts, err := aggregates.Sum(ctx, filter)
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}
	if counts.Total != 50 || counts.Unique != 18 {
		t.Errorf("sum = %d/%d, want 50/18", counts.Total, counts.Unique)
	}

	filter.EntityID = ""
	top, err := aggregates.TopEntities(ctx, filter, 2)
	if err != nil {
		t.Fatalf("TopEntities failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("got %d entries, want 2", len(top))
	}
	if top[0].EntityID != beta || top[0].TotalViews != 80 {
		t.Errorf("top[0] = %s/%d, want %s/80", top[0].EntityID, top[0].TotalViews, beta)
	}
	if top[1].EntityID != alpha || top[1].TotalViews != 50 {
		t.Errorf("top[1] = %s/%d, want %s/50", top[1].EntityID, top[1].TotalViews, alpha)
	}

	all, err := aggregates.EntityTotals(ctx, filter)
	if err != nil {
		t.Fatalf("EntityTotals failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d groups, want 3", len(all))
	}
	if all[2].EntityID != gamma || all[2].TotalViews != 40 || all[2].UniqueViews != 20 {
		t.Errorf("all[2] = %s/%d/%d, want %s/40/20",
			all[2].EntityID, all[2].TotalViews, all[2].UniqueViews, gamma)
	}
}
