package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/karnoweb/viewable/internal/calendar"
	"github.com/karnoweb/viewable/internal/model"
)

// AggregateRepository provides database access for view aggregates.
type AggregateRepository struct {
	repo *Repository
}

// NewAggregateRepository creates a new AggregateRepository.
func NewAggregateRepository(repo *Repository) *AggregateRepository {
	return &AggregateRepository{repo: repo}
}

// UpsertBatch writes aggregate rows, replacing counts on conflict. The
// uniqueness tuple treats NULL branch_id as a regular value via COALESCE,
// so re-compressing a day overwrites instead of duplicating.
func (r *AggregateRepository) UpsertBatch(ctx context.Context, aggregates []*model.Aggregate) error {
	if len(aggregates) == 0 {
		return nil
	}

	query := `
		INSERT INTO view_aggregates (
			branch_id, entity_type, entity_id, collection,
			calendar, granularity, period_key, period_start, period_end,
			total_views, unique_views, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (COALESCE(branch_id, -1), entity_type, entity_id, collection, calendar, granularity, period_key)
		DO UPDATE SET
			total_views = EXCLUDED.total_views,
			unique_views = EXCLUDED.unique_views,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			metadata = EXCLUDED.metadata
	`

	batch := &pgx.Batch{}
	for _, a := range aggregates {
		batch.Queue(query,
			a.BranchID,
			a.EntityType,
			a.EntityID,
			a.Collection,
			string(a.Calendar),
			string(a.Granularity),
			a.PeriodKey,
			a.PeriodStart,
			a.PeriodEnd,
			a.TotalViews,
			a.UniqueViews,
			a.Metadata,
		)
	}

	results := r.repo.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range aggregates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert aggregate %d: %w", i, err)
		}
	}
	return nil
}

// Sum returns the combined totals of aggregate rows matching the filter.
// Unique counts are summed across periods, so a visitor active on two days
// counts twice; exact uniqueness only exists within a single stored period.
func (r *AggregateRepository) Sum(ctx context.Context, f model.AggregateFilter) (model.Counts, error) {
	query := `
		SELECT COALESCE(SUM(total_views), 0), COALESCE(SUM(unique_views), 0)
		FROM view_aggregates
		WHERE entity_type = $1
		  AND ($2::text = '' OR entity_id = $2)
		  AND ($3::text IS NULL OR collection = $3)
		  AND ($4::bigint IS NULL OR branch_id = $4)
		  AND calendar = $5 AND granularity = $6
		  AND period_start >= $7 AND period_start <= $8
	`

	var counts model.Counts
	err := r.repo.pool.QueryRow(ctx, query,
		f.EntityType, f.EntityID, f.Collection, f.BranchID,
		string(f.Calendar), string(f.Granularity), f.Start, f.End,
	).Scan(&counts.Total, &counts.Unique)
	if err != nil {
		return model.Counts{}, fmt.Errorf("query aggregate sum: %w", err)
	}
	return counts, nil
}

// List returns aggregate rows matching the filter, ordered by period start.
func (r *AggregateRepository) List(ctx context.Context, f model.AggregateFilter) ([]model.Aggregate, error) {
	query := `
		SELECT id, branch_id, entity_type, entity_id, collection,
			   calendar, granularity, period_key, period_start, period_end,
			   total_views, unique_views, metadata, created_at
		FROM view_aggregates
		WHERE entity_type = $1
		  AND ($2::text = '' OR entity_id = $2)
		  AND ($3::text IS NULL OR collection = $3)
		  AND ($4::bigint IS NULL OR branch_id = $4)
		  AND calendar = $5 AND granularity = $6
		  AND period_start >= $7 AND period_start <= $8
		ORDER BY period_start
	`

	rows, err := r.repo.pool.Query(ctx, query,
		f.EntityType, f.EntityID, f.Collection, f.BranchID,
		string(f.Calendar), string(f.Granularity), f.Start, f.End,
	)
	if err != nil {
		return nil, fmt.Errorf("query aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []model.Aggregate
	for rows.Next() {
		var a model.Aggregate
		var cal, gran string
		err := rows.Scan(
			&a.ID, &a.BranchID, &a.EntityType, &a.EntityID, &a.Collection,
			&cal, &gran, &a.PeriodKey, &a.PeriodStart, &a.PeriodEnd,
			&a.TotalViews, &a.UniqueViews, &a.Metadata, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		a.Calendar = calendar.Type(cal)
		a.Granularity = calendar.Granularity(gran)
		aggregates = append(aggregates, a)
	}

	return aggregates, rows.Err()
}

// TopEntities groups aggregate rows by entity and returns the highest
// total-view groups first. EntityID on the filter is ignored.
func (r *AggregateRepository) TopEntities(ctx context.Context, f model.AggregateFilter, limit int) ([]model.GroupCount, error) {
	query := `
		SELECT entity_type, entity_id,
			   SUM(total_views) AS total_views,
			   SUM(unique_views) AS unique_views
		FROM view_aggregates
		WHERE entity_type = $1
		  AND ($2::text IS NULL OR collection = $2)
		  AND ($3::bigint IS NULL OR branch_id = $3)
		  AND calendar = $4 AND granularity = $5
		  AND period_start >= $6 AND period_start <= $7
		GROUP BY entity_type, entity_id
		ORDER BY total_views DESC, entity_id
		LIMIT $8
	`

	rows, err := r.repo.pool.Query(ctx, query,
		f.EntityType, f.Collection, f.BranchID,
		string(f.Calendar), string(f.Granularity), f.Start, f.End, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top entities: %w", err)
	}
	defer rows.Close()

	var groups []model.GroupCount
	for rows.Next() {
		var g model.GroupCount
		if err := rows.Scan(&g.EntityType, &g.EntityID, &g.TotalViews, &g.UniqueViews); err != nil {
			return nil, fmt.Errorf("scan top entity: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

// EntityTotals groups aggregate rows by entity and returns every group,
// highest totals first. Trending needs the full pool: growth is computed
// before any cut, so no LIMIT here. EntityID on the filter is ignored.
func (r *AggregateRepository) EntityTotals(ctx context.Context, f model.AggregateFilter) ([]model.GroupCount, error) {
	query := `
		SELECT entity_type, entity_id,
			   SUM(total_views) AS total_views,
			   SUM(unique_views) AS unique_views
		FROM view_aggregates
		WHERE entity_type = $1
		  AND ($2::text IS NULL OR collection = $2)
		  AND ($3::bigint IS NULL OR branch_id = $3)
		  AND calendar = $4 AND granularity = $5
		  AND period_start >= $6 AND period_start <= $7
		GROUP BY entity_type, entity_id
		ORDER BY total_views DESC, entity_id
	`

	rows, err := r.repo.pool.Query(ctx, query,
		f.EntityType, f.Collection, f.BranchID,
		string(f.Calendar), string(f.Granularity), f.Start, f.End,
	)
	if err != nil {
		return nil, fmt.Errorf("query entity totals: %w", err)
	}
	defer rows.Close()

	var groups []model.GroupCount
	for rows.Next() {
		var g model.GroupCount
		if err := rows.Scan(&g.EntityType, &g.EntityID, &g.TotalViews, &g.UniqueViews); err != nil {
			return nil, fmt.Errorf("scan entity totals: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

// PruneOlderThan removes aggregate rows whose period ended before the
// cutoff. Retention cleanup for long-dead periods.
func (r *AggregateRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.repo.pool.Exec(ctx, `DELETE FROM view_aggregates WHERE period_end < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune aggregates: %w", err)
	}
	return tag.RowsAffected(), nil
}
