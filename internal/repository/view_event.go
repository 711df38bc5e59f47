package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/karnoweb/viewable/internal/model"
)

// ViewEventRepository provides database access for raw view events.
type ViewEventRepository struct {
	repo *Repository
}

// NewViewEventRepository creates a new ViewEventRepository.
func NewViewEventRepository(repo *Repository) *ViewEventRepository {
	return &ViewEventRepository{repo: repo}
}

// Insert stores a single raw view event.
func (r *ViewEventRepository) Insert(ctx context.Context, event *model.ViewEvent) error {
	query := `
		INSERT INTO view_events (
			id, branch_id, entity_type, entity_id, collection,
			visitor_key, user_id, ip, user_agent, referer, viewed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.repo.pool.Exec(ctx, query,
		event.ID,
		event.BranchID,
		event.EntityType,
		event.EntityID,
		event.Collection,
		event.VisitorKey,
		event.UserID,
		nullableString(event.IP),
		nullableString(event.UserAgent),
		nullableString(event.Referer),
		event.ViewedAt,
	)
	if err != nil {
		return fmt.Errorf("insert view event: %w", err)
	}
	return nil
}

// GroupedCounts returns per-group totals for events in [start, end),
// grouped by entity, collection and branch. Results are ordered by the
// group key so limit/offset paging walks the groups deterministically.
// A nil branchID spans all branches; a set one restricts to that branch.
func (r *ViewEventRepository) GroupedCounts(ctx context.Context, start, end time.Time, branchID *int64, limit, offset int) ([]model.GroupCount, error) {
	query := `
		SELECT entity_type, entity_id, collection, branch_id,
			   COUNT(*) AS total_views,
			   COUNT(DISTINCT visitor_key) AS unique_views
		FROM view_events
		WHERE viewed_at >= $1 AND viewed_at < $2
		  AND ($3::bigint IS NULL OR branch_id = $3)
		GROUP BY entity_type, entity_id, collection, branch_id
		ORDER BY entity_type, entity_id, collection, branch_id NULLS FIRST
		LIMIT $4 OFFSET $5
	`

	rows, err := r.repo.pool.Query(ctx, query, start, end, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query grouped counts: %w", err)
	}
	defer rows.Close()

	var groups []model.GroupCount
	for rows.Next() {
		var g model.GroupCount
		if err := rows.Scan(&g.EntityType, &g.EntityID, &g.Collection, &g.BranchID, &g.TotalViews, &g.UniqueViews); err != nil {
			return nil, fmt.Errorf("scan group count: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

// CountRange returns total and unique view counts over raw events for one
// entity in [start, end). A nil collection spans all collections; a nil
// branchID spans all branches.
func (r *ViewEventRepository) CountRange(ctx context.Context, entityType, entityID string, collection *string, branchID *int64, start, end time.Time) (model.Counts, error) {
	query := `
		SELECT COUNT(*), COUNT(DISTINCT visitor_key)
		FROM view_events
		WHERE entity_type = $1 AND entity_id = $2
		  AND viewed_at >= $3 AND viewed_at < $4
		  AND ($5::text IS NULL OR collection = $5)
		  AND ($6::bigint IS NULL OR branch_id = $6)
	`

	var counts model.Counts
	err := r.repo.pool.QueryRow(ctx, query, entityType, entityID, start, end, collection, branchID).
		Scan(&counts.Total, &counts.Unique)
	if err != nil {
		return model.Counts{}, fmt.Errorf("query count range: %w", err)
	}
	return counts, nil
}

// DeleteRange removes raw events in [start, end) and returns the number of
// rows deleted. Compression calls this after all groups for the day are
// rolled up.
func (r *ViewEventRepository) DeleteRange(ctx context.Context, start, end time.Time, branchID *int64) (int64, error) {
	query := `
		DELETE FROM view_events
		WHERE viewed_at >= $1 AND viewed_at < $2
		  AND ($3::bigint IS NULL OR branch_id = $3)
	`

	tag, err := r.repo.pool.Exec(ctx, query, start, end, branchID)
	if err != nil {
		return 0, fmt.Errorf("delete view events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneOlderThan removes raw events viewed before the cutoff, regardless of
// entity or branch. Used for retention cleanup of days compression missed.
func (r *ViewEventRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.repo.pool.Exec(ctx, `DELETE FROM view_events WHERE viewed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune view events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// nullableString returns nil for empty strings.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
