package model

import (
	"time"

	"github.com/karnoweb/viewable/internal/calendar"
)

// Aggregate is one rollup row: the view counts for a single
// (entity, collection, branch, calendar, granularity, period) tuple.
// The tuple is unique in storage; re-compressing a period replaces the
// counts rather than incrementing them.
type Aggregate struct {
	ID int64 `json:"id"`

	BranchID *int64 `json:"branch_id,omitempty"`

	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Collection string `json:"collection"`

	Calendar    calendar.Type        `json:"calendar"`
	Granularity calendar.Granularity `json:"granularity"`

	// Stable, sortable identifier of the period in the row's calendar
	// (e.g. "2024-01-15" or "1402-10-25").
	PeriodKey   string    `json:"period_key"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	TotalViews  int64 `json:"total_views"`
	UniqueViews int64 `json:"unique_views"`

	// Opaque blob for optional breakdowns; stored as JSONB.
	Metadata []byte `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// AggregateFilter scopes aggregate reads. EntityID left empty spans all
// entities of the type; nil Collection spans all collections; nil BranchID
// spans all branches. Start/End bound period starts inclusively.
type AggregateFilter struct {
	EntityType  string
	EntityID    string
	Collection  *string
	BranchID    *int64
	Calendar    calendar.Type
	Granularity calendar.Granularity
	Start       time.Time
	End         time.Time
}

// CompressionResult is the completion signal emitted after a compression
// run: which day was rolled up, how many groups were written, and how many
// raw rows were pruned.
type CompressionResult struct {
	Date            string `json:"date"` // ISO date of the compressed day
	GroupsProcessed int    `json:"groups_processed"`
	RowsDeleted     int64  `json:"rows_deleted"`
	BranchID        *int64 `json:"branch_id,omitempty"`
}
