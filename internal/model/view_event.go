// Package model defines domain entities for the application.
package model

import "time"

// ViewEvent represents a single raw view against a content entity.
// Events are append-only: ingestion writes them, compression deletes them
// after rollup, and nothing in between mutates them.
type ViewEvent struct {
	ID string `json:"id"` // ULID (time-sortable)

	// Optional tenant partition
	BranchID *int64 `json:"branch_id,omitempty"`

	// Entity reference (opaque type + id)
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`

	// Collection/category of the view (web, api, admin, ...)
	Collection string `json:"collection"`

	// Opaque visitor digest (SHA256 of the configured identifier chain)
	VisitorKey string `json:"visitor_key"`

	// Authenticated user, if any
	UserID *int64 `json:"user_id,omitempty"`

	// Request metadata, never interpreted by the engines
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"` // truncated 500 chars
	Referer   string `json:"referer,omitempty"`    // truncated 500 chars

	ViewedAt time.Time `json:"viewed_at"`
}

// Counts holds a total/unique pair for one entity and window.
type Counts struct {
	Total  int64 `json:"total"`
	Unique int64 `json:"unique"`
}

// GroupCount is one grouped-count row produced by the raw-event store:
// the per-day totals for a single (entity, collection, branch) group.
type GroupCount struct {
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`
	Collection  string `json:"collection"`
	BranchID    *int64 `json:"branch_id,omitempty"`
	TotalViews  int64  `json:"total_views"`
	UniqueViews int64  `json:"unique_views"`
}
