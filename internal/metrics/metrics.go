// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// View recording metrics
	IncViewRecorded()
	IncViewRejected(reason string) // reason: "bot", "cooldown"
	ObserveRecordDuration(duration time.Duration)

	// Compression pipeline metrics
	IncCompressionRun(status string) // status: "success", "failed"
	ObserveCompressionGroups(count int)
	ObserveCompressionDeleted(rows int64)
	ObserveCompressionDuration(duration time.Duration)

	// Analytics query metrics
	ObserveAnalyticsQueryDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
