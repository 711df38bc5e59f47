package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ViewsRecorded            uint64
	ViewsRejectedBot         uint64
	ViewsRejectedCooldown    uint64
	RecordDurationCount      uint64
	RecordDurationTotalNs    int64
	CompressionRuns          uint64
	CompressionFailures      uint64
	CompressionGroupsTotal   uint64
	CompressionRowsDeleted   uint64
	CompressionDurationCount uint64
	CompressionDurationNs    int64
	AnalyticsQueryCount      uint64
	AnalyticsQueryTotalNs    int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	viewsRecorded            uint64
	viewsRejectedBot         uint64
	viewsRejectedCooldown    uint64
	recordDurationCount      uint64
	recordDurationTotalNs    int64
	compressionRuns          uint64
	compressionFailures      uint64
	compressionGroupsTotal   uint64
	compressionRowsDeleted   uint64
	compressionDurationCount uint64
	compressionDurationNs    int64
	analyticsQueryCount      uint64
	analyticsQueryTotalNs    int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ViewsRecorded:            atomic.LoadUint64(&m.viewsRecorded),
		ViewsRejectedBot:         atomic.LoadUint64(&m.viewsRejectedBot),
		ViewsRejectedCooldown:    atomic.LoadUint64(&m.viewsRejectedCooldown),
		RecordDurationCount:      atomic.LoadUint64(&m.recordDurationCount),
		RecordDurationTotalNs:    atomic.LoadInt64(&m.recordDurationTotalNs),
		CompressionRuns:          atomic.LoadUint64(&m.compressionRuns),
		CompressionFailures:      atomic.LoadUint64(&m.compressionFailures),
		CompressionGroupsTotal:   atomic.LoadUint64(&m.compressionGroupsTotal),
		CompressionRowsDeleted:   atomic.LoadUint64(&m.compressionRowsDeleted),
		CompressionDurationCount: atomic.LoadUint64(&m.compressionDurationCount),
		CompressionDurationNs:    atomic.LoadInt64(&m.compressionDurationNs),
		AnalyticsQueryCount:      atomic.LoadUint64(&m.analyticsQueryCount),
		AnalyticsQueryTotalNs:    atomic.LoadInt64(&m.analyticsQueryTotalNs),
	}
}

// IncViewRecorded increments the recorded view counter.
func (m *InMemoryRecorder) IncViewRecorded() {
	atomic.AddUint64(&m.viewsRecorded, 1)
}

// IncViewRejected increments the rejection counter for the given reason.
func (m *InMemoryRecorder) IncViewRejected(reason string) {
	switch reason {
	case "bot":
		atomic.AddUint64(&m.viewsRejectedBot, 1)
	case "cooldown":
		atomic.AddUint64(&m.viewsRejectedCooldown, 1)
	}
}

// ObserveRecordDuration records a view recording duration.
func (m *InMemoryRecorder) ObserveRecordDuration(duration time.Duration) {
	atomic.AddUint64(&m.recordDurationCount, 1)
	atomic.AddInt64(&m.recordDurationTotalNs, duration.Nanoseconds())
}

// IncCompressionRun counts one compression run by outcome.
func (m *InMemoryRecorder) IncCompressionRun(status string) {
	if status == "failed" {
		atomic.AddUint64(&m.compressionFailures, 1)
		return
	}
	atomic.AddUint64(&m.compressionRuns, 1)
}

// ObserveCompressionGroups adds the number of groups rolled up by a run.
func (m *InMemoryRecorder) ObserveCompressionGroups(count int) {
	atomic.AddUint64(&m.compressionGroupsTotal, uint64(count))
}

// ObserveCompressionDeleted adds the number of raw rows deleted by a run.
func (m *InMemoryRecorder) ObserveCompressionDeleted(rows int64) {
	atomic.AddUint64(&m.compressionRowsDeleted, uint64(rows))
}

// ObserveCompressionDuration records a compression run duration.
func (m *InMemoryRecorder) ObserveCompressionDuration(duration time.Duration) {
	atomic.AddUint64(&m.compressionDurationCount, 1)
	atomic.AddInt64(&m.compressionDurationNs, duration.Nanoseconds())
}

// ObserveAnalyticsQueryDuration records an analytics query duration.
func (m *InMemoryRecorder) ObserveAnalyticsQueryDuration(duration time.Duration) {
	atomic.AddUint64(&m.analyticsQueryCount, 1)
	atomic.AddInt64(&m.analyticsQueryTotalNs, duration.Nanoseconds())
}
