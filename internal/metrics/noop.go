package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncViewRecorded is a no-op.
func (n *NoopRecorder) IncViewRecorded() {}

// IncViewRejected is a no-op.
func (n *NoopRecorder) IncViewRejected(reason string) {}

// ObserveRecordDuration is a no-op.
func (n *NoopRecorder) ObserveRecordDuration(duration time.Duration) {}

// IncCompressionRun is a no-op.
func (n *NoopRecorder) IncCompressionRun(status string) {}

// ObserveCompressionGroups is a no-op.
func (n *NoopRecorder) ObserveCompressionGroups(count int) {}

// ObserveCompressionDeleted is a no-op.
func (n *NoopRecorder) ObserveCompressionDeleted(rows int64) {}

// ObserveCompressionDuration is a no-op.
func (n *NoopRecorder) ObserveCompressionDuration(duration time.Duration) {}

// ObserveAnalyticsQueryDuration is a no-op.
func (n *NoopRecorder) ObserveAnalyticsQueryDuration(duration time.Duration) {}
