package authcore

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID int

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginLockout
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricLogout
	MetricOTPIssued
	MetricOTPFailure
	MetricOTPLockout
	MetricEmailVerified
	MetricPasswordResetRequest
	MetricPasswordResetSuccess
	MetricTokenExpired
	MetricTokenMalformed

	metricIDCount
)

// Metrics holds lock-free counters for the engine's security-relevant events.
// All methods are safe for concurrent use; a nil *Metrics is a no-op.
type Metrics struct {
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates an enabled metrics set.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id < 0 || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() map[MetricID]uint64 {
	out := make(map[MetricID]uint64, metricIDCount)
	if m == nil {
		return out
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		out[id] = m.counters[id].Load()
	}
	return out
}
