package deepgram

import (
	"math"
	"sync/atomic"
)

// PoolMetrics tracks pool activity with lock-free counters. All record
// methods are safe for concurrent use; durations are in milliseconds.
type PoolMetrics struct {
	activeConnections int64
	idleConnections   int64

	totalConnectionsCreated  int64
	totalConnectionsAcquired int64
	totalAcquisitionTimeouts int64
	totalConnectionErrors    int64
	totalKeepAlivesSent      int64
	totalTimeoutClosures     int64

	timeToFirstTranscriptTotal int64
	timeToFirstTranscriptCount int64
	minTimeToFirstTranscript   int64
	maxTimeToFirstTranscript   int64

	acquisitionTimeTotal int64
	acquisitionTimeCount int64

	usageTimeTotal int64
	usageTimeCount int64
}

// NewPoolMetrics returns zeroed metrics. The minimum time-to-first-transcript
// starts at math.MaxInt64 so the first recording always wins the CAS race.
func NewPoolMetrics() *PoolMetrics {
	m := &PoolMetrics{}
	atomic.StoreInt64(&m.minTimeToFirstTranscript, math.MaxInt64)
	return m
}

// IncrementActiveConnections records a freshly created session, which starts
// out active until its first release.
func (m *PoolMetrics) IncrementActiveConnections() {
	atomic.AddInt64(&m.activeConnections, 1)
	atomic.AddInt64(&m.totalConnectionsCreated, 1)
}

// IncrementIdleConnections records a session entering the idle set without a
// paired create or release. The pool does not call it: warm-up sessions
// reach the idle gauge through RecordConnectionReleased.
func (m *PoolMetrics) IncrementIdleConnections() {
	atomic.AddInt64(&m.idleConnections, 1)
}

// RecordConnectionAcquired moves one session from idle to active.
func (m *PoolMetrics) RecordConnectionAcquired() {
	atomic.AddInt64(&m.activeConnections, 1)
	atomic.AddInt64(&m.idleConnections, -1)
	atomic.AddInt64(&m.totalConnectionsAcquired, 1)
}

// RecordConnectionReleased moves one session from active back to idle.
func (m *PoolMetrics) RecordConnectionReleased() {
	atomic.AddInt64(&m.activeConnections, -1)
	atomic.AddInt64(&m.idleConnections, 1)
}

// RecordConnectionClosed removes one session from whichever gauge still
// counts it, preferring the active gauge.
func (m *PoolMetrics) RecordConnectionClosed() {
	if m.decrementIfPositive(&m.activeConnections) {
		return
	}
	m.decrementIfPositive(&m.idleConnections)
}

func (m *PoolMetrics) decrementIfPositive(gauge *int64) bool {
	for {
		cur := atomic.LoadInt64(gauge)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(gauge, cur, cur-1) {
			return true
		}
	}
}

// RecordAcquisitionTimeout counts an Acquire call that gave up waiting.
func (m *PoolMetrics) RecordAcquisitionTimeout() {
	atomic.AddInt64(&m.totalAcquisitionTimeouts, 1)
}

// RecordError counts a connection level error.
func (m *PoolMetrics) RecordError() {
	atomic.AddInt64(&m.totalConnectionErrors, 1)
}

// RecordKeepAliveSent counts one KeepAlive frame written to the server.
func (m *PoolMetrics) RecordKeepAliveSent() {
	atomic.AddInt64(&m.totalKeepAlivesSent, 1)
}

// RecordTimeoutClosure counts a session closed by the idle timeout.
func (m *PoolMetrics) RecordTimeoutClosure() {
	atomic.AddInt64(&m.totalTimeoutClosures, 1)
}

// RecordTimeToFirstTranscript folds one latency sample, in milliseconds,
// into the running first-transcript statistics.
func (m *PoolMetrics) RecordTimeToFirstTranscript(ms int64) {
	atomic.AddInt64(&m.timeToFirstTranscriptTotal, ms)
	atomic.AddInt64(&m.timeToFirstTranscriptCount, 1)
	updateMin(&m.minTimeToFirstTranscript, ms)
	updateMax(&m.maxTimeToFirstTranscript, ms)
}

// RecordAcquisitionTime folds one Acquire latency sample, in milliseconds.
func (m *PoolMetrics) RecordAcquisitionTime(ms int64) {
	atomic.AddInt64(&m.acquisitionTimeTotal, ms)
	atomic.AddInt64(&m.acquisitionTimeCount, 1)
}

// RecordUsageTime folds one active-interval duration sample, in milliseconds.
func (m *PoolMetrics) RecordUsageTime(ms int64) {
	atomic.AddInt64(&m.usageTimeTotal, ms)
	atomic.AddInt64(&m.usageTimeCount, 1)
}

func updateMin(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v >= cur {
			return
		}
		if atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

func updateMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur {
			return
		}
		if atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

// ActiveConnections reports sessions currently in use.
func (m *PoolMetrics) ActiveConnections() int64 {
	return atomic.LoadInt64(&m.activeConnections)
}

// IdleConnections reports sessions waiting in the pool.
func (m *PoolMetrics) IdleConnections() int64 {
	return atomic.LoadInt64(&m.idleConnections)
}

// TotalConnectionsCreated reports how many sessions the pool ever created.
func (m *PoolMetrics) TotalConnectionsCreated() int64 {
	return atomic.LoadInt64(&m.totalConnectionsCreated)
}

// TotalConnectionsAcquired reports successful Acquire calls.
func (m *PoolMetrics) TotalConnectionsAcquired() int64 {
	return atomic.LoadInt64(&m.totalConnectionsAcquired)
}

// TotalAcquisitionTimeouts reports Acquire calls that timed out.
func (m *PoolMetrics) TotalAcquisitionTimeouts() int64 {
	return atomic.LoadInt64(&m.totalAcquisitionTimeouts)
}

// TotalConnectionErrors reports connection level errors.
func (m *PoolMetrics) TotalConnectionErrors() int64 {
	return atomic.LoadInt64(&m.totalConnectionErrors)
}

// TotalKeepAlivesSent reports KeepAlive frames written.
func (m *PoolMetrics) TotalKeepAlivesSent() int64 {
	return atomic.LoadInt64(&m.totalKeepAlivesSent)
}

// TotalTimeoutClosures reports sessions closed by the idle timeout.
func (m *PoolMetrics) TotalTimeoutClosures() int64 {
	return atomic.LoadInt64(&m.totalTimeoutClosures)
}

// AverageTimeToFirstTranscript reports the mean first-transcript latency in
// milliseconds, or 0 when no samples exist.
func (m *PoolMetrics) AverageTimeToFirstTranscript() float64 {
	return average(&m.timeToFirstTranscriptTotal, &m.timeToFirstTranscriptCount)
}

// MinTimeToFirstTranscript reports the smallest latency sample. With no
// samples it reports math.MaxInt64.
func (m *PoolMetrics) MinTimeToFirstTranscript() int64 {
	return atomic.LoadInt64(&m.minTimeToFirstTranscript)
}

// MaxTimeToFirstTranscript reports the largest latency sample, or 0 with no
// samples.
func (m *PoolMetrics) MaxTimeToFirstTranscript() int64 {
	return atomic.LoadInt64(&m.maxTimeToFirstTranscript)
}

// AverageAcquisitionTime reports the mean Acquire latency in milliseconds,
// or 0 when no samples exist.
func (m *PoolMetrics) AverageAcquisitionTime() float64 {
	return average(&m.acquisitionTimeTotal, &m.acquisitionTimeCount)
}

// AverageUsageTime reports the mean active-interval duration in
// milliseconds, or 0 when no samples exist.
func (m *PoolMetrics) AverageUsageTime() float64 {
	return average(&m.usageTimeTotal, &m.usageTimeCount)
}

func average(total, count *int64) float64 {
	n := atomic.LoadInt64(count)
	if n == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(total)) / float64(n)
}

// PoolUtilization reports the active share of all live sessions as a
// percentage, or 0 when the pool is empty.
func (m *PoolMetrics) PoolUtilization() float64 {
	active := atomic.LoadInt64(&m.activeConnections)
	idle := atomic.LoadInt64(&m.idleConnections)
	total := active + idle
	if total == 0 {
		return 0
	}
	return 100 * float64(active) / float64(total)
}

// MetricsSnapshot is a point-in-time copy of every metric, convenient for
// structured logging.
type MetricsSnapshot struct {
	ActiveConnections            int64
	IdleConnections              int64
	TotalConnectionsCreated      int64
	TotalConnectionsAcquired     int64
	TotalAcquisitionTimeouts     int64
	TotalConnectionErrors        int64
	TotalKeepAlivesSent          int64
	TotalTimeoutClosures         int64
	AverageTimeToFirstTranscript float64
	MinTimeToFirstTranscript     int64
	MaxTimeToFirstTranscript     int64
	AverageAcquisitionTime       float64
	AverageUsageTime             float64
	PoolUtilization              float64
}

// Snapshot copies the current metric values.
func (m *PoolMetrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ActiveConnections:            m.ActiveConnections(),
		IdleConnections:              m.IdleConnections(),
		TotalConnectionsCreated:      m.TotalConnectionsCreated(),
		TotalConnectionsAcquired:     m.TotalConnectionsAcquired(),
		TotalAcquisitionTimeouts:     m.TotalAcquisitionTimeouts(),
		TotalConnectionErrors:        m.TotalConnectionErrors(),
		TotalKeepAlivesSent:          m.TotalKeepAlivesSent(),
		TotalTimeoutClosures:         m.TotalTimeoutClosures(),
		AverageTimeToFirstTranscript: m.AverageTimeToFirstTranscript(),
		MinTimeToFirstTranscript:     m.MinTimeToFirstTranscript(),
		MaxTimeToFirstTranscript:     m.MaxTimeToFirstTranscript(),
		AverageAcquisitionTime:       m.AverageAcquisitionTime(),
		AverageUsageTime:             m.AverageUsageTime(),
		PoolUtilization:              m.PoolUtilization(),
	}
}
