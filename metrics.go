package natours

import (
	"sync/atomic"
	"time"

	"github.com/MrEthical07/natours/internal/flows"
)

// MetricID identifies one in-process counter or histogram.
type MetricID uint16

const (
	MetricSignupSuccess MetricID = iota
	MetricSignupDuplicate
	MetricSignupRateLimited
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginRateLimited
	MetricSessionIssued
	MetricLogout
	MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld
	MetricPasswordResetRequest
	MetricPasswordResetDeliveryFailed
	MetricPasswordResetConfirmSuccess
	MetricPasswordResetConfirmFailure
	MetricPasswordResetRateLimited
	MetricAuthSuccess
	MetricAuthFailure
	MetricAuthStale
	MetricAccessDenied
	MetricProfileUpdated
	MetricAccountDeactivated
	MetricAccountDeleted
	// MetricGateLatency is the only histogram. It times a full Protect run.
	MetricGateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters. A nil or disabled Metrics records
// nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter. Histogram
// buckets are non-cumulative, bounded at 5, 10, 25, 50, 100, 250 and 500ms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricGateLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricGateLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricGateLatency].buckets[i])
		}
		s.Histograms[MetricGateLatency] = buckets
	}
	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}

func flowMetrics() flows.Metrics {
	return flows.Metrics{
		SignupSuccess:               int(MetricSignupSuccess),
		SignupDuplicate:             int(MetricSignupDuplicate),
		SignupRateLimited:           int(MetricSignupRateLimited),
		LoginSuccess:                int(MetricLoginSuccess),
		LoginFailure:                int(MetricLoginFailure),
		LoginRateLimited:            int(MetricLoginRateLimited),
		SessionIssued:               int(MetricSessionIssued),
		PasswordChangeSuccess:       int(MetricPasswordChangeSuccess),
		PasswordChangeInvalidOld:    int(MetricPasswordChangeInvalidOld),
		PasswordResetRequest:        int(MetricPasswordResetRequest),
		PasswordResetDeliveryFailed: int(MetricPasswordResetDeliveryFailed),
		PasswordResetConfirmSuccess: int(MetricPasswordResetConfirmSuccess),
		PasswordResetConfirmFailure: int(MetricPasswordResetConfirmFailure),
		PasswordResetRateLimited:    int(MetricPasswordResetRateLimited),
		AuthSuccess:                 int(MetricAuthSuccess),
		AuthFailure:                 int(MetricAuthFailure),
		AuthStale:                   int(MetricAuthStale),
		AccessDenied:                int(MetricAccessDenied),
		ProfileUpdated:              int(MetricProfileUpdated),
		AccountDeactivated:          int(MetricAccountDeactivated),
	}
}
