package examauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram in the in-process
// metrics registry.
type MetricID uint16

const (
	// MetricLoginSuccess counts granted logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected logins with a wrong password.
	MetricLoginFailure
	// MetricLoginBlocked counts logins rejected because the account is blocked,
	// including the attempt that crossed the threshold.
	MetricLoginBlocked
	// MetricLoginUnknownUser counts logins for usernames no store holds.
	MetricLoginUnknownUser
	// MetricMirrorHealed counts mirror entries materialized by the resolver for
	// accounts first seen in a role store.
	MetricMirrorHealed
	// MetricPasswordChanged counts successful password changes.
	MetricPasswordChanged
	// MetricPasswordUpgraded counts legacy or under-parameterized credentials
	// rehashed after a successful login.
	MetricPasswordUpgraded
	// MetricAccountRenamed counts successful renames.
	MetricAccountRenamed
	// MetricAttemptsReset counts administrative resets, no-op resets included.
	MetricAttemptsReset
	// MetricAccountCreated counts created accounts.
	MetricAccountCreated
	// MetricAccountCreationDuplicate counts creates rejected for an existing username.
	MetricAccountCreationDuplicate
	// MetricAccountDeleted counts deleted accounts.
	MetricAccountDeleted
	// MetricResetToDefaults counts reset-to-defaults operations.
	MetricResetToDefaults
	// MetricSessionCreated counts granted sessions.
	MetricSessionCreated
	// MetricSessionInvalidated counts sessions dropped by rename, delete, or reset.
	MetricSessionInvalidated
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricStoreConflict counts operations rejected at the critical-section
	// wait bound.
	MetricStoreConflict
	// MetricStoreWriteFailure counts failed collection saves.
	MetricStoreWriteFailure
	// MetricLoginLatency is the login duration histogram.
	MetricLoginLatency

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

// Metrics holds lock-free counters and an optional login latency histogram.
// Writes are atomic adds into cache-line-padded slots; the write path never
// allocates.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics registry. When cfg.Enabled is false all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether the registry records anything at all.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the login latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Add adds n to a counter.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records a login duration sample.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricLoginLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot deep-copies every counter and histogram bucket.
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
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricLoginLatency].buckets[i])
		}
		s.Histograms[MetricLoginLatency] = buckets
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
