package examauth

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLoginSuccess)
	m.Observe(MetricLoginLatency, time.Millisecond)

	if m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("disabled metrics must not record")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginBlocked)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 || snap.Counters[MetricLoginBlocked] != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap.Counters)
	}

	// Snapshots are copies; further increments must not leak into them.
	m.Inc(MetricLoginSuccess)
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatal("snapshot mutated after the fact")
	}
}

func TestMetricsAddBatchesIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Add(MetricSessionInvalidated, 3)
	m.Add(MetricSessionInvalidated, 0)

	if got := m.Value(MetricSessionInvalidated); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}

	disabled := NewMetrics(MetricsConfig{Enabled: false})
	disabled.Add(MetricSessionInvalidated, 5)
	if disabled.Value(MetricSessionInvalidated) != 0 {
		t.Fatal("disabled metrics must not record")
	}
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricLoginLatency, 2*time.Millisecond)   // bucket 0
	m.Observe(MetricLoginLatency, 30*time.Millisecond)  // bucket 2
	m.Observe(MetricLoginLatency, 10*time.Second)       // +Inf bucket
	m.Observe(MetricAccountCreated, time.Millisecond)   // wrong id, ignored

	buckets := m.Snapshot().Histograms[MetricLoginLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	if buckets[0] != 1 || buckets[2] != 1 || buckets[7] != 1 {
		t.Fatalf("unexpected bucket distribution: %v", buckets)
	}
}

func TestMetricsLatencyDisabledWithoutFlag(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Observe(MetricLoginLatency, time.Millisecond)
	if len(m.Snapshot().Histograms) != 0 {
		t.Fatal("latency recorded without the histogram flag")
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers, perWorker = 8, 1000
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricLoginFailure)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricLoginFailure); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}

func TestEngineRecordsLoginMetrics(t *testing.T) {
	engine, _ := newTestEngine(t, fastTestConfig())
	ctx := context.Background()

	_, _ = engine.Login(ctx, "ghost", "whatever")
	_, _ = engine.Login(ctx, "admin", "wrong-pass")
	_, _ = engine.Login(ctx, "admin", "admin123")

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricLoginUnknownUser] != 1 {
		t.Fatalf("expected 1 unknown-user login, got %d", snap.Counters[MetricLoginUnknownUser])
	}
	if snap.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("expected 1 failed login, got %d", snap.Counters[MetricLoginFailure])
	}
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected 1 successful login, got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricSessionCreated] != 1 {
		t.Fatalf("expected 1 session created, got %d", snap.Counters[MetricSessionCreated])
	}
}
