package model

import (
	"testing"
	"time"
)

func TestMetricsCommandCounts(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.CommandsDispatched != 0 {
		t.Errorf("Expected 0 initial dispatches, got %d", snap.CommandsDispatched)
	}

	m.RecordCommandDispatched("callTrain")
	m.RecordCommandCompleted("callTrain", 1_000_000, false)
	m.RecordCommandDispatched("callEvaluate")
	m.RecordCommandCompleted("callEvaluate", 2_000_000, true)

	snap = m.Snapshot()
	if snap.CommandsDispatched != 2 {
		t.Errorf("Expected 2 dispatched, got %d", snap.CommandsDispatched)
	}
	if snap.CommandsCompleted != 2 {
		t.Errorf("Expected 2 completed, got %d", snap.CommandsCompleted)
	}
	if snap.CommandsPanicked != 1 {
		t.Errorf("Expected 1 panicked, got %d", snap.CommandsPanicked)
	}

	byMethod := snap.ByMethod["callEvaluate"]
	if byMethod.Dispatched != 1 || byMethod.Completed != 1 || byMethod.Panicked != 1 {
		t.Errorf("Unexpected per-method stats for callEvaluate: %+v", byMethod)
	}
}

func TestMetricsBytesAndDataRequests(t *testing.T) {
	m := NewMetrics()

	m.RecordBytesIn(100)
	m.RecordBytesOut(200)
	m.RecordDataRequest(1_000_000)
	m.RecordDataRequest(2_000_000)

	snap := m.Snapshot()
	if snap.BytesIn != 100 {
		t.Errorf("Expected 100 bytes in, got %d", snap.BytesIn)
	}
	if snap.BytesOut != 200 {
		t.Errorf("Expected 200 bytes out, got %d", snap.BytesOut)
	}
	if snap.DataRequests != 2 {
		t.Errorf("Expected 2 data requests, got %d", snap.DataRequests)
	}
	if snap.DataRequestAvgNs != 1_500_000 {
		t.Errorf("Expected avg data request latency 1.5ms, got %d ns", snap.DataRequestAvgNs)
	}
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()

	time.Sleep(10 * time.Millisecond)
	snap := m.Snapshot()
	if snap.UptimeNs < 10*1000000 {
		t.Errorf("Expected uptime >= 10ms, got %d ns", snap.UptimeNs)
	}

	m.Stop()
	time.Sleep(5 * time.Millisecond)
	snap2 := m.Snapshot()
	if snap2.UptimeNs > snap.UptimeNs+2*1000000 {
		t.Errorf("Uptime increased too much after stop: %d -> %d", snap.UptimeNs, snap2.UptimeNs)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	m.RecordCommandDispatched("callTrain")
	m.RecordCommandCompleted("callTrain", 1_000_000, false)
	m.RecordBytesIn(1024)

	snap := m.Snapshot()
	if snap.CommandsDispatched == 0 {
		t.Error("Expected some dispatches before reset")
	}

	m.Reset()

	snap = m.Snapshot()
	if snap.CommandsDispatched != 0 {
		t.Errorf("Expected 0 dispatches after reset, got %d", snap.CommandsDispatched)
	}
	if snap.BytesIn != 0 {
		t.Errorf("Expected 0 bytes in after reset, got %d", snap.BytesIn)
	}
	if len(snap.ByMethod) != 0 {
		t.Errorf("Expected empty per-method stats after reset, got %d entries", len(snap.ByMethod))
	}
}

func TestObserver(t *testing.T) {
	observer := &NoOpObserver{}
	observer.ObserveCommandDispatched("callTrain")
	observer.ObserveCommandCompleted("callTrain", 1_000_000, false)
	observer.ObserveBytesIn(10)
	observer.ObserveBytesOut(10)
	observer.ObserveDataRequest(1_000_000)

	m := NewMetrics()
	metricsObserver := NewMetricsObserver(m)

	metricsObserver.ObserveCommandDispatched("callTrain")
	metricsObserver.ObserveCommandCompleted("callTrain", 1_000_000, false)
	metricsObserver.ObserveBytesIn(1024)
	metricsObserver.ObserveBytesOut(2048)

	snap := m.Snapshot()
	if snap.CommandsDispatched != 1 {
		t.Errorf("Expected 1 dispatched command from observer, got %d", snap.CommandsDispatched)
	}
	if snap.BytesIn != 1024 {
		t.Errorf("Expected 1024 bytes in from observer, got %d", snap.BytesIn)
	}
	if snap.BytesOut != 2048 {
		t.Errorf("Expected 2048 bytes out from observer, got %d", snap.BytesOut)
	}
}

func TestMetricsHistogram(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 50; i++ {
		m.RecordCommandCompleted("callEvaluate", 500_000, false) // 500us
	}
	for i := 0; i < 49; i++ {
		m.RecordCommandCompleted("callEvaluate", 5_000_000, false) // 5ms
	}
	m.RecordCommandCompleted("callEvaluate", 50_000_000, false) // 50ms, the single slowest sample

	snap := m.Snapshot()
	if snap.CommandsCompleted != 100 {
		t.Errorf("Expected 100 completed commands, got %d", snap.CommandsCompleted)
	}

	if snap.LatencyP50Ns < 100_000 || snap.LatencyP50Ns > 1_000_000 {
		t.Errorf("Expected P50 in 100us-1ms range, got %d ns", snap.LatencyP50Ns)
	}
	if snap.LatencyP99Ns < 5_000_000 || snap.LatencyP99Ns > 100_000_000 {
		t.Errorf("Expected P99 in 5ms-100ms range, got %d ns", snap.LatencyP99Ns)
	}

	totalInBuckets := uint64(0)
	for i := 0; i < len(snap.LatencyHistogram); i++ {
		totalInBuckets += snap.LatencyHistogram[i]
	}
	if totalInBuckets == 0 {
		t.Error("Expected histogram buckets to be populated")
	}
}
