package model

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/decthings/model-go/internal/interfaces"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds.
// Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// histogram is a cumulative latency histogram shared by the command and
// data-request latency tracks below.
type histogram struct {
	total   atomic.Uint64
	count   atomic.Uint64
	buckets [numLatencyBuckets]atomic.Uint64
}

func (h *histogram) record(latencyNs uint64) {
	h.total.Add(latencyNs)
	h.count.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			h.buckets[i].Add(1)
		}
	}
}

func (h *histogram) percentile(p float64) uint64 {
	totalOps := h.count.Load()
	if totalOps == 0 {
		return 0
	}
	targetCount := uint64(float64(totalOps) * p)
	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := h.buckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = h.buckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

func (h *histogram) snapshot() (avg uint64, p50, p99, p999 uint64, hist [numLatencyBuckets]uint64) {
	count := h.count.Load()
	if count > 0 {
		avg = h.total.Load() / count
		p50 = h.percentile(0.50)
		p99 = h.percentile(0.99)
		p999 = h.percentile(0.999)
	}
	for i := 0; i < numLatencyBuckets; i++ {
		hist[i] = h.buckets[i].Load()
	}
	return
}

func (h *histogram) reset() {
	h.total.Store(0)
	h.count.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		h.buckets[i].Store(0)
	}
}

// methodStats tracks per-method dispatch/completion/panic counts.
type methodStats struct {
	dispatched atomic.Uint64
	completed  atomic.Uint64
	panicked   atomic.Uint64
	latency    histogram
}

// Metrics tracks operational statistics for a running model session. Run
// does not create one; it records into a Metrics only when one is passed
// as Options.Observer through NewMetricsObserver, and then reports command
// dispatch and completion only. The byte and data-request counters change
// only through direct Record* calls.
type Metrics struct {
	CommandsDispatched atomic.Uint64
	CommandsCompleted  atomic.Uint64
	CommandsPanicked   atomic.Uint64

	BytesIn  atomic.Uint64
	BytesOut atomic.Uint64

	DataRequests     atomic.Uint64
	dataRequestStats histogram

	commandStats histogram

	methods sync.Map // string -> *methodStats

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) statsFor(method string) *methodStats {
	if v, ok := m.methods.Load(method); ok {
		return v.(*methodStats)
	}
	v, _ := m.methods.LoadOrStore(method, &methodStats{})
	return v.(*methodStats)
}

// RecordCommandDispatched records that a command began dispatch.
func (m *Metrics) RecordCommandDispatched(method string) {
	m.CommandsDispatched.Add(1)
	m.statsFor(method).dispatched.Add(1)
}

// RecordCommandCompleted records a command's completion, latency, and
// whether the handler recovered from a panic.
func (m *Metrics) RecordCommandCompleted(method string, latencyNs uint64, panicked bool) {
	m.CommandsCompleted.Add(1)
	m.commandStats.record(latencyNs)
	stats := m.statsFor(method)
	stats.completed.Add(1)
	stats.latency.record(latencyNs)
	if panicked {
		m.CommandsPanicked.Add(1)
		stats.panicked.Add(1)
	}
}

// RecordBytesIn records bytes read off the host connection.
func (m *Metrics) RecordBytesIn(n uint64) {
	m.BytesIn.Add(n)
}

// RecordBytesOut records bytes written to the host connection.
func (m *Metrics) RecordBytesOut(n uint64) {
	m.BytesOut.Add(n)
}

// RecordDataRequest records one dataset-read round trip's latency.
func (m *Metrics) RecordDataRequest(latencyNs uint64) {
	m.DataRequests.Add(1)
	m.dataRequestStats.record(latencyNs)
}

// Stop marks the session as stopped.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MethodSnapshot is a point-in-time snapshot of one command method's stats.
type MethodSnapshot struct {
	Dispatched uint64
	Completed  uint64
	Panicked   uint64
	AvgLatencyNs  uint64
	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64
}

// MetricsSnapshot is a point-in-time snapshot of a session's metrics.
type MetricsSnapshot struct {
	CommandsDispatched uint64
	CommandsCompleted  uint64
	CommandsPanicked   uint64

	BytesIn  uint64
	BytesOut uint64

	DataRequests        uint64
	DataRequestAvgNs    uint64
	DataRequestP99Ns     uint64

	AvgLatencyNs  uint64
	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	UptimeNs uint64

	ByMethod map[string]MethodSnapshot
}

// Snapshot creates a point-in-time snapshot of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		CommandsDispatched: m.CommandsDispatched.Load(),
		CommandsCompleted:  m.CommandsCompleted.Load(),
		CommandsPanicked:   m.CommandsPanicked.Load(),
		BytesIn:            m.BytesIn.Load(),
		BytesOut:           m.BytesOut.Load(),
		DataRequests:       m.DataRequests.Load(),
		ByMethod:           make(map[string]MethodSnapshot),
	}

	snap.AvgLatencyNs, snap.LatencyP50Ns, snap.LatencyP99Ns, snap.LatencyP999Ns, snap.LatencyHistogram = m.commandStats.snapshot()
	snap.DataRequestAvgNs, _, snap.DataRequestP99Ns, _, _ = m.dataRequestStats.snapshot()

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	m.methods.Range(func(key, value interface{}) bool {
		stats := value.(*methodStats)
		avg, p50, p99, p999, _ := stats.latency.snapshot()
		snap.ByMethod[key.(string)] = MethodSnapshot{
			Dispatched:    stats.dispatched.Load(),
			Completed:     stats.completed.Load(),
			Panicked:      stats.panicked.Load(),
			AvgLatencyNs:  avg,
			LatencyP50Ns:  p50,
			LatencyP99Ns:  p99,
			LatencyP999Ns: p999,
		}
		return true
	})

	return snap
}

// Reset resets all counters. Useful for testing.
func (m *Metrics) Reset() {
	m.CommandsDispatched.Store(0)
	m.CommandsCompleted.Store(0)
	m.CommandsPanicked.Store(0)
	m.BytesIn.Store(0)
	m.BytesOut.Store(0)
	m.DataRequests.Store(0)
	m.commandStats.reset()
	m.dataRequestStats.reset()
	m.methods.Range(func(key, _ interface{}) bool {
		m.methods.Delete(key)
		return true
	})
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// MetricsObserver implements interfaces.Observer using the built-in Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveCommandDispatched(method string) {
	o.metrics.RecordCommandDispatched(method)
}

func (o *MetricsObserver) ObserveCommandCompleted(method string, latencyNs uint64, panicked bool) {
	o.metrics.RecordCommandCompleted(method, latencyNs, panicked)
}

func (o *MetricsObserver) ObserveBytesIn(n uint64) {
	o.metrics.RecordBytesIn(n)
}

func (o *MetricsObserver) ObserveBytesOut(n uint64) {
	o.metrics.RecordBytesOut(n)
}

func (o *MetricsObserver) ObserveDataRequest(latencyNs uint64) {
	o.metrics.RecordDataRequest(latencyNs)
}

// NoOpObserver is a no-op implementation of interfaces.Observer.
type NoOpObserver struct{}

func (NoOpObserver) ObserveCommandDispatched(string)               {}
func (NoOpObserver) ObserveCommandCompleted(string, uint64, bool)  {}
func (NoOpObserver) ObserveBytesIn(uint64)                         {}
func (NoOpObserver) ObserveBytesOut(uint64)                        {}
func (NoOpObserver) ObserveDataRequest(uint64)                     {}

var (
	_ interfaces.Observer = (*MetricsObserver)(nil)
	_ interfaces.Observer = (*NoOpObserver)(nil)
)
