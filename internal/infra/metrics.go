package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	eventsProcessed atomic.Uint64
	fillsApplied    atomic.Uint64
	reprices        atomic.Uint64
	topUps          atomic.Uint64
	settleSweeps    atomic.Uint64
	gatewayRetries  atomic.Uint64
	errorsTotal     atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	connected atomic.Int32 // 1 = gateway socket up
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordEvent records a processed notification with its latency.
func (m *Metrics) RecordEvent(latencyNs int64) {
	m.eventsProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// RecordFill records one applied fill.
func (m *Metrics) RecordFill() {
	m.fillsApplied.Add(1)
}

// RecordReprice records a completed cancel-and-replace on one side.
func (m *Metrics) RecordReprice() {
	m.reprices.Add(1)
}

// RecordTopUp records a size top-up after a partial fill.
func (m *Metrics) RecordTopUp() {
	m.topUps.Add(1)
}

// RecordSettleSweep records a settlement sweep over the subaccounts.
func (m *Metrics) RecordSettleSweep() {
	m.settleSweeps.Add(1)
}

// RecordGatewayRetry records a retried venue call.
func (m *Metrics) RecordGatewayRetry() {
	m.gatewayRetries.Add(1)
}

// SetConnected sets the gateway connection gauge.
func (m *Metrics) SetConnected(up bool) {
	if up {
		m.connected.Store(1)
	} else {
		m.connected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsProcessed uint64
	FillsApplied    uint64
	Reprices        uint64
	TopUps          uint64
	SettleSweeps    uint64
	GatewayRetries  uint64
	ErrorsTotal     uint64
	AvgLatencyNs    int64
	Connected       bool
	Timestamp       time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EventsProcessed: m.eventsProcessed.Load(),
		FillsApplied:    m.fillsApplied.Load(),
		Reprices:        m.reprices.Load(),
		TopUps:          m.topUps.Load(),
		SettleSweeps:    m.settleSweeps.Load(),
		GatewayRetries:  m.gatewayRetries.Load(),
		ErrorsTotal:     m.errorsTotal.Load(),
		AvgLatencyNs:    avgLatency,
		Connected:       m.connected.Load() == 1,
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.eventsProcessed.Store(0)
	m.fillsApplied.Store(0)
	m.reprices.Store(0)
	m.topUps.Store(0)
	m.settleSweeps.Store(0)
	m.gatewayRetries.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.connected.Store(0)
}
