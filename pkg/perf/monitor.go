// Package perf tracks rolling processing and network latency samples for
// the capture pipeline and classifies current conditions. The monitor is
// passive: it only aggregates, the adaptive controller owns the cadence at
// which it is queried.
package perf

import (
	"sync"
	"time"
)

// windowSize is the capacity of each rolling sample window.
const windowSize = 10

// Classification thresholds.
const (
	poorProcessing = 200 * time.Millisecond
	poorNetwork    = 1000 * time.Millisecond
	goodProcessing = 100 * time.Millisecond
	goodNetwork    = 500 * time.Millisecond
	slowNetwork    = 800 * time.Millisecond
	fastNetwork    = 300 * time.Millisecond
)

// Monitor holds two bounded FIFO windows of recent latency samples.
// Safe for concurrent use: samples arrive from the detection loop while
// the controller queries classifications.
type Monitor struct {
	mu         sync.Mutex
	processing window
	network    window
}

// NewMonitor creates an empty performance monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// AddProcessingSample records how long one frame took to encode.
func (m *Monitor) AddProcessingSample(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processing.add(d)
}

// AddNetworkSample records one observed backend round-trip.
func (m *Monitor) AddNetworkSample(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.network.add(d)
}

// AvgProcessing returns the mean of the processing window, 0 if empty.
func (m *Monitor) AvgProcessing() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processing.avg()
}

// AvgNetwork returns the mean of the network window, 0 if empty.
func (m *Monitor) AvgNetwork() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.network.avg()
}

// IsPoor reports whether conditions are clearly degraded: average
// processing above 200ms or average round-trip above 1s.
// With no samples yet there is no evidence either way, so false.
func (m *Monitor) IsPoor() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processing.len() == 0 && m.network.len() == 0 {
		return false
	}
	return m.processing.avg() > poorProcessing || m.network.avg() > poorNetwork
}

// IsGood reports whether conditions are clearly healthy: average
// processing under 100ms and average round-trip under 500ms.
// Requires at least one sample in each window.
func (m *Monitor) IsGood() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processing.len() == 0 || m.network.len() == 0 {
		return false
	}
	return m.processing.avg() < goodProcessing && m.network.avg() < goodNetwork
}

// IsNetworkSlow reports average round-trip above 800ms.
func (m *Monitor) IsNetworkSlow() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.network.len() > 0 && m.network.avg() > slowNetwork
}

// IsNetworkFast reports average round-trip under 300ms.
func (m *Monitor) IsNetworkFast() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.network.len() > 0 && m.network.avg() < fastNetwork
}

// window is a bounded FIFO of durations. Oldest sample is evicted first.
type window struct {
	samples []time.Duration
}

func (w *window) add(d time.Duration) {
	w.samples = append(w.samples, d)
	if len(w.samples) > windowSize {
		w.samples = w.samples[1:]
	}
}

func (w *window) len() int {
	return len(w.samples)
}

func (w *window) avg() time.Duration {
	if len(w.samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, s := range w.samples {
		total += s
	}
	return total / time.Duration(len(w.samples))
}
