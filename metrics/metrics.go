// Package metrics holds the run statistics of a simulation: event counters
// for memory, TLB and block cache traffic, gauges for resident pages and
// cached blocks, and histograms for block lengths and run time.
//
// All types are safe for concurrent use so a report can be taken while a
// hart is running.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counter counts events. It never decreases.
type Counter struct {
	name string
	n    atomic.Uint64
}

// NewCounter returns a zero Counter called name.
func NewCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc records one event.
func (c *Counter) Inc() { c.n.Add(1) }

// Add records n events.
func (c *Counter) Add(n uint64) { c.n.Add(n) }

// Value returns the number of events recorded so far.
func (c *Counter) Value() uint64 { return c.n.Load() }

// Name returns the name the counter was created with.
func (c *Counter) Name() string { return c.name }

// Gauge is a level that moves in both directions.
type Gauge struct {
	name string
	v    atomic.Int64
}

// NewGauge returns a zero Gauge called name.
func NewGauge(name string) *Gauge {
	return &Gauge{name: name}
}

// Set moves the gauge to v.
func (g *Gauge) Set(v int64) { g.v.Store(v) }

// Add moves the gauge by delta, which may be negative.
func (g *Gauge) Add(delta int64) { g.v.Add(delta) }

// Value returns the current level.
func (g *Gauge) Value() int64 { return g.v.Load() }

// Name returns the name the gauge was created with.
func (g *Gauge) Name() string { return g.name }

// Stats summarises the observations of a Histogram. Min and Max are zero
// while Count is zero.
type Stats struct {
	Count uint64
	Sum   float64
	Min   float64
	Max   float64
}

// Mean returns Sum/Count, or 0 for an empty summary.
func (s Stats) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Histogram accumulates Stats over observed values.
type Histogram struct {
	name  string
	mu    sync.Mutex
	stats Stats
}

// NewHistogram returns an empty Histogram called name.
func NewHistogram(name string) *Histogram {
	return &Histogram{name: name}
}

// Observe adds v to the summary.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &h.stats
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Count++
	s.Sum += v
}

// Since observes the microseconds elapsed since start and returns the
// elapsed time.
func (h *Histogram) Since(start time.Time) time.Duration {
	d := time.Since(start)
	h.Observe(float64(d.Microseconds()))
	return d
}

// Stats returns a copy of the current summary.
func (h *Histogram) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 { return h.Stats().Count }

// Name returns the name the histogram was created with.
func (h *Histogram) Name() string { return h.name }
