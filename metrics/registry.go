package metrics

import (
	"fmt"
	"io"
	"slices"
	"sync"
)

// Registry names the metrics of one simulation run. The memory, block cache
// and hart of a run share a registry, each looking its metrics up by name;
// a metric is created the first time its name is asked for.
type Registry struct {
	mu      sync.Mutex
	metrics map[string]any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]any)}
}

// lookup returns the metric called name, creating it with create if it is
// missing. It panics if name is already taken by a metric of another kind.
func lookup[T any](r *Registry, name string, create func(string) *T) *T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.metrics[name]; ok {
		t, ok := m.(*T)
		if !ok {
			panic(fmt.Sprintf("metrics: %q already registered as %T", name, m))
		}
		return t
	}
	t := create(name)
	r.metrics[name] = t
	return t
}

// Counter returns the Counter called name.
func (r *Registry) Counter(name string) *Counter {
	return lookup(r, name, NewCounter)
}

// Gauge returns the Gauge called name.
func (r *Registry) Gauge(name string) *Gauge {
	return lookup(r, name, NewGauge)
}

// Histogram returns the Histogram called name.
func (r *Registry) Histogram(name string) *Histogram {
	return lookup(r, name, NewHistogram)
}

// Snapshot returns the current value of every metric: uint64 for counters,
// int64 for gauges and Stats for histograms.
func (r *Registry) Snapshot() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := make(map[string]any, len(r.metrics))
	for name, m := range r.metrics {
		switch m := m.(type) {
		case *Counter:
			snap[name] = m.Value()
		case *Gauge:
			snap[name] = m.Value()
		case *Histogram:
			snap[name] = m.Stats()
		}
	}
	return snap
}

// Names returns the registered metric names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// WriteText writes one line per metric, sorted by name. Histograms are
// rendered as count, mean, min and max.
func (r *Registry) WriteText(w io.Writer) error {
	snap := r.Snapshot()
	for _, name := range r.Names() {
		var err error
		switch v := snap[name].(type) {
		case Stats:
			_, err = fmt.Fprintf(w, "%-28s count=%d mean=%.2f min=%.0f max=%.0f\n",
				name, v.Count, v.Mean(), v.Min, v.Max)
		default:
			_, err = fmt.Fprintf(w, "%-28s %d\n", name, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
