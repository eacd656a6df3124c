package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/sim"
)

// Registry maps metric names to per-body factories.
type Registry struct {
	metrics map[string]func(body string) sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func(string) sim.Metric),
	}

	r.metrics["energy_drift"] = func(body string) sim.Metric { return metrics.NewEnergyDrift(body) }
	r.metrics["eccentricity"] = func(body string) sim.Metric { return metrics.NewEccentricity(body) }
	r.metrics["bound"] = func(body string) sim.Metric { return metrics.NewBound(body) }
	r.metrics["closure"] = func(body string) sim.Metric { return metrics.NewClosure(body) }

	return r
}

func (r *Registry) GetMetric(name, body string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(body), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

// DefaultMetrics attaches every registered metric to each moving body.
func (r *Registry) DefaultMetrics(w *sim.World) []sim.Metric {
	var out []sim.Metric
	for _, b := range w.Bodies() {
		if b.Fixed {
			continue
		}
		for _, name := range r.ListMetrics() {
			m, _ := r.GetMetric(name, b.Name)
			out = append(out, m)
		}
	}
	return out
}
