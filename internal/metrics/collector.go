package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/orbitsim/internal/sim"
)

// Collector exports scheduler activity to Prometheus. It implements
// sim.Recorder and owns its registry so several scenarios can each have one.
type Collector struct {
	registry      *prometheus.Registry
	batchesTotal  *prometheus.CounterVec
	pointsTotal   *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	missesTotal   *prometheus.CounterVec
	clockSteps    prometheus.Counter
}

func NewCollector(scenario string) *Collector {
	constLabels := prometheus.Labels{"scenario": scenario}
	m := &Collector{
		registry: prometheus.NewRegistry(),
		batchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "orbitsim_batches_total",
				Help:        "Trajectory extensions committed",
				ConstLabels: constLabels,
			},
			[]string{"body"},
		),
		pointsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "orbitsim_points_total",
				Help:        "Trajectory points written, overlapping overwrites included",
				ConstLabels: constLabels,
			},
			[]string{"body"},
		),
		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "orbitsim_batch_duration_seconds",
				Help:        "Time spent integrating one batch",
				ConstLabels: constLabels,
				Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"body"},
		),
		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "orbitsim_parent_sample_misses_total",
				Help:        "Parent lookups resolved by the missing-sample policy",
				ConstLabels: constLabels,
			},
			[]string{"body"},
		),
		clockSteps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "orbitsim_clock_steps_total",
				Help:        "Absolute steps the simulation clock advanced",
				ConstLabels: constLabels,
			},
		),
	}

	m.registry.MustRegister(
		m.batchesTotal,
		m.pointsTotal,
		m.batchDuration,
		m.missesTotal,
		m.clockSteps,
	)

	return m
}

var _ sim.Recorder = (*Collector)(nil)

func (m *Collector) RecordBatch(body string, points int, elapsed time.Duration, misses int) {
	m.batchesTotal.WithLabelValues(body).Inc()
	m.pointsTotal.WithLabelValues(body).Add(float64(points))
	m.batchDuration.WithLabelValues(body).Observe(elapsed.Seconds())
	if misses > 0 {
		m.missesTotal.WithLabelValues(body).Add(float64(misses))
	}
}

func (m *Collector) RecordClock(advanced uint64) {
	m.clockSteps.Add(float64(advanced))
}

func (m *Collector) Registry() *prometheus.Registry { return m.registry }

func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
