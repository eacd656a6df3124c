package metrics

import (
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

func sample(name string, mu float64, pos, vel dynamo.Vec3) []sim.BodySample {
	return []sim.BodySample{
		{Name: "sun"},
		{Name: name, Mu: mu, Point: dynamo.Point{Position: pos, Velocity: vel}},
	}
}

func circular(mu, r, phase float64) []sim.BodySample {
	pos, vel := physics.CircularOrbit(mu, r, phase)
	return sample("earth", mu, pos, vel)
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift("earth")
	if m.Name() != "energy_drift:earth" {
		t.Errorf("Name() = %q", m.Name())
	}

	for _, phase := range []float64{0, 1, 2, 3} {
		m.Observe(circular(1, 10, phase))
	}
	if m.Value() > 1e-12 {
		t.Errorf("circular orbit drift = %v, want 0", m.Value())
	}

	// Doubling the speed at r=10, mu=1 turns -0.05 into 0.1.
	pos, vel := physics.CircularOrbit(1, 10, 0)
	m.Observe(sample("earth", 1, pos, r3.Scale(2, vel)))
	if math.Abs(m.Value()-3) > 1e-9 {
		t.Errorf("drift = %v, want 3", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestEnergyDriftIgnoresOtherBodies(t *testing.T) {
	m := NewEnergyDrift("mars")
	m.Observe(circular(1, 10, 0))
	if m.samples != 0 {
		t.Error("observed a sample for a different body")
	}
}

func TestEccentricity(t *testing.T) {
	tests := []struct {
		name  string
		radii []float64
		want  float64
	}{
		{"none", nil, 0},
		{"circular", []float64{10, 10, 10}, 0},
		{"ellipse", []float64{10, 20, 30, 20}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewEccentricity("earth")
			for _, r := range tt.radii {
				m.Observe(sample("earth", 1, dynamo.V3(r, 0, 0), dynamo.Vec3{}))
			}
			if got := m.Value(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClosure(t *testing.T) {
	m := NewClosure("earth")
	if !math.IsNaN(m.Value()) {
		t.Error("closure before any lap should be NaN")
	}

	for _, phase := range []float64{0, 0.5, 1, 2, 3, 4, 5, 6, 2 * math.Pi} {
		m.Observe(circular(1, 10, phase))
	}
	if m.Value() > 1e-9 {
		t.Errorf("closure after a full lap = %v", m.Value())
	}

	m.Reset()
	m.Observe(circular(1, 10, 0))
	m.Observe(circular(1, 10, 0.1))
	if !math.IsNaN(m.Value()) {
		t.Error("closure should stay undefined until the body leaves its seed")
	}
}

func TestBound(t *testing.T) {
	m := NewBound("earth")
	if m.Value() != 1 {
		t.Errorf("Value() before samples = %v, want 1", m.Value())
	}

	pos, vel := physics.CircularOrbit(1, 10, 0)
	tests := []struct {
		name  string
		speed float64
		want  float64
	}{
		{"circular", 1, 1},
		// escape speed is sqrt(2) times circular
		{"escaping", 1.5, 0.5},
		{"other body only", 0, 0.5},
	}
	for _, tt := range tests {
		if tt.speed == 0 {
			m.Observe([]sim.BodySample{{Name: "moon"}})
		} else {
			m.Observe(sample("earth", 1, pos, r3.Scale(tt.speed, vel)))
		}
		if got := m.Value(); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: Value() = %v, want %v", tt.name, got, tt.want)
		}
	}

	m.Reset()
	if m.Value() != 1 {
		t.Errorf("Value() after Reset = %v, want 1", m.Value())
	}
}

func TestCollectorRecords(t *testing.T) {
	g := gomega.NewWithT(t)
	c := NewCollector("circular")

	c.RecordBatch("earth", 101, 2*time.Millisecond, 0)
	c.RecordBatch("earth", 101, 3*time.Millisecond, 4)
	c.RecordBatch("moon", 51, time.Millisecond, 0)
	c.RecordClock(24)
	c.RecordClock(8)

	g.Expect(testutil.ToFloat64(c.batchesTotal.WithLabelValues("earth"))).To(gomega.Equal(2.0))
	g.Expect(testutil.ToFloat64(c.pointsTotal.WithLabelValues("earth"))).To(gomega.Equal(202.0))
	g.Expect(testutil.ToFloat64(c.pointsTotal.WithLabelValues("moon"))).To(gomega.Equal(51.0))
	g.Expect(testutil.ToFloat64(c.missesTotal.WithLabelValues("earth"))).To(gomega.Equal(4.0))
	g.Expect(testutil.ToFloat64(c.clockSteps)).To(gomega.Equal(32.0))
	g.Expect(testutil.CollectAndCount(c.batchDuration)).To(gomega.Equal(2))
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector("moons")
	c.RecordBatch("io", 11, time.Millisecond, 0)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`orbitsim_batches_total{body="io",scenario="moons"} 1`,
		`orbitsim_points_total{body="io",scenario="moons"} 11`,
		"orbitsim_clock_steps_total",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := NewCollector("a"), NewCollector("b")
	a.RecordClock(5)
	if got := testutil.ToFloat64(b.clockSteps); got != 0 {
		t.Errorf("collector b saw %v steps from a", got)
	}
}
