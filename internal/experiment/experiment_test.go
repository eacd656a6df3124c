package experiment

import (
	"context"
	"testing"

	"github.com/onsi/gomega"
	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

func TestBuildWorldMoons(t *testing.T) {
	g := gomega.NewWithT(t)
	w, err := BuildWorld(config.GetPreset("moons"))
	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(w.Len()).To(gomega.Equal(6))

	for _, b := range w.Bodies() {
		if !b.IsRoot() {
			g.Expect(b.Parent).To(gomega.BeNumerically("<", b.ID), "%s spawned before its parent", b.Name)
		}
	}

	earth, _ := w.Lookup("earth")
	moon, _ := w.Lookup("moon")
	g.Expect(earth.Mu).To(gomega.Equal(physics.RelativeMass(333, 1)))
	g.Expect(moon.Mu).To(gomega.Equal(0.05))

	ep, _ := earth.Traj.Lookup(0)
	mp, _ := moon.Traj.Lookup(0)
	g.Expect(dynamo.Dist(ep.Position, mp.Position)).To(gomega.BeNumerically("~", 1.5, 1e-12))
	g.Expect(dynamo.Dist(ep.Position, dynamo.Vec3{})).To(gomega.BeNumerically("~", 20, 1e-12))

	// The moon moves with the earth plus its own circular speed.
	rel := dynamo.Dist(mp.Velocity, ep.Velocity)
	g.Expect(rel).To(gomega.BeNumerically("~", physics.CircularSpeed(0.05, 1.5), 1e-12))
}

func TestBuildWorldRejectsUnknownParent(t *testing.T) {
	sc := config.GetPreset("circular")
	sc.Bodies[1].Parent = "vulcan"
	if _, err := BuildWorld(sc); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestRunBeforeSetup(t *testing.T) {
	if _, err := New(config.GetPreset("circular")).Run(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestCircularPresetClosesAfterOnePeriod(t *testing.T) {
	g := gomega.NewWithT(t)
	sc := config.GetPreset("circular")
	// 7200 wall steps of 8 absolute steps cover one 562.8 s period.
	sc.Duration = 72

	exp := New(sc)
	g.Expect(exp.Setup(NewRegistry(), Options{})).To(gomega.Succeed())

	res, err := exp.Run(context.Background())
	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(res.Steps[len(res.Steps)-1]).To(gomega.Equal(uint64(57600)))

	g.Expect(res.Metrics).To(gomega.HaveKey("closure:planet"))
	g.Expect(res.Metrics["closure:planet"]).To(gomega.BeNumerically("<", 0.01))
	g.Expect(res.Metrics["eccentricity:planet"]).To(gomega.BeNumerically("<", 1e-3))
	g.Expect(res.Metrics["energy_drift:planet"]).To(gomega.BeNumerically("<", 1e-6))
	g.Expect(res.Metrics["bound:planet"]).To(gomega.Equal(1.0))
	g.Expect(res.Metrics).NotTo(gomega.HaveKey("closure:sun"))
}

func TestRootlessMatchesFixedCentre(t *testing.T) {
	g := gomega.NewWithT(t)

	rootless := config.GetPreset("rootless")
	rootless.Duration = 2
	a := New(rootless)
	g.Expect(a.Setup(nil, Options{})).To(gomega.Succeed())
	ra, err := a.Run(context.Background())
	g.Expect(err).NotTo(gomega.HaveOccurred())

	centred := config.GetPreset("rootless")
	centred.Duration = 2
	planet := centred.Bodies[0]
	planet.Parent = "sun"
	centred.Bodies = []config.BodyConfig{{Name: "sun", Mass: 333, Fixed: true}, planet}
	b := New(centred)
	g.Expect(b.Setup(nil, Options{})).To(gomega.Succeed())
	rb, err := b.Run(context.Background())
	g.Expect(err).NotTo(gomega.HaveOccurred())

	g.Expect(rb.Samples["planet"]).To(gomega.Equal(ra.Samples["planet"]))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if got := r.ListMetrics(); len(got) != 4 || got[0] != "bound" {
		t.Errorf("ListMetrics() = %v", got)
	}
	if _, err := r.GetMetric("lyapunov", "earth"); err == nil {
		t.Error("expected error for unknown metric")
	}
	m, err := r.GetMetric("eccentricity", "earth")
	if err != nil || m.Name() != "eccentricity:earth" {
		t.Errorf("GetMetric = %v, %v", m, err)
	}
	if len(r.ListIntegrators()) != 4 {
		t.Errorf("ListIntegrators() = %v", r.ListIntegrators())
	}

	w := sim.NewWorld(1)
	_, _ = w.Spawn(sim.BodySpec{Name: "sun", Mass: 1, Parent: sim.NoParent, Fixed: true})
	_, _ = w.Spawn(sim.BodySpec{Name: "rock", Mass: 1, Parent: 0, Position: dynamo.V3(1, 0, 0)})
	if got := len(r.DefaultMetrics(w)); got != 4 {
		t.Errorf("DefaultMetrics attached %d metrics, want 4", got)
	}
}
