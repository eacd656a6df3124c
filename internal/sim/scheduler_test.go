package sim

import (
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
)

// frontierRecorder checks the ordering guarantee at every committed batch.
type frontierRecorder struct {
	world     *World
	batches   map[string]int
	points    int
	advanced  uint64
	violation error
}

func (r *frontierRecorder) RecordBatch(body string, points int, _ time.Duration, _ int) {
	r.batches[body]++
	r.points += points
	b, _ := r.world.Lookup(body)
	if b.IsRoot() {
		return
	}
	child, _ := b.Traj.Frontier()
	parent, _ := r.world.Body(b.Parent).Traj.Frontier()
	if child > parent && r.violation == nil {
		r.violation = errors.New(body + " extended past its parent")
	}
}

func (r *frontierRecorder) RecordClock(advanced uint64) { r.advanced += advanced }

// solarWorld spawns a fixed sun, a planet at r=20 and a moon around it.
func solarWorld() *World {
	w := NewWorld(1)
	sun, err := w.Spawn(BodySpec{Name: "sun", Mass: 333, Parent: NoParent, Fixed: true})
	Expect(err).NotTo(HaveOccurred())

	mu := physics.RelativeMass(333, 1)
	pos, vel := physics.CircularOrbit(mu, 20, 0)
	earth, err := w.Spawn(BodySpec{Name: "earth", Mass: 1, Parent: sun, Position: pos, Velocity: vel, RelativeToParent: true})
	Expect(err).NotTo(HaveOccurred())

	mpos, mvel := physics.CircularOrbit(0.01, 1, 0)
	_, err = w.Spawn(BodySpec{Name: "moon", Mass: 0.01, Parent: earth, Mu: 0.01, Position: mpos, Velocity: mvel, RelativeToParent: true})
	Expect(err).NotTo(HaveOccurred())
	return w
}

var _ = Describe("Scheduler", func() {
	var (
		world *World
		clock *Clock
		rec   *frontierRecorder
		sched *Scheduler
	)

	BeforeEach(func() {
		var err error
		world = solarWorld()
		clock, err = NewClock(0.01, 8)
		Expect(err).NotTo(HaveOccurred())
		rec = &frontierRecorder{world: world, batches: make(map[string]int)}
		sched, err = NewScheduler(world, clock, Options{Batch: 200, Lookahead: 2, Dt: 0.01, Recorder: rec})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a batch shorter than one clock step", func() {
		_, err := NewScheduler(world, clock, Options{Batch: 12, Lookahead: 2, Dt: 0.01})
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})

	It("rejects an unknown integrator", func() {
		_, err := NewScheduler(world, clock, Options{Batch: 200, Dt: 0.01, Integrator: "leapfrog"})
		Expect(err).To(HaveOccurred())
	})

	It("pre-fills one batch before the clock first moves", func() {
		Expect(sched.Tick(0)).To(Succeed())
		Expect(clock.Step).To(BeZero())
		for _, b := range world.Bodies() {
			Expect(b.Traj.Len()).To(Equal(201), b.Name)
		}
	})

	It("keeps every trajectory ahead of the clock without holes", func() {
		for i := 0; i < 100; i++ {
			Expect(sched.Tick(0.013)).To(Succeed())
			for _, b := range world.Bodies() {
				_, ok := b.Traj.Lookup(clock.Step + 2*clock.StepSize)
				Expect(ok).To(BeTrue(), "%s at tick %d", b.Name, i)
			}
		}
		Expect(rec.advanced).To(Equal(clock.Step))
		for _, b := range world.Bodies() {
			frontier, _ := b.Traj.Frontier()
			for m := uint64(0); m <= frontier; m++ {
				_, ok := b.Traj.Lookup(m)
				Expect(ok).To(BeTrue(), "%s hole at %d", b.Name, m)
			}
		}
	})

	It("never extends a child past its parent", func() {
		for i := 0; i < 300; i++ {
			Expect(sched.Tick(0.02)).To(Succeed())
		}
		Expect(rec.violation).NotTo(HaveOccurred())
		Expect(rec.batches["moon"]).To(BeNumerically(">", 1))
	})

	It("amortises integration over many ticks", func() {
		for i := 0; i < 20; i++ {
			Expect(sched.Tick(0.01)).To(Succeed())
		}
		// 20 ticks of 8 steps plus the lookahead fit in the primed batch.
		Expect(rec.batches["earth"]).To(Equal(1))
	})

	It("keeps the fixed body at its seed", func() {
		for i := 0; i < 50; i++ {
			Expect(sched.Tick(0.01)).To(Succeed())
		}
		samples, err := sched.Sample()
		Expect(err).NotTo(HaveOccurred())
		Expect(samples).To(HaveLen(3))
		Expect(samples[0].Point.Position).To(Equal(dynamo.V3(0, 0, 0)))
		Expect(samples[1].Distance()).To(BeNumerically("~", 20, 0.01))
		Expect(samples[1].Speed()).To(BeNumerically("~", math.Sqrt(physics.RelativeMass(333, 1)/20), 1e-3))
		Expect(samples[2].Distance()).To(BeNumerically("~", 1, 0.1))
		Expect(samples[2].Centre).To(Equal(samples[1].Point))
	})

	It("fails when the clock outruns the cache", func() {
		Expect(sched.Tick(0)).To(Succeed())
		err := sched.Tick(0.305)

		var cacheErr *dynamo.CacheError
		Expect(errors.As(err, &cacheErr)).To(BeTrue())
		Expect(cacheErr.Body).To(Equal("sun"))
		Expect(cacheErr.Step).To(Equal(uint64(240)))
		Expect(err).To(MatchError(dynamo.ErrMissingCurrentPoint))
	})

	It("refuses to extend a child whose parent is behind", func() {
		moon, _ := world.Lookup("moon")
		err := sched.extendBody(moon, 0, clock.Next())
		Expect(err).To(MatchError(dynamo.ErrParentBehind))
		Expect(moon.Traj.Len()).To(Equal(1))
	})

	It("clamps a child batch to the parent frontier", func() {
		sun, _ := world.Lookup("sun")
		earth, _ := world.Lookup("earth")

		start, _ := sun.Traj.Lookup(0)
		env := &physics.Environment{LookupScale: 100}
		Expect(sun.Traj.Calculate(sched.anchor, start, env, 50)).To(Succeed())

		Expect(sched.extendBody(earth, 0, 16)).To(Succeed())
		Expect(earth.Traj.Len()).To(Equal(51))
	})

	It("reports samples at the current step", func() {
		Expect(sched.Tick(0.035)).To(Succeed())
		samples, err := sched.Sample()
		Expect(err).NotTo(HaveOccurred())
		for _, s := range samples {
			Expect(s.Step).To(Equal(uint64(24)))
			Expect(s.Point.Time).To(BeNumerically("~", 0.24, 1e-9))
		}
	})
})

var _ = Describe("Circular orbit through the scheduler", func() {
	It("closes after one period", func() {
		w := NewWorld(1)
		sun, err := w.Spawn(BodySpec{Name: "sun", Mass: 333, Parent: NoParent, Fixed: true})
		Expect(err).NotTo(HaveOccurred())

		mu := physics.RelativeMass(333, 1)
		_, err = w.Spawn(BodySpec{
			Name:     "planet",
			Mass:     1,
			Parent:   sun,
			Position: dynamo.V3(20, 0, 0),
			Velocity: dynamo.V3(0, math.Sqrt(mu/20), 0),
		})
		Expect(err).NotTo(HaveOccurred())

		clock, _ := NewClock(0.01, 120)
		sched, err := NewScheduler(w, clock, Options{Batch: 5000, Dt: 0.01})
		Expect(err).NotTo(HaveOccurred())

		for clock.Step < 56280 {
			Expect(sched.Tick(0.01)).To(Succeed())
		}
		Expect(clock.Step).To(Equal(uint64(56280)))

		samples, err := sched.Sample()
		Expect(err).NotTo(HaveOccurred())
		pos := samples[1].Point.Position
		Expect(dynamo.Dist(pos, dynamo.V3(20, 0, 0)) / 20).To(BeNumerically("<", 0.01))
	})
})
