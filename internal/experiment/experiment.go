package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

type Options struct {
	Logger   *slog.Logger
	Recorder sim.Recorder
	// Metrics are attached in addition to the registry defaults.
	Metrics []sim.Metric
	// NoDefaultMetrics skips Registry.DefaultMetrics.
	NoDefaultMetrics bool
}

// Experiment is a scenario wired into a world, clock and scheduler.
type Experiment struct {
	scenario  *config.Scenario
	world     *sim.World
	clock     *sim.Clock
	scheduler *sim.Scheduler
	simulator *sim.Simulator
}

func New(sc *config.Scenario) *Experiment {
	return &Experiment{scenario: sc}
}

func (e *Experiment) Setup(reg *Registry, opts Options) error {
	if err := e.scenario.Validate(); err != nil {
		return err
	}

	world, err := BuildWorld(e.scenario)
	if err != nil {
		return err
	}
	clock, err := sim.NewClock(e.scenario.Clock.TimePerStep, e.scenario.Clock.StepSize)
	if err != nil {
		return err
	}
	sched, err := sim.NewScheduler(world, clock, sim.Options{
		Batch:      e.scenario.Batch,
		Lookahead:  e.scenario.Lookahead,
		Dt:         e.scenario.Dt,
		Integrator: e.scenario.Integrator,
		Missing:    e.scenario.MissingPolicy(),
		Logger:     opts.Logger,
		Recorder:   opts.Recorder,
	})
	if err != nil {
		return err
	}

	e.world = world
	e.clock = clock
	e.scheduler = sched
	e.simulator = sim.New(sched)

	if !opts.NoDefaultMetrics && reg != nil {
		for _, m := range reg.DefaultMetrics(world) {
			e.simulator.AddMetric(m)
		}
	}
	for _, m := range opts.Metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

// Run simulates the scenario's duration headlessly, one wall step per tick.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, sim.RunConfig{
		WallDelta: e.scenario.Clock.TimePerStep,
		Ticks:     e.scenario.Ticks(),
	})
}

func (e *Experiment) Scenario() *config.Scenario { return e.scenario }
func (e *Experiment) World() *sim.World          { return e.world }
func (e *Experiment) Scheduler() *sim.Scheduler  { return e.scheduler }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// BuildWorld spawns the scenario's bodies in declaration order.
func BuildWorld(sc *config.Scenario) (*sim.World, error) {
	w := sim.NewWorld(sc.GravityScale)
	for _, b := range sc.Bodies {
		spec := sim.BodySpec{
			Name:             b.Name,
			Mass:             b.Mass,
			Parent:           sim.NoParent,
			Position:         dynamo.V3(b.Position[0], b.Position[1], b.Position[2]),
			Velocity:         dynamo.V3(b.Velocity[0], b.Velocity[1], b.Velocity[2]),
			Mu:               b.Mu,
			RelativeToParent: b.Relative,
			Fixed:            b.Fixed,
		}

		if b.Parent != "" {
			parent, ok := w.Lookup(b.Parent)
			if !ok {
				return nil, fmt.Errorf("body %s: unknown parent %q", b.Name, b.Parent)
			}
			spec.Parent = parent.ID

			if b.Orbit != nil {
				mu := b.Mu
				if mu == 0 {
					mu = physics.RelativeMass(parent.Mass, b.Mass) * w.GravityScale()
				}
				spec.Position, spec.Velocity = physics.CircularOrbit(mu, b.Orbit.Radius, b.Orbit.Phase)
				spec.RelativeToParent = true
			}
		}

		if _, err := w.Spawn(spec); err != nil {
			return nil, err
		}
	}
	return w, nil
}
