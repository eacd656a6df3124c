package sim

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/trajectory"
)

// Recorder receives scheduler activity. metrics.Collector implements it.
type Recorder interface {
	RecordBatch(body string, points int, elapsed time.Duration, misses int)
	RecordClock(advanced uint64)
}

type Options struct {
	// Batch is the number of steps integrated per extension.
	Batch int
	// Lookahead is how many clock steps past the current one every
	// trajectory is kept covered. Zero means one.
	Lookahead int
	// Dt is the integration step; absolute step k is at parameter k*Dt.
	Dt         float64
	Integrator string
	Missing    physics.MissingSample
	Logger     *slog.Logger
	Recorder   Recorder
}

type BodySample struct {
	ID   int
	Name string
	Step uint64
	Mu   float64
	// Point is the body's sample; Centre is its parent's at the same step,
	// the zero point for roots.
	Point  trajectory.Point
	Centre trajectory.Point
}

// Distance is the separation between the body and its centre.
func (b BodySample) Distance() float64 {
	return dynamo.Dist(b.Point.Position, b.Centre.Position)
}

// Speed is the body's speed relative to its centre.
func (b BodySample) Speed() float64 {
	return dynamo.Dist(b.Point.Velocity, b.Centre.Velocity)
}

// Scheduler keeps every trajectory covering the clock's lookahead step.
type Scheduler struct {
	world  *World
	clock  *Clock
	opts   Options
	logger *slog.Logger

	orbit  *trajectory.ODE
	anchor *trajectory.ODE

	primed bool
}

func NewScheduler(w *World, c *Clock, opts Options) (*Scheduler, error) {
	if opts.Dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrParameterBounds, opts.Dt)
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = 1
	}
	if opts.Batch < opts.Lookahead*int(c.StepSize) {
		return nil, fmt.Errorf("%w: batch %d is shorter than the lookahead of %d clock steps of %d",
			dynamo.ErrParameterBounds, opts.Batch, opts.Lookahead, c.StepSize)
	}

	orbit, err := newODE(physics.NewRestrictedTwoBody(), opts)
	if err != nil {
		return nil, err
	}
	anchor, err := newODE(physics.NewAnchor(), opts)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		world:  w,
		clock:  c,
		opts:   opts,
		logger: logger,
		orbit:  orbit,
		anchor: anchor,
	}, nil
}

func newODE(sys dynamo.System[*physics.Environment], opts Options) (*trajectory.ODE, error) {
	stepper, err := integrators.ByName[*physics.Environment](opts.Integrator)
	if err != nil {
		return nil, err
	}
	return integrators.NewODE[*physics.Environment](sys, stepper, opts.Dt, nil)
}

func (s *Scheduler) Clock() *Clock    { return s.clock }
func (s *Scheduler) World() *World    { return s.world }
func (s *Scheduler) Options() Options { return s.opts }

// Tick advances the clock by a wall delta and extends every trajectory that
// no longer covers the lookahead step. The first tick pre-fills one batch
// before moving the clock.
func (s *Scheduler) Tick(delta float64) error {
	if !s.primed {
		if err := s.Extend(); err != nil {
			return err
		}
	}

	advanced := s.clock.Advance(delta)
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordClock(advanced)
	}
	return s.Extend()
}

// Extend runs one scheduling pass over the arena in parent-before-child
// order. It seals the world.
func (s *Scheduler) Extend() error {
	s.world.seal()
	s.primed = true

	step := s.clock.Step
	next := step + uint64(s.opts.Lookahead)*s.clock.StepSize
	for _, b := range s.world.bodies {
		if _, ok := b.Traj.Lookup(next); ok {
			continue
		}
		if err := s.extendBody(b, step, next); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) extendBody(b *Body, step, next uint64) error {
	start, ok := b.Traj.Lookup(step)
	if !ok {
		return &dynamo.CacheError{Body: b.Name, Step: step, Wrapped: dynamo.ErrMissingCurrentPoint}
	}

	batch := s.opts.Batch
	env := &physics.Environment{
		RelativeMass: b.Mu,
		CurrentStep:  step,
		LookupScale:  1 / s.opts.Dt,
		Missing:      s.opts.Missing,
	}

	if !b.IsRoot() {
		parent := s.world.bodies[b.Parent].Traj
		frontier, _ := parent.Frontier()
		if !parent.Covers(step, next) {
			return &dynamo.CacheError{
				Body:    b.Name,
				Step:    step,
				Wrapped: fmt.Errorf("%w: parent frontier %d", dynamo.ErrParentBehind, frontier),
			}
		}
		// A child never integrates past what its parent has committed.
		if limit := int(frontier - step); limit < batch {
			batch = limit
		}
		env.Parent = parent.View(step + uint64(batch))
	}

	ode := s.orbit
	if b.Fixed {
		ode = s.anchor
	}

	began := time.Now()
	if err := b.Traj.Calculate(ode, start, env, batch); err != nil {
		return &dynamo.CacheError{Body: b.Name, Step: step, Wrapped: err}
	}
	elapsed := time.Since(began)

	s.logger.Debug("extended trajectory",
		"body", b.Name,
		"step", step,
		"batch", batch,
		"elapsed", elapsed,
		"misses", env.Misses,
	)
	if err := env.MissErr(); err != nil {
		s.logger.Warn("parent samples missing",
			"body", b.Name,
			"step", step,
			"policy", env.Missing.String(),
			"err", err,
		)
	}
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordBatch(b.Name, batch+1, elapsed, env.Misses)
	}
	return nil
}

// Sample returns every body's point at the clock's current step.
func (s *Scheduler) Sample() ([]BodySample, error) {
	return s.SampleAt(s.clock.Step)
}

// SampleAt reads every body's cached point at step. Steps behind the clock
// stay readable because trajectories are never evicted.
func (s *Scheduler) SampleAt(step uint64) ([]BodySample, error) {
	out := make([]BodySample, 0, len(s.world.bodies))
	for _, b := range s.world.bodies {
		p, ok := b.Traj.Lookup(step)
		if !ok {
			return nil, &dynamo.CacheError{Body: b.Name, Step: step, Wrapped: dynamo.ErrMissingCurrentPoint}
		}
		sample := BodySample{ID: b.ID, Name: b.Name, Step: step, Mu: b.Mu, Point: p}
		if !b.IsRoot() {
			sample.Centre, _ = s.world.bodies[b.Parent].Traj.Lookup(step)
		}
		out = append(out, sample)
	}
	return out, nil
}
