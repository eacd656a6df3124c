// Package trajectory implements the per-body cache of integrated samples.
//
// A Trajectory maps absolute steps to points. Keys start at 0 and grow
// contiguously; an extension may overlap already committed steps, in which
// case the recomputed points are identical and the overwrite is a no-op.
package trajectory

import (
	"fmt"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/physics"
)

type Point = dynamo.Point

// ODE is the integrator a trajectory is extended with.
type ODE = integrators.ODE[*physics.Environment]

type Trajectory struct {
	// points[i] is the sample at absolute step i.
	points       []Point
	parent       *Trajectory
	relativeMass float64
}

// New returns an empty trajectory. parent is nil for root bodies.
func New(parent *Trajectory, relativeMass float64) *Trajectory {
	return &Trajectory{
		parent:       parent,
		relativeMass: relativeMass,
	}
}

func (t *Trajectory) Parent() *Trajectory   { return t.parent }
func (t *Trajectory) RelativeMass() float64 { return t.relativeMass }

// Len is the number of committed steps, i.e. the frontier plus one.
func (t *Trajectory) Len() int { return len(t.points) }

// Frontier returns the highest committed step.
func (t *Trajectory) Frontier() (uint64, bool) {
	if len(t.points) == 0 {
		return 0, false
	}
	return uint64(len(t.points) - 1), true
}

// Lookup returns the point at an absolute step, or false if it has not been
// computed yet.
func (t *Trajectory) Lookup(step uint64) (Point, bool) {
	if step >= uint64(len(t.points)) {
		return Point{}, false
	}
	return t.points[step], true
}

// Covers reports whether every step in [from, to] is committed.
func (t *Trajectory) Covers(from, to uint64) bool {
	return from <= to && to < uint64(len(t.points))
}

// Seed sets the step-0 sample of an empty trajectory.
func (t *Trajectory) Seed(p Point) error {
	if len(t.points) != 0 {
		return fmt.Errorf("trajectory already seeded with %d points", len(t.points))
	}
	t.points = append(t.points, p)
	return nil
}

// Calculate integrates batch steps from start and stores the batch+1
// resulting points at env.CurrentStep, env.CurrentStep+1, ...
func (t *Trajectory) Calculate(ode *ODE, start Point, env *physics.Environment, batch int) error {
	if env.CurrentStep > uint64(len(t.points)) {
		return fmt.Errorf("%w: step %d, frontier %d", dynamo.ErrNonContiguous, env.CurrentStep, len(t.points))
	}

	samples, err := ode.Integrate(start.Time, start.State(), batch, env)
	if err != nil {
		return err
	}

	t.insert(env.CurrentStep, samples)
	return nil
}

func (t *Trajectory) insert(from uint64, samples []dynamo.Sample) {
	end := from + uint64(len(samples))
	if grow := int(end) - len(t.points); grow > 0 {
		t.points = append(t.points, make([]Point, grow)...)
	}
	for i, s := range samples {
		t.points[from+uint64(i)] = dynamo.PointFromState(s.T, s.X)
	}
}

// View returns a read-only view of steps [0, upTo], clamped to the
// frontier. The view shares the trajectory's storage without copying;
// appends past its end are invisible to it.
func (t *Trajectory) View(upTo uint64) View {
	n := uint64(len(t.points))
	if upTo+1 < n {
		n = upTo + 1
	}
	return View{points: t.points[:n:n]}
}

// Points returns a copy of the committed samples in [from, to].
func (t *Trajectory) Points(from, to uint64) []Point {
	if len(t.points) == 0 || from > to || from >= uint64(len(t.points)) {
		return nil
	}
	if to >= uint64(len(t.points)) {
		to = uint64(len(t.points) - 1)
	}
	out := make([]Point, to-from+1)
	copy(out, t.points[from:to+1])
	return out
}

// View is a bounded snapshot of a trajectory. It implements physics.Samples.
type View struct {
	points []Point
}

func (v View) Lookup(step uint64) (Point, bool) {
	if step >= uint64(len(v.points)) {
		return Point{}, false
	}
	return v.points[step], true
}

func (v View) Len() int { return len(v.points) }
