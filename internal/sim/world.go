package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/trajectory"
	"gonum.org/v1/gonum/spatial/r3"
)

// NoParent marks a root body.
const NoParent = -1

var ErrWorldSealed = errors.New("sim: world is sealed once the scheduler has started")

type BodySpec struct {
	Name     string
	Mass     float64
	Parent   int
	Position dynamo.Vec3
	Velocity dynamo.Vec3
	// Mu overrides the derived gravitational parameter when non-zero.
	Mu float64
	// RelativeToParent offsets Position and Velocity by the parent's seed.
	RelativeToParent bool
	// Fixed bodies never move; the sun at the origin is the usual case.
	Fixed bool
}

type Body struct {
	ID     int
	Name   string
	Mass   float64
	Mu     float64
	Parent int
	Fixed  bool
	Traj   *trajectory.Trajectory
}

func (b *Body) IsRoot() bool { return b.Parent == NoParent }

// World is the body arena. Bodies may only name an already spawned parent,
// so arena order is parent-before-child.
type World struct {
	bodies       []*Body
	byName       map[string]int
	gravityScale float64
	sealed       bool
}

// NewWorld returns an empty arena. gravityScale multiplies every mu derived
// from masses at spawn.
func NewWorld(gravityScale float64) *World {
	return &World{
		byName:       make(map[string]int),
		gravityScale: gravityScale,
	}
}

func (w *World) GravityScale() float64 { return w.gravityScale }

// Spawn adds a body seeded at step 0 and returns its arena index.
func (w *World) Spawn(spec BodySpec) (int, error) {
	if w.sealed {
		return 0, ErrWorldSealed
	}
	if spec.Name == "" {
		return 0, fmt.Errorf("body name must not be empty")
	}
	if _, dup := w.byName[spec.Name]; dup {
		return 0, fmt.Errorf("duplicate body name: %s", spec.Name)
	}
	if spec.Mass <= 0 {
		return 0, fmt.Errorf("body %s: mass must be positive, got %f", spec.Name, spec.Mass)
	}
	if spec.Parent != NoParent && (spec.Parent < 0 || spec.Parent >= len(w.bodies)) {
		return 0, fmt.Errorf("body %s: unknown parent index %d", spec.Name, spec.Parent)
	}

	seed := trajectory.Point{Position: spec.Position, Velocity: spec.Velocity}
	var parentTraj *trajectory.Trajectory
	mu := spec.Mu

	if spec.Parent != NoParent {
		parent := w.bodies[spec.Parent]
		parentTraj = parent.Traj
		if mu == 0 {
			mu = physics.RelativeMass(parent.Mass, spec.Mass) * w.gravityScale
		}
		if spec.RelativeToParent {
			origin, _ := parent.Traj.Lookup(0)
			seed.Position = r3.Add(seed.Position, origin.Position)
			seed.Velocity = r3.Add(seed.Velocity, origin.Velocity)
		}
	} else if mu == 0 {
		mu = spec.Mass * w.gravityScale
	}

	traj := trajectory.New(parentTraj, mu)
	if err := traj.Seed(seed); err != nil {
		return 0, err
	}

	id := len(w.bodies)
	w.bodies = append(w.bodies, &Body{
		ID:     id,
		Name:   spec.Name,
		Mass:   spec.Mass,
		Mu:     mu,
		Parent: spec.Parent,
		Fixed:  spec.Fixed,
		Traj:   traj,
	})
	w.byName[spec.Name] = id
	return id, nil
}

// Bodies returns the arena in spawn order.
func (w *World) Bodies() []*Body { return w.bodies }

func (w *World) Body(id int) *Body {
	if id < 0 || id >= len(w.bodies) {
		return nil
	}
	return w.bodies[id]
}

func (w *World) Lookup(name string) (*Body, bool) {
	id, ok := w.byName[name]
	if !ok {
		return nil, false
	}
	return w.bodies[id], true
}

func (w *World) Len() int { return len(w.bodies) }

func (w *World) seal() { w.sealed = true }
