package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Samples is a read-only, contiguous view of a parent trajectory covering
// steps [0, Len()).
type Samples interface {
	Lookup(step uint64) (dynamo.Point, bool)
	Len() int
}

// MissingSample selects what a parent lookup miss resolves to.
type MissingSample int

const (
	// FillZero substitutes a zero-position, zero-velocity sample.
	FillZero MissingSample = iota
	// Interpolate extends the line through the two nearest committed samples.
	Interpolate
)

func (m MissingSample) String() string {
	switch m {
	case FillZero:
		return "zero"
	case Interpolate:
		return "interpolate"
	}
	return fmt.Sprintf("MissingSample(%d)", int(m))
}

// ParseMissingSample maps a config name to a policy. An empty name is FillZero.
func ParseMissingSample(name string) (MissingSample, error) {
	switch name {
	case "zero", "":
		return FillZero, nil
	case "interpolate":
		return Interpolate, nil
	}
	return FillZero, fmt.Errorf("unknown missing-sample policy: %s", name)
}

// keyTolerance absorbs the drift of the accumulated integration parameter
// so that t = k*h maps to step k rather than k+1.
const keyTolerance = 1e-6

// StepKey converts an integration parameter to an absolute step key:
// ceil(t*scale), snapped to the nearest integer when within keyTolerance.
func StepKey(t, scale float64) uint64 {
	x := t * scale
	if x <= 0 {
		return 0
	}
	if r := math.Round(x); math.Abs(x-r) < keyTolerance {
		return uint64(r)
	}
	return uint64(math.Ceil(x))
}

// Environment is the transient input of one batch extension.
type Environment struct {
	RelativeMass float64
	// Parent is nil for root bodies.
	Parent      Samples
	CurrentStep uint64
	LookupScale float64
	Missing     MissingSample
	// Misses counts parent lookups that fell back to Missing.
	Misses    int
	firstMiss uint64
}

// ParentSample returns the parent sample for integration parameter t.
func (e *Environment) ParentSample(t float64) dynamo.Point {
	if e == nil || e.Parent == nil {
		return dynamo.Point{}
	}
	key := StepKey(t, e.LookupScale)
	if p, ok := e.Parent.Lookup(key); ok {
		return p
	}
	if e.Misses == 0 {
		e.firstMiss = key
	}
	e.Misses++
	if e.Missing == Interpolate {
		return extrapolate(e.Parent, key)
	}
	return dynamo.Point{}
}

// MissErr reports the recovered parent misses of the batch, nil when every
// lookup hit.
func (e *Environment) MissErr() error {
	if e == nil || e.Misses == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d lookups, first at step %d", dynamo.ErrMissingParentSample, e.Misses, e.firstMiss)
}

// extrapolate resolves a key past the end of a contiguous view from its
// last two samples.
func extrapolate(s Samples, key uint64) dynamo.Point {
	n := s.Len()
	switch {
	case n == 0:
		return dynamo.Point{}
	case n == 1:
		p, _ := s.Lookup(0)
		return p
	}
	lo := uint64(n - 2)
	a, _ := s.Lookup(lo)
	b, _ := s.Lookup(lo + 1)
	f := float64(key - lo)
	return dynamo.Point{
		Time:     a.Time + f*(b.Time-a.Time),
		Position: dynamo.Lerp(a.Position, b.Position, f),
		Velocity: dynamo.Lerp(a.Velocity, b.Velocity, f),
	}
}
