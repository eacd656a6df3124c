package integrators

import (
	"fmt"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// ODE binds a system to a fixed-step stepper. The system's derivative
// width is checked once at construction.
type ODE[E any] struct {
	sys     dynamo.System[E]
	stepper dynamo.Stepper[E]
	h       float64
}

// NewODE registers sys with stepper and step size h. The derivative is
// evaluated once with a zero state and env; a width other
// than sys.StateDim() fails with dynamo.ErrInvalidStateDimension.
func NewODE[E any](sys dynamo.System[E], stepper dynamo.Stepper[E], h float64, env E) (*ODE[E], error) {
	if h <= 0 {
		return nil, fmt.Errorf("%w: step size must be positive, got %g", dynamo.ErrParameterBounds, h)
	}
	n := sys.StateDim()
	if d := sys.Derive(make(dynamo.State, n), dynamo.At(0), env); len(d) != n {
		return nil, &dynamo.DimensionError{State: n, Deriv: len(d)}
	}
	return &ODE[E]{sys: sys, stepper: stepper, h: h}, nil
}

// Integrate computes n steps from (t0, x0) and returns all n+1 samples,
// the seed included. Step i sits at t0 + i*h, computed rather than
// accumulated so that long batches do not drift off the step grid.
func (o *ODE[E]) Integrate(t0 float64, x0 dynamo.State, n int, env E) ([]dynamo.Sample, error) {
	if len(x0) != o.sys.StateDim() {
		return nil, &dynamo.DimensionError{State: o.sys.StateDim(), Deriv: len(x0)}
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative step count %d", dynamo.ErrParameterBounds, n)
	}

	out := make([]dynamo.Sample, 0, n+1)
	x := x0.Clone()
	t := t0
	out = append(out, dynamo.Sample{T: t, X: x})

	for i := 1; i <= n; i++ {
		x = o.stepper.Step(o.sys, x, t, o.h, env)
		t = t0 + float64(i)*o.h
		out = append(out, dynamo.Sample{T: t, X: x})
	}

	return out, nil
}
