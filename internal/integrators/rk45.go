package integrators

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is Dormand-Prince with embedded error control. A call still
// advances exactly dt: the step is covered by as many accepted substeps as
// the tolerance needs. Every stage of every substep shares the outer step's
// base parameter.
//
// Only accepted substeps count against maxSubsteps; rejected trials have
// their own budget. Once either runs out, the rest of the step is taken
// unchecked.
type RK45[E any] struct {
	Tol float64

	safety      float64
	minScale    float64
	maxScale    float64
	maxSubsteps int
	maxRejects  int
}

func NewRK45[E any]() *RK45[E] {
	return &RK45[E]{
		Tol:         1e-10,
		safety:      0.9,
		minScale:    0.2,
		maxScale:    5.0,
		maxSubsteps: 4096,
		maxRejects:  256,
	}
}

func (r *RK45[E]) Step(dyn dynamo.System[E], x dynamo.State, t, dt float64, env E) dynamo.State {
	cur := x.Clone()
	remaining := dt
	h := dt
	accepted, rejected := 0, 0
	for {
		last := h >= remaining
		if last {
			h = remaining
		}
		force := accepted >= r.maxSubsteps || rejected >= r.maxRejects
		if force {
			h, last = remaining, true
		}

		next, errRatio := r.trial(dyn, cur, t, t+dt-remaining, h, env)
		if errRatio > 1 && !force {
			rejected++
			h *= r.scale(errRatio)
			continue
		}
		cur = next
		if last {
			return cur
		}
		remaining -= h
		accepted++
		h *= r.scale(errRatio)
	}
}

// scale is the factor the next substep grows or shrinks by.
func (r *RK45[E]) scale(errRatio float64) float64 {
	switch {
	case errRatio > 1:
		return math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		return math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	}
	return r.maxScale
}

// trial takes one Dormand-Prince substep of size h from t and returns the
// fifth-order state with its error relative to Tol.
func (r *RK45[E]) trial(dyn dynamo.System[E], x dynamo.State, base, t, h float64, env E) (dynamo.State, float64) {
	n := len(x)
	at := func(c float64) dynamo.Param { return dynamo.Param{T: t + c*h, Base: base} }

	k1 := dyn.Derive(x, at(0), env)

	stage := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		stage[i] = x[i] + h*b21*k1[i]
	}
	k2 := dyn.Derive(stage, at(a2), env)

	for i := 0; i < n; i++ {
		stage[i] = x[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3 := dyn.Derive(stage, at(a3), env)

	for i := 0; i < n; i++ {
		stage[i] = x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := dyn.Derive(stage, at(a4), env)

	for i := 0; i < n; i++ {
		stage[i] = x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := dyn.Derive(stage, at(a5), env)

	for i := 0; i < n; i++ {
		stage[i] = x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := dyn.Derive(stage, at(1), env)

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	k7 := dyn.Derive(xNew, at(1), env)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(h*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}
	return xNew, errMax / r.Tol
}
