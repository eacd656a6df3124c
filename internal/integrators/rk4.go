package integrators

import "github.com/san-kum/orbitsim/internal/dynamo"

// RK4 is the classic explicit 4-stage Runge-Kutta method.
type RK4[E any] struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4[E any]() *RK4[E] {
	return &RK4[E]{}
}

func (r *RK4[E]) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4[E]) Step(dyn dynamo.System[E], x dynamo.State, t, dt float64, env E) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	k1 := dyn.Derive(x, dynamo.At(t), env)
	copy(r.k1, k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	k2 := dyn.Derive(r.scratch, dynamo.Param{T: t + dt*0.5, Base: t}, env)
	copy(r.k2, k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	k3 := dyn.Derive(r.scratch, dynamo.Param{T: t + dt*0.5, Base: t}, env)
	copy(r.k3, k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	k4 := dyn.Derive(r.scratch, dynamo.Param{T: t + dt, Base: t}, env)
	copy(r.k4, k4)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}
