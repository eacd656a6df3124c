package integrators

import "github.com/san-kum/orbitsim/internal/dynamo"

// Verlet is velocity Verlet for states laid out as [positions, velocities].
// The second force evaluation keeps the step's base parameter so that
// time-pinned inputs stay fixed across the step.
type Verlet[E any] struct {
	scratch dynamo.State
}

func NewVerlet[E any]() *Verlet[E] {
	return &Verlet[E]{}
}

func (v *Verlet[E]) ensureScratch(n int) {
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}
}

func (v *Verlet[E]) Step(dyn dynamo.System[E], x dynamo.State, t, dt float64, env E) dynamo.State {
	n := len(x)
	half := n / 2
	v.ensureScratch(n)

	result := make(dynamo.State, n)
	dx := dyn.Derive(x, dynamo.At(t), env)
	dt2 := dt * dt

	for i := 0; i < half; i++ {
		result[i] = x[i] + x[half+i]*dt + 0.5*dx[half+i]*dt2
	}

	for i := 0; i < half; i++ {
		v.scratch[i] = result[i]
		v.scratch[half+i] = x[half+i]
	}

	dxNew := dyn.Derive(v.scratch, dynamo.Param{T: t + dt, Base: t}, env)

	halfDt := 0.5 * dt
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + (dx[half+i]+dxNew[half+i])*halfDt
	}

	return result
}
