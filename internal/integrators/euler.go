package integrators

import "github.com/san-kum/orbitsim/internal/dynamo"

type Euler[E any] struct{}

func NewEuler[E any]() *Euler[E] {
	return &Euler[E]{}
}

func (e *Euler[E]) Step(dyn dynamo.System[E], x dynamo.State, t, dt float64, env E) dynamo.State {
	dx := dyn.Derive(x, dynamo.At(t), env)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
