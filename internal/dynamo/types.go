package dynamo

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Param locates a derivative evaluation inside an integration step.
// T is the stage parameter (tn + c*h); Base is tn and is shared by every
// stage of the step.
type Param struct {
	T    float64
	Base float64
}

// At returns a Param for an evaluation at the start of a step.
func At(t float64) Param {
	return Param{T: t, Base: t}
}

// System is an ODE right-hand side dX/dt = f(X, p, env).
// E is the per-call environment; it is passed explicitly so models stay
// free of captured state.
type System[E any] interface {
	Derive(x State, p Param, env E) State
	StateDim() int
}

// Stepper advances a state by one fixed step h.
type Stepper[E any] interface {
	Step(sys System[E], x State, t, h float64, env E) State
}

// Sample is one (parameter, state) pair produced by a batch integration.
type Sample struct {
	T float64
	X State
}
