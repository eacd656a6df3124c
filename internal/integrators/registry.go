package integrators

import (
	"fmt"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Names lists the registered methods. Each advances exactly one fixed step
// per call.
func Names() []string {
	return []string{"euler", "rk4", "rk45", "verlet"}
}

// ByName returns a fresh stepper for the named method. An empty name
// selects rk4.
func ByName[E any](name string) (dynamo.Stepper[E], error) {
	switch name {
	case "rk4", "":
		return NewRK4[E](), nil
	case "euler":
		return NewEuler[E](), nil
	case "rk45":
		return NewRK45[E](), nil
	case "verlet":
		return NewVerlet[E](), nil
	}
	return nil, fmt.Errorf("unknown integrator: %s", name)
}
