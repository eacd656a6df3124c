package integrators

import (
	"testing"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int { return 2 }
func (b *benchDynamics) Derive(x dynamo.State, _ dynamo.Param, _ struct{}) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler[struct{}]()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01, struct{}{})
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4[struct{}]()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01, struct{}{})
	}
}

func BenchmarkVerlet(b *testing.B) {
	integrator := NewVerlet[struct{}]()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01, struct{}{})
	}
}

func BenchmarkIntegrateBatch(b *testing.B) {
	ode, err := NewODE[struct{}](&benchDynamics{}, NewRK4[struct{}](), 0.01, struct{}{})
	if err != nil {
		b.Fatal(err)
	}
	x0 := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ode.Integrate(0, x0, 4096, struct{}{}); err != nil {
			b.Fatal(err)
		}
	}
}
