package integrators

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

type wrongWidth struct{}

func (wrongWidth) Derive(x dynamo.State, _ dynamo.Param, _ struct{}) dynamo.State {
	return dynamo.State{0}
}

func (wrongWidth) StateDim() int { return 2 }

type recordingDynamics struct {
	params []dynamo.Param
}

func (r *recordingDynamics) Derive(x dynamo.State, p dynamo.Param, _ struct{}) dynamo.State {
	r.params = append(r.params, p)
	return dynamo.State{0}
}

func (r *recordingDynamics) StateDim() int { return 1 }

func TestNewODERejectsWidthMismatch(t *testing.T) {
	g := NewWithT(t)

	_, err := NewODE[struct{}](wrongWidth{}, NewRK4[struct{}](), 0.01, struct{}{})
	g.Expect(err).To(HaveOccurred())
	g.Expect(errors.Is(err, dynamo.ErrInvalidStateDimension)).To(BeTrue())

	var dimErr *dynamo.DimensionError
	g.Expect(errors.As(err, &dimErr)).To(BeTrue())
	g.Expect(dimErr.State).To(Equal(2))
	g.Expect(dimErr.Deriv).To(Equal(1))
}

func TestNewODERejectsStepSize(t *testing.T) {
	for _, h := range []float64{0, -0.01} {
		if _, err := NewODE[struct{}](&simpleDynamics{}, NewRK4[struct{}](), h, struct{}{}); err == nil {
			t.Errorf("expected error for h=%v", h)
		}
	}
}

func TestIntegrateBatch(t *testing.T) {
	g := NewWithT(t)

	ode, err := NewODE[struct{}](&simpleDynamics{}, NewRK4[struct{}](), 0.01, struct{}{})
	g.Expect(err).NotTo(HaveOccurred())

	samples, err := ode.Integrate(1.0, dynamo.State{1, 0}, 50, struct{}{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(samples).To(HaveLen(51))
	g.Expect(samples[0].T).To(Equal(1.0))
	g.Expect(samples[0].X).To(Equal(dynamo.State{1, 0}))
	g.Expect(samples[50].T).To(BeNumerically("~", 1.5, 1e-12))
	g.Expect(samples[50].X[0]).To(BeNumerically("~", math.Cos(0.5), 1e-9))
}

func TestIntegrateParameterStaysOnGrid(t *testing.T) {
	ode, err := NewODE[struct{}](&simpleDynamics{}, NewEuler[struct{}](), 0.01, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	const t0 = 12.34
	samples, err := ode.Integrate(t0, dynamo.State{1, 0}, 20000, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range samples {
		if want := t0 + float64(i)*0.01; s.T != want {
			t.Fatalf("sample %d at t=%v, want %v", i, s.T, want)
		}
	}
}

func TestIntegrateDeterministic(t *testing.T) {
	g := NewWithT(t)

	run := func() []dynamo.Sample {
		ode, err := NewODE[struct{}](&simpleDynamics{}, NewRK4[struct{}](), 0.01, struct{}{})
		g.Expect(err).NotTo(HaveOccurred())
		out, err := ode.Integrate(0, dynamo.State{0.3, -0.2}, 500, struct{}{})
		g.Expect(err).NotTo(HaveOccurred())
		return out
	}

	a, b := run(), run()
	g.Expect(a).To(Equal(b))
}

func TestIntegrateStageBase(t *testing.T) {
	rec := &recordingDynamics{}
	ode, err := NewODE[struct{}](rec, NewRK4[struct{}](), 0.5, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	rec.params = nil

	if _, err := ode.Integrate(0, dynamo.State{0}, 2, struct{}{}); err != nil {
		t.Fatal(err)
	}

	want := []dynamo.Param{
		{T: 0, Base: 0}, {T: 0.25, Base: 0}, {T: 0.25, Base: 0}, {T: 0.5, Base: 0},
		{T: 0.5, Base: 0.5}, {T: 0.75, Base: 0.5}, {T: 0.75, Base: 0.5}, {T: 1, Base: 0.5},
	}
	if len(rec.params) != len(want) {
		t.Fatalf("got %d evaluations, want %d", len(rec.params), len(want))
	}
	for i := range want {
		if rec.params[i] != want[i] {
			t.Errorf("evaluation %d: got %+v, want %+v", i, rec.params[i], want[i])
		}
	}
}

func TestIntegrateRejectsBadSeed(t *testing.T) {
	ode, err := NewODE[struct{}](&simpleDynamics{}, NewRK4[struct{}](), 0.01, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ode.Integrate(0, dynamo.State{1}, 10, struct{}{}); err == nil {
		t.Error("expected error for short seed state")
	}
	if _, err := ode.Integrate(0, dynamo.State{1, 0}, -1, struct{}{}); err == nil {
		t.Error("expected error for negative step count")
	}
}
