package physics

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// pointSlice is a contiguous Samples view indexed by step.
type pointSlice []dynamo.Point

func (s pointSlice) Lookup(step uint64) (dynamo.Point, bool) {
	if step >= uint64(len(s)) {
		return dynamo.Point{}, false
	}
	return s[step], true
}

func (s pointSlice) Len() int { return len(s) }

func TestDeriveInverseSquare(t *testing.T) {
	model := NewRestrictedTwoBody()
	env := &Environment{RelativeMass: 4, LookupScale: 100}

	dx := model.Derive(dynamo.State{2, 0, 0, 0, 3, 0}, dynamo.At(0), env)

	want := dynamo.State{0, 3, 0, -1, 0, 0}
	for i := range want {
		if math.Abs(dx[i]-want[i]) > 1e-15 {
			t.Errorf("dx[%d] = %v, want %v", i, dx[i], want[i])
		}
	}
}

func TestDeriveRelativeToParent(t *testing.T) {
	model := NewRestrictedTwoBody()
	parent := pointSlice{{Position: dynamo.V3(10, 0, 0)}}
	env := &Environment{RelativeMass: 1, Parent: parent, LookupScale: 100}

	dx := model.Derive(dynamo.State{10, 1, 0, 0, 0, 0}, dynamo.At(0), env)
	if math.Abs(dx[4]+1) > 1e-15 || dx[3] != 0 {
		t.Errorf("acceleration = (%v, %v), want (0, -1)", dx[3], dx[4])
	}
}

func TestDeriveRootAndEmptyParentMatch(t *testing.T) {
	model := NewRestrictedTwoBody()
	x := dynamo.State{3, -4, 1, 0.1, 0.2, 0}

	root := model.Derive(x, dynamo.At(0.37), &Environment{RelativeMass: 2, LookupScale: 100})
	empty := &Environment{RelativeMass: 2, Parent: pointSlice{}, LookupScale: 100}
	orphan := model.Derive(x, dynamo.At(0.37), empty)

	for i := range root {
		if root[i] != orphan[i] {
			t.Fatalf("component %d differs: %v vs %v", i, root[i], orphan[i])
		}
	}
	if empty.Misses != 1 {
		t.Errorf("misses = %d, want 1", empty.Misses)
	}
}

func TestDeriveUsesStepBase(t *testing.T) {
	model := NewRestrictedTwoBody()
	parent := pointSlice{
		{Position: dynamo.V3(0, 0, 0)},
		{Position: dynamo.V3(5, 0, 0)},
	}
	env := &Environment{RelativeMass: 1, Parent: parent, LookupScale: 100}
	x := dynamo.State{1, 0, 0, 0, 0, 0}

	start := model.Derive(x, dynamo.At(0), env)
	mid := model.Derive(x, dynamo.Param{T: 0.005, Base: 0}, env)
	end := model.Derive(x, dynamo.Param{T: 0.01, Base: 0}, env)

	for i := range start {
		if start[i] != mid[i] || start[i] != end[i] {
			t.Fatalf("parent sample changed inside a step: %v %v %v", start, mid, end)
		}
	}
}

func TestStepKey(t *testing.T) {
	tests := []struct {
		name  string
		t     float64
		scale float64
		want  uint64
	}{
		{"zero", 0, 100, 0},
		{"negative", -0.5, 100, 0},
		{"float drift", 0.07, 100, 7},
		{"fractional rounds up", 0.075, 100, 8},
		{"just above", 0.0701, 100, 8},
		{"unit scale", 3, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StepKey(tt.t, tt.scale); got != tt.want {
				t.Errorf("StepKey(%v, %v) = %d, want %d", tt.t, tt.scale, got, tt.want)
			}
		})
	}
}

func TestStepKeyAccumulatedParameter(t *testing.T) {
	p := 0.0
	for i := 0; i < 56280; i++ {
		p += 0.01
	}
	if got := StepKey(p, 100); got != 56280 {
		t.Errorf("StepKey(accumulated) = %d, want 56280", got)
	}
}

func TestStepKeyLongRuns(t *testing.T) {
	for _, h := range []float64{0.01, 0.001, 1.0 / 3} {
		for k := uint64(0); k <= 20_000_000; k += 9973 {
			if got := StepKey(float64(k)*h, 1/h); got != k {
				t.Fatalf("h=%v: StepKey(%d*h) = %d", h, k, got)
			}
		}
	}
}

func TestMissingSamplePolicies(t *testing.T) {
	parent := pointSlice{
		{Time: 0, Position: dynamo.V3(0, 0, 0), Velocity: dynamo.V3(1, 0, 0)},
		{Time: 1, Position: dynamo.V3(1, 0, 0), Velocity: dynamo.V3(1, 0, 0)},
	}

	zero := &Environment{Parent: parent, LookupScale: 1, Missing: FillZero}
	if p := zero.ParentSample(3); p != (dynamo.Point{}) {
		t.Errorf("FillZero returned %+v", p)
	}

	interp := &Environment{Parent: parent, LookupScale: 1, Missing: Interpolate}
	p := interp.ParentSample(3)
	if p.Position != dynamo.V3(3, 0, 0) || p.Time != 3 {
		t.Errorf("Interpolate returned %+v, want position (3,0,0) at t=3", p)
	}
	if interp.Misses != 1 {
		t.Errorf("misses = %d, want 1", interp.Misses)
	}

	single := &Environment{Parent: parent[:1], LookupScale: 1, Missing: Interpolate}
	if p := single.ParentSample(2); p != parent[0] {
		t.Errorf("single-sample view returned %+v", p)
	}

	hit := &Environment{Parent: parent, LookupScale: 1}
	if p := hit.ParentSample(1); p != parent[1] || hit.Misses != 0 {
		t.Errorf("hit returned %+v with %d misses", p, hit.Misses)
	}
	if err := hit.MissErr(); err != nil {
		t.Errorf("MissErr() after hits = %v, want nil", err)
	}
}

func TestMissErr(t *testing.T) {
	parent := pointSlice{{}, {}}
	env := &Environment{Parent: parent, LookupScale: 1}
	env.ParentSample(5)
	env.ParentSample(7)

	err := env.MissErr()
	if !errors.Is(err, dynamo.ErrMissingParentSample) {
		t.Fatalf("MissErr() = %v, want ErrMissingParentSample", err)
	}
	if want := "2 lookups, first at step 5"; !strings.Contains(err.Error(), want) {
		t.Errorf("MissErr() = %q, want it to mention %q", err, want)
	}

	var root *Environment
	if root.MissErr() != nil {
		t.Error("nil environment reported misses")
	}
}

func TestParseMissingSample(t *testing.T) {
	for _, name := range []string{"zero", "interpolate"} {
		m, err := ParseMissingSample(name)
		if err != nil {
			t.Fatalf("ParseMissingSample(%q): %v", name, err)
		}
		if m.String() != name {
			t.Errorf("round trip %q -> %q", name, m.String())
		}
	}
	if _, err := ParseMissingSample("nearest"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestAnchorIsStationary(t *testing.T) {
	dx := NewAnchor().Derive(dynamo.State{1, 2, 3, 4, 5, 6}, dynamo.At(0), nil)
	if len(dx) != 6 || dynamo.VecAt(dx, 0) != (dynamo.Vec3{}) || dynamo.VecAt(dx, 3) != (dynamo.Vec3{}) {
		t.Errorf("anchor derivative = %v", dx)
	}
}
