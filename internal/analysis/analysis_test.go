package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/trajectory"
)

func sine(n int, dt, period, offset float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = offset + 3*math.Sin(2*math.Pi*float64(i)*dt/period)
	}
	return out
}

func TestEstimatePeriod(t *testing.T) {
	tests := []struct {
		name   string
		data   []float64
		dt     float64
		want   float64
		relTol float64
	}{
		{"whole cycles", sine(1000, 0.1, 10, 0), 0.1, 10, 1e-6},
		{"offset signal", sine(1000, 0.1, 10, 42), 0.1, 10, 1e-6},
		{"fractional cycles", sine(4096, 0.05, 4.07, 0), 0.05, 4.07, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimatePeriod(tt.data, tt.dt)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want)/tt.want > tt.relTol {
				t.Errorf("EstimatePeriod = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEstimatePeriodErrors(t *testing.T) {
	if _, err := EstimatePeriod(make([]float64, 64), 0.1); !errors.Is(err, ErrNoPeriod) {
		t.Errorf("constant signal: err = %v", err)
	}
	if _, err := EstimatePeriod([]float64{1, 2}, 0.1); !errors.Is(err, ErrNoPeriod) {
		t.Errorf("short signal: err = %v", err)
	}
	if _, err := EstimatePeriod(sine(64, 0.1, 1, 0), 0); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("zero dt: err = %v", err)
	}
}

func TestOrbitalPeriodOfIntegratedOrbit(t *testing.T) {
	const h = 0.01
	mu := physics.RelativeMass(333, 1)
	want := physics.Period(mu, 20)

	ode, err := integrators.NewODE[*physics.Environment](physics.NewRestrictedTwoBody(), integrators.NewRK4[*physics.Environment](), h, nil)
	if err != nil {
		t.Fatal(err)
	}
	pos, vel := physics.CircularOrbit(mu, 20, 0)
	seed := trajectory.Point{Position: pos, Velocity: vel}
	tr := trajectory.New(nil, mu)
	_ = tr.Seed(seed)

	steps := int(2 * want / h)
	env := &physics.Environment{RelativeMass: mu, LookupScale: 1 / h}
	if err := tr.Calculate(ode, seed, env, steps); err != nil {
		t.Fatal(err)
	}

	all := tr.Points(0, uint64(steps))
	sampled := make([]dynamo.Point, 0, len(all)/10)
	for i := 0; i < len(all); i += 10 {
		sampled = append(sampled, all[i])
	}

	got, err := OrbitalPeriod(sampled, nil, 10*h)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-want)/want > 0.01 {
		t.Errorf("OrbitalPeriod = %v, want %v", got, want)
	}
}

func TestOrbitalPeriodRelativeToCentre(t *testing.T) {
	const dt = 0.1
	body := make([]dynamo.Point, 500)
	centre := make([]dynamo.Point, 500)
	for i := range body {
		tt := float64(i) * dt
		centre[i].Position = dynamo.V3(2*tt, 0, 0)
		body[i].Position = dynamo.V3(2*tt+math.Cos(2*math.Pi*tt/5), math.Sin(2*math.Pi*tt/5), 0)
	}

	got, err := OrbitalPeriod(body, centre, dt)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-5) > 1e-6 {
		t.Errorf("OrbitalPeriod = %v, want 5", got)
	}
	if _, err := OrbitalPeriod(body, centre[:10], dt); err == nil {
		t.Error("expected error for short centre")
	}
}

func TestProjection(t *testing.T) {
	pts := []dynamo.Point{
		{Position: dynamo.V3(1, 2, 3)},
		{Position: dynamo.V3(-1, 5, 0)},
	}

	tests := []struct {
		plane      string
		wantX      float64
		wantY      float64
		wantBounds [4]float64
	}{
		{"xy", 1, 2, [4]float64{-1, 1, 2, 5}},
		{"xz", 1, 3, [4]float64{-1, 1, 0, 3}},
		{"yz", 2, 3, [4]float64{2, 5, 0, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.plane, func(t *testing.T) {
			plane, err := ParsePlane(tt.plane)
			if err != nil {
				t.Fatal(err)
			}
			proj := Project(plane, []string{"earth"}, [][]dynamo.Point{pts})
			first := proj.Paths[0].Points[0]
			if first.X != tt.wantX || first.Y != tt.wantY {
				t.Errorf("first point = %+v", first)
			}
			minX, maxX, minY, maxY, ok := proj.Bounds()
			if !ok || [4]float64{minX, maxX, minY, maxY} != tt.wantBounds {
				t.Errorf("Bounds() = %v %v %v %v", minX, maxX, minY, maxY)
			}
		})
	}

	if _, err := ParsePlane("xw"); err == nil {
		t.Error("expected error for unknown plane")
	}
}

func TestProjectionToASCII(t *testing.T) {
	circle := make([]dynamo.Point, 64)
	for i := range circle {
		s, c := math.Sincos(2 * math.Pi * float64(i) / 64)
		circle[i].Position = dynamo.V3(10*c, 10*s, 0)
	}
	centre := []dynamo.Point{{}}

	out := ProjectionToASCII(Project(PlaneXY, []string{"planet", "sun"}, [][]dynamo.Point{circle, centre}), 40, 20)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 22 {
		t.Fatalf("got %d lines, want 20 rows plus 2 legend lines", len(lines))
	}
	if !strings.Contains(out, "•") || !strings.Contains(out, "∘") {
		t.Error("missing path markers")
	}
	if !strings.HasSuffix(out, "∘ sun\n") {
		t.Errorf("legend missing: %q", lines[len(lines)-1])
	}

	if ProjectionToASCII(&Projection2D{}, 40, 20) != "" {
		t.Error("empty projection should render nothing")
	}
}
