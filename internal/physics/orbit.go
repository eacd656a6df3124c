package physics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// RelativeMass is the reduced mass m1*m2/(m1+m2) of a two-body pair.
func RelativeMass(m1, m2 float64) float64 {
	return (m1 * m2) / (m1 + m2)
}

func CircularSpeed(mu, r float64) float64 {
	return math.Sqrt(mu / r)
}

// Period is the Keplerian period of a circular orbit of radius r.
func Period(mu, r float64) float64 {
	return 2 * math.Pi * math.Sqrt(r*r*r/mu)
}

// CircularOrbit returns the position and velocity, relative to the centre,
// of a counter-clockwise circular orbit in the XY plane at angle phase.
func CircularOrbit(mu, r, phase float64) (pos, vel dynamo.Vec3) {
	sin, cos := math.Sincos(phase)
	v := CircularSpeed(mu, r)
	pos = dynamo.V3(r*cos, r*sin, 0)
	vel = dynamo.V3(-v*sin, v*cos, 0)
	return pos, vel
}

// SpecificEnergy is v^2/2 - mu/r of p relative to centre.
func SpecificEnergy(p, centre dynamo.Point, mu float64) float64 {
	r := r3.Norm(r3.Sub(p.Position, centre.Position))
	v := r3.Norm(r3.Sub(p.Velocity, centre.Velocity))
	return 0.5*v*v - mu/r
}
