package dynamo

// Point is an immutable trajectory sample.
type Point struct {
	Time     float64
	Position Vec3
	Velocity Vec3
}

// State packs the point into a 6-wide [position, velocity] state vector.
func (p Point) State() State {
	s := make(State, 6)
	PutVec(s, 0, p.Position)
	PutVec(s, 3, p.Velocity)
	return s
}

// PointFromState unpacks a 6-wide state produced at parameter t.
func PointFromState(t float64, s State) Point {
	return Point{
		Time:     t,
		Position: VecAt(s, 0),
		Velocity: VecAt(s, 3),
	}
}
