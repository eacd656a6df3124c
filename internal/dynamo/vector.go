package dynamo

import "gonum.org/v1/gonum/spatial/r3"

// Vec3 is a 3-component double-precision vector. Arithmetic goes through
// the r3 package functions (r3.Add, r3.Sub, r3.Scale, r3.Norm).
type Vec3 = r3.Vec

func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// VecAt reads three consecutive components of s starting at off.
func VecAt(s State, off int) Vec3 {
	return Vec3{X: s[off], Y: s[off+1], Z: s[off+2]}
}

// PutVec writes v into s at off.
func PutVec(s State, off int, v Vec3) {
	s[off], s[off+1], s[off+2] = v.X, v.Y, v.Z
}

// Dist returns |a - b|.
func Dist(a, b Vec3) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Lerp interpolates between a and b; f=0 yields a, f=1 yields b.
func Lerp(a, b Vec3, f float64) Vec3 {
	return r3.Add(a, r3.Scale(f, r3.Sub(b, a)))
}
