// Package analysis inspects committed trajectories.
//
//   - [EstimatePeriod]: dominant period of a sampled signal via FFT
//   - [OrbitalPeriod]: period of a body about its centre
//   - [Project]: 2D projection of one or more trajectories
//   - [ProjectionToASCII]: terminal rendering of a projection
//
// # Period estimation
//
// The x coordinate of a body relative to its centre is close to a sinusoid
// at the orbital frequency:
//
//	period, err := analysis.OrbitalPeriod(points, centre, dt)
package analysis
