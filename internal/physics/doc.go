// Package physics provides the dynamics models used to extend trajectories.
//
// Each model implements [dynamo.System] over an [*Environment]:
//
//   - [RestrictedTwoBody]: inverse-square attraction toward a parent body
//     whose trajectory is already computed and never reacts to the child
//   - [Anchor]: a body held at its seed position (zero derivative)
//
// The parent is read through a bounded [Samples] view. Misses fall back to
// the environment's [MissingSample] policy instead of failing.
//
// # Orbits
//
// Helpers such as [CircularOrbit], [Period] and [SpecificEnergy] use the
// same scaled gravitational parameter mu that drives the model:
//
//	mu := physics.RelativeMass(333, 1)
//	pos, vel := physics.CircularOrbit(mu, 20, 0)
//	period := physics.Period(mu, 20)
package physics
