// Package dynamo provides core simulation primitives for orbital trajectories.
//
// The package defines the fundamental interfaces and types shared by the
// integrators, the dynamics models and the trajectory caches:
//
//   - [State]: vector representing system state
//   - [Vec3]: 3-component position/velocity vector
//   - [Point]: immutable trajectory sample (time, position, velocity)
//   - [System]: interface for ODE systems (dX/dt = f(X, p, env))
//   - [Stepper]: fixed-step numerical integrator interface
//
// # Example
//
//	model := physics.NewRestrictedTwoBody()
//	ode, err := integrators.NewODE(model, integrators.NewRK4[*physics.Environment](), 0.01, nil)
//	samples, err := ode.Integrate(0, x0, 1000, env)
//
// # Thread Safety
//
// Steppers keep scratch buffers and are NOT thread-safe. Each scenario
// owns its own integrators; see sim.Ensemble for running scenarios in
// parallel.
package dynamo
