// Package train computes longitudinal coupler forces for a chain of rail
// vehicles.
//
// A [Train] stores its vehicles front to back in one slice and the couplers
// between them in a parallel slice: coupler i joins Vehicles[i] and
// Vehicles[i+1]. A [Solver] advances the couplers once per simulation tick:
//
//	solver.ComputeCouplerForces(tr, dt)      // static pass, fills TotalForce
//	// caller integrates velocities from TotalForce
//	solver.ApplyCouplerImpulseForces(tr, dt) // velocity pass
//	solver.UpdateCouplerSlack(tr, dt)        // slack integration
//
// Joining two trains goes through [ConserveMomentumOnCoupling] followed by
// [Train.Attach], both between ticks.
//
// # Sign conventions
//
// Velocities are along the train axis, positive towards the front. Slack is
// positive in tension. Coupler forces are negative in tension and are added
// to the front vehicle and subtracted from the rear vehicle.
//
// # Thread Safety
//
// Solver and Train are NOT safe for concurrent use. One goroutine owns a
// train for the whole tick.
package train
