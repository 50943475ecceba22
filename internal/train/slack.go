package train

import "math"

// UpdateCouplerSlack integrates every coupler's slack from the vehicle
// velocities, clamps it to the dynamic limits and refreshes the display and
// instrumentation fields of the train.
func (s *Solver) UpdateCouplerSlack(t *Train, dt float64) {
	for i := range t.Vehicles {
		v := &t.Vehicles[i]
		v.DistanceTravelled += math.Abs(v.Velocity * dt)
		v.FrontSlack, v.RearSlack = 0, 0
	}

	t.Pulling, t.Pushing = 0, 0
	t.MaxCouplerForce = 0
	k := s.kinds(t)
	for i := range t.Couplers {
		c := &t.Couplers[i]
		front, rear := &t.Vehicles[i], &t.Vehicles[i+1]
		c.Integrate(front.Velocity, rear.Velocity, dt)
		c.Classify(k.of(i), &front.Coupler)

		front.RearSlack = c.Slack / 2
		rear.FrontSlack = c.Slack / 2

		switch {
		case c.Force < 0:
			t.Pulling++
		case c.Force > 0:
			t.Pushing++
		}
		t.MaxCouplerForce = math.Max(t.MaxCouplerForce, math.Abs(c.Force))
	}
}
