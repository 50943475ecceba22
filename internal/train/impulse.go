package train

// ApplyCouplerImpulseForces removes the velocity differences that would
// carry a taut coupler past its dynamic limit. Every taut coupler outside the
// dead-band enters the solve, so a shock at one end travels the whole taut
// chain. Impulses are exchanged
// between neighbours so momentum is conserved, except for the tail guard:
// if this pass turned the last vehicle against the direction of the first,
// the last vehicle is stopped instead.
func (s *Solver) ApplyCouplerImpulseForces(t *Train, dt float64) {
	n := len(t.Couplers)
	if n == 0 {
		return
	}

	k := s.kinds(t)
	s.sys.Resize(n)
	for i := 0; i < n; i++ {
		c := &t.Couplers[i]
		c.Classify(k.of(i), &t.Vehicles[i].Coupler)
		if c.Slack < c.TensionLimit && c.Slack > c.CompressionLimit {
			s.sys.Pin(i, 0)
			continue
		}
		s.setupRow(t, i, t.Vehicles[i+1].Velocity-t.Vehicles[i].Velocity)
	}
	s.stats.ImpulseSolves++
	s.settle(t, "impulse", s.slackImpulse)

	last := &t.Vehicles[n]
	tailBefore := last.Velocity
	for i := 0; i < n; i++ {
		u := s.sys.U[i]
		t.Vehicles[i].Velocity += u / t.Vehicles[i].Mass
		t.Vehicles[i+1].Velocity -= u / t.Vehicles[i+1].Mass
		t.Couplers[i].ImpulseForce = 0
		if dt > 0 {
			t.Couplers[i].ImpulseForce = u / dt
		}
	}

	lead := t.Vehicles[0].Velocity
	crossed := last.Velocity != 0 && tailBefore*last.Velocity <= 0
	if crossed && lead*last.Velocity < 0 {
		last.Velocity = 0
	}
}

// slackImpulse scans couplers in tension front to back, then couplers in
// compression back to front, and returns the first one whose impulse would
// act while the faces are apart or would pull them together.
func (s *Solver) slackImpulse(t *Train) int {
	n := len(t.Couplers)
	for i := 0; i < n; i++ {
		c := &t.Couplers[i]
		if s.sys.Pinned(i) || c.Slack < 0 {
			continue
		}
		if c.Slack < c.TensionLimit || s.sys.U[i] > 0 {
			return i
		}
	}
	for i := n - 1; i >= 0; i-- {
		c := &t.Couplers[i]
		if s.sys.Pinned(i) || c.Slack > 0 {
			continue
		}
		if c.Slack > c.CompressionLimit || s.sys.U[i] < 0 {
			return i
		}
	}
	return -1
}
