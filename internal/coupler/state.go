package coupler

import "math"

// State is the per-tick mutable state of one coupler. Slack is in metres,
// positive in tension; forces are in newtons, negative in tension.
type State struct {
	Slack     float64
	PrevSlack float64

	// Dynamic limits bound Slack for the current tick:
	// CompressionLimit <= 0 <= TensionLimit.
	TensionLimit     float64
	CompressionLimit float64

	SmoothedForce float64
	Force         float64 // static force solved this tick
	ImpulseForce  float64 // impulse of the last velocity pass divided by dt

	Zone Zone
}

// NewState returns a coupler at rest with the given initial slack, clamped to
// the rest limits of its curve.
func NewState(kind Kind, p *Params, slack, margin float64) State {
	s := State{Slack: slack, PrevSlack: slack}
	s.SetRestLimits(kind, p, margin)
	s.Clamp()
	s.PrevSlack = s.Slack
	s.Classify(kind, p)
	return s
}

// SetRestLimits opens both limits to just outside the dead-band.
func (s *State) SetRestLimits(kind Kind, p *Params, margin float64) {
	s.TensionLimit = RestLimit(kind, p, Tension, margin)
	s.CompressionLimit = -RestLimit(kind, p, Compression, margin)
}

// DampLimit moves the limit on side towards the slack equivalent of absForce.
// The previous limit decays towards the target by damping per call and may
// cross at most one zone boundary per call.
func (s *State) DampLimit(kind Kind, p *Params, side Side, absForce, damping float64) {
	target, _ := TargetSlack(kind, p, side, absForce)
	prev := s.TensionLimit
	if side == Compression {
		prev = -s.CompressionLimit
	}
	lim := target + (prev-target)*damping

	cur := Evaluate(kind, p, side, prev)
	lo, hi := cur.Lower, cur.Upper
	if lim > hi {
		hi = Evaluate(kind, p, side, hi).Upper
	}
	if lim < lo && lo > 0 {
		lo = Evaluate(kind, p, side, math.Nextafter(lo, 0)).Lower
	}
	lim = math.Max(lo, math.Min(hi, lim))

	if side == Compression {
		s.CompressionLimit = -lim
	} else {
		s.TensionLimit = lim
	}
}

// Clamp pulls Slack back inside the dynamic limits.
func (s *State) Clamp() {
	if s.Slack > s.TensionLimit {
		s.Slack = s.TensionLimit
	}
	if s.Slack < s.CompressionLimit {
		s.Slack = s.CompressionLimit
	}
}

// Integrate advances slack by the closing speed of the two vehicles and
// clamps it. front and rear are the vehicle velocities in m/s.
func (s *State) Integrate(front, rear, dt float64) {
	s.PrevSlack = s.Slack
	s.Slack += (front - rear) * dt
	s.Clamp()
}

// Classify records the zone of the current slack.
func (s *State) Classify(kind Kind, p *Params) Zone {
	s.Zone = Evaluate(kind, p, SideOf(s.Slack), s.Slack).Zone
	return s.Zone
}

// Taut reports whether the slack sits on the limit that matches the sign of
// force, which is when the coupler can transmit it.
func (s *State) Taut(force float64) bool {
	switch {
	case force < 0:
		return s.Slack >= s.TensionLimit
	case force > 0:
		return s.Slack <= s.CompressionLimit
	}
	return false
}

// Within reports whether the slack respects the dynamic limits.
func (s *State) Within() bool {
	return s.CompressionLimit <= s.Slack && s.Slack <= s.TensionLimit
}
