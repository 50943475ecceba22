package train

import (
	"math"

	"github.com/san-kum/couplersim/internal/coupler"
	"github.com/san-kum/couplersim/internal/logging"
	"github.com/san-kum/couplersim/internal/tridiag"
)

// Stats counts solver activity since the Solver was created.
type Stats struct {
	StaticSolves  int
	ImpulseSolves int
	LastPasses    int // passes of the most recent static solve
	Unconverged   int
}

// Solution is the outcome of one static solve.
type Solution struct {
	Forces    []float64 // per coupler, N, negative in tension
	Passes    int
	Converged bool
}

type Solver struct {
	cfg   PhysicsConfig
	log   logging.Logger
	sys   *tridiag.System
	stats Stats

	held []heldVehicle
}

// heldVehicle is a standing vehicle whose static friction still has to act
// against the coupler forces.
type heldVehicle struct {
	index   int
	applied float64
}

type Option func(*Solver)

func WithLogger(l logging.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.log = l
		}
	}
}

func NewSolver(cfg PhysicsConfig, opts ...Option) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		cfg: cfg,
		log: logging.Noop(),
		sys: tridiag.New(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Solver) Config() PhysicsConfig { return s.cfg }
func (s *Solver) Stats() Stats          { return s.stats }

// kinds caches the train-wide part of Train.Kind for one pass.
type kinds struct {
	t        *Train
	advanced bool
}

func (s *Solver) kinds(t *Train) kinds {
	return kinds{t: t, advanced: t.advanced(s.cfg.Simplified)}
}

func (k kinds) of(i int) coupler.Kind { return k.t.kindOf(i, k.advanced) }

// motion is the train-wide start-up classification for one tick.
type motion struct {
	startup bool
	damping float64
}

func (s *Solver) classify(t *Train) motion {
	m := motion{damping: s.cfg.DampingSettled}
	dir := float64(t.Direction)
	lead := t.Vehicles[t.LeadIndex()].Velocity * dir
	rear := t.Vehicles[len(t.Vehicles)-1].Velocity * dir
	if t.Direction == Neutral || lead <= 0 {
		return m
	}
	if rear < s.cfg.StartupSpeed {
		m.damping = s.cfg.DampingTransitional
	}
	m.startup = true
	for i := range t.Vehicles {
		if math.Abs(t.Vehicles[i].Velocity) >= s.cfg.StartupSpeed {
			m.startup = false
			break
		}
	}
	return m
}

// updateLimits derives each coupler's dynamic limits from its smoothed force
// and clamps the slack into them.
func (s *Solver) updateLimits(t *Train, m motion) {
	k := s.kinds(t)
	for i := range t.Couplers {
		c := &t.Couplers[i]
		kind := k.of(i)
		p := &t.Vehicles[i].Coupler
		f := c.SmoothedForce

		switch {
		case math.Abs(f) < s.cfg.ZeroForce:
			c.SetRestLimits(kind, p, s.cfg.RestMargin)
			if m.startup {
				// Keep the slack from running back while only the lead
				// vehicle has started.
				if t.Direction == Forward && c.Slack >= 0 {
					c.CompressionLimit = 0
				}
				if t.Direction == Reverse && c.Slack <= 0 {
					c.TensionLimit = 0
				}
			}
		case f < 0:
			c.DampLimit(kind, p, coupler.Tension, -f, m.damping)
			c.CompressionLimit = -coupler.RestLimit(kind, p, coupler.Compression, s.cfg.RestMargin)
		default:
			c.DampLimit(kind, p, coupler.Compression, f, m.damping)
			c.TensionLimit = coupler.RestLimit(kind, p, coupler.Tension, s.cfg.RestMargin)
		}

		c.Clamp()
	}
}

// setupRow writes the coupling equation for coupler i. Dead-band couplers
// are pinned to zero force.
func (s *Solver) setupRow(t *Train, i int, rhs float64) {
	if t.Couplers[i].Zone == coupler.DeadBand {
		s.sys.Pin(i, 0)
		return
	}
	a := -1 / t.Vehicles[i].Mass
	c := -1 / t.Vehicles[i+1].Mass
	s.sys.Set(i, a, -a-c, c, rhs)
}

// settle solves the system and pins the coupler reported by inconsistent
// until none is left. Every pass pins one more row, so a train with n
// couplers settles within n+1 solves.
func (s *Solver) settle(t *Train, pass string, inconsistent func(*Train) int) (int, bool) {
	limit := s.sys.Len() + 1
	for passes := 1; passes <= limit; passes++ {
		s.sys.Solve()
		i := inconsistent(t)
		if i < 0 {
			return passes, true
		}
		s.sys.Pin(i, 0)
	}
	s.stats.Unconverged++
	s.log.Warn("coupler solve did not reach a fixed point",
		logging.String("train", t.ID),
		logging.String("pass", pass),
		logging.Int("couplers", s.sys.Len()),
	)
	return limit, false
}

// slackStatic returns the first coupler whose force cannot be carried at its
// current slack: the faces must sit on the limit matching the force sign.
func (s *Solver) slackStatic(t *Train) int {
	for i := range t.Couplers {
		if s.sys.Pinned(i) {
			continue
		}
		u := s.sys.U[i]
		if u != 0 && !t.Couplers[i].Taut(u) {
			return i
		}
	}
	return -1
}

func (s *Solver) solveStatic(t *Train) (int, bool) {
	n := len(t.Couplers)
	k := s.kinds(t)
	s.sys.Resize(n)
	for i := 0; i < n; i++ {
		front, rear := &t.Vehicles[i], &t.Vehicles[i+1]
		t.Couplers[i].Classify(k.of(i), &front.Coupler)
		s.setupRow(t, i, rear.TotalForce/rear.Mass-front.TotalForce/front.Mass)
	}
	s.stats.StaticSolves++
	passes, ok := s.settle(t, "static", s.slackStatic)
	s.stats.LastPasses = passes
	return passes, ok
}

// SolveStatic computes the coupler forces that equalise the accelerations of
// vehicles joined by taut couplers, without applying them. It reads the
// current TotalForce of every vehicle and the current coupler limits, and
// refreshes each coupler's zone.
func (s *Solver) SolveStatic(t *Train) Solution {
	if len(t.Couplers) == 0 {
		return Solution{Converged: true}
	}
	passes, ok := s.solveStatic(t)
	return Solution{
		Forces:    append([]float64(nil), s.sys.U...),
		Passes:    passes,
		Converged: ok,
	}
}

// ComputeCouplerForces runs the static pass for one tick. TotalForce of every
// vehicle must already hold its non-coupler forces; resistance is folded in
// here, then the coupler forces are added. A standing vehicle's static
// friction acts on its applied and coupler forces together, so a pull below
// its breakaway resistance leaves it at zero net force. A single vehicle only
// gets its resistance folded.
func (s *Solver) ComputeCouplerForces(t *Train, dt float64) {
	s.held = s.held[:0]
	for i := range t.Vehicles {
		v := &t.Vehicles[i]
		if v.Velocity == 0 && v.Resistance.Total() > 0 {
			s.held = append(s.held, heldVehicle{index: i, applied: v.TotalForce})
		}
		v.foldResistance()
	}
	if len(t.Vehicles) < 2 {
		return
	}

	s.updateLimits(t, s.classify(t))
	s.solveStatic(t)

	alpha := s.smoothing(dt)
	for i := range t.Couplers {
		c := &t.Couplers[i]
		u := s.sys.U[i]
		c.Force = u
		t.Vehicles[i].TotalForce += u
		t.Vehicles[i+1].TotalForce -= u
		c.SmoothedForce += (u - c.SmoothedForce) * alpha
	}

	for _, h := range s.held {
		f := h.applied
		if h.index < len(t.Couplers) {
			f += t.Couplers[h.index].Force
		}
		if h.index > 0 {
			f -= t.Couplers[h.index-1].Force
		}
		v := &t.Vehicles[h.index]
		v.TotalForce = staticFriction(f, v.Resistance.Total())
	}
}

func (s *Solver) smoothing(dt float64) float64 {
	if s.cfg.ForceSmoothing <= 0 || dt <= 0 {
		return 1
	}
	return dt / (s.cfg.ForceSmoothing + dt)
}
