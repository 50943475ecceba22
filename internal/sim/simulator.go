package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/couplersim/internal/logging"
	"github.com/san-kum/couplersim/internal/train"
)

type Simulator struct {
	solver    *train.Solver
	forces    ForceModel
	log       logging.Logger
	metrics   []Metric
	observers []Observer
}

type Option func(*Simulator)

func WithLogger(l logging.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

func New(solver *train.Solver, forces ForceModel, opts ...Option) *Simulator {
	s := &Simulator{
		solver:    solver,
		forces:    forces,
		log:       logging.Noop(),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) Solver() *train.Solver  { return s.solver }

// Run advances tr for cfg.Duration and records every tick. tr is modified in
// place, as is the join train if one is scheduled.
func (s *Simulator) Run(ctx context.Context, tr *train.Train, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	steps := int(math.Floor(cfg.Duration/cfg.Dt + 1e-9))
	result := &Result{
		Times:   make([]float64, 0, steps+1),
		Samples: make([]Sample, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	result.Times = append(result.Times, t)
	result.Samples = append(result.Samples, sample(tr))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		joined, err := s.join(tr, t, cfg.Join)
		if err != nil {
			return result, err
		}
		result.Joined = result.Joined || joined

		t = s.Step(tr, t, cfg)

		if cfg.ValidateState && !valid(tr) {
			result.Errors = append(result.Errors, SimError{Step: i, Time: t, Message: "invalid state (NaN/Inf)"})
			break
		}

		result.StepsTaken++
		result.Times = append(result.Times, t)
		result.Samples = append(result.Samples, sample(tr))
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	stats := s.solver.Stats()
	s.log.Debug("run finished",
		logging.String("train", tr.ID),
		logging.Int("steps", result.StepsTaken),
		logging.Int("vehicles", len(tr.Vehicles)),
		logging.Int("static_solves", stats.StaticSolves),
		logging.Int("unconverged", stats.Unconverged),
	)
	return result, nil
}

// Advance runs a pending join and one tick, for callers that drive the clock
// themselves. It returns the new time.
func (s *Simulator) Advance(tr *train.Train, t float64, cfg Config) (float64, error) {
	if _, err := s.join(tr, t, cfg.Join); err != nil {
		return t, err
	}
	return s.Step(tr, t, cfg), nil
}

// Step advances tr by one tick of cfg.Dt starting at time t and returns the
// new time. Metrics and observers see the train after the tick.
func (s *Simulator) Step(tr *train.Train, t float64, cfg Config) float64 {
	dt := cfg.Dt
	s.forces.Apply(tr, cfg.Controls.At(t))
	s.solver.ComputeCouplerForces(tr, dt)
	integrate(tr, dt)
	s.solver.ApplyCouplerImpulseForces(tr, dt)
	s.solver.UpdateCouplerSlack(tr, dt)

	t += dt
	for _, m := range s.metrics {
		m.Observe(tr, t)
	}
	for _, obs := range s.observers {
		obs.OnTick(tr, t)
	}
	return t
}

// integrate is a semi-implicit Euler step on velocities. A moving vehicle
// whose velocity would change sign stops for the rest of the tick.
func integrate(tr *train.Train, dt float64) {
	for i := range tr.Vehicles {
		v := &tr.Vehicles[i]
		next := v.Velocity + v.TotalForce/v.Mass*dt
		if v.Velocity != 0 && next*v.Velocity < 0 {
			next = 0
		}
		v.Velocity = next
	}
}

func (s *Simulator) join(tr *train.Train, t float64, j *Join) (bool, error) {
	if j == nil || j.Train == nil || len(j.Train.Vehicles) == 0 || t < j.At {
		return false, nil
	}
	added := len(j.Train.Vehicles)
	mult := math.Abs(j.Multiplier)
	if j.Reversed {
		mult = -mult
	}
	v := train.ConserveMomentumOnCoupling(tr, j.Train, mult)
	if err := tr.Attach(j.Train, j.Reversed); err != nil {
		return false, fmt.Errorf("join at t=%.2f: %w", t, err)
	}
	s.log.Info("trains joined",
		logging.String("train", tr.ID),
		logging.Int("vehicles_added", added),
		logging.Int("vehicles", len(tr.Vehicles)),
		logging.Float("velocity", v),
		logging.Any("reversed", j.Reversed),
	)
	return true, nil
}

func valid(tr *train.Train) bool {
	finite := func(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
	for i := range tr.Vehicles {
		if !finite(tr.Vehicles[i].Velocity) {
			return false
		}
	}
	for i := range tr.Couplers {
		if !finite(tr.Couplers[i].Slack) || !finite(tr.Couplers[i].Force) {
			return false
		}
	}
	return true
}
