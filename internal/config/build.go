package config

import (
	"fmt"

	"github.com/san-kum/couplersim/internal/coupler"
	"github.com/san-kum/couplersim/internal/sim"
	"github.com/san-kum/couplersim/internal/train"
)

// Scenario is a configuration turned into runnable parts. The trains are
// fresh on every Build.
type Scenario struct {
	Name    string
	Train   *train.Train
	Physics train.PhysicsConfig
	Sim     sim.Config
	Drive   sim.Drive
}

func (c *Config) Build() (*Scenario, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	physics, err := c.Physics.Build()
	if err != nil {
		return nil, err
	}
	drive := sim.Drive{}
	tr, err := c.Train.Build("train", drive)
	if err != nil {
		return nil, err
	}

	sc := &Scenario{
		Name:    c.Name,
		Train:   tr,
		Physics: physics,
		Drive:   drive,
		Sim: sim.Config{
			Dt:            c.Dt,
			Duration:      c.Duration,
			ValidateState: true,
			Controls:      make(sim.Schedule, len(c.Controls)),
		},
	}
	for i, ctl := range c.Controls {
		sc.Sim.Controls[i] = sim.Control{At: ctl.At, Throttle: ctl.Throttle, Brake: ctl.Brake}
	}
	if c.Join != nil {
		other, err := c.Join.Train.Build("join", drive)
		if err != nil {
			return nil, err
		}
		sc.Sim.Join = &sim.Join{
			At:         c.Join.At,
			Train:      other,
			Multiplier: c.Join.Multiplier,
			Reversed:   c.Join.Reversed,
		}
	}
	return sc, nil
}

func (p PhysicsConfig) Build() (train.PhysicsConfig, error) {
	cfg := train.PhysicsConfig{
		Simplified:          p.Simplified,
		StartupSpeed:        p.StartupSpeed,
		DampingTransitional: p.DampingTransitional,
		DampingSettled:      p.DampingSettled,
		RestMargin:          p.RestMargin,
		ForceSmoothing:      p.ForceSmoothing,
		ZeroForce:           p.ZeroForce,
	}
	return cfg, cfg.Validate()
}

func (c CouplerConfig) kind() (coupler.Kind, error) {
	if c.Kind == "" {
		return coupler.Simple, nil
	}
	return coupler.ParseKind(c.Kind)
}

// Params converts the coupler section. Advanced curves are only attached
// when both sides are given.
func (c CouplerConfig) Params() (coupler.Params, error) {
	kind, err := c.kind()
	if err != nil {
		return coupler.Params{}, err
	}
	p := coupler.Params{Kind: kind, Simple: c.Simple}
	if c.Tension != nil && c.Compression != nil {
		p.Advanced = &coupler.AdvancedParams{Tension: *c.Tension, Compression: *c.Compression}
	}
	return p, nil
}

// Build expands the vehicle groups into a train and records each vehicle's
// force figures in drive.
func (t *TrainConfig) Build(defaultID string, drive sim.Drive) (*train.Train, error) {
	dir, err := train.ParseDirection(t.Direction)
	if err != nil {
		return nil, err
	}
	id := t.ID
	if id == "" {
		id = defaultID
	}

	var (
		vehicles []train.Vehicle
		slack    []float64
	)
	for _, vc := range t.Vehicles {
		p, err := vc.Coupler.Params()
		if err != nil {
			return nil, fmt.Errorf("vehicle %s: %w", vc.ID, err)
		}
		for k, vid := range vc.ids() {
			vehicles = append(vehicles, train.Vehicle{
				ID:                  vid,
				Mass:                vc.Mass,
				Velocity:            t.Speed,
				IsLeadPlayer:        vc.LeadPlayer && k == 0,
				UsesAdvancedCoupler: vc.AdvancedCoupler,
				Coupler:             p,
			})
			slack = append(slack, vc.Slack)
			drive[vid] = sim.Capability{
				Traction: vc.Traction,
				Brake:    vc.Brake,
				Friction: vc.Friction,
				Curve:    vc.Curve,
				Wind:     vc.Wind,
				Tunnel:   vc.Tunnel,
			}
		}
	}

	tr, err := train.New(id, vehicles, dir)
	if err != nil {
		return nil, err
	}
	for i := range tr.Couplers {
		tr.SetSlack(i, slack[i])
	}
	return tr, nil
}
