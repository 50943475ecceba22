package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/couplersim/internal/coupler"
	"github.com/san-kum/couplersim/internal/logging"
	"github.com/san-kum/couplersim/internal/train"
)

const (
	DefaultDt       = 0.02
	DefaultDuration = 60.0
	DefaultMass     = 40000.0
	DefaultSlack1   = 0.05
	DefaultSlack2   = 0.1
	DefaultSpring   = 1e7
)

var ErrInvalid = errors.New("config: invalid value")

// ConfigError names the offending field of a scenario file.
type ConfigError struct {
	Field   string
	Value   any
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s=%v: %v", e.Field, e.Value, e.Wrapped)
}

func (e *ConfigError) Unwrap() error { return e.Wrapped }

func invalid(field string, value any, reason string) error {
	return &ConfigError{Field: field, Value: value, Wrapped: fmt.Errorf("%w: %s", ErrInvalid, reason)}
}

type Config struct {
	Name     string          `yaml:"name"`
	Dt       float64         `yaml:"dt"`
	Duration float64         `yaml:"duration"`
	Physics  PhysicsConfig   `yaml:"physics"`
	Train    TrainConfig     `yaml:"train"`
	Controls []ControlConfig `yaml:"controls,omitempty"`
	Join     *JoinConfig     `yaml:"join,omitempty"`
	Log      logging.Config  `yaml:"log"`
}

type PhysicsConfig struct {
	Simplified          bool    `yaml:"simplified"`
	StartupSpeed        float64 `yaml:"startup_speed"`
	DampingTransitional float64 `yaml:"damping_transitional"`
	DampingSettled      float64 `yaml:"damping_settled"`
	RestMargin          float64 `yaml:"rest_margin"`
	ForceSmoothing      float64 `yaml:"force_smoothing"`
	ZeroForce           float64 `yaml:"zero_force"`
}

type TrainConfig struct {
	ID        string          `yaml:"id,omitempty"`
	Direction string          `yaml:"direction"`
	Speed     float64         `yaml:"speed"`
	Vehicles  []VehicleConfig `yaml:"vehicles"`
}

// VehicleConfig describes Count identical vehicles. Forces are in newtons,
// slack in metres.
type VehicleConfig struct {
	ID              string        `yaml:"id"`
	Count           int           `yaml:"count,omitempty"`
	Mass            float64       `yaml:"mass"`
	LeadPlayer      bool          `yaml:"lead_player,omitempty"`
	AdvancedCoupler bool          `yaml:"advanced_coupler,omitempty"`
	Traction        float64       `yaml:"traction,omitempty"`
	Brake           float64       `yaml:"brake,omitempty"`
	Friction        float64       `yaml:"friction,omitempty"`
	Curve           float64       `yaml:"curve,omitempty"`
	Wind            float64       `yaml:"wind,omitempty"`
	Tunnel          float64       `yaml:"tunnel,omitempty"`
	Slack           float64       `yaml:"slack,omitempty"`
	Coupler         CouplerConfig `yaml:"coupler"`
}

type CouplerConfig struct {
	Kind        string               `yaml:"kind"`
	Simple      coupler.SimpleParams `yaml:"simple"`
	Tension     *coupler.Curve       `yaml:"tension,omitempty"`
	Compression *coupler.Curve       `yaml:"compression,omitempty"`
}

type ControlConfig struct {
	At       float64 `yaml:"at"`
	Throttle float64 `yaml:"throttle"`
	Brake    float64 `yaml:"brake"`
}

// JoinConfig describes a train coupled on mid-run. Reversed sets the
// direction of the multiplier; only its magnitude is read.
type JoinConfig struct {
	At         float64     `yaml:"at"`
	Multiplier float64     `yaml:"multiplier"`
	Reversed   bool        `yaml:"reversed,omitempty"`
	Train      TrainConfig `yaml:"train"`
}

func DefaultPhysics() PhysicsConfig {
	p := train.DefaultPhysicsConfig()
	return PhysicsConfig{
		Simplified:          p.Simplified,
		StartupSpeed:        p.StartupSpeed,
		DampingTransitional: p.DampingTransitional,
		DampingSettled:      p.DampingSettled,
		RestMargin:          p.RestMargin,
		ForceSmoothing:      p.ForceSmoothing,
		ZeroForce:           p.ZeroForce,
	}
}

func DefaultCoupler() CouplerConfig {
	return CouplerConfig{
		Kind:   coupler.Simple.String(),
		Simple: coupler.SimpleParams{Slack1: DefaultSlack1, Slack2: DefaultSlack2, Stiffness: DefaultSpring},
	}
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "default",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Physics:  DefaultPhysics(),
		Train: TrainConfig{
			ID:        "train",
			Direction: train.Forward.String(),
			Vehicles: []VehicleConfig{
				{ID: "loco", Count: 1, Mass: 120000, LeadPlayer: true, Traction: 300000, Brake: 80000, Friction: 1500, Coupler: DefaultCoupler()},
				{ID: "wagon", Count: 8, Mass: DefaultMass, Brake: 30000, Friction: 600, Coupler: DefaultCoupler()},
			},
		},
		Controls: []ControlConfig{{At: 0, Throttle: 1}},
		Log:      logging.Config{Level: "info", Format: "text"},
	}
}

// Load reads a scenario file over the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{Dt: DefaultDt, Duration: DefaultDuration, Physics: DefaultPhysics()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return invalid("dt", c.Dt, "must be positive")
	}
	if !(c.Duration > 0) {
		return invalid("duration", c.Duration, "must be positive")
	}
	if _, err := c.Physics.Build(); err != nil {
		return &ConfigError{Field: "physics", Value: c.Physics, Wrapped: err}
	}
	seen := map[string]bool{}
	if err := c.Train.validate("train", seen); err != nil {
		return err
	}
	for i, ctl := range c.Controls {
		field := fmt.Sprintf("controls[%d]", i)
		if ctl.Throttle < 0 || ctl.Throttle > 1 {
			return invalid(field+".throttle", ctl.Throttle, "must be within [0,1]")
		}
		if ctl.Brake < 0 || ctl.Brake > 1 {
			return invalid(field+".brake", ctl.Brake, "must be within [0,1]")
		}
		if i > 0 && ctl.At < c.Controls[i-1].At {
			return invalid(field+".at", ctl.At, "controls must be ordered by time")
		}
	}
	if c.Join != nil {
		if c.Join.Multiplier == 0 {
			return invalid("join.multiplier", c.Join.Multiplier, "must be non-zero")
		}
		if err := c.Join.Train.validate("join.train", seen); err != nil {
			return err
		}
	}
	return nil
}

func (t *TrainConfig) validate(field string, seen map[string]bool) error {
	if _, err := train.ParseDirection(t.Direction); err != nil {
		return invalid(field+".direction", t.Direction, err.Error())
	}
	if len(t.Vehicles) == 0 {
		return invalid(field+".vehicles", len(t.Vehicles), "at least one vehicle required")
	}
	for i, v := range t.Vehicles {
		f := fmt.Sprintf("%s.vehicles[%d]", field, i)
		if v.ID == "" {
			return invalid(f+".id", v.ID, "must be set")
		}
		if v.Count < 0 {
			return invalid(f+".count", v.Count, "must not be negative")
		}
		if _, err := v.Coupler.kind(); err != nil {
			return &ConfigError{Field: f + ".coupler.kind", Value: v.Coupler.Kind, Wrapped: err}
		}
		for _, id := range v.ids() {
			if seen[id] {
				return invalid(f+".id", id, "duplicate vehicle id")
			}
			seen[id] = true
		}
	}
	return nil
}

func (v VehicleConfig) count() int {
	if v.Count <= 0 {
		return 1
	}
	return v.Count
}

func (v VehicleConfig) ids() []string {
	n := v.count()
	if n == 1 {
		return []string{v.ID}
	}
	ids := make([]string, n)
	for k := range ids {
		ids[k] = fmt.Sprintf("%s-%d", v.ID, k+1)
	}
	return ids
}
