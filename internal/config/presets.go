package config

import (
	"sort"

	"github.com/san-kum/couplersim/internal/coupler"
	"github.com/san-kum/couplersim/internal/logging"
)

func advancedCoupler(kind coupler.Kind) CouplerConfig {
	c := DefaultCoupler()
	c.Kind = kind.String()
	c.Tension = &coupler.Curve{Zone1: 0.05, Zone2: 0.08, Zone3: 0.1, Stiffness2: 5e6, Stiffness3: 2e7}
	c.Compression = &coupler.Curve{Zone1: 0.03, Zone2: 0.06, Zone3: 0.07, Stiffness2: 8e6, Stiffness3: 3e7}
	return c
}

func freight(kind coupler.Kind, wagons int, slack float64) TrainConfig {
	c := advancedCoupler(kind)
	return TrainConfig{
		ID:        "freight",
		Direction: "forward",
		Vehicles: []VehicleConfig{
			{ID: "loco", Count: 1, Mass: 120000, LeadPlayer: true, AdvancedCoupler: true,
				Traction: 300000, Brake: 80000, Friction: 1500, Slack: slack, Coupler: c},
			{ID: "wagon", Count: wagons, Mass: 60000, AdvancedCoupler: true,
				Brake: 40000, Friction: 800, Slack: slack, Coupler: c},
		},
	}
}

// Presets are ready-made scenarios selectable by name on the command line.
// Each entry builds a fresh Config.
var Presets = map[string]func() *Config{
	"start": func() *Config {
		return &Config{
			Name: "start", Dt: 0.02, Duration: 60,
			Physics:  DefaultPhysics(),
			Train:    freight(coupler.Advanced, 12, 0),
			Controls: []ControlConfig{{At: 0, Throttle: 0.6}},
		}
	},
	"runin": func() *Config {
		t := freight(coupler.Advanced, 20, 1)
		t.Speed = 8
		return &Config{
			Name: "runin", Dt: 0.02, Duration: 90,
			Physics:  DefaultPhysics(),
			Train:    t,
			Controls: []ControlConfig{{At: 0, Throttle: 0.4}, {At: 30, Throttle: 0, Brake: 0.8}},
		}
	},
	"join": func() *Config {
		// The locomotive backs onto a cut of wagons standing behind it.
		t := freight(coupler.Advanced, 4, 0)
		t.Direction = "reverse"
		t.Speed = -1.5
		return &Config{
			Name: "join", Dt: 0.02, Duration: 40,
			Physics:  DefaultPhysics(),
			Train:    t,
			Controls: []ControlConfig{{At: 0, Throttle: 0}, {At: 10, Brake: 0.5}},
			Join: &JoinConfig{
				At: 2, Multiplier: 1,
				Train: TrainConfig{
					ID:        "cut",
					Direction: "neutral",
					Vehicles: []VehicleConfig{
						{ID: "cut", Count: 6, Mass: 50000, Brake: 30000, Friction: 700, Coupler: DefaultCoupler()},
					},
				},
			},
		}
	},
	"rigid": func() *Config {
		return &Config{
			Name: "rigid", Dt: 0.02, Duration: 60,
			Physics:  DefaultPhysics(),
			Train:    freight(coupler.Rigid, 10, 0),
			Controls: []ControlConfig{{At: 0, Throttle: 0.8}},
		}
	},
	"simple": func() *Config {
		p := DefaultPhysics()
		p.Simplified = true
		return &Config{
			Name: "simple", Dt: 0.02, Duration: 60,
			Physics:  p,
			Train:    freight(coupler.Advanced, 12, 0),
			Controls: []ControlConfig{{At: 0, Throttle: 0.6}},
		}
	},
}

// GetPreset returns the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := build()
	cfg.Log = logDefaults(cfg.Log)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func logDefaults(l logging.Config) logging.Config {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
	return l
}
