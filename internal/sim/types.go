package sim

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/couplersim/internal/train"
)

var (
	ErrInvalidConfig = errors.New("sim: invalid config")
	ErrInvalidState  = errors.New("sim: invalid state (NaN or Inf detected)")
)

// Control is the driver input from time At onwards. Throttle and Brake are
// fractions of the available traction and brake force.
type Control struct {
	At       float64
	Throttle float64
	Brake    float64
}

// Schedule is a list of controls ordered by At.
type Schedule []Control

// At returns the control in effect at time t, or the zero control before the
// first entry.
func (s Schedule) At(t float64) Control {
	i := sort.Search(len(s), func(i int) bool { return s[i].At > t })
	if i == 0 {
		return Control{}
	}
	return s[i-1]
}

// ForceModel sets the non-coupler forces of every vehicle for one tick.
type ForceModel interface {
	Apply(tr *train.Train, ctl Control)
}

// Capability holds the force figures of one vehicle in newtons.
type Capability struct {
	Traction float64
	Brake    float64
	Friction float64
	Curve    float64
	Wind     float64
	Tunnel   float64
}

// Drive is a ForceModel keyed by vehicle ID. Vehicles without an entry are
// unpowered and unbraked.
type Drive map[string]Capability

func (d Drive) Apply(tr *train.Train, ctl Control) {
	dir := float64(tr.Direction)
	for i := range tr.Vehicles {
		v := &tr.Vehicles[i]
		c := d[v.ID]
		v.TotalForce = ctl.Throttle * c.Traction * dir
		v.Resistance = train.Resistance{
			Friction: c.Friction,
			Brake:    ctl.Brake * c.Brake,
			Curve:    c.Curve,
			Wind:     c.Wind,
			Tunnel:   c.Tunnel,
		}
	}
}

type Metric interface {
	Name() string
	Observe(tr *train.Train, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(tr *train.Train, t float64)
}

// Join couples Train behind the simulated train once the clock reaches At.
// Running the join empties Train. Multiplier scales the momentum Train
// brings; its sign is ignored and taken from Reversed, so a train turned
// around always ends at the common velocity.
type Join struct {
	At         float64
	Train      *train.Train
	Multiplier float64
	Reversed   bool
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
	Controls      Schedule
	Join          *Join
}

func (c Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, c.Duration)
	}
	for i, ctl := range c.Controls {
		if ctl.Throttle < 0 || ctl.Throttle > 1 || ctl.Brake < 0 || ctl.Brake > 1 {
			return fmt.Errorf("%w: control %d outside [0,1]", ErrInvalidConfig, i)
		}
		if i > 0 && ctl.At < c.Controls[i-1].At {
			return fmt.Errorf("%w: controls not ordered by time", ErrInvalidConfig)
		}
	}
	if c.Join != nil {
		if c.Join.Train == nil || len(c.Join.Train.Vehicles) == 0 {
			return fmt.Errorf("%w: join without vehicles", ErrInvalidConfig)
		}
		if c.Join.Multiplier == 0 {
			return fmt.Errorf("%w: join multiplier must be non-zero", ErrInvalidConfig)
		}
	}
	return nil
}

// Sample is the per-tick record of a run. Slices are indexed by vehicle or
// coupler and grow when a train is joined.
type Sample struct {
	Velocities        []float64
	Slack             []float64
	Forces            []float64
	TensionLimits     []float64
	CompressionLimits []float64
}

func sample(tr *train.Train) Sample {
	s := Sample{
		Velocities:        make([]float64, len(tr.Vehicles)),
		Slack:             make([]float64, len(tr.Couplers)),
		Forces:            make([]float64, len(tr.Couplers)),
		TensionLimits:     make([]float64, len(tr.Couplers)),
		CompressionLimits: make([]float64, len(tr.Couplers)),
	}
	for i := range tr.Vehicles {
		s.Velocities[i] = tr.Vehicles[i].Velocity
	}
	for i, c := range tr.Couplers {
		s.Slack[i] = c.Slack
		s.Forces[i] = c.Force
		s.TensionLimits[i] = c.TensionLimit
		s.CompressionLimits[i] = c.CompressionLimit
	}
	return s
}

type Result struct {
	Times      []float64
	Samples    []Sample
	Metrics    map[string]float64
	StepsTaken int
	Joined     bool
	Errors     []error
}

type SimError struct {
	Step    int
	Time    float64
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error { return ErrInvalidState }
