package train

import (
	"fmt"

	"github.com/san-kum/couplersim/internal/coupler"
)

// Direction is the commanded direction of travel.
type Direction int

const (
	Reverse Direction = -1
	Neutral Direction = 0
	Forward Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	}
	return "neutral"
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "forward":
		return Forward, nil
	case "reverse":
		return Reverse, nil
	case "neutral", "":
		return Neutral, nil
	}
	return Neutral, fmt.Errorf("unknown direction: %s", s)
}

// Train is an ordered vehicle sequence with the couplers between them.
type Train struct {
	ID        string
	Vehicles  []Vehicle
	Couplers  []coupler.State
	Direction Direction

	// Instrumentation refreshed by UpdateCouplerSlack.
	MaxCouplerForce float64
	Pulling         int
	Pushing         int
}

// New validates the vehicles and builds a train with every coupler at rest
// and zero slack. The slice is copied.
func New(id string, vehicles []Vehicle, dir Direction) (*Train, error) {
	if len(vehicles) == 0 {
		return nil, ErrNoVehicles
	}
	t := &Train{
		ID:        id,
		Vehicles:  append([]Vehicle(nil), vehicles...),
		Direction: dir,
	}
	for i := range t.Vehicles {
		if err := t.validateVehicle(i); err != nil {
			return nil, err
		}
	}
	t.Couplers = make([]coupler.State, len(t.Vehicles)-1)
	for i := range t.Couplers {
		t.Couplers[i] = coupler.NewState(t.configuredKind(i), &t.Vehicles[i].Coupler, 0, DefaultRestMargin)
	}
	return t, nil
}

func (t *Train) validateVehicle(i int) error {
	v := &t.Vehicles[i]
	if !(v.Mass > 0) {
		return &VehicleError{Index: i, ID: v.ID, Wrapped: fmt.Errorf("%w: %g", ErrInvalidMass, v.Mass)}
	}
	if i == len(t.Vehicles)-1 {
		// The rear coupler of the last vehicle is unused until another train
		// is attached.
		return nil
	}
	return t.validateCoupler(i)
}

func (t *Train) validateCoupler(i int) error {
	v := &t.Vehicles[i]
	if err := v.Coupler.Validate(coupler.Simple); err != nil {
		return &VehicleError{Index: i, ID: v.ID, Wrapped: fmt.Errorf("%w: %w", ErrInvalidCoupler, err)}
	}
	if k := t.configuredKind(i); k != coupler.Simple {
		if err := v.Coupler.Validate(k); err != nil {
			return &VehicleError{Index: i, ID: v.ID, Wrapped: fmt.Errorf("%w: %w", ErrInvalidCoupler, err)}
		}
	}
	return nil
}

// IsPlayer reports whether any vehicle is the player's lead vehicle.
func (t *Train) IsPlayer() bool {
	for i := range t.Vehicles {
		if t.Vehicles[i].IsLeadPlayer {
			return true
		}
	}
	return false
}

// LeadIndex returns the player's lead vehicle, or the front vehicle.
func (t *Train) LeadIndex() int {
	for i := range t.Vehicles {
		if t.Vehicles[i].IsLeadPlayer {
			return i
		}
	}
	return 0
}

// Mass returns the total mass in kg.
func (t *Train) Mass() float64 {
	m := 0.0
	for i := range t.Vehicles {
		m += t.Vehicles[i].Mass
	}
	return m
}

// Kind returns the coupler model coupler i runs under the given global
// switch. Advanced curves are only used on player trains, by vehicles fitted
// with them, with full physics enabled.
func (t *Train) Kind(i int, simplified bool) coupler.Kind {
	return t.kindOf(i, t.advanced(simplified))
}

func (t *Train) advanced(simplified bool) bool {
	return !simplified && t.IsPlayer()
}

func (t *Train) kindOf(i int, advanced bool) coupler.Kind {
	if !advanced {
		return coupler.Simple
	}
	return t.configuredKind(i)
}

func (t *Train) configuredKind(i int) coupler.Kind {
	v := &t.Vehicles[i]
	if !v.UsesAdvancedCoupler {
		return coupler.Simple
	}
	return v.Coupler.Kind
}

// SetSlack places coupler i at the given slack, clamped to its limits.
func (t *Train) SetSlack(i int, slack float64) {
	c := &t.Couplers[i]
	c.Slack = slack
	c.Clamp()
	c.PrevSlack = c.Slack
}

// Attach couples other behind the last vehicle of t. When reversed is set
// other is turned around first: its vehicle order, orientation and
// velocities are inverted. The new coupler uses the rear coupler parameters
// of t's last vehicle and starts at zero slack. other is emptied.
//
// Run ConserveMomentumOnCoupling first so both trains move together.
func (t *Train) Attach(other *Train, reversed bool) error {
	if other == nil || len(other.Vehicles) == 0 {
		return ErrNoVehicles
	}
	last := len(t.Vehicles) - 1
	if err := t.validateCoupler(last); err != nil {
		return err
	}

	vehicles := other.Vehicles
	couplers := other.Couplers
	if reversed {
		vehicles, couplers = turnAround(vehicles, couplers)
	}

	junction := coupler.NewState(t.configuredKind(last), &t.Vehicles[last].Coupler, 0, DefaultRestMargin)
	t.Vehicles = append(t.Vehicles, vehicles...)
	t.Couplers = append(t.Couplers, junction)
	t.Couplers = append(t.Couplers, couplers...)

	other.Vehicles = nil
	other.Couplers = nil
	return nil
}

// turnAround reverses a vehicle sequence. Coupler parameters stay with the
// coupler they describe, so they shift to the new front vehicle of each pair.
func turnAround(vs []Vehicle, cs []coupler.State) ([]Vehicle, []coupler.State) {
	n := len(vs)
	out := make([]Vehicle, n)
	for k := 0; k < n; k++ {
		v := vs[n-1-k]
		v.Flipped = !v.Flipped
		v.Velocity = -v.Velocity
		v.FrontSlack, v.RearSlack = v.RearSlack, v.FrontSlack
		if k < n-1 {
			v.Coupler = vs[n-2-k].Coupler
		} else {
			v.Coupler = vs[n-1].Coupler
		}
		out[k] = v
	}
	couplers := make([]coupler.State, len(cs))
	for k := range cs {
		couplers[k] = cs[len(cs)-1-k]
	}
	return out, couplers
}
