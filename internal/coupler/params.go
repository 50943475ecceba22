package coupler

import (
	"errors"
	"fmt"
	"math"
)

// Kind selects the force/slack curve of a coupler.
type Kind int

const (
	// Simple is a dead-band followed by one linear spring, symmetric in
	// tension and compression.
	Simple Kind = iota
	// Advanced has a dead-band and two springs of increasing stiffness,
	// with separate tension and compression curves.
	Advanced
	// Rigid stops hard at the end of the dead-band.
	Rigid
)

var kindNames = map[Kind]string{
	Simple:   "simple",
	Advanced: "advanced",
	Rigid:    "rigid",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return Simple, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Side is the loading direction of a coupler.
type Side int

const (
	Tension Side = iota
	Compression
)

func (s Side) String() string {
	if s == Compression {
		return "compression"
	}
	return "tension"
}

// SideOf returns the side a slack value lies on. Zero counts as tension.
func SideOf(slack float64) Side {
	if slack < 0 {
		return Compression
	}
	return Tension
}

var (
	ErrUnknownKind   = errors.New("coupler: unknown kind")
	ErrInvalidZones  = errors.New("coupler: zone extents must be positive and strictly increasing")
	ErrInvalidSpring = errors.New("coupler: stiffness must be positive")
	ErrMissingCurves = errors.New("coupler: advanced and rigid kinds need tension and compression curves")
)

// SimpleParams configures the two-zone model. Extents are slack magnitudes
// in metres, stiffness in N/m.
type SimpleParams struct {
	Slack1    float64 `yaml:"slack1"`
	Slack2    float64 `yaml:"slack2"`
	Stiffness float64 `yaml:"stiffness"`
}

// Curve is one side of an advanced coupler: the dead-band ends at Zone1,
// the first spring at Zone2 and the stiffer spring at Zone3.
type Curve struct {
	Zone1      float64 `yaml:"zone1"`
	Zone2      float64 `yaml:"zone2"`
	Zone3      float64 `yaml:"zone3"`
	Stiffness2 float64 `yaml:"stiffness2"`
	Stiffness3 float64 `yaml:"stiffness3"`
}

// AdvancedParams carries the asymmetric curves used by the Advanced and
// Rigid kinds.
type AdvancedParams struct {
	Tension     Curve `yaml:"tension"`
	Compression Curve `yaml:"compression"`
}

func (a *AdvancedParams) curve(side Side) Curve {
	if side == Compression {
		return a.Compression
	}
	return a.Tension
}

// Params is the fixed configuration of one coupler. Advanced is only read
// when the effective kind is Advanced or Rigid, so it may be nil for
// couplers that always run the simple model.
type Params struct {
	Kind     Kind
	Simple   SimpleParams
	Advanced *AdvancedParams
}

// Validate checks the parameters the given effective kind will read.
func (p Params) Validate(kind Kind) error {
	switch kind {
	case Simple:
		s := p.Simple
		if !increasing(0, s.Slack1, s.Slack2) {
			return fmt.Errorf("%w: slack1=%g slack2=%g", ErrInvalidZones, s.Slack1, s.Slack2)
		}
		if !(s.Stiffness > 0) {
			return fmt.Errorf("%w: %g", ErrInvalidSpring, s.Stiffness)
		}
		return nil
	case Advanced, Rigid:
		if p.Advanced == nil {
			return ErrMissingCurves
		}
		for _, side := range []Side{Tension, Compression} {
			c := p.Advanced.curve(side)
			if kind == Rigid {
				if !increasing(0, c.Zone1) {
					return fmt.Errorf("%w: %s zone1=%g", ErrInvalidZones, side, c.Zone1)
				}
				continue
			}
			if !increasing(0, c.Zone1, c.Zone2, c.Zone3) {
				return fmt.Errorf("%w: %s %g/%g/%g", ErrInvalidZones, side, c.Zone1, c.Zone2, c.Zone3)
			}
			if !(c.Stiffness2 > 0) || !(c.Stiffness3 > 0) {
				return fmt.Errorf("%w: %s %g/%g", ErrInvalidSpring, side, c.Stiffness2, c.Stiffness3)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
}

func increasing(values ...float64) bool {
	for i := 1; i < len(values); i++ {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) || !(values[i] > values[i-1]) {
			return false
		}
	}
	return true
}
