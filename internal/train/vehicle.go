package train

import "github.com/san-kum/couplersim/internal/coupler"

// Resistance holds the per-tick resisting forces on a vehicle, all as
// magnitudes in newtons. They are supplied by the caller and always act
// against the direction of motion.
type Resistance struct {
	Friction float64
	Brake    float64
	Curve    float64
	Wind     float64
	Tunnel   float64
}

func (r Resistance) Total() float64 {
	return r.Friction + r.Brake + r.Curve + r.Wind + r.Tunnel
}

// Vehicle is one rigid mass of the chain.
type Vehicle struct {
	ID   string
	Mass float64 // kg

	// Velocity is along the train axis in m/s, positive towards the front.
	Velocity float64

	// TotalForce is the net non-coupler force set by the caller each tick.
	// ComputeCouplerForces folds Resistance and the coupler forces into it.
	TotalForce float64
	Resistance Resistance

	IsLeadPlayer        bool
	UsesAdvancedCoupler bool

	// Flipped vehicles face the rear of the train.
	Flipped bool

	// Coupler configures the coupler at the rear of this vehicle.
	Coupler coupler.Params

	DistanceTravelled float64 // m

	// Half of the slack of each adjacent coupler, for display.
	FrontSlack float64
	RearSlack  float64
}

// OwnSpeed returns the velocity in the vehicle's own frame.
func (v *Vehicle) OwnSpeed() float64 {
	if v.Flipped {
		return -v.Velocity
	}
	return v.Velocity
}

// foldResistance applies the resisting forces against the motion. A vehicle
// at rest only resists as much force as is applied to it.
func (v *Vehicle) foldResistance() {
	r := v.Resistance.Total()
	switch {
	case v.Velocity > 0:
		v.TotalForce -= r
	case v.Velocity < 0:
		v.TotalForce += r
	default:
		v.TotalForce = staticFriction(v.TotalForce, r)
	}
}

// staticFriction returns what is left of f once up to r newtons of friction
// have opposed it.
func staticFriction(f, r float64) float64 {
	switch {
	case f > r:
		return f - r
	case f < -r:
		return f + r
	}
	return 0
}
