package train

import "fmt"

// DefaultRestMargin is how far past the dead-band the rest limits sit, as a
// fraction of the dead-band extent.
const DefaultRestMargin = 0.05

// PhysicsConfig is the immutable tuning of a Solver.
type PhysicsConfig struct {
	// Simplified forces the simple coupler model on every train.
	Simplified bool

	// StartupSpeed is the speed in m/s below which a vehicle counts as not
	// yet moving.
	StartupSpeed float64

	// Per-tick retention of the previous dynamic limit while the rear of the
	// train has not started moving, and once it has.
	DampingTransitional float64
	DampingSettled      float64

	RestMargin float64

	// ForceSmoothing is the low-pass time constant of the smoothed coupler
	// force in seconds. Zero disables smoothing.
	ForceSmoothing float64

	// ZeroForce is the smoothed force magnitude in N below which a coupler
	// counts as unloaded.
	ZeroForce float64
}

func DefaultPhysicsConfig() PhysicsConfig {
	return PhysicsConfig{
		StartupSpeed:        0.1,
		DampingTransitional: 0.99,
		DampingSettled:      0.98,
		RestMargin:          DefaultRestMargin,
		ForceSmoothing:      0.25,
		ZeroForce:           1.0,
	}
}

func (c PhysicsConfig) Validate() error {
	switch {
	case !(c.StartupSpeed >= 0):
		return fmt.Errorf("%w: startup speed %g", ErrInvalidPhysics, c.StartupSpeed)
	case !(c.DampingTransitional >= 0 && c.DampingTransitional < 1):
		return fmt.Errorf("%w: transitional damping %g not in [0, 1)", ErrInvalidPhysics, c.DampingTransitional)
	case !(c.DampingSettled >= 0 && c.DampingSettled < 1):
		return fmt.Errorf("%w: settled damping %g not in [0, 1)", ErrInvalidPhysics, c.DampingSettled)
	case !(c.RestMargin >= 0):
		return fmt.Errorf("%w: rest margin %g", ErrInvalidPhysics, c.RestMargin)
	case !(c.ForceSmoothing >= 0):
		return fmt.Errorf("%w: force smoothing %g", ErrInvalidPhysics, c.ForceSmoothing)
	case !(c.ZeroForce >= 0):
		return fmt.Errorf("%w: zero force %g", ErrInvalidPhysics, c.ZeroForce)
	}
	return nil
}
