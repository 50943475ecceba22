package train

import "errors"

var (
	// ErrNoVehicles indicates an empty vehicle list.
	ErrNoVehicles = errors.New("train: no vehicles")

	// ErrInvalidMass indicates a vehicle whose mass is not strictly positive.
	ErrInvalidMass = errors.New("train: vehicle mass must be positive")

	// ErrInvalidCoupler indicates coupler parameters the effective model cannot use.
	ErrInvalidCoupler = errors.New("train: invalid coupler parameters")

	// ErrInvalidPhysics indicates a PhysicsConfig value out of range.
	ErrInvalidPhysics = errors.New("train: invalid physics configuration")

	// ErrLayoutMismatch indicates restored state that does not fit the train.
	ErrLayoutMismatch = errors.New("train: state does not match vehicle layout")
)

// VehicleError wraps an error with the offending vehicle.
type VehicleError struct {
	Index   int
	ID      string
	Wrapped error
}

func (e *VehicleError) Error() string {
	return "vehicle " + e.ID + ": " + e.Wrapped.Error()
}

func (e *VehicleError) Unwrap() error {
	return e.Wrapped
}
