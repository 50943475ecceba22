package train

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ConserveMomentumOnCoupling sets both trains to the velocity that conserves
// their combined momentum and returns it in the frame of a.
//
// multiplier scales b's contribution: -1 when b is pointed the other way,
// a fraction for a partly inelastic impact. b's vehicles end at the common
// velocity in b's own frame, so attaching b reversed afterwards lines the
// velocities up. Vehicle orientation is carried by Flipped and applied by
// OwnSpeed.
func ConserveMomentumOnCoupling(a, b *Train, multiplier float64) float64 {
	ma, pa := momentum(a)
	mb, pb := momentum(b)
	v := (pa + pb*multiplier) / (ma + mb)

	for i := range a.Vehicles {
		a.Vehicles[i].Velocity = v
	}
	vb := v * math.Copysign(1, multiplier)
	for i := range b.Vehicles {
		b.Vehicles[i].Velocity = vb
	}
	return v
}

func momentum(t *Train) (mass, p float64) {
	masses := make([]float64, len(t.Vehicles))
	velocities := make([]float64, len(t.Vehicles))
	for i := range t.Vehicles {
		masses[i] = t.Vehicles[i].Mass
		velocities[i] = t.Vehicles[i].Velocity
	}
	return floats.Sum(masses), floats.Dot(masses, velocities)
}
