package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/couplersim/internal/train"
)

// KineticEnergy reports the largest translational kinetic energy of the
// train over the run, in J.
type KineticEnergy struct {
	name   string
	peak   float64
	masses []float64
	v2     []float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "peak_kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(tr *train.Train, t float64) {
	n := len(tr.Vehicles)
	if cap(e.masses) < n {
		e.masses = make([]float64, n)
		e.v2 = make([]float64, n)
	}
	e.masses, e.v2 = e.masses[:n], e.v2[:n]
	for i := range tr.Vehicles {
		v := tr.Vehicles[i].Velocity
		e.masses[i] = tr.Vehicles[i].Mass
		e.v2[i] = v * v
	}
	if ke := 0.5 * floats.Dot(e.masses, e.v2); ke > e.peak {
		e.peak = ke
	}
}

func (e *KineticEnergy) Value() float64 { return e.peak }

func (e *KineticEnergy) Reset() { e.peak = 0 }
