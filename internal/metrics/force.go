package metrics

import (
	"math"

	"github.com/san-kum/couplersim/internal/train"
)

// PeakCouplerForce is the largest static coupler force magnitude seen, in N.
type PeakCouplerForce struct {
	name string
	peak float64
}

func NewPeakCouplerForce() *PeakCouplerForce {
	return &PeakCouplerForce{name: "peak_coupler_force"}
}

func (p *PeakCouplerForce) Name() string { return p.name }

func (p *PeakCouplerForce) Observe(tr *train.Train, t float64) {
	p.peak = math.Max(p.peak, tr.MaxCouplerForce)
}

func (p *PeakCouplerForce) Value() float64 { return p.peak }

func (p *PeakCouplerForce) Reset() { p.peak = 0 }

// MeanPulling averages the share of couplers in tension over the run.
type MeanPulling struct {
	name    string
	sum     float64
	samples int
}

func NewMeanPulling() *MeanPulling {
	return &MeanPulling{name: "mean_pulling"}
}

func (m *MeanPulling) Name() string { return m.name }

func (m *MeanPulling) Observe(tr *train.Train, t float64) {
	if len(tr.Couplers) == 0 {
		return
	}
	m.sum += float64(tr.Pulling) / float64(len(tr.Couplers))
	m.samples++
}

func (m *MeanPulling) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanPulling) Reset() {
	m.sum = 0
	m.samples = 0
}
