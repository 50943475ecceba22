package storage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/couplersim/internal/train"
)

// CouplerSnapshot holds the persistent state of one coupler. Values are
// written verbatim so a restored train continues exactly where it stopped.
type CouplerSnapshot struct {
	Slack            float64 `yaml:"slack"`
	PrevSlack        float64 `yaml:"prev_slack"`
	TensionLimit     float64 `yaml:"tension_limit"`
	CompressionLimit float64 `yaml:"compression_limit"`
	SmoothedForce    float64 `yaml:"smoothed_force"`
}

type VehicleSnapshot struct {
	ID                string  `yaml:"id"`
	Velocity          float64 `yaml:"velocity"`
	DistanceTravelled float64 `yaml:"distance"`
}

type Snapshot struct {
	Train    string            `yaml:"train"`
	Time     float64           `yaml:"time"`
	Vehicles []VehicleSnapshot `yaml:"vehicles"`
	Couplers []CouplerSnapshot `yaml:"couplers"`
}

func Capture(tr *train.Train, t float64) *Snapshot {
	s := &Snapshot{
		Train:    tr.ID,
		Time:     t,
		Vehicles: make([]VehicleSnapshot, len(tr.Vehicles)),
		Couplers: make([]CouplerSnapshot, len(tr.Couplers)),
	}
	for i, v := range tr.Vehicles {
		s.Vehicles[i] = VehicleSnapshot{ID: v.ID, Velocity: v.Velocity, DistanceTravelled: v.DistanceTravelled}
	}
	for i, c := range tr.Couplers {
		s.Couplers[i] = CouplerSnapshot{
			Slack:            c.Slack,
			PrevSlack:        c.PrevSlack,
			TensionLimit:     c.TensionLimit,
			CompressionLimit: c.CompressionLimit,
			SmoothedForce:    c.SmoothedForce,
		}
	}
	return s
}

// Restore writes the snapshot into tr, which must have the same vehicles in
// the same order.
func (s *Snapshot) Restore(tr *train.Train) error {
	if len(s.Vehicles) != len(tr.Vehicles) || len(s.Couplers) != len(tr.Couplers) {
		return fmt.Errorf("%w: snapshot has %d vehicles, train has %d",
			train.ErrLayoutMismatch, len(s.Vehicles), len(tr.Vehicles))
	}
	for i, v := range s.Vehicles {
		if v.ID != tr.Vehicles[i].ID {
			return fmt.Errorf("%w: vehicle %d is %q, snapshot has %q",
				train.ErrLayoutMismatch, i, tr.Vehicles[i].ID, v.ID)
		}
	}
	for i, v := range s.Vehicles {
		tr.Vehicles[i].Velocity = v.Velocity
		tr.Vehicles[i].DistanceTravelled = v.DistanceTravelled
	}
	for i, c := range s.Couplers {
		st := &tr.Couplers[i]
		st.Slack = c.Slack
		st.PrevSlack = c.PrevSlack
		st.TensionLimit = c.TensionLimit
		st.CompressionLimit = c.CompressionLimit
		st.SmoothedForce = c.SmoothedForce
	}
	return nil
}

func SaveSnapshot(path string, tr *train.Train, t float64) error {
	data, err := yaml.Marshal(Capture(tr, t))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return &s, nil
}
