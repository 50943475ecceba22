package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/couplersim/internal/sim"
)

type ExportData struct {
	Scenario string             `json:"scenario"`
	Train    string             `json:"train"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Joined   bool               `json:"joined"`
	Times    []float64          `json:"times"`
	Samples  []ExportSample     `json:"samples"`
	Metrics  map[string]float64 `json:"metrics"`
}

type ExportSample struct {
	Velocities        []float64 `json:"velocities"`
	Slack             []float64 `json:"slack"`
	Forces            []float64 `json:"forces"`
	TensionLimits     []float64 `json:"tension_limits"`
	CompressionLimits []float64 `json:"compression_limits"`
}

// ExportJSON writes a full run, including the dynamic limits that the CSV
// tick table leaves out.
func ExportJSON(w io.Writer, meta RunMetadata, result *sim.Result) error {
	data := ExportData{
		Scenario: meta.Scenario,
		Train:    meta.Train,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		Steps:    result.StepsTaken,
		Joined:   result.Joined,
		Times:    result.Times,
		Samples:  make([]ExportSample, len(result.Samples)),
		Metrics:  result.Metrics,
	}
	for i, s := range result.Samples {
		data.Samples[i] = ExportSample{
			Velocities:        s.Velocities,
			Slack:             s.Slack,
			Forces:            s.Forces,
			TensionLimits:     s.TensionLimits,
			CompressionLimits: s.CompressionLimits,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
