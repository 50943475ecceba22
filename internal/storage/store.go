package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/couplersim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	ticksFile    = "ticks.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Train     string             `json:"train"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Vehicles  int                `json:"vehicles"`
	Joined    bool               `json:"joined"`
	Physics   string             `json:"physics"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run to its own directory and returns the run ID. ID,
// Timestamp, Steps and Metrics of meta are filled in from the result.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	name := meta.Scenario
	if name == "" {
		name = "run"
	}
	meta.ID = fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
	meta.Timestamp = time.Now()
	meta.Steps = result.StepsTaken
	meta.Joined = result.Joined
	meta.Metrics = result.Metrics
	if n := len(result.Samples); n > 0 {
		meta.Vehicles = len(result.Samples[n-1].Velocities)
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeTicks(filepath.Join(runDir, ticksFile), result); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// writeTicks stores one row per tick: time, then velocity, slack and force
// columns. Trains grow when joined, so columns are sized for the largest
// sample and shorter rows are padded with empty cells.
func writeTicks(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	vehicles, couplers := 0, 0
	for _, smp := range result.Samples {
		vehicles = max(vehicles, len(smp.Velocities))
		couplers = max(couplers, len(smp.Slack))
	}

	header := []string{"time"}
	for i := 0; i < vehicles; i++ {
		header = append(header, fmt.Sprintf("v%d", i))
	}
	for i := 0; i < couplers; i++ {
		header = append(header, fmt.Sprintf("s%d", i))
	}
	for i := 0; i < couplers; i++ {
		header = append(header, fmt.Sprintf("f%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, smp := range result.Samples {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		row = appendPadded(row, smp.Velocities, vehicles)
		row = appendPadded(row, smp.Slack, couplers)
		row = appendPadded(row, smp.Forces, couplers)
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func appendPadded(row []string, vals []float64, width int) []string {
	for j := 0; j < width; j++ {
		if j < len(vals) {
			row = append(row, strconv.FormatFloat(vals[j], 'g', 10, 64))
		} else {
			row = append(row, "")
		}
	}
	return row
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Series is the tick table of a stored run. Cells missing before a join are
// NaN.
type Series struct {
	Times      []float64
	Velocities [][]float64
	Slack      [][]float64
	Forces     [][]float64
}

// Column returns the values of one vehicle or coupler over time, skipping
// ticks where it did not exist yet.
func Column(rows [][]float64, i int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if i < len(row) && !math.IsNaN(row[i]) {
			out = append(out, row[i])
		}
	}
	return out
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, ticksFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	series := &Series{}
	if len(records) < 2 {
		return series, nil
	}

	header := records[0]
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		var v, sl, f []float64
		for j := 1; j < len(record) && j < len(header); j++ {
			val := math.NaN()
			if record[j] != "" {
				if val, err = strconv.ParseFloat(record[j], 64); err != nil {
					val = math.NaN()
				}
			}
			switch {
			case strings.HasPrefix(header[j], "v"):
				v = append(v, val)
			case strings.HasPrefix(header[j], "s"):
				sl = append(sl, val)
			case strings.HasPrefix(header[j], "f"):
				f = append(f, val)
			}
		}
		series.Times = append(series.Times, t)
		series.Velocities = append(series.Velocities, v)
		series.Slack = append(series.Slack, sl)
		series.Forces = append(series.Forces, f)
	}
	return series, nil
}
