package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/couplersim/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Times: []float64{0.0, 0.02, 0.04},
		Samples: []sim.Sample{
			{Velocities: []float64{0, 0}, Slack: []float64{0}, Forces: []float64{0}},
			{Velocities: []float64{0.1, 0.05}, Slack: []float64{0.05}, Forces: []float64{-1200}},
			{Velocities: []float64{0.1, 0.1, 0.1}, Slack: []float64{0.05, 0}, Forces: []float64{-1500, 0}},
		},
		Metrics:    map[string]float64{"peak_coupler_force": 1500},
		StepsTaken: 2,
		Joined:     true,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Scenario: "start", Train: "freight", Dt: 0.02, Duration: 0.04}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "start_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scenario != "start" || meta.Train != "freight" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Steps != 2 || meta.Vehicles != 3 || !meta.Joined {
		t.Errorf("result fields not recorded: %+v", meta)
	}
	if meta.Metrics["peak_coupler_force"] != 1500 {
		t.Errorf("expected peak 1500, got %f", meta.Metrics["peak_coupler_force"])
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if len(series.Times) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(series.Times))
	}
	if len(series.Velocities[0]) != 3 || !math.IsNaN(series.Velocities[0][2]) {
		t.Errorf("missing vehicle should read as NaN, got %v", series.Velocities[0])
	}
	if series.Forces[1][0] != -1200 {
		t.Errorf("expected force -1200, got %f", series.Forces[1][0])
	}
	if got := Column(series.Velocities, 2); len(got) != 1 || got[0] != 0.1 {
		t.Errorf("column of joined vehicle = %v", got)
	}
	if got := Column(series.Slack, 0); len(got) != 3 {
		t.Errorf("column of first coupler = %v", got)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(RunMetadata{Scenario: "runin"}, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(st.baseDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID == runs[1].ID {
		t.Error("run ids should be unique")
	}
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	data, err := os.ReadFile(filepath.Join(runDir, "ticks.csv"))
	if err != nil {
		t.Fatalf("ticks.csv not created: %v", err)
	}
	header := strings.SplitN(string(data), "\n", 2)[0]
	if header != "time,v0,v1,v2,s0,s1,f0,f1" {
		t.Errorf("unexpected header %q", header)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	res := testResult()
	res.Samples[2].TensionLimits = []float64{0.0525, 0.0525}

	if err := ExportJSON(&buf, RunMetadata{Scenario: "join", Dt: 0.02}, res); err != nil {
		t.Fatalf("export: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Scenario != "join" || data.Steps != 2 || !data.Joined {
		t.Errorf("unexpected header fields %+v", data)
	}
	if len(data.Samples) != 3 || data.Samples[2].TensionLimits[1] != 0.0525 {
		t.Errorf("samples not exported: %+v", data.Samples)
	}
}
