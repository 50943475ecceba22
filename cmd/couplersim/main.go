package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/couplersim/internal/analysis"
	"github.com/san-kum/couplersim/internal/config"
	"github.com/san-kum/couplersim/internal/coupler"
	"github.com/san-kum/couplersim/internal/logging"
	"github.com/san-kum/couplersim/internal/metrics"
	"github.com/san-kum/couplersim/internal/sim"
	"github.com/san-kum/couplersim/internal/storage"
	"github.com/san-kum/couplersim/internal/train"
	"github.com/san-kum/couplersim/internal/tui"
)

var (
	dataDir    string
	dt         float64
	duration   float64
	configFile string
	// Coupler state files
	snapshotPath string
	restorePath  string
	exportPath   string
	metricsFile  string
	// Live view
	frameRate   int
	metricsAddr string
	// couple
	m1, v1, m2, v2 float64
	multiplier     float64
)

var (
	heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	muted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "couplersim",
		Short:        "longitudinal train coupler simulation",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".couplersim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "write coupler state to this file at the end")
	runCmd.Flags().StringVar(&restorePath, "restore", "", "start from a coupler state file")
	runCmd.Flags().StringVar(&exportPath, "export", "", "export the full run as json (- for stdout)")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics in textfile format")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot speed, coupler force and slack of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "surge frequency and force statistics of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scenario with a live coupler view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	liveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	liveCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(heading.Render("presets:"))
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s %s\n", name, muted.Render(fmt.Sprintf("%d vehicle groups, %.0fs", len(p.Train.Vehicles), p.Duration)))
			}
			return nil
		},
	}

	coupleCmd := &cobra.Command{
		Use:   "couple",
		Short: "velocity of two vehicles after coupling",
		RunE:  coupleVehicles,
	}
	coupleCmd.Flags().Float64Var(&m1, "m1", 80000, "mass of the first vehicle (kg)")
	coupleCmd.Flags().Float64Var(&v1, "v1", 1, "velocity of the first vehicle (m/s)")
	coupleCmd.Flags().Float64Var(&m2, "m2", 40000, "mass of the second vehicle (kg)")
	coupleCmd.Flags().Float64Var(&v2, "v2", 0, "velocity of the second vehicle in its own frame (m/s)")
	coupleCmd.Flags().Float64Var(&multiplier, "multiplier", 1, "momentum multiplier of the second vehicle")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, liveCmd, presetsCmd, coupleCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config or the named preset, "start" by default, and
// applies the command line overrides.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		name := "start"
		if len(args) > 0 {
			name = args[0]
		}
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	return cfg, cfg.Validate()
}

func defaultMetrics(s *sim.Simulator) {
	s.AddMetric(metrics.NewPeakCouplerForce())
	s.AddMetric(metrics.NewSlackViolations(1e-9))
	s.AddMetric(metrics.NewMeanPulling())
	s.AddMetric(metrics.NewKineticEnergy())
}

func newSimulator(sc *config.Scenario, log logging.Logger) (*sim.Simulator, error) {
	solver, err := train.NewSolver(sc.Physics, train.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return sim.New(solver, sc.Drive, sim.WithLogger(log)), nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.WithEnv()).With(logging.String("scenario", cfg.Name))

	sc, err := cfg.Build()
	if err != nil {
		return err
	}
	if restorePath != "" {
		snap, err := storage.LoadSnapshot(restorePath)
		if err != nil {
			return err
		}
		if err := snap.Restore(sc.Train); err != nil {
			return err
		}
		log.Info("coupler state restored", logging.String("path", restorePath), logging.Float("time", snap.Time))
	}

	s, err := newSimulator(sc, log)
	if err != nil {
		return err
	}
	defaultMetrics(s)

	var collector *metrics.Collector
	if metricsFile != "" {
		collector, err = metrics.NewCollector(prometheus.NewRegistry())
		if err != nil {
			return err
		}
		s.AddObserver(collector)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s: %d vehicles, %.0fs at dt=%g\n", cfg.Name, len(sc.Train.Vehicles), cfg.Duration, cfg.Dt)
	start := time.Now()

	result, err := s.Run(ctx, sc.Train, sc.Sim)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)
	for _, e := range result.Errors {
		log.Error("simulation error", logging.String("error", e.Error()))
	}

	physics := "full"
	if sc.Physics.Simplified {
		physics = "simplified"
	}
	meta := storage.RunMetadata{
		Scenario: cfg.Name,
		Train:    sc.Train.ID,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Physics:  physics,
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	if snapshotPath != "" {
		if err := storage.SaveSnapshot(snapshotPath, sc.Train, result.Times[len(result.Times)-1]); err != nil {
			return err
		}
	}
	if collector != nil {
		if err := collector.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}
	if exportPath != "" {
		if err := exportRun(exportPath, meta, result); err != nil {
			return err
		}
	}

	stats := s.Solver().Stats()
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d  static solves: %d  unconverged: %d\n", result.StepsTaken, stats.StaticSolves, stats.Unconverged)
	fmt.Println(heading.Render("\nmetrics:"))
	for _, name := range []string{"peak_coupler_force", "slack_violations", "mean_pulling", "peak_kinetic_energy"} {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}
	return nil
}

func exportRun(path string, meta storage.RunMetadata, result *sim.Result) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return storage.ExportJSON(w, meta, result)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tVEHICLES\tPHYSICS\tPEAK FORCE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%s\t%.1f kN\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Vehicles,
			run.Physics,
			run.Metrics["peak_coupler_force"]/1000,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(series.Times))

	peak := make([]float64, len(series.Forces))
	for i, row := range series.Forces {
		for _, f := range row {
			if !math.IsNaN(f) {
				peak[i] = math.Max(peak[i], math.Abs(f)/1000)
			}
		}
	}

	plots := []struct {
		caption string
		data    []float64
	}{
		{"lead vehicle speed (m/s)", storage.Column(series.Velocities, 0)},
		{"largest coupler force (kN)", peak},
		{"first coupler force (kN)", scale(storage.Column(series.Forces, 0), 1e-3)},
		{"first coupler slack (mm)", scale(storage.Column(series.Slack, 0), 1e3)},
	}
	for _, p := range plots {
		if len(p.data) == 0 {
			continue
		}
		graph := asciigraph.Plot(p.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Times) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("coupler analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)

	speed := analysis.Summarize(storage.Column(series.Velocities, 0))
	fmt.Printf("lead speed: mean %.2f m/s, max %.2f m/s\n\n", speed.Mean, speed.Max)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COUPLER\tMEAN kN\tSTDDEV kN\tMIN kN\tMAX kN\tSURGE Hz")
	couplers := 0
	if n := len(series.Forces); n > 0 {
		couplers = len(series.Forces[n-1])
	}
	for i := 0; i < couplers; i++ {
		forces := scale(storage.Column(series.Forces, i), 1e-3)
		s := analysis.Summarize(forces)
		hz := analysis.DominantFrequency(storage.Column(series.Slack, i), meta.Dt)
		fmt.Fprintf(w, "%d\t%.1f\t%.1f\t%.1f\t%.1f\t%.3f\n", i, s.Mean, s.StdDev, s.Min, s.Max, hz)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ps, df := analysis.PowerSpectrum(storage.Column(series.Slack, 0), meta.Dt)
	if len(ps) > 8 {
		// Surging lives well below a few hertz.
		limit := min(len(ps), max(8, int(5/df)))
		fmt.Println()
		fmt.Println(asciigraph.Plot(ps[1:limit],
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("first coupler slack spectrum, %.3f Hz per column", df)),
		))
	}
	return nil
}

func scale(vals []float64, k float64) []float64 {
	for i := range vals {
		vals[i] *= k
	}
	return vals
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	// The terminal belongs to the live view; only warnings go to stderr.
	logCfg := cfg.Log.WithEnv()
	logCfg.Level = "warn"
	log := logging.New(logCfg)

	sc, err := cfg.Build()
	if err != nil {
		return err
	}
	s, err := newSimulator(sc, log)
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		collector, err := metrics.NewCollector(prometheus.NewRegistry())
		if err != nil {
			return err
		}
		s.AddObserver(collector)

		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", logging.String("error", err.Error()))
			}
		}()
		defer srv.Close()
	}

	first := true
	scenario := func() (*train.Train, sim.Config, error) {
		if first {
			first = false
			return sc.Train, sc.Sim, nil
		}
		fresh, err := cfg.Build()
		if err != nil {
			return nil, sim.Config{}, err
		}
		return fresh.Train, fresh.Sim, nil
	}

	m, err := tui.New(s, scenario, frameRate)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func coupleVehicles(cmd *cobra.Command, args []string) error {
	p := coupler.Params{
		Kind:   coupler.Simple,
		Simple: coupler.SimpleParams{Slack1: config.DefaultSlack1, Slack2: config.DefaultSlack2, Stiffness: config.DefaultSpring},
	}
	a, err := train.New("a", []train.Vehicle{{ID: "a", Mass: m1, Velocity: v1, Coupler: p}}, train.Neutral)
	if err != nil {
		return err
	}
	b, err := train.New("b", []train.Vehicle{{ID: "b", Mass: m2, Velocity: v2, Coupler: p}}, train.Neutral)
	if err != nil {
		return err
	}

	v := train.ConserveMomentumOnCoupling(a, b, multiplier)
	fmt.Printf("common velocity: %.6f m/s\n", v)
	fmt.Printf("second vehicle in its own frame: %.6f m/s\n", b.Vehicles[0].Velocity)
	fmt.Println(muted.Render(fmt.Sprintf("momentum before %.1f kg m/s, after %.1f kg m/s",
		m1*v1+m2*v2*multiplier, (m1+m2)*v)))
	return nil
}
