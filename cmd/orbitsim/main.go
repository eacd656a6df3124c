package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool

	configFile   string
	dt           float64
	duration     float64
	batch        int
	lookahead    int
	stepSize     uint64
	timePerStep  float64
	gravityScale float64
	integrator   string
	missing      string

	metricSpecs []string
	noSave      bool
	jsonOut     bool

	plane      string
	outFile    string
	format     string
	plotWidth  int
	plotHeight int
	svgWidth   int
	svgHeight  int

	speed     float64
	track     string
	gifPath   string
	addr      string
	interval  int
	maxFPS    float64
	parallel  int
	checkTime float64

	tuneParams []string
	tuneMetric string
)

// main runs the orbitsim command and exits 1 when it fails.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd registers every subcommand. Each flag variable is bound by one
// command only, since registering a flag stores its default.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "orbitsim",
		Short:         "hierarchical orbital trajectory engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbitsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario headlessly and store the samples",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringSliceVar(&metricSpecs, "metric", nil, "extra metric as name:body (repeatable)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the run as JSON")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot distances and orbits of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plane, "plane", "xy", "projection plane (xy, xz, yz)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 30, "orbit plot height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json, svg or metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json, svg or meta")
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (stdout when empty)")
	exportCmd.Flags().StringVar(&plane, "plane", "xy", "projection plane for svg")
	exportCmd.Flags().IntVar(&svgWidth, "width", 800, "svg width")
	exportCmd.Flags().IntVar(&svgHeight, "height", 800, "svg height")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate orbital periods",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scenario in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().Float64Var(&speed, "speed", 1, "wall time multiplier")
	liveCmd.Flags().StringVar(&plane, "plane", "xy", "projection plane (xy, xz, yz)")
	liveCmd.Flags().StringVar(&track, "track", "", "body whose distance is charted")
	liveCmd.Flags().StringVar(&gifPath, "gif", "orbitsim.gif", "recording output")

	serveCmd := &cobra.Command{
		Use:   "serve [preset]",
		Short: "run a scenario in real time and stream it over websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serveScenario,
	}
	addScenarioFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().Float64Var(&speed, "speed", 1, "wall time multiplier")
	serveCmd.Flags().IntVar(&interval, "interval", 20, "tick interval in milliseconds")
	serveCmd.Flags().Float64Var(&maxFPS, "fps", 30, "maximum frames per second sent to clients")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "benchmark integrators and batch sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScenario,
	}
	addScenarioFlags(benchCmd)

	checkCmd := &cobra.Command{
		Use:   "check [scenario.yaml...]",
		Short: "validate and briefly run scenario files or every preset",
		RunE:  checkScenarios,
	}
	checkCmd.Flags().IntVar(&parallel, "parallel", 4, "scenarios run concurrently")
	checkCmd.Flags().Float64Var(&checkTime, "time", 1, "simulated wall time per scenario")

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search scenario parameters for the lowest metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneScenario,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "parameter grid as name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "", "metric to minimise, e.g. energy_drift:planet")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, analyzeCmd, liveCmd, serveCmd, presetsCmd, benchCmd, checkCmd, tuneCmd)
	return rootCmd
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "integration step")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "wall time to simulate")
	cmd.Flags().IntVar(&batch, "batch", config.DefaultBatch, "steps per trajectory extension")
	cmd.Flags().IntVar(&lookahead, "lookahead", config.DefaultLookahead, "clock steps kept covered")
	cmd.Flags().Uint64Var(&stepSize, "step-size", config.DefaultStepSize, "steps per clock advance")
	cmd.Flags().Float64Var(&timePerStep, "time-per-step", config.DefaultTimePerStep, "wall time per clock advance")
	cmd.Flags().Float64Var(&gravityScale, "gravity-scale", config.DefaultGravityScale, "scale applied to derived mu")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4, rk45, verlet)")
	cmd.Flags().StringVar(&missing, "missing", "zero", "parent sample miss policy (zero, interpolate)")
}

// loadScenario picks the config file, the named preset or the circular
// preset, then applies the flags the user set.
func loadScenario(cmd *cobra.Command, args []string) (*config.Scenario, error) {
	var sc *config.Scenario
	switch {
	case configFile != "":
		var err error
		sc, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	case len(args) > 0:
		sc = config.GetPreset(args[0])
		if sc == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	default:
		sc = config.GetPreset("circular")
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		sc.Dt = dt
	}
	if flags.Changed("time") {
		sc.Duration = duration
	}
	if flags.Changed("batch") {
		sc.Batch = batch
	}
	if flags.Changed("lookahead") {
		sc.Lookahead = lookahead
	}
	if flags.Changed("step-size") {
		sc.Clock.StepSize = stepSize
	}
	if flags.Changed("time-per-step") {
		sc.Clock.TimePerStep = timePerStep
	}
	if flags.Changed("gravity-scale") {
		sc.GravityScale = gravityScale
	}
	if flags.Changed("integrator") {
		sc.Integrator = integrator
	}
	if flags.Changed("missing") {
		sc.Missing = missing
	}
	return sc, sc.Validate()
}

// ensureLookahead raises the lookahead to need clock steps and the batch to
// cover it.
func ensureLookahead(sc *config.Scenario, need int) {
	if sc.Lookahead < need {
		sc.Lookahead = need
	}
	if floor := sc.Lookahead * int(sc.Clock.StepSize); sc.Batch < floor {
		sc.Batch = floor
	}
}
