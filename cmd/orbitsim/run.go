package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/experiment"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/optim"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/spf13/cobra"
)

// checkWallDelta is the wall time every checked scenario receives per tick.
const checkWallDelta = 0.01

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	extra, err := parseMetrics(registry, metricSpecs)
	if err != nil {
		return err
	}

	// keep stdout clean for the JSON document
	var out io.Writer = os.Stdout
	if jsonOut {
		out = os.Stderr
	}

	collector := metrics.NewCollector(sc.Name)
	exp := experiment.New(sc)
	if err := exp.Setup(registry, experiment.Options{
		Logger:   slog.Default(),
		Recorder: collector,
		Metrics:  extra,
	}); err != nil {
		return err
	}

	fmt.Fprintf(out, "running %s scenario (%d bodies)...\n", sc.Name, len(sc.Bodies))
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if jsonOut {
		if err := storage.ExportJSONStdout(sc, result); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "completed in %v\n", elapsed)
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(sc, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run id: %s\n", runID)
	}
	fmt.Fprintf(out, "steps: %d\n", exp.Scheduler().Clock().Step)
	fmt.Fprintf(out, "samples: %d\n", len(result.Steps))
	printMetrics(out, result.Metrics)
	return nil
}

func parseMetrics(registry *experiment.Registry, specs []string) ([]sim.Metric, error) {
	out := make([]sim.Metric, 0, len(specs))
	for _, spec := range specs {
		name, body, ok := strings.Cut(spec, ":")
		if !ok || body == "" {
			return nil, fmt.Errorf("metric %q: want name:body (metrics: %v)", spec, registry.ListMetrics())
		}
		m, err := registry.GetMetric(name, body)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func printMetrics(w io.Writer, values map[string]float64) {
	if len(values) == 0 {
		return
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6g\n", name, values[name])
	}
}

func benchScenario(cmd *cobra.Command, args []string) error {
	base, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	batches := []int{1000, config.DefaultBatch}
	if cmd.Flags().Changed("batch") {
		batches = []int{base.Batch}
	}
	methods := integrators.Names()
	if cmd.Flags().Changed("integrator") {
		methods = []string{base.Integrator}
	}

	fmt.Printf("benchmarking %s (%d bodies, %.1fs)\n\n", base.Name, len(base.Bodies), base.Duration)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEG\tBATCH\tSTEPS\tTIME\tPOINTS/SEC")

	for _, method := range methods {
		for _, b := range batches {
			sc := *base
			sc.Integrator = method
			sc.Batch = b
			ensureLookahead(&sc, sc.Lookahead)

			exp := experiment.New(&sc)
			if err := exp.Setup(nil, experiment.Options{NoDefaultMetrics: true}); err != nil {
				return err
			}

			start := time.Now()
			if _, err := exp.Run(cmd.Context()); err != nil {
				return err
			}
			elapsed := time.Since(start)

			points := 0
			for _, body := range exp.World().Bodies() {
				points += body.Traj.Len()
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.0f\n",
				method,
				b,
				exp.Scheduler().Clock().Step,
				elapsed.Round(time.Microsecond),
				float64(points)/elapsed.Seconds(),
			)
		}
	}
	return w.Flush()
}

// checkScenarios validates scenario files, or every preset, and runs them
// side by side for a short wall time.
func checkScenarios(cmd *cobra.Command, args []string) error {
	var scenarios []*config.Scenario
	if len(args) == 0 {
		for _, name := range config.ListPresets() {
			scenarios = append(scenarios, config.GetPreset(name))
		}
	}
	for _, path := range args {
		sc, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, sc)
	}

	registry := experiment.NewRegistry()
	ensemble := sim.NewEnsemble(parallel)
	experiments := make([]*experiment.Experiment, 0, len(scenarios))
	for _, sc := range scenarios {
		ensureLookahead(sc, int(math.Ceil(checkWallDelta/sc.Clock.TimePerStep))+1)
		exp := experiment.New(sc)
		if err := exp.Setup(registry, experiment.Options{Logger: slog.Default()}); err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
		ensemble.Add(exp.GetSimulator())
		experiments = append(experiments, exp)
	}

	ticks := int(math.Round(checkTime / checkWallDelta))
	results, err := ensemble.Run(cmd.Context(), sim.RunConfig{WallDelta: checkWallDelta, Ticks: max(ticks, 1)})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tBODIES\tSTEP\tSAMPLES\tMAX ENERGY DRIFT")
	for i, exp := range experiments {
		drift := 0.0
		for name, v := range results[i].Metrics {
			if strings.HasPrefix(name, "energy_drift:") && !math.IsNaN(v) {
				drift = math.Max(drift, v)
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.3g\n",
			exp.Scenario().Name,
			exp.World().Len(),
			exp.Scheduler().Clock().Step,
			len(results[i].Steps),
			drift,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d scenarios ok\n", len(experiments))
	return nil
}

func tuneScenario(cmd *cobra.Command, args []string) error {
	base, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	if tuneMetric == "" {
		return fmt.Errorf("--metric is required (metrics: %v)", experiment.NewRegistry().ListMetrics())
	}
	names, ranges, err := parseGrid(tuneParams)
	if err != nil {
		return err
	}
	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	target, err := parseMetrics(registry, []string{tuneMetric})
	if err != nil {
		return err
	}
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		sc := *base
		for name, v := range params {
			if err := sc.Set(name, v); err != nil {
				return nil, err
			}
		}
		// metrics accumulate, so every trial gets its own
		m, err := parseMetrics(registry, []string{tuneMetric})
		if err != nil {
			return nil, err
		}
		exp := experiment.New(&sc)
		if err := exp.Setup(nil, experiment.Options{Metrics: m}); err != nil {
			return nil, err
		}
		return exp, nil
	}

	fmt.Printf("tuning %s over %d grid points for %s\n\n", base.Name, search.Size(), tuneMetric)
	best, trials, err := search.Search(cmd.Context(), build, target[0].Name())
	if err != nil && !errors.Is(err, optim.ErrNoTrial) {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(names, "\t")+"\tVALUE")
	for _, tr := range trials {
		for _, name := range names {
			fmt.Fprintf(w, "%g\t", tr.Params[name])
		}
		if tr.Err != nil {
			fmt.Fprintf(w, "error: %v\n", tr.Err)
		} else {
			fmt.Fprintf(w, "%.6g\n", tr.Value)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nbest: %v (%s = %.6g)\n", best.Params, tuneMetric, best.Value)
	return nil
}

func parseGrid(specs []string) ([]string, [][]float64, error) {
	if len(specs) == 0 {
		return nil, nil, fmt.Errorf("at least one --param is required (tunable: %v)", config.Tunables)
	}
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || list == "" {
			return nil, nil, fmt.Errorf("param %q: want name=v1,v2", spec)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("param %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}
