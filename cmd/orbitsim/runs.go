package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbitsim/internal/analysis"
	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/experiment"
	"github.com/san-kum/orbitsim/internal/export"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/spf13/cobra"
)

type storedRun struct {
	meta     *storage.RunMetadata
	scenario *config.Scenario
	result   *sim.Result
}

func loadRun(runID string) (*storedRun, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	sc, err := st.LoadScenario(runID)
	if err != nil {
		return nil, err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return nil, err
	}
	if len(result.Steps) == 0 {
		return nil, fmt.Errorf("no data in run %s", runID)
	}
	return &storedRun{meta: meta, scenario: sc, result: result}, nil
}

// centre returns the samples of the body's parent, nil for roots.
func (r *storedRun) centre(body string) []dynamo.Point {
	for _, b := range r.scenario.Bodies {
		if b.Name == body && b.Parent != "" {
			return r.result.Samples[b.Parent]
		}
	}
	return nil
}

func (r *storedRun) distances(body string) []float64 {
	points, centre := r.result.Samples[body], r.centre(body)
	out := make([]float64, len(points))
	for i, p := range points {
		var c dynamo.Vec3
		if i < len(centre) {
			c = centre[i].Position
		}
		out[i] = dynamo.Dist(p.Position, c)
	}
	return out
}

// sampleDt is the mean simulated time between stored samples.
func (r *storedRun) sampleDt() float64 {
	steps := r.result.Steps
	if len(steps) < 2 {
		return r.meta.Dt
	}
	return float64(steps[len(steps)-1]-steps[0]) / float64(len(steps)-1) * r.meta.Dt
}

func (r *storedRun) projection(plane analysis.Plane) *analysis.Projection2D {
	trajectories := make([][]dynamo.Point, len(r.result.Bodies))
	for i, name := range r.result.Bodies {
		trajectories[i] = r.result.Samples[name]
	}
	return analysis.Project(plane, r.result.Bodies, trajectories)
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tINTEG\tBODIES\tTICKS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4g\t%s\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			len(run.Bodies),
			run.Ticks,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	p, err := analysis.ParsePlane(plane)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", run.meta.ID)
	fmt.Printf("scenario: %s\n", run.meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(run.result.Steps))

	for _, name := range run.result.Bodies {
		data := run.distances(name)
		if len(data) < 2 {
			continue
		}
		caption := fmt.Sprintf("%s distance from centre", name)
		if run.centre(name) == nil {
			caption = fmt.Sprintf("%s distance from origin", name)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	fmt.Printf("orbits (%s plane):\n", p)
	fmt.Print(analysis.ProjectionToASCII(run.projection(p), plotWidth, plotHeight))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	var w io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "meta":
		meta, err := storage.New(dataDir).Load(runID)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	case "json":
		run, err := loadRun(runID)
		if err != nil {
			return err
		}
		return storage.WriteJSON(w, run.scenario, run.result)
	case "svg":
		run, err := loadRun(runID)
		if err != nil {
			return err
		}
		p, err := analysis.ParsePlane(plane)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, export.ProjectionToSVG(run.projection(p), svgWidth, svgHeight, nil))
		return err
	}
	return fmt.Errorf("unknown format: %s (json, svg, meta)", format)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	world, err := experiment.BuildWorld(run.scenario)
	if err != nil {
		return err
	}

	dt := run.sampleDt()
	fmt.Printf("run: %s\n", run.meta.ID)
	fmt.Printf("samples: %d every %.4g time units\n\n", len(run.result.Steps), dt)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tMU\tMEAN R\tPERIOD\tKEPLER\tERROR")
	for _, body := range world.Bodies() {
		if body.Fixed {
			continue
		}
		points := run.result.Samples[body.Name]
		dist := run.distances(body.Name)
		meanR := 0.0
		for _, d := range dist {
			meanR += d
		}
		meanR /= float64(max(len(dist), 1))
		kepler := physics.Period(body.Mu, meanR)

		period, err := analysis.OrbitalPeriod(points, run.centre(body.Name), dt)
		switch {
		case errors.Is(err, analysis.ErrNoPeriod):
			fmt.Fprintf(w, "%s\t%.4g\t%.4g\t-\t%.4g\t-\n", body.Name, body.Mu, meanR, kepler)
			continue
		case err != nil:
			return fmt.Errorf("%s: %w", body.Name, err)
		}
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.2f%%\n",
			body.Name, body.Mu, meanR, period, kepler, 100*(period-kepler)/kepler)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(run.meta.Metrics) > 0 {
		printMetrics(os.Stdout, run.meta.Metrics)
	}
	return nil
}
