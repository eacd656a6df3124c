package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/orbitsim/internal/analysis"
	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/experiment"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/stream"
	"github.com/san-kum/orbitsim/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// liveHeadroom lets the live view speed up this many times past --speed.
const liveHeadroom = 4

func runLive(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	p, err := analysis.ParsePlane(plane)
	if err != nil {
		return err
	}
	ensureLookahead(sc, viz.LookaheadFor(speed*liveHeadroom, sc.Clock.TimePerStep))

	// the alternate screen hides log output; keep errors only
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	exp := experiment.New(sc)
	if err := exp.Setup(nil, experiment.Options{Logger: logger, NoDefaultMetrics: true}); err != nil {
		return err
	}

	m, err := viz.NewModel(exp.Scheduler(), viz.Options{
		Title:   sc.Name,
		Plane:   p,
		Speed:   speed,
		Track:   track,
		GIFPath: gifPath,
	})
	if err != nil {
		return err
	}
	return viz.Run(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
}

func serveScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %d", interval)
	}
	tick := time.Duration(interval) * time.Millisecond
	// a late tick can carry a few intervals of wall time
	ensureLookahead(sc, int(math.Ceil(4*tick.Seconds()*speed/sc.Clock.TimePerStep))+1)

	logger := slog.Default()
	collector := metrics.NewCollector(sc.Name)
	exp := experiment.New(sc)
	if err := exp.Setup(nil, experiment.Options{Logger: logger, Recorder: collector, NoDefaultMetrics: true}); err != nil {
		return err
	}

	hub := stream.NewHub(sc.Dt, maxFPS, logger)
	simulator := exp.GetSimulator()
	simulator.AddObserver(hub)

	srv := &http.Server{Addr: addr, Handler: stream.NewServeMux(hub, collector.Handler())}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", addr, "scenario", sc.Name, "ws", "/ws", "metrics", "/metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	runErr := make(chan error, 1)
	go func() {
		runErr <- simulator.RunRealtime(ctx, tick, speed, func(uint64, []sim.BodySample) bool { return true })
	}()

	select {
	case err = <-serveErr:
		cancel()
		<-runErr
	case err = <-runErr:
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	}

	hub.Close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if shutdownErr := srv.Shutdown(shutdownCtx); err == nil {
		err = shutdownErr
	}
	logger.Info("stopped", "step", exp.Scheduler().Clock().Step)
	return err
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		sc := config.GetPreset(args[0])
		if sc == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(sc)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tBODIES\tROOTS")
	for _, name := range config.ListPresets() {
		sc := config.GetPreset(name)
		roots := 0
		for _, b := range sc.Bodies {
			if b.Parent == "" {
				roots++
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%d\n", name, len(sc.Bodies), roots)
	}
	return w.Flush()
}
