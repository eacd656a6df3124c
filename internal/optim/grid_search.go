// Package optim searches scenario parameters for the run that minimises a
// metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"

	"github.com/san-kum/orbitsim/internal/experiment"
)

var ErrNoTrial = errors.New("optim: no grid point produced a finite metric")

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters with %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search builds and runs one experiment per grid point, in row-major order.
// A failed build or run is recorded on its trial and skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (Trial, []Trial, error) {
	trials := make([]Trial, 0, g.Size())
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &trials); err != nil {
		return Trial{}, trials, err
	}

	best := Trial{Value: math.Inf(1)}
	found := false
	for _, tr := range trials {
		if tr.Err == nil && !math.IsNaN(tr.Value) && tr.Value < best.Value {
			best, found = tr, true
		}
	}
	if !found {
		return Trial{}, trials, ErrNoTrial
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		tr := Trial{Params: maps.Clone(current), Value: math.NaN()}
		exp, err := buildExperiment(current)
		if err != nil {
			tr.Err = err
			*trials = append(*trials, tr)
			return nil
		}

		result, err := exp.Run(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			tr.Err = err
		default:
			val, ok := result.Metrics[metricName]
			if !ok {
				tr.Err = fmt.Errorf("optim: metric %s not recorded", metricName)
			}
			tr.Value = val
		}
		*trials = append(*trials, tr)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := maps.Clone(current)
		next[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, next, buildExperiment, metricName, trials); err != nil {
			return err
		}
	}
	return nil
}
