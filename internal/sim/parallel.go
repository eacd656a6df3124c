package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent simulators concurrently. Each member owns its
// world and scheduler, so no state is shared between goroutines.
type Ensemble struct {
	members []*Simulator
	limit   int
}

// NewEnsemble runs at most limit members at once; limit <= 0 means no limit.
func NewEnsemble(limit int, members ...*Simulator) *Ensemble {
	return &Ensemble{members: members, limit: limit}
}

func (e *Ensemble) Add(s *Simulator) { e.members = append(e.members, s) }

func (e *Ensemble) Len() int { return len(e.members) }

// Run returns results in member order. The first failure cancels the rest.
func (e *Ensemble) Run(ctx context.Context, cfg RunConfig) ([]*Result, error) {
	results := make([]*Result, len(e.members))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, member := range e.members {
		g.Go(func() error {
			res, err := member.Run(ctx, cfg)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
