package sim

import "fmt"

type Phase int

const (
	// Accumulating means less than one wall step has been banked.
	Accumulating Phase = iota
	StepReady
)

func (p Phase) String() string {
	if p == StepReady {
		return "step-ready"
	}
	return "accumulating"
}

// Clock converts wall-clock deltas into absolute simulation steps with a
// fixed-timestep accumulator.
type Clock struct {
	Elapsed     float64
	TimePerStep float64
	Step        uint64
	StepSize    uint64
}

func NewClock(timePerStep float64, stepSize uint64) (*Clock, error) {
	if timePerStep <= 0 {
		return nil, fmt.Errorf("time per step must be positive, got %f", timePerStep)
	}
	if stepSize == 0 {
		return nil, fmt.Errorf("step size must be positive")
	}
	return &Clock{TimePerStep: timePerStep, StepSize: stepSize}, nil
}

// Advance banks delta and returns how many steps the clock moved. Slow frames
// advance several wall steps at once; the remainder stays in Elapsed.
func (c *Clock) Advance(delta float64) uint64 {
	c.Elapsed += delta
	start := c.Step
	for c.Elapsed >= c.TimePerStep {
		c.Step += c.StepSize
		c.Elapsed -= c.TimePerStep
	}
	return c.Step - start
}

func (c *Clock) Phase() Phase {
	if c.Elapsed >= c.TimePerStep {
		return StepReady
	}
	return Accumulating
}

// Next is the step one clock step ahead of the current one.
func (c *Clock) Next() uint64 {
	return c.Step + c.StepSize
}
