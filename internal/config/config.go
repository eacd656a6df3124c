package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/physics"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimePerStep  = 0.01
	DefaultStepSize     = 8
	DefaultDt           = 0.01
	DefaultBatch        = 10000
	DefaultLookahead    = 1
	DefaultGravityScale = 1.0
	DefaultDuration     = 10.0
)

// Scenario is a YAML description of a body tree and the clock driving it.
type Scenario struct {
	Name       string      `yaml:"name"`
	Clock      ClockConfig `yaml:"clock"`
	Dt         float64     `yaml:"dt"`
	Batch      int         `yaml:"batch"`
	Lookahead  int         `yaml:"lookahead"`
	Integrator string      `yaml:"integrator"`
	// Missing is the parent-sample miss policy: zero or interpolate.
	Missing      string  `yaml:"missing"`
	GravityScale float64 `yaml:"gravity_scale"`
	// Duration is the wall-clock time a headless run simulates.
	Duration float64      `yaml:"duration"`
	Bodies   []BodyConfig `yaml:"bodies"`
}

type ClockConfig struct {
	TimePerStep float64 `yaml:"time_per_step"`
	StepSize    uint64  `yaml:"step_size"`
}

type BodyConfig struct {
	Name string  `yaml:"name"`
	Mass float64 `yaml:"mass"`
	// Parent names an earlier body; empty for roots.
	Parent   string     `yaml:"parent,omitempty"`
	Position [3]float64 `yaml:"position"`
	Velocity [3]float64 `yaml:"velocity"`
	Mu       float64    `yaml:"mu,omitempty"`
	// Relative seeds position and velocity relative to the parent.
	Relative bool         `yaml:"relative,omitempty"`
	Orbit    *OrbitConfig `yaml:"orbit,omitempty"`
	Fixed    bool         `yaml:"fixed,omitempty"`
}

// OrbitConfig seeds a circular orbit around the parent, overriding
// Position and Velocity.
type OrbitConfig struct {
	Radius float64 `yaml:"radius"`
	Phase  float64 `yaml:"phase"`
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Name: "default",
		Clock: ClockConfig{
			TimePerStep: DefaultTimePerStep,
			StepSize:    DefaultStepSize,
		},
		Dt:           DefaultDt,
		Batch:        DefaultBatch,
		Lookahead:    DefaultLookahead,
		Integrator:   "rk4",
		Missing:      physics.FillZero.String(),
		GravityScale: DefaultGravityScale,
		Duration:     DefaultDuration,
	}
}

// Load reads a scenario file on top of DefaultScenario and validates it.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Scenario) Validate() error {
	if s.Clock.TimePerStep <= 0 {
		return fmt.Errorf("clock.time_per_step must be positive, got %f", s.Clock.TimePerStep)
	}
	if s.Clock.StepSize == 0 {
		return fmt.Errorf("clock.step_size must be positive")
	}
	if s.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", s.Dt)
	}
	lookahead := s.Lookahead
	if lookahead <= 0 {
		lookahead = 1
	}
	if s.Batch < lookahead*int(s.Clock.StepSize) {
		return fmt.Errorf("batch %d must cover %d clock steps of %d", s.Batch, lookahead, s.Clock.StepSize)
	}
	if s.Integrator != "" {
		if _, err := integrators.ByName[*physics.Environment](s.Integrator); err != nil {
			return err
		}
	}
	if _, err := physics.ParseMissingSample(s.Missing); err != nil {
		return err
	}
	if !(s.GravityScale > 0) {
		return fmt.Errorf("gravity_scale must be positive, got %f", s.GravityScale)
	}
	if len(s.Bodies) == 0 {
		return fmt.Errorf("scenario %q has no bodies", s.Name)
	}

	seen := make(map[string]bool, len(s.Bodies))
	for i, b := range s.Bodies {
		if b.Name == "" {
			return fmt.Errorf("body %d has no name", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate body name: %s", b.Name)
		}
		if b.Mass <= 0 {
			return fmt.Errorf("body %s: mass must be positive, got %f", b.Name, b.Mass)
		}
		if b.Parent != "" && !seen[b.Parent] {
			return fmt.Errorf("body %s: parent %q must be declared before it", b.Name, b.Parent)
		}
		if b.Orbit != nil {
			if b.Orbit.Radius <= 0 {
				return fmt.Errorf("body %s: orbit radius must be positive", b.Name)
			}
			if b.Parent == "" {
				return fmt.Errorf("body %s: orbit needs a parent", b.Name)
			}
		}
		seen[b.Name] = true
	}
	return nil
}

// MissingPolicy returns the parsed parent-sample miss policy.
func (s *Scenario) MissingPolicy() physics.MissingSample {
	m, _ := physics.ParseMissingSample(s.Missing)
	return m
}

// Ticks is the number of wall steps covering Duration.
func (s *Scenario) Ticks() int {
	return int(math.Round(s.Duration / s.Clock.TimePerStep))
}

// Tunables lists the numeric fields Set accepts.
var Tunables = []string{"dt", "duration", "batch", "lookahead", "step_size", "time_per_step", "gravity_scale"}

// Set assigns a numeric field by its yaml name. Integer fields take the
// value rounded.
func (s *Scenario) Set(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s: value must be finite", name)
	}
	switch name {
	case "dt":
		s.Dt = v
	case "duration":
		s.Duration = v
	case "batch":
		s.Batch = int(math.Round(v))
	case "lookahead":
		s.Lookahead = int(math.Round(v))
	case "step_size":
		if v < 1 {
			return fmt.Errorf("step_size must be at least 1, got %g", v)
		}
		s.Clock.StepSize = uint64(math.Round(v))
	case "time_per_step":
		s.Clock.TimePerStep = v
	case "gravity_scale":
		s.GravityScale = v
	default:
		return fmt.Errorf("unknown parameter: %s (tunable: %v)", name, Tunables)
	}
	return nil
}
