package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/orbitsim/internal/trajectory"
)

// Metric accumulates a scalar over the samples of every tick.
type Metric interface {
	Name() string
	Observe(samples []BodySample)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(step uint64, samples []BodySample)
}

type RunConfig struct {
	// WallDelta is the wall-clock time fed to the clock on every tick.
	WallDelta float64
	Ticks     int
}

type Result struct {
	Steps   []uint64
	Samples map[string][]trajectory.Point
	Metrics map[string]float64
	// Bodies lists body names in arena order.
	Bodies []string
}

// Simulator is the headless host loop around a Scheduler.
type Simulator struct {
	sched     *Scheduler
	metrics   []Metric
	observers []Observer
}

func New(sched *Scheduler) *Simulator {
	return &Simulator{
		sched:     sched,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) Scheduler() *Scheduler  { return s.sched }

// Run feeds cfg.Ticks identical wall deltas through the scheduler and samples
// every body after each tick. ctx is checked between ticks only; a batch
// always runs to completion.
func (s *Simulator) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := validateRunConfig(cfg); err != nil {
		return nil, err
	}

	bodies := s.sched.World().Bodies()
	result := &Result{
		Steps:   make([]uint64, 0, cfg.Ticks+1),
		Samples: make(map[string][]trajectory.Point, len(bodies)),
		Metrics: make(map[string]float64),
		Bodies:  make([]string, 0, len(bodies)),
	}
	for _, b := range bodies {
		result.Bodies = append(result.Bodies, b.Name)
		result.Samples[b.Name] = make([]trajectory.Point, 0, cfg.Ticks+1)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	if err := s.sched.Extend(); err != nil {
		return result, err
	}
	if err := s.observe(result); err != nil {
		return result, err
	}

	for i := 0; i < cfg.Ticks; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		if err := s.sched.Tick(cfg.WallDelta); err != nil {
			s.collect(result)
			return result, err
		}
		if err := s.observe(result); err != nil {
			s.collect(result)
			return result, err
		}
	}

	s.collect(result)
	return result, nil
}

func (s *Simulator) observe(result *Result) error {
	samples, err := s.sched.Sample()
	if err != nil {
		return err
	}
	step := s.sched.Clock().Step
	result.Steps = append(result.Steps, step)
	for _, bs := range samples {
		result.Samples[bs.Name] = append(result.Samples[bs.Name], bs.Point)
	}
	for _, m := range s.metrics {
		m.Observe(samples)
	}
	for _, obs := range s.observers {
		obs.OnTick(step, samples)
	}
	return nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateRunConfig(cfg RunConfig) error {
	if cfg.WallDelta <= 0 {
		return fmt.Errorf("wall delta must be positive, got %f", cfg.WallDelta)
	}
	if cfg.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", cfg.Ticks)
	}
	return nil
}

// RunRealtime ticks the scheduler from a wall-clock ticker until ctx is done
// or callback returns false. speed scales the measured wall delta.
func (s *Simulator) RunRealtime(ctx context.Context, interval time.Duration, speed float64, callback func(step uint64, samples []BodySample) bool) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}
	if speed <= 0 {
		speed = 1
	}

	if err := s.sched.Extend(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds() * speed
			last = now

			if err := s.sched.Tick(delta); err != nil {
				return err
			}
			samples, err := s.sched.Sample()
			if err != nil {
				return err
			}
			for _, obs := range s.observers {
				obs.OnTick(s.sched.Clock().Step, samples)
			}
			if !callback(s.sched.Clock().Step, samples) {
				return nil
			}
		}
	}
}
