package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

// EnergyDrift tracks the largest relative change of a body's specific
// orbital energy about its centre.
type EnergyDrift struct {
	name          string
	body          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(body string) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift:" + body,
		body: body,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(samples []sim.BodySample) {
	s, ok := find(samples, e.body)
	if !ok {
		return
	}

	energy := physics.SpecificEnergy(s.Point, s.Centre, s.Mu)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

func find(samples []sim.BodySample, body string) (sim.BodySample, bool) {
	for _, s := range samples {
		if s.Name == body {
			return s, true
		}
	}
	return sim.BodySample{}, false
}
