package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// Eccentricity estimates (rmax-rmin)/(rmax+rmin) from the observed
// separations between a body and its centre. A circular orbit reads 0.
type Eccentricity struct {
	name    string
	body    string
	minDist float64
	maxDist float64
	samples int
}

func NewEccentricity(body string) *Eccentricity {
	return &Eccentricity{
		name: "eccentricity:" + body,
		body: body,
	}
}

func (e *Eccentricity) Name() string { return e.name }

func (e *Eccentricity) Observe(samples []sim.BodySample) {
	s, ok := find(samples, e.body)
	if !ok {
		return
	}
	d := s.Distance()
	if e.samples == 0 {
		e.minDist, e.maxDist = d, d
	}
	e.minDist = math.Min(e.minDist, d)
	e.maxDist = math.Max(e.maxDist, d)
	e.samples++
}

func (e *Eccentricity) Value() float64 {
	if e.samples == 0 || e.maxDist+e.minDist == 0 {
		return 0
	}
	return (e.maxDist - e.minDist) / (e.maxDist + e.minDist)
}

func (e *Eccentricity) Reset() {
	e.minDist, e.maxDist = 0, 0
	e.samples = 0
}

// Closure is the smallest distance between a body and its seed position,
// relative to its seed radius, once the body has left the seed's
// neighbourhood. It approaches 0 when an orbit closes on itself.
type Closure struct {
	name    string
	body    string
	seed    sim.BodySample
	left    bool
	best    float64
	samples int
}

func NewClosure(body string) *Closure {
	return &Closure{
		name: "closure:" + body,
		body: body,
		best: math.Inf(1),
	}
}

func (c *Closure) Name() string { return c.name }

func (c *Closure) Observe(samples []sim.BodySample) {
	s, ok := find(samples, c.body)
	if !ok {
		return
	}
	if c.samples == 0 {
		c.seed = s
	}
	c.samples++

	radius := c.seed.Distance()
	if radius == 0 {
		return
	}
	rel := distance(s, c.seed) / radius
	if !c.left {
		c.left = rel > 1
		return
	}
	c.best = math.Min(c.best, rel)
}

func (c *Closure) Value() float64 {
	if math.IsInf(c.best, 1) {
		return math.NaN()
	}
	return c.best
}

func (c *Closure) Reset() {
	c.seed = sim.BodySample{}
	c.left = false
	c.best = math.Inf(1)
	c.samples = 0
}

// Bound is the fraction of observations in which a body's specific energy
// about its centre is negative. An escaping body reads below 1.
type Bound struct {
	name    string
	body    string
	escaped int
	samples int
}

func NewBound(body string) *Bound {
	return &Bound{
		name: "bound:" + body,
		body: body,
	}
}

func (b *Bound) Name() string { return b.name }

func (b *Bound) Observe(samples []sim.BodySample) {
	s, ok := find(samples, b.body)
	if !ok {
		return
	}
	b.samples++
	if physics.SpecificEnergy(s.Point, s.Centre, s.Mu) >= 0 {
		b.escaped++
	}
}

func (b *Bound) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.escaped)/float64(b.samples)
}

func (b *Bound) Reset() {
	b.escaped = 0
	b.samples = 0
}

// distance compares positions relative to each sample's centre.
func distance(a, b sim.BodySample) float64 {
	ax := r3.Sub(a.Point.Position, a.Centre.Position)
	bx := r3.Sub(b.Point.Position, b.Centre.Position)
	return dynamo.Dist(ax, bx)
}
