package physics

import (
	"github.com/san-kum/orbitsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// RestrictedTwoBody accelerates a body toward its parent's precomputed
// position. State: [x, y, z, vx, vy, vz].
// The parent position is read at the step's base parameter, so all stages
// of one integration step see the same parent sample.
type RestrictedTwoBody struct{}

func NewRestrictedTwoBody() *RestrictedTwoBody {
	return &RestrictedTwoBody{}
}

func (m *RestrictedTwoBody) StateDim() int { return 6 }

func (m *RestrictedTwoBody) Derive(x dynamo.State, p dynamo.Param, env *Environment) dynamo.State {
	mu := 0.0
	if env != nil {
		mu = env.RelativeMass
	}
	r1 := env.ParentSample(p.Base).Position
	r2 := dynamo.VecAt(x, 0)
	v2 := dynamo.VecAt(x, 3)

	r12 := r3.Sub(r2, r1)
	rNorm := r3.Norm(r12)
	r3n := rNorm * rNorm * rNorm

	dx := make(dynamo.State, 6)
	dynamo.PutVec(dx, 0, v2)
	dx[3] = -r12.X * mu / r3n
	dx[4] = -r12.Y * mu / r3n
	dx[5] = -r12.Z * mu / r3n
	return dx
}

// Anchor keeps a body at its seed position.
type Anchor struct{}

func NewAnchor() *Anchor { return &Anchor{} }

func (a *Anchor) StateDim() int { return 6 }

func (a *Anchor) Derive(_ dynamo.State, _ dynamo.Param, _ *Environment) dynamo.State {
	return make(dynamo.State, 6)
}
