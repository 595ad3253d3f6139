package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultVelocityIterations = 8
	DefaultPositionIterations = 3

	// PositionCorrectionFactor is the share of the excess penetration removed per position iteration
	PositionCorrectionFactor = 0.8
	// PositionCorrectionSlop is the penetration (m) left alone by the position pass
	PositionCorrectionSlop = 0.001

	// GroundedThreshold is the minimal dot product between the contact normal
	// and the vertical for a contact to ground a body (about 45°)
	GroundedThreshold = 0.7
)

// Solver resolves contact manifolds with sequential impulses: a velocity pass
// with accumulated impulse clamping, then a position pass. It keeps no state
// between two calls to Solve.
type Solver struct {
	velocityIterations int
	positionIterations int

	// Up is the world vertical used to classify grounded contacts
	Up mgl64.Vec3
	// RestitutionThreshold is the approaching speed (m/s) under which contacts do not bounce
	RestitutionThreshold float64
}

// NewSolver creates a solver. Iteration counts below 1 are raised to 1.
func NewSolver(velocityIterations, positionIterations int) *Solver {
	s := &Solver{Up: mgl64.Vec3{0, 1, 0}}
	s.SetVelocityIterations(velocityIterations)
	s.SetPositionIterations(positionIterations)

	return s
}

func (s *Solver) SetVelocityIterations(iterations int) {
	s.velocityIterations = max(iterations, 1)
}

func (s *Solver) VelocityIterations() int {
	return s.velocityIterations
}

func (s *Solver) SetPositionIterations(iterations int) {
	s.positionIterations = max(iterations, 1)
}

func (s *Solver) PositionIterations() int {
	return s.positionIterations
}

// Solve mutates the bodies referenced by the manifolds, in the order given.
// Manifolds without a movable body are skipped. With dt <= 0 the penetration
// bias and the impact reports are disabled.
func (s *Solver) Solve(manifolds []ContactManifold, dt float64) {
	active := make([]*ContactManifold, 0, len(manifolds))
	for i := range manifolds {
		if manifolds[i].HasContacts() && manifolds[i].HasMovableBody() {
			active = append(active, &manifolds[i])
		}
	}
	if len(active) == 0 {
		return
	}

	for _, m := range active {
		m.Prepare(dt, s.RestitutionThreshold)
		s.classifyGrounded(m)
	}

	for iteration := 0; iteration < s.velocityIterations; iteration++ {
		for _, m := range active {
			s.solveVelocity(m)
		}
	}

	if dt > 0 {
		for _, m := range active {
			reportImpact(m, dt)
		}
	}

	for iteration := 0; iteration < s.positionIterations; iteration++ {
		for _, m := range active {
			s.solvePosition(m)
		}
	}
}

func (s *Solver) solveVelocity(m *ContactManifold) {
	contacts := m.Contacts()
	for i := range contacts {
		contacts[i].solveNormal(m.BodyA, m.BodyB)
	}

	friction := ComputeFriction(m.BodyA, m.BodyB)
	for i := range contacts {
		contacts[i].solveFriction(m.BodyA, m.BodyB, friction)
	}
}

// solvePosition moves the bodies apart along the normal without touching their velocity
func (s *Solver) solvePosition(m *ContactManifold) {
	invMassA := inverseMass(m.BodyA)
	invMassB := inverseMass(m.BodyB)

	contacts := m.Contacts()
	for i := range contacts {
		c := &contacts[i]

		excess := c.Penetration - m.separation(c.Normal) - PositionCorrectionSlop
		if excess <= 0 {
			continue
		}

		correction := c.Normal.Mul(PositionCorrectionFactor * excess * c.normalEffectiveMass)
		if isMovable(m.BodyA) {
			m.BodyA.MoveFromPhysics(correction.Mul(-invMassA))
		}
		if isMovable(m.BodyB) {
			m.BodyB.MoveFromPhysics(correction.Mul(invMassB))
		}
	}
}

// classifyGrounded marks a movable body as grounded when it rests on an
// immovable body or surface, the normal being close enough to the vertical.
func (s *Solver) classifyGrounded(m *ContactManifold) {
	down := s.Up.Mul(-1)

	for _, c := range m.Contacts() {
		// The normal points from A to B: A rests on B when it points down
		if isMovable(m.BodyA) && !isMovable(m.BodyB) && c.Normal.Dot(down) >= GroundedThreshold {
			m.BodyA.SetGrounded(m.groundSourceFor(m.BodyB), m.BodyB)
			return
		}
		if isMovable(m.BodyB) && !isMovable(m.BodyA) && c.Normal.Dot(s.Up) >= GroundedThreshold {
			m.BodyB.SetGrounded(m.groundSourceFor(m.BodyA), m.BodyA)
			return
		}
	}
}

// reportImpact converts the impulse of the step into a force for the movable bodies
func reportImpact(m *ContactManifold, dt float64) {
	impulse := m.AccumulatedNormalImpulse()
	if impulse <= 0 {
		return
	}

	force := impulse / dt
	if isMovable(m.BodyA) {
		m.BodyA.OnCollision(force)
	}
	if isMovable(m.BodyB) {
		m.BodyB.OnCollision(force)
	}
}
