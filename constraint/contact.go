package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// BaumgarteFactor is the share of the penetration turned into separating velocity each step
	BaumgarteFactor = 0.2
	// BaumgarteSlop is the penetration (m) left alone by the velocity bias
	BaumgarteSlop = 0.01

	// minNormalLength is the length under which a normal has no direction
	minNormalLength = 1e-9
	unitTolerance   = 1e-6
)

// ContactPoint is a single point of contact between two bodies, built fresh
// each step from the narrow phase.
type ContactPoint struct {
	Position mgl64.Vec3
	// Normal is unit length and points from body A toward body B
	Normal      mgl64.Vec3
	Penetration float64

	// Lever arms from each world center of mass, computed by prepare
	RA mgl64.Vec3
	RB mgl64.Vec3

	Tangent1 mgl64.Vec3
	Tangent2 mgl64.Vec3

	accumulatedNormalImpulse  float64
	accumulatedTangentImpulse [2]float64

	normalEffectiveMass  float64
	tangentEffectiveMass [2]float64

	velocityBias float64
	// targetVelocity is the relative normal velocity the impulses aim at,
	// captured from the velocities before any impulse of the step
	targetVelocity float64
}

// NewContactPoint returns a contact with its tangent basis derived from the
// normal, normalized first. A zero normal is kept as is and has no tangents.
func NewContactPoint(position, normal mgl64.Vec3, penetration float64) ContactPoint {
	if !isUnit(normal) {
		length := normal.Len()
		if !(length > minNormalLength) || math.IsInf(length, 1) {
			return ContactPoint{Position: position, Normal: normal, Penetration: penetration}
		}
		normal = normal.Mul(1.0 / length)
	}
	tangent1, tangent2 := TangentBasis(normal)

	return ContactPoint{
		Position:    position,
		Normal:      normal,
		Penetration: penetration,
		Tangent1:    tangent1,
		Tangent2:    tangent2,
	}
}

// prepare computes the lever arms, the effective masses and the velocity bias.
// restitution is applied against the approaching speed measured here.
func (c *ContactPoint) prepare(bodyA, bodyB *actor.RigidBody, restitution, restitutionThreshold, dt float64) {
	c.RA, c.RB = mgl64.Vec3{}, mgl64.Vec3{}
	if bodyA != nil {
		c.RA = c.Position.Sub(bodyA.WorldCenterOfMass())
	}
	if bodyB != nil {
		c.RB = c.Position.Sub(bodyB.WorldCenterOfMass())
	}

	c.accumulatedNormalImpulse = 0
	c.accumulatedTangentImpulse = [2]float64{}

	linear := inverseMass(bodyA) + inverseMass(bodyB)
	c.normalEffectiveMass = invert(linear + angularTerm(bodyA, c.RA, c.Normal) + angularTerm(bodyB, c.RB, c.Normal))
	c.tangentEffectiveMass[0] = invert(linear + angularTerm(bodyA, c.RA, c.Tangent1) + angularTerm(bodyB, c.RB, c.Tangent1))
	c.tangentEffectiveMass[1] = invert(linear + angularTerm(bodyA, c.RA, c.Tangent2) + angularTerm(bodyB, c.RB, c.Tangent2))

	c.velocityBias = 0
	if dt > 0 {
		c.velocityBias = (BaumgarteFactor / dt) * math.Max(c.Penetration-BaumgarteSlop, 0)
	}

	normalVelocity := c.relativeVelocity(bodyA, bodyB).Dot(c.Normal)
	if -normalVelocity < restitutionThreshold {
		restitution = 0
	}
	c.targetVelocity = -restitution*math.Min(normalVelocity, 0) + c.velocityBias
}

func (c *ContactPoint) relativeVelocity(bodyA, bodyB *actor.RigidBody) mgl64.Vec3 {
	return pointVelocity(bodyB, c.RB).Sub(pointVelocity(bodyA, c.RA))
}

// updateAccumulatedNormalImpulse adds lambda to the running total, clamped to
// stay non-negative, and returns the impulse actually applied.
func (c *ContactPoint) updateAccumulatedNormalImpulse(lambda float64) float64 {
	old := c.accumulatedNormalImpulse
	c.accumulatedNormalImpulse = math.Max(old+lambda, 0)

	return c.accumulatedNormalImpulse - old
}

// updateAccumulatedTangentImpulse adds lambda to the running total of one
// tangent, clamped to [-maxFriction, maxFriction], and returns the impulse actually applied.
func (c *ContactPoint) updateAccumulatedTangentImpulse(lambda float64, index int, maxFriction float64) float64 {
	old := c.accumulatedTangentImpulse[index]
	c.accumulatedTangentImpulse[index] = mgl64.Clamp(old+lambda, -maxFriction, maxFriction)

	return c.accumulatedTangentImpulse[index] - old
}

func (c *ContactPoint) solveNormal(bodyA, bodyB *actor.RigidBody) {
	normalVelocity := c.relativeVelocity(bodyA, bodyB).Dot(c.Normal)
	lambda := (c.targetVelocity - normalVelocity) * c.normalEffectiveMass

	lambda = c.updateAccumulatedNormalImpulse(lambda)
	if lambda == 0 {
		return
	}
	applyImpulse(bodyA, bodyB, c.RA, c.RB, c.Normal.Mul(lambda))
}

func (c *ContactPoint) solveFriction(bodyA, bodyB *actor.RigidBody, friction float64) {
	maxFriction := friction * c.accumulatedNormalImpulse
	tangents := [2]mgl64.Vec3{c.Tangent1, c.Tangent2}

	for i, tangent := range tangents {
		tangentVelocity := c.relativeVelocity(bodyA, bodyB).Dot(tangent)
		lambda := -tangentVelocity * c.tangentEffectiveMass[i]

		lambda = c.updateAccumulatedTangentImpulse(lambda, i, maxFriction)
		if lambda == 0 {
			continue
		}
		applyImpulse(bodyA, bodyB, c.RA, c.RB, tangent.Mul(lambda))
	}
}

func (c *ContactPoint) AccumulatedNormalImpulse() float64 {
	return c.accumulatedNormalImpulse
}

func (c *ContactPoint) AccumulatedTangentImpulse() [2]float64 {
	return c.accumulatedTangentImpulse
}

func (c *ContactPoint) NormalEffectiveMass() float64 {
	return c.normalEffectiveMass
}

func (c *ContactPoint) VelocityBias() float64 {
	return c.velocityBias
}

func invert(k float64) float64 {
	if k <= 0 {
		return 0
	}
	return 1.0 / k
}

func isUnit(v mgl64.Vec3) bool {
	return math.Abs(v.LenSqr()-1) < unitTolerance
}
