package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ComputeRestitution averages the bounciness of both bodies. Against a
// surface without body (boundary, terrain), the sole body's bounciness is used.
func ComputeRestitution(bodyA, bodyB *actor.RigidBody) float64 {
	switch {
	case bodyA != nil && bodyB != nil:
		return (bodyA.Material.Bounciness() + bodyB.Material.Bounciness()) / 2.0
	case bodyA != nil:
		return bodyA.Material.Bounciness()
	case bodyB != nil:
		return bodyB.Material.Bounciness()
	}
	return 0
}

// ComputeFriction is the geometric mean of the stickiness of both bodies, or
// the sole body's stickiness against a surface without body.
func ComputeFriction(bodyA, bodyB *actor.RigidBody) float64 {
	switch {
	case bodyA != nil && bodyB != nil:
		return math.Sqrt(bodyA.Material.Stickiness() * bodyB.Material.Stickiness())
	case bodyA != nil:
		return bodyA.Material.Stickiness()
	case bodyB != nil:
		return bodyB.Material.Stickiness()
	}
	return 0
}

// TangentBasis returns two unit vectors orthogonal to the normal and to each other
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) < 0.9 {
		tangent1 = normal.Cross(mgl64.Vec3{1, 0, 0})
	} else {
		tangent1 = normal.Cross(mgl64.Vec3{0, 1, 0})
	}
	tangent1 = tangent1.Normalize()
	tangent2 := normal.Cross(tangent1)

	return tangent1, tangent2
}

func isMovable(body *actor.RigidBody) bool {
	return body != nil && body.IsMovable()
}

func inverseMass(body *actor.RigidBody) float64 {
	if !isMovable(body) {
		return 0
	}
	return body.InverseMass()
}

// angularTerm is (r×d)·I⁻¹(r×d), 0 for bodies that cannot rotate
func angularTerm(body *actor.RigidBody, r, direction mgl64.Vec3) float64 {
	if !isMovable(body) || !body.IsRotationEnabled() {
		return 0
	}
	rCrossD := r.Cross(direction)
	return rCrossD.Dot(body.InverseWorldInertia().Mul3x1(rCrossD))
}

// pointVelocity is v + ω×r, zero for immovable or absent bodies
func pointVelocity(body *actor.RigidBody, r mgl64.Vec3) mgl64.Vec3 {
	if !isMovable(body) {
		return mgl64.Vec3{}
	}
	velocity := body.LinearVelocity()
	if body.IsRotationEnabled() {
		velocity = velocity.Add(body.AngularVelocity().Cross(r))
	}
	return velocity
}

// applyImpulse pushes A by -impulse and B by +impulse at their lever arms
func applyImpulse(bodyA, bodyB *actor.RigidBody, rA, rB, impulse mgl64.Vec3) {
	if isMovable(bodyA) {
		bodyA.ApplyLinearImpulse(impulse.Mul(-1))
		if bodyA.IsRotationEnabled() {
			bodyA.ApplyAngularImpulse(rA.Cross(impulse.Mul(-1)))
		}
	}
	if isMovable(bodyB) {
		bodyB.ApplyLinearImpulse(impulse)
		if bodyB.IsRotationEnabled() {
			bodyB.ApplyAngularImpulse(rB.Cross(impulse))
		}
	}
}
