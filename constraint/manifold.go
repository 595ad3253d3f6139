package constraint

import (
	"fmt"
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxContactPoints is the capacity of a manifold
const MaxContactPoints = 4

// ContactManifold groups the contacts of one body pair for one step.
// A nil body is an immovable surface described by Surface.
type ContactManifold struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
	// Surface tells what a nil body stands for
	Surface actor.GroundSource

	contacts [MaxContactPoints]ContactPoint
	count    int

	// positions of the bodies when prepared, to measure the position correction
	originA mgl64.Vec3
	originB mgl64.Vec3
}

// NewManifold creates an empty manifold between two bodies
func NewManifold(bodyA, bodyB *actor.RigidBody) ContactManifold {
	return ContactManifold{BodyA: bodyA, BodyB: bodyB}
}

// NewSurfaceManifold creates an empty manifold between a body (A) and a
// surface without body (B), such as the terrain or a world boundary.
func NewSurfaceManifold(body *actor.RigidBody, surface actor.GroundSource) ContactManifold {
	return ContactManifold{BodyA: body, Surface: surface}
}

// AddContact appends a contact point, normalizing its normal. It returns false
// when the manifold is full or the normal has no direction.
func (m *ContactManifold) AddContact(position, normal mgl64.Vec3, penetration float64) bool {
	return m.AddContactPoint(NewContactPoint(position, normal, penetration))
}

// AddContactPoint appends a prepared contact point. Its normal must be unit length.
func (m *ContactManifold) AddContactPoint(contact ContactPoint) bool {
	if m.count >= MaxContactPoints {
		return false
	}
	if !isUnit(contact.Normal) || math.IsNaN(contact.Penetration) {
		return false
	}

	m.contacts[m.count] = contact
	m.count++

	return true
}

func (m *ContactManifold) ContactCount() int {
	return m.count
}

func (m *ContactManifold) HasContacts() bool {
	return m.count > 0
}

// Contacts returns the contact points, backed by the manifold
func (m *ContactManifold) Contacts() []ContactPoint {
	return m.contacts[:m.count]
}

// HasMovableBody reports whether the solver has anything to move
func (m *ContactManifold) HasMovableBody() bool {
	return isMovable(m.BodyA) || isMovable(m.BodyB)
}

// AccumulatedNormalImpulse is the sum over the contacts of the last solve
func (m *ContactManifold) AccumulatedNormalImpulse() float64 {
	var total float64
	for i := 0; i < m.count; i++ {
		total += m.contacts[i].accumulatedNormalImpulse
	}
	return total
}

// Prepare computes the per-contact solver data for a step of dt seconds
func (m *ContactManifold) Prepare(dt float64, restitutionThreshold float64) {
	restitution := ComputeRestitution(m.BodyA, m.BodyB)
	for i := 0; i < m.count; i++ {
		m.contacts[i].prepare(m.BodyA, m.BodyB, restitution, restitutionThreshold, dt)
	}

	m.originA, m.originB = position(m.BodyA), position(m.BodyB)
}

// groundSourceFor returns what the other side of the manifold is, seen from body
func (m *ContactManifold) groundSourceFor(other *actor.RigidBody) actor.GroundSource {
	if other != nil {
		return actor.GroundSourceBody
	}
	return m.Surface
}

// separation is how far the bodies moved apart along normal since Prepare
func (m *ContactManifold) separation(normal mgl64.Vec3) float64 {
	deltaA := position(m.BodyA).Sub(m.originA)
	deltaB := position(m.BodyB).Sub(m.originB)

	return deltaB.Sub(deltaA).Dot(normal)
}

func (m *ContactManifold) String() string {
	return fmt.Sprintf("ContactManifold{A: %p, B: %p, surface: %v, contacts: %d}", m.BodyA, m.BodyB, m.Surface, m.count)
}

func position(body *actor.RigidBody) mgl64.Vec3 {
	if body == nil {
		return mgl64.Vec3{}
	}
	return body.Transform.Position
}
