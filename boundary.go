package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// BoundaryManifolds returns one manifold per wall of the cube [-limit, limit]³
// crossed by the body, so a body wider than the cube gets both walls of an axis.
// The extent of the body is its world AABB, which is the position for a point
// and the position ± radius for a sphere.
// The normal points from the body toward the wall, BodyB is nil.
func BoundaryManifolds(body *actor.RigidBody, limit float64) []constraint.ContactManifold {
	if body == nil || !body.IsMovable() || limit <= 0 {
		return nil
	}

	aabb := body.AABB()

	var manifolds []constraint.ContactManifold
	for axis := 0; axis < 3; axis++ {
		if aabb.Max[axis] > limit {
			manifolds = append(manifolds, wallManifold(body, axis, 1, aabb.Max[axis]-limit, limit))
		}
		if aabb.Min[axis] < -limit {
			manifolds = append(manifolds, wallManifold(body, axis, -1, -limit-aabb.Min[axis], limit))
		}
	}

	return manifolds
}

// wallManifold places the contact on the wall, facing the body position
func wallManifold(body *actor.RigidBody, axis int, side, penetration, limit float64) constraint.ContactManifold {
	var normal mgl64.Vec3
	normal[axis] = side

	point := body.Transform.Position
	point[axis] = side * limit

	m := constraint.NewSurfaceManifold(body, actor.GroundSourceBoundary)
	m.AddContact(point, normal, penetration)
	return m
}
