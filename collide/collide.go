// Package collide tests two positioned shapes for intersection.
//
// Every test is a pure function of its inputs. A hit reports a unit normal
// pointing from the first shape toward the second, and a positive penetration
// depth.
package collide

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/sat"
	"github.com/go-gl/mathgl/mgl64"
)

// coincidentEpsilon is the distance under which two centers are considered
// at the same place and the normal falls back to the up axis.
const coincidentEpsilon = 1e-9

var fallbackNormal = mgl64.Vec3{0, 1, 0}

// Result of an intersection test
type Result struct {
	// Normal points from A toward B
	Normal mgl64.Vec3
	Depth  float64
}

// MTV returns the minimum translation vector that pushes A out of B
func (r Result) MTV() mgl64.Vec3 {
	return r.Normal.Mul(-r.Depth)
}

type pairFunc func(a actor.Shape, ta actor.Transform, b actor.Shape, tb actor.Transform) (Result, bool)

var dispatch [actor.ShapeKindCount][actor.ShapeKindCount]pairFunc

func init() {
	register(actor.ShapeKindPoint, actor.ShapeKindSphere, PointSphere)
	register(actor.ShapeKindPoint, actor.ShapeKindAABB, PointBox)
	register(actor.ShapeKindPoint, actor.ShapeKindOBB, PointBox)
	register(actor.ShapeKindSphere, actor.ShapeKindSphere, SphereSphere)
	register(actor.ShapeKindSphere, actor.ShapeKindAABB, SphereBox)
	register(actor.ShapeKindSphere, actor.ShapeKindOBB, SphereBox)
	register(actor.ShapeKindAABB, actor.ShapeKindAABB, AABBAABB)
	register(actor.ShapeKindAABB, actor.ShapeKindOBB, BoxBox)
	register(actor.ShapeKindOBB, actor.ShapeKindOBB, BoxBox)
}

// register stores fn for (kindA, kindB) and its mirror for (kindB, kindA)
func register(kindA, kindB actor.ShapeKind, fn pairFunc) {
	dispatch[kindA][kindB] = fn
	if kindA != kindB {
		dispatch[kindB][kindA] = swapped(fn)
	}
}

func swapped(fn pairFunc) pairFunc {
	return func(a actor.Shape, ta actor.Transform, b actor.Shape, tb actor.Transform) (Result, bool) {
		result, ok := fn(b, tb, a, ta)
		result.Normal = result.Normal.Mul(-1)
		return result, ok
	}
}

// Detect tests any pair of shapes. Degenerate shapes, capsules and point
// pairs never collide.
func Detect(a actor.Shape, ta actor.Transform, b actor.Shape, tb actor.Transform) (Result, bool) {
	if a.Kind >= actor.ShapeKindCount || b.Kind >= actor.ShapeKindCount {
		return Result{}, false
	}
	if a.IsDegenerate() || b.IsDegenerate() {
		return Result{}, false
	}

	fn := dispatch[a.Kind][b.Kind]
	if fn == nil {
		return Result{}, false
	}
	return fn(a, ta, b, tb)
}

// SphereSphere compares the center distance with the sum of the radii
func SphereSphere(a actor.Shape, ta actor.Transform, b actor.Shape, tb actor.Transform) (Result, bool) {
	delta := tb.Position.Sub(ta.Position)
	radii := a.WorldRadius(ta) + b.WorldRadius(tb)

	distSq := delta.LenSqr()
	if distSq >= radii*radii {
		return Result{}, false
	}

	dist := math.Sqrt(distSq)
	return Result{Normal: directionOrFallback(delta, dist), Depth: radii - dist}, true
}

// PointSphere reports a point inside a sphere, pushed out along the radius
func PointSphere(a actor.Shape, ta actor.Transform, b actor.Shape, tb actor.Transform) (Result, bool) {
	delta := tb.Position.Sub(ta.Position)
	radius := b.WorldRadius(tb)

	dist := delta.Len()
	if dist >= radius {
		return Result{}, false
	}

	return Result{Normal: directionOrFallback(delta, dist), Depth: radius - dist}, true
}

// PointBox reports a point strictly inside a box, pushed out through the nearest face
func PointBox(a actor.Shape, ta actor.Transform, b actor.Shape, tb actor.Transform) (Result, bool) {
	if !b.ComputeAABB(tb).ContainsPoint(ta.Position) {
		return Result{}, false
	}

	box := sat.NewBox(b, tb)
	local, inside := boxLocal(box, ta.Position)
	if !inside {
		return Result{}, false
	}

	outward, depth := nearestFace(box, local)
	// The point leaves through the face: A moves along the outward normal
	return Result{Normal: outward.Mul(-1), Depth: depth}, true
}

// SphereBox compares the distance from the sphere center to the closest point
// of the box with the radius. A center inside the box exits through the nearest face.
func SphereBox(a actor.Shape, ta actor.Transform, b actor.Shape, tb actor.Transform) (Result, bool) {
	box := sat.NewBox(b, tb)
	radius := a.WorldRadius(ta)
	center := ta.Position

	local, inside := boxLocal(box, center)
	if inside {
		outward, depth := nearestFace(box, local)
		return Result{Normal: outward.Mul(-1), Depth: depth + radius}, true
	}

	closest := box.Center
	for i := 0; i < 3; i++ {
		d := mgl64.Clamp(local[i], -box.HalfExtents[i], box.HalfExtents[i])
		closest = closest.Add(box.Axes[i].Mul(d))
	}

	delta := closest.Sub(center)
	distSq := delta.LenSqr()
	if distSq >= radius*radius {
		return Result{}, false
	}

	dist := math.Sqrt(distSq)
	if dist < coincidentEpsilon {
		// Center on the surface: no direction to the closest point, exit through the face
		outward, depth := nearestFace(box, local)
		return Result{Normal: outward.Mul(-1), Depth: depth + radius}, true
	}
	return Result{Normal: delta.Mul(1.0 / dist), Depth: radius - dist}, true
}

// AABBAABB compares the world bounds of two axis-aligned boxes and separates
// them along the axis of minimum overlap.
func AABBAABB(a actor.Shape, ta actor.Transform, b actor.Shape, tb actor.Transform) (Result, bool) {
	boundsA := a.ComputeAABB(ta)
	boundsB := b.ComputeAABB(tb)
	centerA := boundsA.Center()
	centerB := boundsB.Center()

	result := Result{Depth: math.MaxFloat64}
	for i := 0; i < 3; i++ {
		overlap := math.Min(boundsA.Max[i], boundsB.Max[i]) - math.Max(boundsA.Min[i], boundsB.Min[i])
		if overlap <= 0 {
			return Result{}, false
		}
		if overlap < result.Depth {
			var normal mgl64.Vec3
			normal[i] = 1
			if centerB[i] < centerA[i] {
				normal[i] = -1
			}
			result = Result{Normal: normal, Depth: overlap}
		}
	}

	return result, true
}

// BoxBox runs the separating axis test on two boxes, at least one of them oriented
func BoxBox(a actor.Shape, ta actor.Transform, b actor.Shape, tb actor.Transform) (Result, bool) {
	normal, depth, ok := sat.Collide(sat.NewBox(a, ta), sat.NewBox(b, tb))
	if !ok {
		return Result{}, false
	}
	return Result{Normal: normal, Depth: depth}, true
}

// boxLocal expresses a world point in the box frame, and reports whether it
// lies strictly inside the box.
func boxLocal(box sat.Box, point mgl64.Vec3) (mgl64.Vec3, bool) {
	rel := point.Sub(box.Center)
	local := mgl64.Vec3{rel.Dot(box.Axes[0]), rel.Dot(box.Axes[1]), rel.Dot(box.Axes[2])}

	inside := true
	for i := 0; i < 3; i++ {
		if math.Abs(local[i]) >= box.HalfExtents[i] {
			inside = false
		}
	}
	return local, inside
}

// nearestFace returns the outward normal of the face closest to a local point
// inside the box, and the distance to it.
func nearestFace(box sat.Box, local mgl64.Vec3) (mgl64.Vec3, float64) {
	axis := 0
	distance := math.MaxFloat64
	for i := 0; i < 3; i++ {
		if d := box.HalfExtents[i] - math.Abs(local[i]); d < distance {
			axis, distance = i, d
		}
	}

	outward := box.Axes[axis]
	if local[axis] < 0 {
		outward = outward.Mul(-1)
	}
	return outward, distance
}

func directionOrFallback(delta mgl64.Vec3, length float64) mgl64.Vec3 {
	if length < coincidentEpsilon {
		return fallbackNormal
	}
	return delta.Mul(1.0 / length)
}
