// Package sat implements the separating axis test between oriented boxes.
package sat

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// axisEpsilon is the squared length below which a cross product axis is
// considered degenerate (parallel edges).
const axisEpsilon = 1e-12

// Box is an oriented box expressed in world space
type Box struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Axes        [3]mgl64.Vec3
}

// NewBox places a box shape in world space. An AABB shape keeps the world axes.
func NewBox(shape actor.Shape, transform actor.Transform) Box {
	return Box{
		Center:      transform.Position,
		HalfExtents: shape.WorldHalfExtents(transform),
		Axes:        shape.WorldAxes(transform),
	}
}

// Vertices returns the 8 corners of the box
func (b Box) Vertices() [8]mgl64.Vec3 {
	ex := b.Axes[0].Mul(b.HalfExtents.X())
	ey := b.Axes[1].Mul(b.HalfExtents.Y())
	ez := b.Axes[2].Mul(b.HalfExtents.Z())

	var vertices [8]mgl64.Vec3
	for i := 0; i < 8; i++ {
		v := b.Center
		if i&1 == 0 {
			v = v.Sub(ex)
		} else {
			v = v.Add(ex)
		}
		if i&2 == 0 {
			v = v.Sub(ey)
		} else {
			v = v.Add(ey)
		}
		if i&4 == 0 {
			v = v.Sub(ez)
		} else {
			v = v.Add(ez)
		}
		vertices[i] = v
	}
	return vertices
}

// AABB returns the world axis-aligned bounds of the box
func (b Box) AABB() actor.AABB {
	var extent mgl64.Vec3
	for i := 0; i < 3; i++ {
		extent = extent.Add(mgl64.Vec3{
			math.Abs(b.Axes[i].X()),
			math.Abs(b.Axes[i].Y()),
			math.Abs(b.Axes[i].Z()),
		}.Mul(b.HalfExtents[i]))
	}
	return actor.AABB{Min: b.Center.Sub(extent), Max: b.Center.Add(extent)}
}

// Overlap is the cheap early reject: it compares the world bounds of the boxes
func Overlap(a, b Box) bool {
	return a.AABB().Overlaps(b.AABB())
}

// Collide runs the 15 axes test. The returned normal is unit length and points
// from a toward b: translating a by -normal*depth separates the boxes.
// Touching boxes (zero overlap) are not colliding.
func Collide(a, b Box) (normal mgl64.Vec3, depth float64, ok bool) {
	if !Overlap(a, b) {
		return mgl64.Vec3{}, 0, false
	}

	verticesA := a.Vertices()
	verticesB := b.Vertices()

	depth = math.MaxFloat64
	test := func(axis mgl64.Vec3) bool {
		minA, maxA := project(verticesA, axis)
		minB, maxB := project(verticesB, axis)

		overlap := math.Min(maxA, maxB) - math.Max(minA, minB)
		if overlap <= 0 {
			return false
		}
		if overlap < depth {
			depth = overlap
			normal = axis
		}
		return true
	}

	// Face normals of both boxes
	for i := 0; i < 3; i++ {
		if !test(a.Axes[i]) || !test(b.Axes[i]) {
			return mgl64.Vec3{}, 0, false
		}
	}

	// Edge-edge axes
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			axis := a.Axes[i].Cross(b.Axes[j])
			if axis.LenSqr() < axisEpsilon {
				continue
			}
			if !test(axis.Normalize()) {
				return mgl64.Vec3{}, 0, false
			}
		}
	}

	if normal.Dot(b.Center.Sub(a.Center)) < 0 {
		normal = normal.Mul(-1)
	}

	return normal, depth, true
}

func project(vertices [8]mgl64.Vec3, axis mgl64.Vec3) (min, max float64) {
	min = vertices[0].Dot(axis)
	max = min
	for i := 1; i < 8; i++ {
		d := vertices[i].Dot(axis)
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}
