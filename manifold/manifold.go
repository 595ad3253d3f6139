// Package manifold builds multi-point contacts between boxes by clipping
// their contact faces (Sutherland-Hodgman).
package manifold

import (
	"math"
	"sort"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// clipTolerance keeps points lying on a clipping plane
const clipTolerance = 1e-6

// Point is a contact point with its own penetration depth
type Point struct {
	Position mgl64.Vec3
	Depth    float64
}

// Generate creates 1 to 4 contact points for two boxes colliding along normal
// (from A toward B). It returns nil when the shapes are not both boxes or
// when the clipping leaves nothing, the caller then keeps a single contact.
//
// Algorithm:
//  1. Get the face of A facing B, and the face of B facing A
//  2. The face most aligned with the normal is the reference, the other the incident
//  3. Clip the incident face against the side planes of the reference face
//  4. Keep the points under the reference plane, halfway between both faces
//  5. Reduce to 4 points if needed
func Generate(a actor.Shape, ta actor.Transform, b actor.Shape, tb actor.Transform, normal mgl64.Vec3) []Point {
	if !a.IsBox() || !b.IsBox() {
		return nil
	}

	faceA := a.ContactFeature(normal, ta)
	faceB := b.ContactFeature(normal.Mul(-1), tb)

	// The reference normal points out of the reference face, toward the incident body
	reference, incident, referenceNormal := faceA, faceB, faceNormal(faceA)
	if math.Abs(faceNormal(faceB).Dot(normal)) > math.Abs(referenceNormal.Dot(normal))+clipTolerance {
		reference, incident, referenceNormal = faceB, faceA, faceNormal(faceB)
	}

	clipped := clipIncidentAgainstReference(incident, reference, referenceNormal)

	offset := reference[0].Dot(referenceNormal)
	var points []Point
	for _, p := range clipped {
		distance := p.Dot(referenceNormal) - offset
		if distance > clipTolerance {
			continue
		}

		depth := math.Max(-distance, 0)
		points = append(points, Point{
			Position: p.Add(referenceNormal.Mul(depth / 2)),
			Depth:    depth,
		})
	}

	if len(points) > constraint.MaxContactPoints {
		points = reduceTo4Points(points, normal)
	}

	return points
}

// faceNormal is the outward normal of a counter-clockwise face
func faceNormal(face []mgl64.Vec3) mgl64.Vec3 {
	return face[1].Sub(face[0]).Cross(face[2].Sub(face[0])).Normalize()
}

// clipIncidentAgainstReference clips the incident polygon against each side
// plane of the reference polygon.
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	output := incident
	center := computeCenter(reference)

	for i := 0; i < len(reference) && len(output) > 0; i++ {
		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		// Side plane normal, pointing inward
		clipNormal := v2.Sub(v1).Cross(normal).Normalize()
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = clipPolygonAgainstPlane(output, v1, clipNormal)
	}

	return output
}

// clipPolygonAgainstPlane implements Sutherland-Hodgman for a single plane
func clipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	var output []mgl64.Vec3
	for i := 0; i < len(polygon); i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		if currentDist >= -clipTolerance {
			output = append(output, current)
			if nextDist < -clipTolerance {
				output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
			}
		} else if nextDist >= -clipTolerance {
			output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
		}
	}

	return output
}

// lineIntersectPlane calculates the intersection between a line segment and a plane
func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	denom := dir.Dot(planeNormal)
	if math.Abs(denom) < 1e-10 {
		return p1
	}

	t := -p1.Sub(planePoint).Dot(planeNormal) / denom
	return p1.Add(dir.Mul(mgl64.Clamp(t, 0, 1)))
}

func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{}
	}

	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

// reduceTo4Points keeps the extreme points along both tangents, in their original order
func reduceTo4Points(points []Point, normal mgl64.Vec3) []Point {
	tangent1, tangent2 := constraint.TangentBasis(normal)

	minX, maxX, minY, maxY := 0, 0, 0, 0
	for i, p := range points {
		x := p.Position.Dot(tangent1)
		y := p.Position.Dot(tangent2)

		if x < points[minX].Position.Dot(tangent1) {
			minX = i
		}
		if x > points[maxX].Position.Dot(tangent1) {
			maxX = i
		}
		if y < points[minY].Position.Dot(tangent2) {
			minY = i
		}
		if y > points[maxY].Position.Dot(tangent2) {
			maxY = i
		}
	}

	indices := []int{minX, maxX, minY, maxY}
	sort.Ints(indices)

	result := make([]Point, 0, constraint.MaxContactPoints)
	for i, index := range indices {
		if i > 0 && index == indices[i-1] {
			continue
		}
		result = append(result, points[index])
	}

	return result
}
