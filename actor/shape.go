package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind represents the type of collision shape
type ShapeKind uint8

const (
	ShapeKindPoint ShapeKind = iota
	ShapeKindSphere
	// ShapeKindAABB is a box that stays aligned with the world axes whatever the body orientation
	ShapeKindAABB
	// ShapeKindOBB is a box that follows the body orientation
	ShapeKindOBB
	// ShapeKindCapsule is declared for completeness, it never collides
	ShapeKindCapsule

	ShapeKindCount
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeKindPoint:
		return "point"
	case ShapeKindSphere:
		return "sphere"
	case ShapeKindAABB:
		return "aabb"
	case ShapeKindOBB:
		return "obb"
	case ShapeKindCapsule:
		return "capsule"
	}
	return "unknown"
}

// Shape is a collision volume. It has no position of its own: it is always
// evaluated against the Transform of the body carrying it.
type Shape struct {
	Kind ShapeKind
	// Radius of spheres and capsules
	Radius float64
	// HalfExtents of boxes (half-width, half-height, half-depth)
	HalfExtents mgl64.Vec3
	// HalfHeight of the capsule segment
	HalfHeight float64
}

func NewPoint() Shape {
	return Shape{Kind: ShapeKindPoint}
}

func NewSphere(radius float64) Shape {
	return Shape{Kind: ShapeKindSphere, Radius: radius}
}

func NewAABB(halfExtents mgl64.Vec3) Shape {
	return Shape{Kind: ShapeKindAABB, HalfExtents: halfExtents}
}

func NewOBB(halfExtents mgl64.Vec3) Shape {
	return Shape{Kind: ShapeKindOBB, HalfExtents: halfExtents}
}

func NewCapsule(radius, halfHeight float64) Shape {
	return Shape{Kind: ShapeKindCapsule, Radius: radius, HalfHeight: halfHeight}
}

// IsBox reports whether the shape is an axis-aligned or an oriented box
func (s Shape) IsBox() bool {
	return s.Kind == ShapeKindAABB || s.Kind == ShapeKindOBB
}

// IsDegenerate reports shapes that must never collide: zero radius spheres,
// zero volume boxes and capsules.
func (s Shape) IsDegenerate() bool {
	switch s.Kind {
	case ShapeKindPoint:
		return false
	case ShapeKindSphere:
		return !(s.Radius > 0)
	case ShapeKindAABB, ShapeKindOBB:
		return !(s.HalfExtents.X() > 0 && s.HalfExtents.Y() > 0 && s.HalfExtents.Z() > 0)
	}
	return true
}

// WorldRadius returns the sphere radius scaled by the largest scale component
func (s Shape) WorldRadius(transform Transform) float64 {
	scale := transform.EffectiveScale()
	factor := math.Max(math.Abs(scale.X()), math.Max(math.Abs(scale.Y()), math.Abs(scale.Z())))
	return s.Radius * factor
}

// WorldHalfExtents returns the box half extents multiplied by the scale
func (s Shape) WorldHalfExtents(transform Transform) mgl64.Vec3 {
	scale := transform.EffectiveScale()
	return mgl64.Vec3{
		s.HalfExtents.X() * math.Abs(scale.X()),
		s.HalfExtents.Y() * math.Abs(scale.Y()),
		s.HalfExtents.Z() * math.Abs(scale.Z()),
	}
}

// Scaled returns the shape with the dimensions of its collision volume under
// the transform scale, for the mass, inertia and drag computations.
func (s Shape) Scaled(transform Transform) Shape {
	scaled := s
	scaled.Radius = s.WorldRadius(transform)
	scaled.HalfExtents = s.WorldHalfExtents(transform)
	return scaled
}

// WorldAxes returns the box axes in world space: the identity for an AABB,
// the rotated axes for an OBB.
func (s Shape) WorldAxes(transform Transform) [3]mgl64.Vec3 {
	if s.Kind == ShapeKindOBB {
		return transform.Axes()
	}
	return [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Vertices returns the 8 corners of a box in world space
func (s Shape) Vertices(transform Transform) [8]mgl64.Vec3 {
	h := s.WorldHalfExtents(transform)
	axes := s.WorldAxes(transform)
	ex := axes[0].Mul(h.X())
	ey := axes[1].Mul(h.Y())
	ez := axes[2].Mul(h.Z())
	c := transform.Position

	return [8]mgl64.Vec3{
		c.Sub(ex).Sub(ey).Sub(ez),
		c.Add(ex).Sub(ey).Sub(ez),
		c.Sub(ex).Add(ey).Sub(ez),
		c.Add(ex).Add(ey).Sub(ez),
		c.Sub(ex).Sub(ey).Add(ez),
		c.Add(ex).Sub(ey).Add(ez),
		c.Sub(ex).Add(ey).Add(ez),
		c.Add(ex).Add(ey).Add(ez),
	}
}

// ComputeAABB calculates the world axis-aligned bounding box of the shape
func (s Shape) ComputeAABB(transform Transform) AABB {
	switch s.Kind {
	case ShapeKindSphere:
		// Sphere AABB is not affected by rotation, only by position
		r := s.WorldRadius(transform)
		radiusVec := mgl64.Vec3{r, r, r}
		return AABB{Min: transform.Position.Sub(radiusVec), Max: transform.Position.Add(radiusVec)}
	case ShapeKindCapsule:
		r := s.WorldRadius(transform) + s.HalfHeight
		radiusVec := mgl64.Vec3{r, r, r}
		return AABB{Min: transform.Position.Sub(radiusVec), Max: transform.Position.Add(radiusVec)}
	case ShapeKindAABB, ShapeKindOBB:
		corners := s.Vertices(transform)
		min := corners[0]
		max := corners[0]
		for i := 1; i < 8; i++ {
			min[0] = math.Min(min[0], corners[i][0])
			min[1] = math.Min(min[1], corners[i][1])
			min[2] = math.Min(min[2], corners[i][2])

			max[0] = math.Max(max[0], corners[i][0])
			max[1] = math.Max(max[1], corners[i][1])
			max[2] = math.Max(max[2], corners[i][2])
		}
		return AABB{Min: min, Max: max}
	}

	return AABB{Min: transform.Position, Max: transform.Position}
}

// Volume of the shape, 0 for points and degenerate shapes
func (s Shape) Volume() float64 {
	if s.IsDegenerate() {
		return 0
	}
	switch s.Kind {
	case ShapeKindSphere:
		return (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)
	case ShapeKindAABB, ShapeKindOBB:
		// Full dimensions are 2*halfExtents
		return 8.0 * s.HalfExtents.X() * s.HalfExtents.Y() * s.HalfExtents.Z()
	}
	return 0
}

// CrossSection returns the area facing the air flow, the largest face for boxes
func (s Shape) CrossSection() float64 {
	if s.IsDegenerate() {
		return 0
	}
	switch s.Kind {
	case ShapeKindSphere:
		return math.Pi * s.Radius * s.Radius
	case ShapeKindAABB, ShapeKindOBB:
		h := s.HalfExtents
		return 4.0 * math.Max(h.X()*h.Y(), math.Max(h.Y()*h.Z(), h.X()*h.Z()))
	}
	return 0
}

// ComputeMass calculates the mass of the shape for a given density
func (s Shape) ComputeMass(density float64) float64 {
	return density * s.Volume()
}

// ComputeInertia returns the local inertia tensor of a solid shape of the given mass
func (s Shape) ComputeInertia(mass float64) mgl64.Mat3 {
	switch s.Kind {
	case ShapeKindSphere:
		// I = (2/5) * m * r², identical on all axes
		i := (2.0 / 5.0) * mass * s.Radius * s.Radius
		return mgl64.Diag3(mgl64.Vec3{i, i, i})
	case ShapeKindAABB, ShapeKindOBB:
		x := s.HalfExtents.X() * 2
		y := s.HalfExtents.Y() * 2
		z := s.HalfExtents.Z() * 2

		// I = (m/12) * (dimension1² + dimension2²)
		factor := mass / 12.0
		return mgl64.Diag3(mgl64.Vec3{
			factor * (y*y + z*z),
			factor * (x*x + z*z),
			factor * (x*x + y*y),
		})
	}
	return mgl64.Mat3{}
}

// ContactFeature returns the box face (4 world vertices) whose outward
// normal is the most aligned with the world direction. Non-box shapes
// return their support point as a single-vertex feature.
func (s Shape) ContactFeature(direction mgl64.Vec3, transform Transform) []mgl64.Vec3 {
	if !s.IsBox() {
		if s.Kind != ShapeKindSphere || direction.Len() < 1e-12 {
			return []mgl64.Vec3{transform.Position}
		}
		return []mgl64.Vec3{transform.Position.Add(direction.Normalize().Mul(s.WorldRadius(transform)))}
	}

	h := s.WorldHalfExtents(transform)
	axes := s.WorldAxes(transform)
	dir := direction.Normalize()

	bestAxis, bestSign := 0, 1.0
	bestDot := -math.MaxFloat64
	for i := 0; i < 3; i++ {
		d := dir.Dot(axes[i])
		if d > bestDot {
			bestDot, bestAxis, bestSign = d, i, 1.0
		}
		if -d > bestDot {
			bestDot, bestAxis, bestSign = -d, i, -1.0
		}
	}

	u := (bestAxis + 1) % 3
	v := (bestAxis + 2) % 3
	center := transform.Position.Add(axes[bestAxis].Mul(bestSign * h[bestAxis]))
	eu := axes[u].Mul(h[u])
	ev := axes[v].Mul(h[v])

	// Counter-clockwise seen from outside
	if bestSign < 0 {
		eu, ev = ev, eu
	}
	return []mgl64.Vec3{
		center.Sub(eu).Sub(ev),
		center.Add(eu).Sub(ev),
		center.Add(eu).Add(ev),
		center.Sub(eu).Add(ev),
	}
}
