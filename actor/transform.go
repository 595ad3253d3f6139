package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position, an orientation and a scale in 3D space
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	// Scale is applied to the shape dimensions. A zero Scale is read as {1, 1, 1}.
	Scale mgl64.Vec3
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// NewTransformAt creates a transform at the given position, without rotation
func NewTransformAt(position mgl64.Vec3) Transform {
	t := NewTransform()
	t.Position = position
	return t
}

// SetRotation normalizes and stores the rotation
func (t *Transform) SetRotation(rotation mgl64.Quat) {
	t.Rotation = rotation.Normalize()
}

// EffectiveScale returns the scale, reading the zero vector as the unit scale
func (t Transform) EffectiveScale() mgl64.Vec3 {
	if t.Scale == (mgl64.Vec3{}) {
		return mgl64.Vec3{1, 1, 1}
	}
	return t.Scale
}

// RotationMatrix returns the orientation as a 3x3 matrix.
// A zero quaternion (uninitialized transform) is read as the identity.
func (t Transform) RotationMatrix() mgl64.Mat3 {
	return t.rotation().Mat4().Mat3()
}

// Axes returns the local X, Y and Z axes expressed in world space
func (t Transform) Axes() [3]mgl64.Vec3 {
	r := t.RotationMatrix()
	return [3]mgl64.Vec3{r.Col(0), r.Col(1), r.Col(2)}
}

// ToWorld transforms a local point (already scaled) to world space
func (t Transform) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.rotation().Rotate(local))
}

// ToLocal transforms a world point to the unscaled local frame
func (t Transform) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return t.rotation().Conjugate().Rotate(world.Sub(t.Position))
}

func (t Transform) rotation() mgl64.Quat {
	if t.Rotation == (mgl64.Quat{}) {
		return mgl64.QuatIdent()
	}
	return t.Rotation
}
