package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// Material Tests
// =============================================================================

func TestMaterial_SetMass(t *testing.T) {
	tests := []struct {
		name        string
		mass        float64
		wantOk      bool
		wantInverse float64
	}{
		{"normal mass", 4, true, 0.25},
		{"zero mass", 0, true, 0},
		{"infinite mass", math.Inf(1), true, 0},
		{"negative mass", -1, false, 0.5},
		{"NaN mass", math.NaN(), false, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMaterial(2)
			if ok := m.SetMass(tt.mass); ok != tt.wantOk {
				t.Errorf("SetMass(%v) = %v, want %v", tt.mass, ok, tt.wantOk)
			}
			if !almostEqual(m.InverseMass(), tt.wantInverse, 1e-12) {
				t.Errorf("InverseMass() = %v, want %v", m.InverseMass(), tt.wantInverse)
			}
		})
	}
}

func TestMaterial_Clamping(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"below range", -0.5, 0},
		{"in range", 0.3, 0.3},
		{"above range", 1.7, 1},
		{"NaN", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMaterial(1)
			m.SetBounciness(tt.value)
			m.SetStickiness(tt.value)
			m.SetAngularDrag(tt.value)

			if m.Bounciness() != tt.want || m.Stickiness() != tt.want || m.AngularDrag() != tt.want {
				t.Errorf("got bounciness=%v stickiness=%v angularDrag=%v, want %v",
					m.Bounciness(), m.Stickiness(), m.AngularDrag(), tt.want)
			}
		})
	}
}

func TestMaterial_Defaults(t *testing.T) {
	m := NewMaterial(-3)
	if m.GetMass() != 0 {
		t.Errorf("GetMass() = %v, want 0 for a negative mass", m.GetMass())
	}
	if m.Bounciness() != DefaultBounciness || m.Stickiness() != DefaultStickiness {
		t.Errorf("got bounciness=%v stickiness=%v, want the defaults", m.Bounciness(), m.Stickiness())
	}
}

// =============================================================================
// NewRigidBody Tests
// =============================================================================

func TestNewRigidBody_Dynamic(t *testing.T) {
	transform := NewTransformAt(mgl64.Vec3{1, 2, 3})
	sphere := NewSphere(1.0)
	density := 2.0

	rb := NewRigidBody(transform, sphere, BodyTypeDynamic, density)

	if !rb.IsMovable() {
		t.Error("a dynamic body should be movable")
	}
	if rb.LinearVelocity() != (mgl64.Vec3{}) {
		t.Errorf("LinearVelocity() = %v, want zero", rb.LinearVelocity())
	}

	expectedMass := sphere.ComputeMass(density)
	if !almostEqual(rb.Material.GetMass(), expectedMass, 1e-10) {
		t.Errorf("Material.GetMass() = %v, want %v", rb.Material.GetMass(), expectedMass)
	}
	if !almostEqual(rb.InverseMass(), 1/expectedMass, 1e-10) {
		t.Errorf("InverseMass() = %v, want %v", rb.InverseMass(), 1/expectedMass)
	}
	if !rb.IsRotationEnabled() {
		t.Error("a dynamic sphere should rotate")
	}

	expectedAABB := AABB{Min: mgl64.Vec3{0, 1, 2}, Max: mgl64.Vec3{2, 3, 4}}
	if rb.AABB() != expectedAABB {
		t.Errorf("AABB() = %v, want %v", rb.AABB(), expectedAABB)
	}
}

func TestNewRigidBody_ScaledShape(t *testing.T) {
	tests := []struct {
		name       string
		shape      Shape
		scale      mgl64.Vec3
		equivalent Shape
	}{
		{"stretched box", NewOBB(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{2, 1, 1}, NewOBB(mgl64.Vec3{2, 1, 1})},
		{"mirrored box", NewOBB(mgl64.Vec3{1, 2, 1}), mgl64.Vec3{1, -1, 0.5}, NewOBB(mgl64.Vec3{1, 2, 0.5})},
		{"sphere", NewSphere(1), mgl64.Vec3{3, 3, 3}, NewSphere(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transform := NewTransform()
			transform.Scale = tt.scale

			rb := NewRigidBody(transform, tt.shape, BodyTypeDynamic, 1)

			// Mass, inertia and drag area follow the collision volume
			wantMass := tt.equivalent.ComputeMass(1)
			if !almostEqual(rb.Material.GetMass(), wantMass, 1e-9) {
				t.Errorf("GetMass() = %v, want %v", rb.Material.GetMass(), wantMass)
			}
			if !rb.InertiaLocal().ApproxEqualThreshold(tt.equivalent.ComputeInertia(wantMass), 1e-9) {
				t.Errorf("InertiaLocal() = %v, want %v", rb.InertiaLocal(), tt.equivalent.ComputeInertia(wantMass))
			}
			if !almostEqual(rb.Material.Surface, tt.equivalent.CrossSection(), 1e-9) {
				t.Errorf("Surface = %v, want %v", rb.Material.Surface, tt.equivalent.CrossSection())
			}
		})
	}
}

func TestNewRigidBody_Static(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewOBB(mgl64.Vec3{5, 1, 5}), BodyTypeStatic, 10)

	if rb.IsMovable() {
		t.Error("a static body should not be movable")
	}
	if !math.IsInf(rb.Material.GetMass(), 1) {
		t.Errorf("GetMass() = %v, want +Inf", rb.Material.GetMass())
	}
	if rb.InverseMass() != 0 {
		t.Errorf("InverseMass() = %v, want 0", rb.InverseMass())
	}
	if rb.InverseWorldInertia() != (mgl64.Mat3{}) {
		t.Errorf("InverseWorldInertia() = %v, want zero", rb.InverseWorldInertia())
	}
}

func TestNewRigidBody_ZeroMassPoint(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewPoint(), BodyTypeDynamic, 1)

	if rb.InverseMass() != 0 {
		t.Errorf("InverseMass() = %v, want 0 for a null mass", rb.InverseMass())
	}
	if rb.IsRotationEnabled() {
		t.Error("a point without inertia should not rotate")
	}

	rb.ApplyLinearImpulse(mgl64.Vec3{10, 0, 0})
	if rb.LinearVelocity() != (mgl64.Vec3{}) {
		t.Errorf("LinearVelocity() = %v, an impulse should not move a null mass", rb.LinearVelocity())
	}
}

// =============================================================================
// Impulses & mutators
// =============================================================================

func TestApplyImpulses(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewOBB(mgl64.Vec3{1, 1, 1}), BodyTypeDynamic, 1)
	rb.Material.SetMass(2)
	rb.SetInertia(mgl64.Diag3(mgl64.Vec3{4, 4, 4}))

	rb.ApplyLinearImpulse(mgl64.Vec3{2, 0, -4})
	if !vec3AlmostEqual(rb.LinearVelocity(), mgl64.Vec3{1, 0, -2}, 1e-12) {
		t.Errorf("LinearVelocity() = %v, want (1, 0, -2)", rb.LinearVelocity())
	}

	rb.ApplyAngularImpulse(mgl64.Vec3{0, 8, 0})
	if !vec3AlmostEqual(rb.AngularVelocity(), mgl64.Vec3{0, 2, 0}, 1e-12) {
		t.Errorf("AngularVelocity() = %v, want (0, 2, 0)", rb.AngularVelocity())
	}

	rb.SetRotationEnabled(false)
	rb.ApplyAngularImpulse(mgl64.Vec3{0, 8, 0})
	if rb.AngularVelocity() != (mgl64.Vec3{}) {
		t.Errorf("AngularVelocity() = %v, want zero with the rotation disabled", rb.AngularVelocity())
	}
}

func TestStaticBody_IgnoresMutators(t *testing.T) {
	position := mgl64.Vec3{1, 1, 1}
	rb := NewRigidBody(NewTransformAt(position), NewSphere(1), BodyTypeStatic, 1)

	rb.ApplyLinearImpulse(mgl64.Vec3{100, 0, 0})
	rb.ApplyAngularImpulse(mgl64.Vec3{0, 100, 0})
	rb.SetLinearVelocity(mgl64.Vec3{1, 2, 3})
	rb.SetAngularVelocity(mgl64.Vec3{1, 2, 3})
	rb.MoveFromPhysics(mgl64.Vec3{5, 5, 5})
	rb.AddForce(mgl64.Vec3{0, 1000, 0})
	rb.Integrate(0.1, mgl64.Vec3{0, -9.81, 0}, 1.2)

	if rb.LinearVelocity() != (mgl64.Vec3{}) || rb.AngularVelocity() != (mgl64.Vec3{}) {
		t.Errorf("static body velocity changed: v=%v ω=%v", rb.LinearVelocity(), rb.AngularVelocity())
	}
	if rb.Transform.Position != position {
		t.Errorf("static body moved to %v", rb.Transform.Position)
	}
}

func TestMoveFromPhysics_KeepsVelocity(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewSphere(1), BodyTypeDynamic, 1)
	rb.SetLinearVelocity(mgl64.Vec3{0, -3, 0})

	rb.MoveFromPhysics(mgl64.Vec3{0, 0.25, 0})

	if !vec3AlmostEqual(rb.Transform.Position, mgl64.Vec3{0, 0.25, 0}, 1e-12) {
		t.Errorf("Position = %v, want (0, 0.25, 0)", rb.Transform.Position)
	}
	if rb.LinearVelocity() != (mgl64.Vec3{0, -3, 0}) {
		t.Errorf("LinearVelocity() = %v, should be untouched", rb.LinearVelocity())
	}
}

func TestWorldCenterOfMass(t *testing.T) {
	transform := NewTransformAt(mgl64.Vec3{1, 0, 0})
	transform.SetRotation(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))
	rb := NewRigidBody(transform, NewSphere(1), BodyTypeDynamic, 1)
	rb.CenterOfMass = mgl64.Vec3{1, 0, 0}

	if got := rb.WorldCenterOfMass(); !vec3AlmostEqual(got, mgl64.Vec3{1, 1, 0}, 1e-9) {
		t.Errorf("WorldCenterOfMass() = %v, want (1, 1, 0)", got)
	}
}

// =============================================================================
// Inertia
// =============================================================================

func TestSetInertia(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewSphere(1), BodyTypeDynamic, 1)

	if rb.SetInertia(mgl64.Diag3(mgl64.Vec3{1, -1, 1})) {
		t.Error("SetInertia() should reject a negative diagonal")
	}

	if !rb.SetInertia(mgl64.Diag3(mgl64.Vec3{2, 0, 4})) {
		t.Fatal("SetInertia() rejected a valid tensor")
	}
	want := mgl64.Diag3(mgl64.Vec3{0.5, 0, 0.25})
	if !mat3Equal(rb.InverseWorldInertia(), want, 1e-12) {
		t.Errorf("InverseWorldInertia() = %v, want %v", rb.InverseWorldInertia(), want)
	}
}

func TestInverseWorldInertia_FollowsRotation(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewOBB(mgl64.Vec3{1, 1, 1}), BodyTypeDynamic, 1)
	rb.SetInertia(mgl64.Diag3(mgl64.Vec3{1, 2, 4}))

	// 90° around Z swaps the X and Y axes
	rb.SetRotation(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))

	want := mgl64.Diag3(mgl64.Vec3{0.5, 1, 0.25})
	if !mat3Equal(rb.InverseWorldInertia(), want, 1e-9) {
		t.Errorf("InverseWorldInertia() = %v, want %v", rb.InverseWorldInertia(), want)
	}

	// Symmetric after an arbitrary rotation
	rb.SetRotation(mgl64.QuatRotate(1.1, mgl64.Vec3{1, 1, 0}.Normalize()))
	inv := rb.InverseWorldInertia()
	if !mat3Equal(inv, inv.Transpose(), 1e-9) {
		t.Errorf("InverseWorldInertia() = %v should be symmetric", inv)
	}
}

// =============================================================================
// Grounded state & impacts
// =============================================================================

func TestGroundedGracePeriod(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewSphere(1), BodyTypeDynamic, 1)
	support := NewRigidBody(NewTransform(), NewOBB(mgl64.Vec3{1, 1, 1}), BodyTypeStatic, 1)

	if rb.IsGrounded() {
		t.Fatal("a new body should not be grounded")
	}

	rb.SetGrounded(GroundSourceBody, support)
	if !rb.IsGrounded() || rb.GroundSource() != GroundSourceBody || rb.GroundBody() != support {
		t.Fatalf("got grounded=%v source=%v, want grounded on the support", rb.IsGrounded(), rb.GroundSource())
	}

	for step := 1; step < GroundedGraceSteps; step++ {
		rb.UpdateGroundedState()
		if !rb.IsGrounded() {
			t.Fatalf("body airborne after %d steps, grace period is %d", step, GroundedGraceSteps)
		}
	}

	rb.UpdateGroundedState()
	if rb.IsGrounded() {
		t.Error("body still grounded after the grace period")
	}
	if rb.GroundSource() != GroundSourceNone || rb.GroundBody() != nil {
		t.Errorf("ground source = %v, want none", rb.GroundSource())
	}
}

func TestConsumeImpact(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewSphere(1), BodyTypeDynamic, 1)

	if _, ok := rb.ConsumeImpact(); ok {
		t.Fatal("no impact recorded yet")
	}

	rb.OnCollision(5)
	rb.OnCollision(12)
	rb.OnCollision(3)

	force, ok := rb.ConsumeImpact()
	if !ok || force != 12 {
		t.Errorf("ConsumeImpact() = (%v, %v), want (12, true)", force, ok)
	}
	if _, ok := rb.ConsumeImpact(); ok {
		t.Error("ConsumeImpact() should reset the impact")
	}
}

// =============================================================================
// Integrate Tests
// =============================================================================

func TestIntegrate_Gravity(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewSphere(1), BodyTypeDynamic, 1)
	gravity := mgl64.Vec3{0, -10, 0}

	rb.Integrate(0.1, gravity, 0)

	// Semi-implicit Euler: v first, then x
	if !vec3AlmostEqual(rb.LinearVelocity(), mgl64.Vec3{0, -1, 0}, 1e-12) {
		t.Errorf("LinearVelocity() = %v, want (0, -1, 0)", rb.LinearVelocity())
	}
	if !vec3AlmostEqual(rb.Transform.Position, mgl64.Vec3{0, -0.1, 0}, 1e-12) {
		t.Errorf("Position = %v, want (0, -0.1, 0)", rb.Transform.Position)
	}
	if !vec3AlmostEqual(rb.AABB().Center(), rb.Transform.Position, 1e-12) {
		t.Errorf("AABB() not refreshed: %v", rb.AABB())
	}
}

func TestIntegrate_Force(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewSphere(1), BodyTypeDynamic, 1)
	rb.Material.SetMass(2)

	rb.AddForce(mgl64.Vec3{4, 0, 0})
	rb.Integrate(0.5, mgl64.Vec3{}, 0)

	if !vec3AlmostEqual(rb.LinearVelocity(), mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("LinearVelocity() = %v, want (1, 0, 0)", rb.LinearVelocity())
	}

	// Forces are cleared after each integration
	rb.Integrate(0.5, mgl64.Vec3{}, 0)
	if !vec3AlmostEqual(rb.LinearVelocity(), mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("LinearVelocity() = %v, forces should not accumulate", rb.LinearVelocity())
	}
}

func TestIntegrate_NullMassIgnoresGravity(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewPoint(), BodyTypeDynamic, 1)
	rb.SetLinearVelocity(mgl64.Vec3{1, 0, 0})

	rb.Integrate(1, mgl64.Vec3{0, -9.81, 0}, 0)

	if !vec3AlmostEqual(rb.Transform.Position, mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("Position = %v, want (1, 0, 0)", rb.Transform.Position)
	}
}

func TestIntegrate_AirDrag(t *testing.T) {
	tests := []struct {
		name       string
		airDensity float64
		slower     bool
	}{
		{"vacuum", 0, false},
		{"earth air", 1.225, true},
		{"jupiter air", 1.326, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRigidBody(NewTransform(), NewSphere(0.5), BodyTypeDynamic, 1)
			rb.SetLinearVelocity(mgl64.Vec3{20, 0, 0})

			rb.Integrate(0.01, mgl64.Vec3{}, tt.airDensity)

			speed := rb.LinearVelocity().Len()
			if tt.slower && speed >= 20 {
				t.Errorf("speed = %v, drag should slow the body", speed)
			}
			if !tt.slower && !almostEqual(speed, 20, 1e-12) {
				t.Errorf("speed = %v, want 20 without air", speed)
			}
			if rb.LinearVelocity().X() < 0 {
				t.Errorf("drag reversed the velocity: %v", rb.LinearVelocity())
			}
		})
	}
}

func TestIntegrate_AirDragNeverReverses(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewSphere(1), BodyTypeDynamic, 0.001)
	rb.SetLinearVelocity(mgl64.Vec3{0, 0, 500})

	rb.Integrate(1, mgl64.Vec3{}, 1000)

	if rb.LinearVelocity().Z() < 0 {
		t.Errorf("LinearVelocity() = %v, drag should at most stop the body", rb.LinearVelocity())
	}
}

func TestIntegrate_AngularDrag(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewOBB(mgl64.Vec3{1, 1, 1}), BodyTypeDynamic, 1)
	rb.Material.SetAngularDrag(0.5)
	rb.SetAngularVelocity(mgl64.Vec3{0, 4, 0})

	rb.Integrate(0.01, mgl64.Vec3{}, 0)

	if !vec3AlmostEqual(rb.AngularVelocity(), mgl64.Vec3{0, 2, 0}, 1e-12) {
		t.Errorf("AngularVelocity() = %v, want (0, 2, 0)", rb.AngularVelocity())
	}
}

func TestIntegrate_RotationStaysNormalized(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewOBB(mgl64.Vec3{1, 0.5, 2}), BodyTypeDynamic, 1)
	rb.Material.SetAngularDrag(0)
	rb.SetAngularVelocity(mgl64.Vec3{3, 7, -2})

	for i := 0; i < 500; i++ {
		rb.Integrate(1.0/60.0, mgl64.Vec3{}, 0)
	}

	if !almostEqual(rb.Transform.Rotation.Len(), 1, 1e-9) {
		t.Errorf("|rotation| = %v, want 1", rb.Transform.Rotation.Len())
	}
}

func TestIntegrate_NonPositiveTimeStep(t *testing.T) {
	for _, dt := range []float64{0, -0.016} {
		rb := NewRigidBody(NewTransformAt(mgl64.Vec3{0, 5, 0}), NewSphere(1), BodyTypeDynamic, 1)
		rb.SetLinearVelocity(mgl64.Vec3{1, 0, 0})

		rb.Integrate(dt, mgl64.Vec3{0, -9.81, 0}, 1.2)

		if rb.Transform.Position != (mgl64.Vec3{0, 5, 0}) || rb.LinearVelocity() != (mgl64.Vec3{1, 0, 0}) {
			t.Errorf("dt=%v changed the body: x=%v v=%v", dt, rb.Transform.Position, rb.LinearVelocity())
		}
	}
}

// =============================================================================
// Sleep
// =============================================================================

func TestTrySleep(t *testing.T) {
	rb := NewRigidBody(NewTransform(), NewSphere(1), BodyTypeDynamic, 1)
	rb.SetLinearVelocity(mgl64.Vec3{0.01, 0, 0})

	rb.TrySleep(0.3, 0.5, 0.05)
	if rb.IsSleeping {
		t.Fatal("body asleep before the time threshold")
	}
	rb.TrySleep(0.3, 0.5, 0.05)
	if !rb.IsSleeping {
		t.Fatal("body should sleep after the time threshold")
	}
	if rb.LinearVelocity() != (mgl64.Vec3{}) {
		t.Errorf("LinearVelocity() = %v, a sleeping body is at rest", rb.LinearVelocity())
	}

	rb.AddForce(mgl64.Vec3{1, 0, 0})
	if rb.IsSleeping {
		t.Error("AddForce() should wake the body up")
	}
}

// Helper function to compare floats with epsilon tolerance
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// Helper function to compare Vec3 with epsilon tolerance
func vec3AlmostEqual(a, b mgl64.Vec3, epsilon float64) bool {
	return almostEqual(a.X(), b.X(), epsilon) &&
		almostEqual(a.Y(), b.Y(), epsilon) &&
		almostEqual(a.Z(), b.Z(), epsilon)
}
