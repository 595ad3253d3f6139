package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic
)

// GroundSource tells what a grounded body is resting on
type GroundSource uint8

const (
	GroundSourceNone GroundSource = iota
	// GroundSourceTerrain is the height field under the world
	GroundSourceTerrain
	// GroundSourceBoundary is one of the walls of the world cube
	GroundSourceBoundary
	// GroundSourceBody is another (immovable) body
	GroundSourceBody
)

func (g GroundSource) String() string {
	switch g {
	case GroundSourceTerrain:
		return "terrain"
	case GroundSourceBoundary:
		return "boundary"
	case GroundSourceBody:
		return "body"
	}
	return "none"
}

// GroundedGraceSteps is the number of steps a body stays grounded after its
// last supporting contact.
const GroundedGraceSteps = 3

const (
	DefaultBounciness      = 0.5
	DefaultStickiness      = 0.5
	DefaultAngularDrag     = 0.1
	DefaultDragCoefficient = 0.47 // sphere
	dragSpeedEpsilon       = 1e-9
)

type Material struct {
	Density float64
	mass    float64
	// inverseMass is 0 for a null or infinite mass
	inverseMass float64

	// Surface is the cross-section area used by the air drag (m²)
	Surface         float64
	DragCoefficient float64

	angularDrag float64 // 0.0 - 1.0
	bounciness  float64 // 0= no rebound, 1= perfect restitution
	stickiness  float64 // 0= ice, 1= glue
}

// NewMaterial returns a material of the given mass with the default coefficients.
// A negative mass is read as 0.
func NewMaterial(mass float64) Material {
	m := Material{
		DragCoefficient: DefaultDragCoefficient,
		angularDrag:     DefaultAngularDrag,
		bounciness:      DefaultBounciness,
		stickiness:      DefaultStickiness,
	}
	if !m.SetMass(mass) {
		m.SetMass(0)
	}
	return m
}

func (material Material) GetMass() float64 {
	return material.mass
}

func (material Material) InverseMass() float64 {
	return material.inverseMass
}

// SetMass rejects negative and NaN masses. 0 and +Inf both give an inverse mass of 0.
func (material *Material) SetMass(mass float64) bool {
	if math.IsNaN(mass) || mass < 0 {
		return false
	}

	material.mass = mass
	if mass == 0 || math.IsInf(mass, 1) {
		material.inverseMass = 0
	} else {
		material.inverseMass = 1.0 / mass
	}
	return true
}

func (material Material) Bounciness() float64 {
	return material.bounciness
}

func (material *Material) SetBounciness(value float64) {
	material.bounciness = clampUnit(value)
}

func (material Material) Stickiness() float64 {
	return material.stickiness
}

func (material *Material) SetStickiness(value float64) {
	material.stickiness = clampUnit(value)
}

func (material Material) AngularDrag() float64 {
	return material.angularDrag
}

func (material *Material) SetAngularDrag(value float64) {
	material.angularDrag = clampUnit(value)
}

func clampUnit(value float64) float64 {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// Id is free for the caller, it is reported back in the events
	Id any

	// Spatial properties
	Transform Transform
	// CenterOfMass in the local frame
	CenterOfMass mgl64.Vec3

	linearVelocity  mgl64.Vec3 // m/s
	angularVelocity mgl64.Vec3 // rad/s

	inertiaLocal        mgl64.Mat3
	inverseInertiaLocal mgl64.Mat3
	inverseInertiaWorld mgl64.Mat3
	rotationEnabled     bool

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsTrigger  bool
	IsSleeping bool
	SleepTimer float64

	groundedSteps int
	groundSource  GroundSource
	groundBody    *RigidBody

	impactForce float64
	hasImpact   bool

	// Physical properties
	Material Material
	BodyType BodyType // Dynamic or Static

	// Collision shape
	Shape Shape
	aabb  AABB
}

// NewRigidBody creates a new rigid body with the given properties
// density is used to calculate mass for dynamic bodies (ignored for static)
func NewRigidBody(transform Transform, shape Shape, bodyType BodyType, density float64) *RigidBody {
	if transform.Rotation == (mgl64.Quat{}) {
		transform.SetRotation(mgl64.QuatIdent())
	}

	rb := &RigidBody{
		Transform: transform,
		Shape:     shape,
		BodyType:  bodyType,
	}
	volume := shape.Scaled(transform)

	if bodyType == BodyTypeStatic {
		// Static bodies have infinite mass
		rb.Material = NewMaterial(math.Inf(1))
	} else {
		// Dynamic bodies compute mass from the scaled shape and density
		rb.Material = NewMaterial(volume.ComputeMass(density))
		rb.Material.Density = density
		rb.Material.Surface = volume.CrossSection()
	}

	if bodyType == BodyTypeDynamic && rb.Material.mass > 0 {
		rb.SetInertia(volume.ComputeInertia(rb.Material.mass))
		rb.rotationEnabled = rb.inverseInertiaLocal != (mgl64.Mat3{})
	}
	rb.UpdateInverseWorldInertia()
	rb.UpdateAABB()

	return rb
}

func (rb *RigidBody) IsMovable() bool {
	return rb.BodyType == BodyTypeDynamic
}

func (rb *RigidBody) IsRotationEnabled() bool {
	return rb.rotationEnabled
}

func (rb *RigidBody) SetRotationEnabled(enabled bool) {
	rb.rotationEnabled = enabled
	if !enabled {
		rb.angularVelocity = mgl64.Vec3{}
	}
	rb.UpdateInverseWorldInertia()
}

func (rb *RigidBody) InverseMass() float64 {
	if !rb.IsMovable() {
		return 0
	}
	return rb.Material.inverseMass
}

// SetInertia sets the local inertia tensor. A tensor with a negative diagonal is rejected.
func (rb *RigidBody) SetInertia(inertia mgl64.Mat3) bool {
	if inertia.At(0, 0) < 0 || inertia.At(1, 1) < 0 || inertia.At(2, 2) < 0 {
		return false
	}

	rb.inertiaLocal = inertia
	if isDiagonal(inertia) {
		var inverse mgl64.Mat3
		for i := 0; i < 3; i++ {
			if d := inertia.At(i, i); d > 0 {
				inverse.Set(i, i, 1.0/d)
			}
		}
		rb.inverseInertiaLocal = inverse
	} else if det := inertia.Det(); det != 0 {
		rb.inverseInertiaLocal = inertia.Inv()
	} else {
		rb.inverseInertiaLocal = mgl64.Mat3{}
	}
	rb.UpdateInverseWorldInertia()

	return true
}

func (rb *RigidBody) InertiaLocal() mgl64.Mat3 {
	return rb.inertiaLocal
}

func isDiagonal(m mgl64.Mat3) bool {
	return m.At(0, 1) == 0 && m.At(0, 2) == 0 &&
		m.At(1, 0) == 0 && m.At(1, 2) == 0 &&
		m.At(2, 0) == 0 && m.At(2, 1) == 0
}

// UpdateInverseWorldInertia refreshes I_world^(-1) = R * I_local^(-1) * R^T.
// It must be called whenever the orientation changes.
func (rb *RigidBody) UpdateInverseWorldInertia() {
	if !rb.IsMovable() || !rb.rotationEnabled {
		rb.inverseInertiaWorld = mgl64.Mat3{}
		return
	}

	R := rb.Transform.RotationMatrix()
	rb.inverseInertiaWorld = R.Mul3(rb.inverseInertiaLocal).Mul3(R.Transpose())
}

// InverseWorldInertia returns the cached inverse inertia in world space, zero
// for immovable bodies or when the rotation is disabled.
func (rb *RigidBody) InverseWorldInertia() mgl64.Mat3 {
	return rb.inverseInertiaWorld
}

func (rb *RigidBody) LinearVelocity() mgl64.Vec3 {
	return rb.linearVelocity
}

func (rb *RigidBody) SetLinearVelocity(velocity mgl64.Vec3) {
	if !rb.IsMovable() {
		return
	}
	rb.linearVelocity = velocity
}

func (rb *RigidBody) AngularVelocity() mgl64.Vec3 {
	return rb.angularVelocity
}

func (rb *RigidBody) SetAngularVelocity(velocity mgl64.Vec3) {
	if !rb.IsMovable() || !rb.rotationEnabled {
		return
	}
	rb.angularVelocity = velocity
}

// ApplyLinearImpulse changes the velocity by impulse * inverseMass
func (rb *RigidBody) ApplyLinearImpulse(impulse mgl64.Vec3) {
	if !rb.IsMovable() {
		return
	}
	rb.linearVelocity = rb.linearVelocity.Add(impulse.Mul(rb.Material.inverseMass))
}

// ApplyAngularImpulse changes the angular velocity by I_world^(-1) * impulse
func (rb *RigidBody) ApplyAngularImpulse(impulse mgl64.Vec3) {
	if !rb.IsMovable() || !rb.rotationEnabled {
		return
	}
	rb.angularVelocity = rb.angularVelocity.Add(rb.inverseInertiaWorld.Mul3x1(impulse))
}

// WorldCenterOfMass returns the center of mass in world space
func (rb *RigidBody) WorldCenterOfMass() mgl64.Vec3 {
	return rb.Transform.ToWorld(rb.CenterOfMass)
}

// MoveFromPhysics translates the body without touching its velocity
func (rb *RigidBody) MoveFromPhysics(delta mgl64.Vec3) {
	if !rb.IsMovable() {
		return
	}
	rb.Transform.Position = rb.Transform.Position.Add(delta)
}

// SetRotation changes the orientation and refreshes the world inertia
func (rb *RigidBody) SetRotation(rotation mgl64.Quat) {
	rb.Transform.SetRotation(rotation)
	rb.UpdateInverseWorldInertia()
}

// SetGrounded marks the body as resting on source, for GroundedGraceSteps steps.
// other is the supporting body, nil for the terrain and the boundaries.
func (rb *RigidBody) SetGrounded(source GroundSource, other *RigidBody) {
	rb.groundedSteps = GroundedGraceSteps
	rb.groundSource = source
	rb.groundBody = other
}

// UpdateGroundedState consumes one step of the grace period
func (rb *RigidBody) UpdateGroundedState() {
	if rb.groundedSteps == 0 {
		return
	}

	rb.groundedSteps--
	if rb.groundedSteps == 0 {
		rb.groundSource = GroundSourceNone
		rb.groundBody = nil
	}
}

func (rb *RigidBody) IsGrounded() bool {
	return rb.groundedSteps > 0
}

func (rb *RigidBody) GroundSource() GroundSource {
	return rb.groundSource
}

func (rb *RigidBody) GroundBody() *RigidBody {
	return rb.groundBody
}

// OnCollision records the force of an impact (N). Only the strongest
// impact of the step is kept.
func (rb *RigidBody) OnCollision(force float64) {
	if !rb.hasImpact || force > rb.impactForce {
		rb.impactForce = force
	}
	rb.hasImpact = true
}

// ConsumeImpact returns the strongest impact since the last call
func (rb *RigidBody) ConsumeImpact() (float64, bool) {
	force, ok := rb.impactForce, rb.hasImpact
	rb.impactForce = 0
	rb.hasImpact = false

	return force, ok
}

func (rb *RigidBody) TrySleep(dt float64, timethreshold float64, velocityThreshold float64) {
	if rb.linearVelocity.Len() < velocityThreshold && rb.angularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timethreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0

	rb.ClearForces()
	rb.linearVelocity = mgl64.Vec3{}
	rb.angularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

// Integrate advances the body by dt: gravity, accumulated forces, quadratic air drag
// in a medium of the given density, angular drag and orientation.
func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3, airDensity float64) {
	if !rb.IsMovable() || rb.IsSleeping || dt <= 0 {
		return
	}

	invMass := rb.Material.inverseMass

	// Linear
	if invMass > 0 {
		acceleration := gravity.Add(rb.accumulatedForce.Mul(invMass))
		rb.linearVelocity = rb.linearVelocity.Add(acceleration.Mul(dt))

		// F = ½ρv²·Cd·A, opposite to the velocity
		speed := rb.linearVelocity.Len()
		if speed > dragSpeedEpsilon && airDensity > 0 && rb.Material.DragCoefficient > 0 && rb.Material.Surface > 0 {
			drag := 0.5 * airDensity * speed * speed * rb.Material.DragCoefficient * rb.Material.Surface
			deltaSpeed := math.Min(drag*invMass*dt, speed)
			rb.linearVelocity = rb.linearVelocity.Sub(rb.linearVelocity.Mul(deltaSpeed / speed))
		}
	}
	rb.Transform.Position = rb.Transform.Position.Add(rb.linearVelocity.Mul(dt))

	// Angular
	if rb.rotationEnabled {
		angularAccel := rb.inverseInertiaWorld.Mul3x1(rb.accumulatedTorque)
		rb.angularVelocity = rb.angularVelocity.Add(angularAccel.Mul(dt))
		rb.angularVelocity = rb.angularVelocity.Mul(1.0 - rb.Material.angularDrag)

		if rb.angularVelocity.Len() > 0 {
			omegaQuat := mgl64.Quat{V: rb.angularVelocity, W: 0}
			qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
			rb.SetRotation(rb.Transform.Rotation.Add(qDot.Scale(dt)))
		}
	}

	rb.ClearForces()
	rb.UpdateAABB()
}

// AddForce in N, applied at the center of mass during the next integration
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.IsMovable() {
		rb.Awake()

		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque in N⋅m
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.IsMovable() {
		rb.Awake()

		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// UpdateAABB recomputes the world bounding box from the current transform
func (rb *RigidBody) UpdateAABB() {
	rb.aabb = rb.Shape.ComputeAABB(rb.Transform)
}

func (rb *RigidBody) AABB() AABB {
	return rb.aabb
}
