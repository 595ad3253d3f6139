package main

import (
	"flag"
	"fmt"

	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collide"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactDebugger prints what the world sees at each step
type ContactDebugger interface {
	DebugContact(bodyA, bodyB *actor.RigidBody)
	DebugBody(step int, body *actor.RigidBody)
	DebugEvent(event impulse.Event)
}

type SimpleDebugger struct{}

func (d *SimpleDebugger) DebugContact(bodyA, bodyB *actor.RigidBody) {
	result, ok := collide.Detect(bodyA.Shape, bodyA.Transform, bodyB.Shape, bodyB.Transform)
	if !ok {
		return
	}

	fmt.Printf("Contact %v / %v:\n", bodyA.Shape.Kind, bodyB.Shape.Kind)
	fmt.Printf("   Normal: %v\n", result.Normal)
	fmt.Printf("   Depth: %.6f\n", result.Depth)
	fmt.Printf("   MTV: %v\n", result.MTV())
}

func (d *SimpleDebugger) DebugBody(step int, body *actor.RigidBody) {
	fmt.Printf("Step %d: %v\n", step, body.Id)
	fmt.Printf("   Position: %v\n", body.Transform.Position)
	fmt.Printf("   Rotation: %v\n", body.Transform.Rotation)
	fmt.Printf("   Velocity: %v (|v|=%.4f)\n", body.LinearVelocity(), body.LinearVelocity().Len())
	fmt.Printf("   Angular:  %v\n", body.AngularVelocity())
	fmt.Printf("   Grounded: %v (%v), sleeping: %v\n", body.IsGrounded(), body.GroundSource(), body.IsSleeping)
}

func (d *SimpleDebugger) DebugEvent(event impulse.Event) {
	switch e := event.(type) {
	case impulse.CollisionEnterEvent:
		fmt.Printf("   >> collision enter %v / %v\n", e.BodyA.Id, e.BodyB.Id)
	case impulse.CollisionExitEvent:
		fmt.Printf("   >> collision exit %v / %v\n", e.BodyA.Id, e.BodyB.Id)
	case impulse.ImpactEvent:
		fmt.Printf("   >> impact %v: %.2f N\n", e.Body.Id, e.Force)
	case impulse.GroundedEvent:
		fmt.Printf("   >> grounded %v on %v\n", e.Body.Id, e.Source)
	case impulse.SleepEvent:
		fmt.Printf("   >> sleep %v\n", e.Body.Id)
	case impulse.WakeEvent:
		fmt.Printf("   >> wake %v\n", e.Body.Id)
	}
}

// SetupScene creates a static floor and a tilted cube above it
func SetupScene(multiPoint bool, debugger ContactDebugger) (*impulse.World, *actor.RigidBody, *actor.RigidBody) {
	world := impulse.NewWorld(impulse.Earth())
	world.Substeps = 4
	world.MultiPointManifolds = multiPoint
	world.Boundary = 20

	floor := actor.NewRigidBody(actor.NewTransform(), actor.NewOBB(mgl64.Vec3{10, 0.5, 10}), actor.BodyTypeStatic, 0)
	floor.Id = "floor"
	world.AddBody(floor)

	cubeTransform := actor.NewTransformAt(mgl64.Vec3{-5.0, 5.0, -5.0})
	cubeTransform.SetRotation(mgl64.QuatRotate(mgl64.DegToRad(30), mgl64.Vec3{0, 0, 1}))
	cube := actor.NewRigidBody(cubeTransform, actor.NewOBB(mgl64.Vec3{1.5, 1.5, 1.5}), actor.BodyTypeDynamic, 1.0)
	cube.Id = "cube"
	cube.Material.SetBounciness(0.8)
	world.AddBody(cube)

	for _, eventType := range []impulse.EventType{
		impulse.COLLISION_ENTER, impulse.COLLISION_EXIT, impulse.ON_IMPACT,
		impulse.ON_GROUNDED, impulse.ON_SLEEP, impulse.ON_WAKE,
	} {
		world.Events.Subscribe(eventType, debugger.DebugEvent)
	}

	return world, floor, cube
}

func main() {
	steps := flag.Int("steps", 200, "number of steps to simulate")
	multiPoint := flag.Bool("multipoint", true, "clip box contacts into up to 4 points")
	flag.Parse()

	fmt.Println("Integration test: cube falling on a floor")
	fmt.Println("=========================================")

	debugger := &SimpleDebugger{}
	world, floor, cube := SetupScene(*multiPoint, debugger)

	const dt float64 = 1.0 / 60.0
	for step := 0; step < *steps; step++ {
		debugger.DebugContact(floor, cube)

		world.Step(dt)

		debugger.DebugBody(step, cube)
		fmt.Println()

		if cube.IsSleeping {
			break
		}
	}

	fmt.Println("Done!")
}
