package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_WORKERS  = 1
	DEFAULT_SUBSTEPS = 1

	// DefaultRestitutionThreshold is the approaching speed (m/s) under which contacts do not bounce
	DefaultRestitutionThreshold = 0.5

	DefaultCellSize  = 2.0
	DefaultNumCells  = 1024
	sleepTime        = 0.1  // s
	sleepingVelocity = 0.05 // m/s and rad/s
)

type World struct {
	// List of all rigid bodies in the world
	Bodies []*actor.RigidBody
	// Gravity acceleration (m/s², or N/kg)
	Gravity     mgl64.Vec3
	Substeps    int
	SpatialGrid *SpatialGrid
	Workers     int
	Solver      *constraint.Solver

	// Boundary is the half size of the world cube [-Boundary, Boundary]³, 0 disables the walls
	Boundary float64
	// Ground is the terrain under the bodies, nil for none
	Ground      HeightField
	Environment Environment
	// MultiPointManifolds clips box pairs into up to 4 contact points instead of 1
	MultiPointManifolds bool

	Events Events
}

// NewWorld creates a world with the gravity and the air of the environment
func NewWorld(environment Environment) *World {
	solver := constraint.NewSolver(constraint.DefaultVelocityIterations, constraint.DefaultPositionIterations)
	solver.RestitutionThreshold = DefaultRestitutionThreshold

	return &World{
		Gravity:     environment.GravityVector(solver.Up),
		Substeps:    DEFAULT_SUBSTEPS,
		SpatialGrid: NewSpatialGrid(DefaultCellSize, DefaultNumCells),
		Workers:     DEFAULT_WORKERS,
		Solver:      solver,
		Environment: environment,
		Events:      NewEvents(),
	}
}

func (w *World) AddBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)
}

// RemoveBody removes a rigid body from the world, keeping the order of the others
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k != -1 {
		w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
	}

	if w.Events.listeners != nil {
		w.Events.forget(body)
	}
}

// Step advances the world by dt seconds, split in Substeps. Events are sent
// once, after the last substep. A non-positive dt does nothing.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	w.ensureDefaults()
	h := dt / float64(w.Substeps)

	for i := 0; i < w.Substeps; i++ {
		w.integrate(h)
		w.updateGroundedState()

		manifolds := w.detectCollision()
		manifolds = w.Events.recordCollisions(manifolds)

		w.Solver.Solve(manifolds, h)

		w.collectImpacts()
		w.trySleep(h)
	}

	w.Events.processGroundedEvents(w.Bodies)
	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

func (w *World) ensureDefaults() {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	w.Substeps = max(DEFAULT_SUBSTEPS, w.Substeps)

	if w.SpatialGrid == nil {
		w.SpatialGrid = NewSpatialGrid(DefaultCellSize, DefaultNumCells)
	}
	if w.Solver == nil {
		w.Solver = constraint.NewSolver(constraint.DefaultVelocityIterations, constraint.DefaultPositionIterations)
		w.Solver.RestitutionThreshold = DefaultRestitutionThreshold
	}
	if w.Events.listeners == nil {
		w.Events = NewEvents()
	}
}

func (w *World) integrate(h float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.Integrate(h, w.Gravity, w.Environment.AirDensity)
	})
}

// updateGroundedState ticks the grace period of the awake bodies
func (w *World) updateGroundedState() {
	for _, body := range w.Bodies {
		if !body.IsSleeping {
			body.UpdateGroundedState()
		}
	}
}

// detectCollision returns the manifolds between bodies, in body index order,
// followed by the boundary and terrain manifolds.
func (w *World) detectCollision() []constraint.ContactManifold {
	contacts := NarrowPhase(BroadPhase(w.SpatialGrid, w.Bodies, w.Workers), w.Workers)

	manifolds := make([]constraint.ContactManifold, 0, len(contacts))
	for _, contact := range contacts {
		manifolds = append(manifolds, BuildManifold(contact, w.MultiPointManifolds))
	}

	for _, body := range w.Bodies {
		if body.IsSleeping || body.IsTrigger {
			continue
		}
		manifolds = append(manifolds, BoundaryManifolds(body, w.Boundary)...)
		if m, ok := GroundManifold(body, w.Ground); ok {
			manifolds = append(manifolds, m)
		}
	}

	return manifolds
}

// collectImpacts moves the impacts reported by the solver to the events,
// and refreshes the bounds of the bodies moved by the position pass.
func (w *World) collectImpacts() {
	for _, body := range w.Bodies {
		if force, ok := body.ConsumeImpact(); ok {
			w.Events.recordImpact(body, force)
		}
		if body.IsMovable() {
			body.UpdateAABB()
		}
	}
}

// trySleep sets the body to sleep if its velocity is lower than the threshold, for a given duration
// this method is too simple to use a task, it slows down in multiple goroutines
func (w *World) trySleep(h float64) {
	for _, body := range w.Bodies {
		if body.IsMovable() {
			body.TrySleep(h, sleepTime, sleepingVelocity)
		}
	}
}
