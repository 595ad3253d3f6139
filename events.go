package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
)

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
	ON_IMPACT
	ON_GROUNDED
)

// pairKey identifies a body pair, in the order of the world body list
type pairKey struct {
	bodyA *actor.RigidBody
	bodyB *actor.RigidBody
}

type EventType uint8

// Event is implemented by every event sent to the listeners
type Event interface {
	Type() EventType
}

type TriggerEnterEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

type CollisionEnterEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// ImpactEvent reports the strongest contact force (N) a body took during a step
type ImpactEvent struct {
	Body  *actor.RigidBody
	Force float64
}

func (e ImpactEvent) Type() EventType { return ON_IMPACT }

// GroundedEvent is sent when a body starts resting on something.
// Other is nil when the support is the terrain or a boundary.
type GroundedEvent struct {
	Body   *actor.RigidBody
	Source actor.GroundSource
	Other  *actor.RigidBody
}

func (e GroundedEvent) Type() EventType { return ON_GROUNDED }

type EventListener func(event Event)

// Events buffers the events of a step and sends them to the listeners on flush
type Events struct {
	listeners map[EventType][]EventListener

	buffer []Event

	// Enter/Stay/Exit detection
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool

	sleepStates    map[*actor.RigidBody]bool
	groundedStates map[*actor.RigidBody]bool

	impacts     map[*actor.RigidBody]float64
	impactOrder []*actor.RigidBody
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
		sleepStates:         make(map[*actor.RigidBody]bool),
		groundedStates:      make(map[*actor.RigidBody]bool),
		impacts:             make(map[*actor.RigidBody]float64),
	}
}

func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordCollisions marks the body pairs as active and removes the manifolds
// involving a trigger, which are reported but never solved.
func (e *Events) recordCollisions(manifolds []constraint.ContactManifold) []constraint.ContactManifold {
	n := 0
	for _, m := range manifolds {
		if m.BodyA != nil && m.BodyB != nil {
			e.currentActivePairs[pairKey{bodyA: m.BodyA, bodyB: m.BodyB}] = true
		}

		if isTrigger(m.BodyA) || isTrigger(m.BodyB) {
			continue
		}
		manifolds[n] = m
		n++
	}

	return manifolds[:n]
}

func isTrigger(body *actor.RigidBody) bool {
	return body != nil && body.IsTrigger
}

// recordImpact keeps the strongest force per body until the next flush
func (e *Events) recordImpact(body *actor.RigidBody, force float64) {
	previous, ok := e.impacts[body]
	if !ok {
		e.impactOrder = append(e.impactOrder, body)
	}
	if !ok || force > previous {
		e.impacts[body] = force
	}
}

// processCollisionEvents compares the pairs of this step with the previous
// one to detect Enter/Stay/Exit.
func (e *Events) processCollisionEvents() {
	for pair := range e.currentActivePairs {
		// No Stay spam between two sleeping bodies
		if pair.bodyA.IsSleeping && pair.bodyB.IsSleeping {
			continue
		}

		trigger := pair.bodyA.IsTrigger || pair.bodyB.IsTrigger
		switch {
		case e.previousActivePairs[pair] && trigger:
			e.buffer = append(e.buffer, TriggerStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		case e.previousActivePairs[pair]:
			e.buffer = append(e.buffer, CollisionStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		case trigger:
			e.buffer = append(e.buffer, TriggerEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		default:
			e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	for pair := range e.previousActivePairs {
		if e.currentActivePairs[pair] {
			continue
		}

		if pair.bodyA.IsTrigger || pair.bodyB.IsTrigger {
			e.buffer = append(e.buffer, TriggerExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		} else {
			e.buffer = append(e.buffer, CollisionExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.IsSleeping
			continue
		}

		if !trackedState && body.IsSleeping {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
			e.sleepStates[body] = true
		} else if trackedState && !body.IsSleeping {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.sleepStates[body] = false
		}
	}
}

// processGroundedEvents reports the bodies that became grounded during the step
func (e *Events) processGroundedEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		grounded := body.IsGrounded()
		if grounded && !e.groundedStates[body] {
			e.buffer = append(e.buffer, GroundedEvent{Body: body, Source: body.GroundSource(), Other: body.GroundBody()})
		}
		e.groundedStates[body] = grounded
	}
}

func (e *Events) processImpactEvents() {
	for _, body := range e.impactOrder {
		e.buffer = append(e.buffer, ImpactEvent{Body: body, Force: e.impacts[body]})
	}
	clear(e.impacts)
	e.impactOrder = e.impactOrder[:0]
}

// forget drops everything tracked about a body removed from the world
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.sleepStates, body)
	delete(e.groundedStates, body)
	for pair := range e.previousActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.previousActivePairs, pair)
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processCollisionEvents()
	e.processImpactEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
