package impulse

import (
	"sort"
	"sync"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collide"
	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/manifold"
)

// Contact is a pair of bodies found intersecting by the narrow phase
type Contact struct {
	Pair
	Result collide.Result
}

// BroadPhase inserts the bodies in the grid and streams the pairs whose
// AABBs overlap.
func BroadPhase(spatialGrid *SpatialGrid, bodies []*actor.RigidBody, workersCount int) <-chan Pair {
	spatialGrid.Clear()
	for i, body := range bodies {
		spatialGrid.Insert(i, body)
	}
	spatialGrid.SortCells()

	return spatialGrid.FindPairsParallel(bodies, workersCount)
}

// NarrowPhase runs the exact intersection tests on workersCount goroutines.
// The contacts are sorted by (IndexA, IndexB) so that the solver always
// receives them in the same order.
func NarrowPhase(pairs <-chan Pair, workersCount int) []Contact {
	workersCount = max(workersCount, 1)
	contactsChan := make(chan Contact, workersCount*2)

	go func() {
		var wg sync.WaitGroup
		defer close(contactsChan)

		for i := 0; i < workersCount; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				for pair := range pairs {
					a, b := pair.BodyA, pair.BodyB
					if result, ok := collide.Detect(a.Shape, a.Transform, b.Shape, b.Transform); ok {
						contactsChan <- Contact{Pair: pair, Result: result}
					}
				}
			}()
		}
		wg.Wait()
	}()

	contacts := make([]Contact, 0)
	for contact := range contactsChan {
		contacts = append(contacts, contact)
	}
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].IndexA != contacts[j].IndexA {
			return contacts[i].IndexA < contacts[j].IndexA
		}
		return contacts[i].IndexB < contacts[j].IndexB
	})

	return contacts
}

// BuildManifold turns a contact into a manifold. By default it holds a single
// point: the surface of A toward B for two spheres, the midpoint of the two
// positions otherwise. With multiPoint, box pairs are clipped into up to 4
// points instead.
func BuildManifold(contact Contact, multiPoint bool) constraint.ContactManifold {
	a, b := contact.BodyA, contact.BodyB
	normal := contact.Result.Normal
	m := constraint.NewManifold(a, b)

	if multiPoint && a.Shape.IsBox() && b.Shape.IsBox() {
		for _, point := range manifold.Generate(a.Shape, a.Transform, b.Shape, b.Transform, normal) {
			m.AddContact(point.Position, normal, point.Depth)
		}
		if m.HasContacts() {
			return m
		}
	}

	position := a.Transform.Position.Add(b.Transform.Position).Mul(0.5)
	if a.Shape.Kind == actor.ShapeKindSphere && b.Shape.Kind == actor.ShapeKindSphere {
		position = a.Transform.Position.Add(normal.Mul(a.Shape.WorldRadius(a.Transform)))
	}
	m.AddContact(position, normal, contact.Result.Depth)

	return m
}
