package impulse

import (
	"math"
	"sort"
	"sync"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell lists the indices of the bodies overlapping it
type Cell struct {
	members []int
}

// Pair is a couple of bodies whose bounding boxes overlap.
// IndexA is always lower than IndexB.
type Pair struct {
	IndexA int
	IndexB int
	BodyA  *actor.RigidBody
	BodyB  *actor.RigidBody
}

// SpatialGrid is a uniform grid hashed into a fixed number of cells,
// used by the broad phase.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	mask     int
}

// NewSpatialGrid creates a grid of numCells cells (rounded up to a power of 2)
// of cellSize meters.
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	if !(cellSize > 0) {
		cellSize = 1
	}
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].members = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		mask:     numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds the body index to every cell covered by its AABB
func (sg *SpatialGrid) Insert(bodyIndex int, body *actor.RigidBody) {
	sg.forEachCell(body.AABB(), func(cellIdx int) {
		sg.cells[cellIdx].members = append(sg.cells[cellIdx].members, bodyIndex)
	})
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].members = sg.cells[i].members[:0]
	}
}

// SortCells orders the indices in each cell, so that pairs come out in a stable order
func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].members) > 1 {
			sort.Ints(sg.cells[i].members)
		}
	}
}

// FindPairs returns the overlapping pairs, sorted by (IndexA, IndexB)
func (sg *SpatialGrid) FindPairs(bodies []*actor.RigidBody) []Pair {
	pairs := make([]Pair, 0, len(bodies)/2)
	visited := make([]bool, len(bodies))

	for bodyIdx := range bodies {
		pairs = sg.appendPairs(pairs, bodies, bodyIdx, visited)
	}

	return pairs
}

// FindPairsParallel splits the bodies between numWorkers goroutines and
// streams the pairs. The order of the pairs on the channel is not stable.
func (sg *SpatialGrid) FindPairsParallel(bodies []*actor.RigidBody, numWorkers int) <-chan Pair {
	numWorkers = max(numWorkers, 1)

	var wg sync.WaitGroup
	out := make(chan Pair, numWorkers*10)

	bodiesPerWorker := max(len(bodies)/numWorkers, 1)

	for w := 0; w < numWorkers; w++ {
		startIdx := min(w*bodiesPerWorker, len(bodies))
		endIdx := min(startIdx+bodiesPerWorker, len(bodies))
		if w == numWorkers-1 {
			endIdx = len(bodies)
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			visited := make([]bool, len(bodies))
			pairs := make([]Pair, 0, 8)
			for bodyIdx := start; bodyIdx < end; bodyIdx++ {
				pairs = sg.appendPairs(pairs[:0], bodies, bodyIdx, visited)
				for _, pair := range pairs {
					out <- pair
				}
			}
		}(startIdx, endIdx)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// appendPairs adds the pairs (bodyIdx, other) with other > bodyIdx.
// visited is scratch memory of len(bodies), left cleared on return.
func (sg *SpatialGrid) appendPairs(pairs []Pair, bodies []*actor.RigidBody, bodyIdx int, visited []bool) []Pair {
	bodyA := bodies[bodyIdx]
	aabbA := bodyA.AABB()
	first := len(pairs)

	sg.forEachCell(aabbA, func(cellIdx int) {
		for _, otherIdx := range sg.cells[cellIdx].members {
			// (A,B) only, never (B,A) or twice the same pair
			if otherIdx <= bodyIdx || visited[otherIdx] {
				continue
			}
			visited[otherIdx] = true

			bodyB := bodies[otherIdx]
			if !bodyA.IsMovable() && !bodyB.IsMovable() {
				continue
			}
			if bodyA.IsSleeping && bodyB.IsSleeping {
				continue
			}
			if aabbA.Overlaps(bodyB.AABB()) {
				pairs = append(pairs, Pair{IndexA: bodyIdx, IndexB: otherIdx, BodyA: bodyA, BodyB: bodyB})
			}
		}
	})

	sg.forEachCell(aabbA, func(cellIdx int) {
		for _, otherIdx := range sg.cells[cellIdx].members {
			visited[otherIdx] = false
		}
	})

	found := pairs[first:]
	sort.Slice(found, func(i, j int) bool {
		return found[i].IndexB < found[j].IndexB
	})

	return pairs
}

// forEachCell calls fn for the hashed cells covered by the AABB. A body
// covering more grid cells than there are buckets visits every bucket once.
func (sg *SpatialGrid) forEachCell(aabb actor.AABB, fn func(cellIdx int)) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	if sg.coversAllCells(minCell, maxCell) {
		for i := range sg.cells {
			fn(i)
		}
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(sg.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

func (sg *SpatialGrid) coversAllCells(minCell, maxCell CellKey) bool {
	n := len(sg.cells)
	count := 1
	for _, span := range [3]int{maxCell.X - minCell.X + 1, maxCell.Y - minCell.Y + 1, maxCell.Z - minCell.Z + 1} {
		if span <= 0 || span >= n {
			return true
		}
		count *= span
		if count >= n {
			return true
		}
	}
	return false
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.mask
}
