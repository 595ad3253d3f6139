package impulse

import (
	"fmt"
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

var groundNormal = mgl64.Vec3{0, -1, 0}

// HeightField gives the terrain level (Y) under a horizontal position
type HeightField interface {
	LevelAt(x, z float64) float64
}

// FlatGround is an infinite horizontal plane
type FlatGround struct {
	Level float64
}

func (g FlatGround) LevelAt(x, z float64) float64 {
	return g.Level
}

// GridHeightField samples heights on a regular grid and interpolates them
// bilinearly. Outside the grid the border heights are extended.
type GridHeightField struct {
	// Origin is the (x, z) position of the first sample
	OriginX, OriginZ float64
	CellSize         float64
	Columns, Rows    int
	// Heights are stored row by row, Heights[row*Columns+column]
	Heights []float64
}

func NewGridHeightField(originX, originZ, cellSize float64, columns, rows int, heights []float64) (*GridHeightField, error) {
	if !(cellSize > 0) {
		return nil, fmt.Errorf("height field: invalid cell size %v", cellSize)
	}
	if columns < 1 || rows < 1 {
		return nil, fmt.Errorf("height field: invalid grid size %dx%d", columns, rows)
	}
	if len(heights) != columns*rows {
		return nil, fmt.Errorf("height field: %d heights for a %dx%d grid", len(heights), columns, rows)
	}

	return &GridHeightField{
		OriginX:  originX,
		OriginZ:  originZ,
		CellSize: cellSize,
		Columns:  columns,
		Rows:     rows,
		Heights:  heights,
	}, nil
}

func (g *GridHeightField) LevelAt(x, z float64) float64 {
	fx := clampRange((x-g.OriginX)/g.CellSize, 0, float64(g.Columns-1))
	fz := clampRange((z-g.OriginZ)/g.CellSize, 0, float64(g.Rows-1))

	c0, r0 := int(math.Floor(fx)), int(math.Floor(fz))
	c1, r1 := min(c0+1, g.Columns-1), min(r0+1, g.Rows-1)
	tx, tz := fx-float64(c0), fz-float64(r0)

	h00 := g.height(c0, r0)
	h10 := g.height(c1, r0)
	h01 := g.height(c0, r1)
	h11 := g.height(c1, r1)

	near := h00 + (h10-h00)*tx
	far := h01 + (h11-h01)*tx
	return near + (far-near)*tz
}

func (g *GridHeightField) height(column, row int) float64 {
	return g.Heights[row*g.Columns+column]
}

func clampRange(value, low, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}

// GroundManifold returns the contact of the body with the terrain, if any.
// Points and spheres test their lowest point, boxes the deepest of the 4
// bottom corners of their world AABB. The normal points down, toward the
// terrain, BodyB is nil.
func GroundManifold(body *actor.RigidBody, heightField HeightField) (constraint.ContactManifold, bool) {
	if body == nil || heightField == nil || !body.IsMovable() {
		return constraint.ContactManifold{}, false
	}

	position := body.Transform.Position
	aabb := body.AABB()

	var penetration float64
	switch body.Shape.Kind {
	case actor.ShapeKindPoint, actor.ShapeKindSphere:
		penetration = heightField.LevelAt(position.X(), position.Z()) - aabb.Min.Y()
	default:
		for _, corner := range aabb.BottomCorners() {
			penetration = math.Max(penetration, heightField.LevelAt(corner.X(), corner.Z())-corner.Y())
		}
	}
	if !(penetration > 0) {
		return constraint.ContactManifold{}, false
	}

	level := heightField.LevelAt(position.X(), position.Z())
	m := constraint.NewSurfaceManifold(body, actor.GroundSourceTerrain)
	m.AddContact(mgl64.Vec3{position.X(), level, position.Z()}, groundNormal, penetration)

	return m, true
}
