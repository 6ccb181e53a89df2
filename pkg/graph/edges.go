package graph

import (
	"fmt"
	"math"

	"github.com/chazu/kerf/pkg/cad"
)

// EdgeKind distinguishes straight box edges from circular cylinder rims.
type EdgeKind int

const (
	EdgeLine EdgeKind = iota
	EdgeCircle
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeLine:
		return "line"
	case EdgeCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// Axis indexes a local coordinate axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// EdgeGeom locates one primitive edge in the primitive's local frame.
//
// Line edges run along Axis; High reports, for each of the two remaining
// axes in ascending order, whether the edge sits on the far face. Circle
// edges are cylinder rims; High[0] selects the top rim.
type EdgeGeom struct {
	Kind EdgeKind
	Axis Axis
	High [2]bool
}

// Box edge layout: 0-3 run along X, 4-7 along Y, 8-11 along Z. Within a
// group, bit 0 picks the far face on the lower remaining axis and bit 1 on
// the higher one.
const (
	boxEdgeCount      = 12
	cylinderEdgeCount = 2
)

// EdgeCount returns the number of edges a primitive shape owns.
func EdgeCount(shape cad.Operation) int {
	switch shape {
	case cad.OpBox:
		return boxEdgeCount
	case cad.OpCylinder:
		return cylinderEdgeCount
	default:
		return 0
	}
}

// Geometry returns the local-frame description of edge i of a primitive.
func (d PrimitiveData) Geometry(i int) (EdgeGeom, error) {
	if i < 0 || i >= EdgeCount(d.Shape) {
		return EdgeGeom{}, fmt.Errorf("%w: %s has no edge %d", ErrEdgeNotInSolid, d.Shape, i)
	}
	if d.Shape == cad.OpCylinder {
		return EdgeGeom{Kind: EdgeCircle, Axis: AxisZ, High: [2]bool{i == 1}}, nil
	}
	j := i % 4
	return EdgeGeom{
		Kind: EdgeLine,
		Axis: Axis(i / 4),
		High: [2]bool{j&1 == 1, j&2 == 2},
	}, nil
}

// MaxFillet returns the largest radius edge i accepts and whether the bound
// itself is excluded.
func (d PrimitiveData) MaxFillet(i int) (limit float64, exclusive bool, err error) {
	e, err := d.Geometry(i)
	if err != nil {
		return 0, false, err
	}
	if e.Kind == EdgeCircle {
		// The rim must leave a flat cap and may use at most half the wall.
		if d.Radius <= d.Height/2 {
			return d.Radius, true, nil
		}
		return d.Height / 2, false, nil
	}
	ext := [3]float64{d.Size.X, d.Size.Y, d.Size.Z}
	var adj []float64
	for a := AxisX; a <= AxisZ; a++ {
		if a != e.Axis {
			adj = append(adj, ext[a])
		}
	}
	return math.Min(adj[0], adj[1]) / 2, false, nil
}

// CheckFilletRadius reports whether edge i of d can take radius r.
func (d PrimitiveData) CheckFilletRadius(i int, r float64) error {
	if !(r > 0) || !finite(r) {
		return fmt.Errorf("%w: fillet radius is %g, must be positive", ErrInvalidDimension, r)
	}
	limit, exclusive, err := d.MaxFillet(i)
	if err != nil {
		return err
	}
	if r > limit || (exclusive && r >= limit) {
		return fmt.Errorf("%w: radius %g exceeds %g on %s edge %d", ErrFilletTooLarge, r, limit, d.Shape, i)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
