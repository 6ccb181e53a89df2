package graph

import (
	"fmt"

	"github.com/chazu/kerf/pkg/cad"
)

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// PrimitiveData describes a box, cylinder or sphere in its local frame,
// placed by Rotation (Euler degrees, about the anchor) then Position.
//
// Box: Size holds width (X), height (Y) and depth (Z); the min corner is
// the anchor. Cylinder: Radius and Height; the base circle center is the
// anchor and the axis is local +Z. Sphere: Radius; the center is the anchor.
type PrimitiveData struct {
	Shape    cad.Operation `json:"shape"`
	Size     cad.Vec3      `json:"size,omitempty"`
	Radius   float64       `json:"radius,omitempty"`
	Height   float64       `json:"height,omitempty"`
	Position cad.Vec3      `json:"position"`
	Rotation cad.Vec3      `json:"rotation"`
}

func (PrimitiveData) nodeData() {}

// Check reports the first non-positive or non-finite dimension.
func (d PrimitiveData) Check() error {
	var dims []struct {
		name string
		v    float64
	}
	add := func(name string, v float64) {
		dims = append(dims, struct {
			name string
			v    float64
		}{name, v})
	}
	switch d.Shape {
	case cad.OpBox:
		add("width", d.Size.X)
		add("height", d.Size.Y)
		add("depth", d.Size.Z)
	case cad.OpCylinder:
		add("radius", d.Radius)
		add("height", d.Height)
	case cad.OpSphere:
		add("radius", d.Radius)
	default:
		return fmt.Errorf("%w: %q is not a primitive", cad.ErrUnsupportedOperation, d.Shape)
	}
	for _, dim := range dims {
		if !(dim.v > 0) || !finite(dim.v) {
			return fmt.Errorf("%w: %s %s is %g, must be positive", ErrInvalidDimension, d.Shape, dim.name, dim.v)
		}
	}
	if !d.Position.IsFinite() || !d.Rotation.IsFinite() {
		return fmt.Errorf("%w: %s placement is not finite", ErrInvalidDimension, d.Shape)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanData combines two operand solids. Op is cad.OpUnion or
// cad.OpSubtract (A minus B).
type BooleanData struct {
	Op cad.Operation `json:"op"`
	A  cad.SolidID   `json:"a"`
	B  cad.SolidID   `json:"b"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Fillet
// ---------------------------------------------------------------------------

// FilletData rounds Edges of Base with a constant Radius.
type FilletData struct {
	Base   cad.SolidID   `json:"base"`
	Radius float64       `json:"radius"`
	Edges  []cad.EdgeRef `json:"edges"`
}

func (FilletData) nodeData() {}
