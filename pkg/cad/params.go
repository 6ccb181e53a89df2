package cad

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ShapeParams is a sparse parameter record. Nil fields are absent and take
// operation-specific defaults at execution time.
type ShapeParams struct {
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Depth    *float64 `json:"depth,omitempty"`
	Radius   *float64 `json:"radius,omitempty"`
	Position *Vec3    `json:"position,omitempty"`
	Rotation *Vec3    `json:"rotation,omitempty"` // Euler angles in degrees

	// Edges selects fillet edges by index into the operand's edge list.
	// Nil means every edge.
	Edges []int `json:"edges,omitempty"`
}

// Float returns a pointer to v, for building ShapeParams literals.
func Float(v float64) *float64 {
	return &v
}

// IsEmpty reports whether no field is set.
func (p ShapeParams) IsEmpty() bool {
	return p.Width == nil && p.Height == nil && p.Depth == nil && p.Radius == nil &&
		p.Position == nil && p.Rotation == nil && p.Edges == nil
}

// WidthOr returns the width or def when absent.
func (p ShapeParams) WidthOr(def float64) float64 { return orDefault(p.Width, def) }

// HeightOr returns the height or def when absent.
func (p ShapeParams) HeightOr(def float64) float64 { return orDefault(p.Height, def) }

// DepthOr returns the depth or def when absent.
func (p ShapeParams) DepthOr(def float64) float64 { return orDefault(p.Depth, def) }

// RadiusOr returns the radius or def when absent.
func (p ShapeParams) RadiusOr(def float64) float64 { return orDefault(p.Radius, def) }

// PositionOr returns the position, defaulting to the origin.
func (p ShapeParams) PositionOr() Vec3 {
	if p.Position == nil {
		return Vec3{}
	}
	return *p.Position
}

// RotationOr returns the rotation, defaulting to identity.
func (p ShapeParams) RotationOr() Vec3 {
	if p.Rotation == nil {
		return Vec3{}
	}
	return *p.Rotation
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Validate checks that every present field is finite and that dimensions
// and radius are non-negative.
func (p ShapeParams) Validate() error {
	dims := []struct {
		name string
		v    *float64
	}{
		{"width", p.Width},
		{"height", p.Height},
		{"depth", p.Depth},
		{"radius", p.Radius},
	}
	for _, d := range dims {
		if d.v == nil {
			continue
		}
		if !isFinite(*d.v) {
			return fmt.Errorf("params: %s is not finite", d.name)
		}
		if *d.v < 0 {
			return fmt.Errorf("params: %s must be non-negative, got %g", d.name, *d.v)
		}
	}
	if p.Position != nil && !p.Position.IsFinite() {
		return fmt.Errorf("params: position %s is not finite", p.Position)
	}
	if p.Rotation != nil && !p.Rotation.IsFinite() {
		return fmt.Errorf("params: rotation %s is not finite", p.Rotation)
	}
	for _, e := range p.Edges {
		if e < 0 {
			return fmt.Errorf("params: edge index must be non-negative, got %d", e)
		}
	}
	return nil
}

// String serializes the present fields as JSON, e.g. {"width":10}.
func (p ShapeParams) String() string {
	b, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Fields returns "name=value" pairs for the present numeric fields, sorted
// by name. Used for compact log lines.
func (p ShapeParams) Fields() string {
	m := map[string]*float64{
		"width":  p.Width,
		"height": p.Height,
		"depth":  p.Depth,
		"radius": p.Radius,
	}
	var parts []string
	for k, v := range m {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=%g", k, *v))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
