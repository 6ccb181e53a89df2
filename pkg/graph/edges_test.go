package graph

import (
	"errors"
	"testing"

	"github.com/chazu/kerf/pkg/cad"
)

func TestBoxEdgeGeometry(t *testing.T) {
	d := box(1, 2, 3)
	tests := []struct {
		index int
		axis  Axis
		high  [2]bool
	}{
		{0, AxisX, [2]bool{false, false}},
		{1, AxisX, [2]bool{true, false}},
		{2, AxisX, [2]bool{false, true}},
		{3, AxisX, [2]bool{true, true}},
		{4, AxisY, [2]bool{false, false}},
		{7, AxisY, [2]bool{true, true}},
		{9, AxisZ, [2]bool{true, false}},
		{11, AxisZ, [2]bool{true, true}},
	}
	for _, tt := range tests {
		e, err := d.Geometry(tt.index)
		if err != nil {
			t.Fatalf("Geometry(%d) error = %v", tt.index, err)
		}
		if e.Kind != EdgeLine || e.Axis != tt.axis || e.High != tt.high {
			t.Errorf("Geometry(%d) = %+v, want line along %d high %v", tt.index, e, tt.axis, tt.high)
		}
	}
}

func TestCylinderEdgeGeometry(t *testing.T) {
	d := cylinder(1, 2)
	bottom, _ := d.Geometry(0)
	top, _ := d.Geometry(1)
	if bottom.Kind != EdgeCircle || bottom.High[0] {
		t.Errorf("Geometry(0) = %+v, want bottom rim", bottom)
	}
	if top.Kind != EdgeCircle || !top.High[0] {
		t.Errorf("Geometry(1) = %+v, want top rim", top)
	}
	if _, err := d.Geometry(2); !errors.Is(err, ErrEdgeNotInSolid) {
		t.Errorf("Geometry(2) error = %v, want ErrEdgeNotInSolid", err)
	}
	if _, err := sphere(1).Geometry(0); !errors.Is(err, ErrEdgeNotInSolid) {
		t.Errorf("sphere Geometry(0) error = %v, want ErrEdgeNotInSolid", err)
	}
}

func TestMaxFillet(t *testing.T) {
	tests := []struct {
		name      string
		data      PrimitiveData
		index     int
		limit     float64
		exclusive bool
	}{
		{"box along X", box(10, 2, 6), 0, 1, false},
		{"box along Y", box(10, 2, 6), 4, 3, false},
		{"box along Z", box(10, 2, 6), 8, 1, false},
		{"squat cylinder", cylinder(5, 2), 1, 1, false},
		{"tall cylinder", cylinder(1, 10), 0, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, exclusive, err := tt.data.MaxFillet(tt.index)
			if err != nil {
				t.Fatalf("MaxFillet(%d) error = %v", tt.index, err)
			}
			if limit != tt.limit || exclusive != tt.exclusive {
				t.Errorf("MaxFillet(%d) = %g, %v, want %g, %v", tt.index, limit, exclusive, tt.limit, tt.exclusive)
			}
		})
	}
}

func TestCheckFilletRadius(t *testing.T) {
	b := box(2, 2, 2)
	if err := b.CheckFilletRadius(0, 1); err != nil {
		t.Errorf("radius at bound: error = %v, want nil", err)
	}
	if err := b.CheckFilletRadius(0, 1.01); !errors.Is(err, ErrFilletTooLarge) {
		t.Errorf("radius over bound: error = %v, want ErrFilletTooLarge", err)
	}
	c := cylinder(1, 10)
	if err := c.CheckFilletRadius(1, 0.99); err != nil {
		t.Errorf("cylinder radius under bound: error = %v", err)
	}
}

func TestEdgeCount(t *testing.T) {
	for op, want := range map[cad.Operation]int{
		cad.OpBox: 12, cad.OpCylinder: 2, cad.OpSphere: 0, cad.OpUnion: 0,
	} {
		if got := EdgeCount(op); got != want {
			t.Errorf("EdgeCount(%s) = %d, want %d", op, got, want)
		}
	}
}
