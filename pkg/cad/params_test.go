package cad

import (
	"math"
	"testing"
)

func TestShapeParamsDefaults(t *testing.T) {
	var p ShapeParams
	if !p.IsEmpty() {
		t.Fatal("IsEmpty() = false for zero value, want true")
	}
	if got := p.WidthOr(1); got != 1 {
		t.Errorf("WidthOr(1) = %g, want 1", got)
	}
	if got := p.RadiusOr(0.5); got != 0.5 {
		t.Errorf("RadiusOr(0.5) = %g, want 0.5", got)
	}
	if got := p.PositionOr(); !got.IsZero() {
		t.Errorf("PositionOr() = %v, want origin", got)
	}
	if got := p.RotationOr(); !got.IsZero() {
		t.Errorf("RotationOr() = %v, want identity", got)
	}
}

func TestShapeParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  ShapeParams
		wantErr bool
	}{
		{"empty", ShapeParams{}, false},
		{"dims", ShapeParams{Width: Float(1), Height: Float(2), Depth: Float(3)}, false},
		{"zero width", ShapeParams{Width: Float(0)}, false},
		{"negative radius", ShapeParams{Radius: Float(-1)}, true},
		{"nan height", ShapeParams{Height: Float(math.NaN())}, true},
		{"inf depth", ShapeParams{Depth: Float(math.Inf(1))}, true},
		{"inf position", ShapeParams{Position: &Vec3{X: math.Inf(-1)}}, true},
		{"negative edge", ShapeParams{Edges: []int{0, -2}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShapeParamsString(t *testing.T) {
	p := ShapeParams{Width: Float(10), Height: Float(20), Depth: Float(30)}
	want := `{"width":10,"height":20,"depth":30}`
	if got := p.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
	if got := (ShapeParams{}).String(); got != "{}" {
		t.Errorf("String() of empty = %s, want {}", got)
	}
}

func TestShapeParamsFields(t *testing.T) {
	p := ShapeParams{Radius: Float(2), Height: Float(5)}
	if got := p.Fields(); got != "height=5 radius=2" {
		t.Errorf("Fields() = %q, want %q", got, "height=5 radius=2")
	}
}
