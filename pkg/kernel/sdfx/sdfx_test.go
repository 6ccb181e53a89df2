package sdfx

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
)

// testCells keeps marching cubes cheap; the tests check topology-free
// properties only.
const testCells = 48

// mustSolid returns a checker that takes a constructor's results directly:
// mustSolid(t)(k.Box(1, 2, 3)).
func mustSolid(t *testing.T) func(kernel.Solid, error) kernel.Solid {
	t.Helper()
	return func(s kernel.Solid, err error) kernel.Solid {
		t.Helper()
		if err != nil {
			t.Fatalf("construction failed: %v", err)
		}
		return s
	}
}

func checkBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], wantMax[i])
		}
	}
}

func TestBox(t *testing.T) {
	k := New(WithMeshCells(testCells))
	box := mustSolid(t)(k.Box(100, 50, 25))
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
}

func TestBoxMinCornerAtOrigin(t *testing.T) {
	k := New()
	box := mustSolid(t)(k.Box(100, 50, 25))
	checkBounds(t, box, [3]float64{0, 0, 0}, [3]float64{100, 50, 25}, 0.01)
}

func TestBoxRejectsNonPositive(t *testing.T) {
	k := New()
	_, err := k.Box(1, 0, 1)
	var ce *kernel.ConstructionError
	if !errors.As(err, &ce) {
		t.Fatalf("Box(1, 0, 1) error = %v, want ConstructionError", err)
	}
	if !errors.Is(err, kernel.ErrInvalidGeometry) {
		t.Errorf("Box(1, 0, 1) error = %v, want ErrInvalidGeometry", err)
	}
}

func TestCylinderBaseAtOrigin(t *testing.T) {
	k := New()
	cyl := mustSolid(t)(k.Cylinder(5, 2))
	checkBounds(t, cyl, [3]float64{-2, -2, 0}, [3]float64{2, 2, 5}, 0.01)
}

func TestSphereCentered(t *testing.T) {
	k := New()
	s := mustSolid(t)(k.Sphere(3))
	checkBounds(t, s, [3]float64{-3, -3, -3}, [3]float64{3, 3, 3}, 0.01)
}

func TestTorus(t *testing.T) {
	k := New()
	tor := mustSolid(t)(k.Torus(4, 1))
	checkBounds(t, tor, [3]float64{-5, -5, -1}, [3]float64{5, 5, 1}, 0.05)

	if _, err := k.Torus(4, 0); err == nil {
		t.Error("Torus(4, 0) error = nil, want error")
	}
}

func TestDifference(t *testing.T) {
	k := New(WithMeshCells(testCells))

	box := mustSolid(t)(k.Box(100, 100, 100))
	boxMesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh(box) failed: %v", err)
	}

	cyl := k.Translate(mustSolid(t)(k.Cylinder(120, 20)), 50, 50, -10)
	diff := mustSolid(t)(k.Difference(box, cyl))
	diffMesh, err := k.ToMesh(diff)
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	if diffMesh.IsEmpty() {
		t.Fatal("difference mesh is empty")
	}
	// A box with a hole should have more triangles than a plain box.
	if diffMesh.TriangleCount() <= boxMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			diffMesh.TriangleCount(), boxMesh.TriangleCount())
	}
}

func TestUnionBounds(t *testing.T) {
	k := New()
	box1 := mustSolid(t)(k.Box(50, 50, 50))
	box2 := k.Translate(mustSolid(t)(k.Box(50, 50, 50)), 30, 0, 0)
	u := mustSolid(t)(k.Union(box1, box2))
	checkBounds(t, u, [3]float64{0, 0, 0}, [3]float64{80, 50, 50}, 0.01)
}

func TestTranslate(t *testing.T) {
	k := New()
	box := mustSolid(t)(k.Box(10, 10, 10))
	translated := k.Translate(box, 100, 200, 300)
	checkBounds(t, translated, [3]float64{100, 200, 300}, [3]float64{110, 210, 310}, 0.5)
}

func TestRotate(t *testing.T) {
	k := New()
	box := mustSolid(t)(k.Box(100, 10, 10))

	// A long box along X rotated 90 degrees around Z should extend along Y instead.
	rotated := k.Rotate(box, 0, 0, 90)
	min, max := rotated.BoundingBox()

	xExtent := max[0] - min[0]
	yExtent := max[1] - min[1]

	const tol = 1.0
	if math.Abs(xExtent-10) > tol {
		t.Errorf("rotated X extent = %f, expected ~10", xExtent)
	}
	if math.Abs(yExtent-100) > tol {
		t.Errorf("rotated Y extent = %f, expected ~100", yExtent)
	}
}

func TestForeignSolidRejected(t *testing.T) {
	k := New()
	box := mustSolid(t)(k.Box(1, 1, 1))
	if _, err := k.Union(box, foreignSolid{}); err == nil {
		t.Fatal("Union with foreign solid error = nil, want error")
	}
}

func TestGuardRecoversPanic(t *testing.T) {
	s, err := guard("Explode3D", func() (sdf.SDF3, error) {
		panic("bad profile")
	})
	if s != nil {
		t.Errorf("guard() solid = %v, want nil", s)
	}
	var ce *kernel.ConstructionError
	if !errors.As(err, &ce) {
		t.Fatalf("guard() error = %v, want ConstructionError", err)
	}
	if ce.Op != "Explode3D" {
		t.Errorf("ConstructionError.Op = %q, want %q", ce.Op, "Explode3D")
	}
}

type foreignSolid struct{}

func (foreignSolid) BoundingBox() (min, max [3]float64) { return min, max }

func TestWriteSTL(t *testing.T) {
	k := New(WithMeshCells(16))
	box := mustSolid(t)(k.Box(1, 1, 1))
	path := filepath.Join(t.TempDir(), "box.stl")
	if err := k.WriteSTL(box, path); err != nil {
		t.Fatalf("WriteSTL() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Error("STL file is empty")
	}
}
