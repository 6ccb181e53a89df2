// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx, manifold) provide the low-level constructive solid
// geometry surface; higher-level features such as fillets are composed from
// it by the tessellate package.
package kernel

import (
	"errors"
	"fmt"
)

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
//
// Placement conventions are fixed so that backends are interchangeable:
// Box has its minimum corner at the origin, Cylinder has its base circle
// centered on the origin and extends along +Z, Sphere and Torus are centered
// on the origin (the torus lies in the XY plane).
type Kernel interface {
	// Name identifies the backend in logs.
	Name() string

	// Primitives
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)
	Sphere(radius float64) (Solid, error)
	Torus(major, minor float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) (Solid, error)
	Difference(a, b Solid) (Solid, error)

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// ErrInvalidGeometry marks a construction request the kernel rejects
// outright, such as a non-positive dimension.
var ErrInvalidGeometry = errors.New("kernel: invalid geometry")

// ConstructionError reports a kernel-level construction failure.
type ConstructionError struct {
	Backend string // kernel backend name
	Op      string // constructor or boolean that failed
	Err     error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// Construction wraps err as a ConstructionError for backend and op.
func Construction(backend, op string, err error) error {
	return &ConstructionError{Backend: backend, Op: op, Err: err}
}

// CheckPositive returns an ErrInvalidGeometry-wrapped error when any value
// is not strictly positive. Backends call it before touching native code.
func CheckPositive(op string, vals ...float64) error {
	for i, v := range vals {
		if !(v > 0) {
			return fmt.Errorf("%w: %s argument %d must be positive, got %g", ErrInvalidGeometry, op, i, v)
		}
	}
	return nil
}

// STLWriter is implemented by backends that can export a solid directly to
// an STL file.
type STLWriter interface {
	WriteSTL(s Solid, path string) error
}
