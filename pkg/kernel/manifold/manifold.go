//go:build manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library (https://github.com/elalish/manifold). Manifold provides
// guaranteed-manifold mesh boolean operations.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/chazu/kerf/pkg/kernel"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*ManifoldKernel)(nil)
var _ kernel.Solid = (*manifoldSolid)(nil)

const backendName = "manifold"

// DefaultSegments is the number of facets used for curved surfaces.
const DefaultSegments = 64

// manifoldSolid wraps a C ManifoldManifold pointer and implements kernel.Solid.
type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

// BoundingBox returns the axis-aligned bounding box of the solid.
func (s *manifoldSolid) BoundingBox() (min, max [3]float64) {
	alloc := C.manifold_alloc_box()
	bbox := C.manifold_bounding_box(alloc, s.ptr)
	defer C.manifold_delete_box(bbox)

	min[0] = float64(C.manifold_box_min_x(bbox))
	min[1] = float64(C.manifold_box_min_y(bbox))
	min[2] = float64(C.manifold_box_min_z(bbox))
	max[0] = float64(C.manifold_box_max_x(bbox))
	max[1] = float64(C.manifold_box_max_y(bbox))
	max[2] = float64(C.manifold_box_max_z(bbox))
	return min, max
}

// newSolid wraps a C ManifoldManifold pointer with a Go-side finalizer and
// reports Manifold's status as a construction error.
func newSolid(op string, ptr *C.ManifoldManifold) (*manifoldSolid, error) {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	if status := C.manifold_status(ptr); status != 0 {
		return nil, kernel.Construction(backendName, op, fmt.Errorf("manifold status %d", int(status)))
	}
	return s, nil
}

func solidOf(s kernel.Solid) (*manifoldSolid, error) {
	ms, ok := s.(*manifoldSolid)
	if !ok || ms == nil {
		return nil, fmt.Errorf("%w: solid %T does not belong to the manifold kernel", kernel.ErrInvalidGeometry, s)
	}
	return ms, nil
}

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
type ManifoldKernel struct {
	segments int
}

// New creates a new ManifoldKernel using segments facets for curved
// surfaces (DefaultSegments when segments <= 0).
func New(segments int) (kernel.Kernel, error) {
	if segments <= 0 {
		segments = DefaultSegments
	}
	return &ManifoldKernel{segments: segments}, nil
}

// Name returns "manifold".
func (k *ManifoldKernel) Name() string { return backendName }

// Box creates an axis-aligned box with its minimum corner at the origin.
func (k *ManifoldKernel) Box(x, y, z float64) (kernel.Solid, error) {
	if err := kernel.CheckPositive("box", x, y, z); err != nil {
		return nil, kernel.Construction(backendName, "cube", err)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cube(alloc,
		C.double(x), C.double(y), C.double(z),
		C.int(0), // center=false
	)
	return newSolid("cube", ptr)
}

// Cylinder creates a cylinder along +Z with its base on the origin.
func (k *ManifoldKernel) Cylinder(height, radius float64) (kernel.Solid, error) {
	if err := kernel.CheckPositive("cylinder", height, radius); err != nil {
		return nil, kernel.Construction(backendName, "cylinder", err)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cylinder(alloc,
		C.double(height),
		C.double(radius), // radius_low
		C.double(radius), // radius_high (same = not tapered)
		C.int(k.segments),
		C.int(0), // center=false
	)
	return newSolid("cylinder", ptr)
}

// Sphere creates a sphere centered on the origin.
func (k *ManifoldKernel) Sphere(radius float64) (kernel.Solid, error) {
	if err := kernel.CheckPositive("sphere", radius); err != nil {
		return nil, kernel.Construction(backendName, "sphere", err)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_sphere(alloc, C.double(radius), C.int(k.segments))
	return newSolid("sphere", ptr)
}

// Torus revolves a circular profile around the Z axis.
func (k *ManifoldKernel) Torus(major, minor float64) (kernel.Solid, error) {
	if err := kernel.CheckPositive("torus minor radius", minor); err != nil {
		return nil, kernel.Construction(backendName, "revolve", err)
	}
	if major < 0 {
		return nil, kernel.Construction(backendName, "revolve",
			fmt.Errorf("%w: torus major radius must be non-negative, got %g", kernel.ErrInvalidGeometry, major))
	}

	n := k.segments
	pts := (*[1 << 20]C.ManifoldVec2)(C.malloc(C.size_t(n) * C.size_t(unsafe.Sizeof(C.ManifoldVec2{}))))[:n:n]
	defer C.free(unsafe.Pointer(&pts[0]))
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		// Revolve requires the profile on the +X side; clamp at the axis.
		x := math.Max(major+minor*math.Cos(theta), 0)
		pts[i] = C.ManifoldVec2{x: C.double(x), y: C.double(minor * math.Sin(theta))}
	}

	simple := C.manifold_simple_polygon(C.manifold_alloc_simple_polygon(), &pts[0], C.size_t(n))
	defer C.manifold_delete_simple_polygon(simple)

	polys := C.manifold_polygons(C.manifold_alloc_polygons(), &simple, 1)
	defer C.manifold_delete_polygons(polys)

	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_revolve(alloc, polys, C.int(k.segments), C.double(360))
	return newSolid("revolve", ptr)
}

// Union returns the boolean union of two solids.
func (k *ManifoldKernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	sa, err := solidOf(a)
	if err != nil {
		return nil, kernel.Construction(backendName, "union", err)
	}
	sb, err := solidOf(b)
	if err != nil {
		return nil, kernel.Construction(backendName, "union", err)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_union(alloc, sa.ptr, sb.ptr)
	return newSolid("union", ptr)
}

// Difference returns the boolean difference (a minus b).
func (k *ManifoldKernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	sa, err := solidOf(a)
	if err != nil {
		return nil, kernel.Construction(backendName, "difference", err)
	}
	sb, err := solidOf(b)
	if err != nil {
		return nil, kernel.Construction(backendName, "difference", err)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_difference(alloc, sa.ptr, sb.ptr)
	return newSolid("difference", ptr)
}

// Translate moves the solid by (x, y, z).
func (k *ManifoldKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ms := s.(*manifoldSolid)
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_translate(alloc, ms.ptr,
		C.double(x), C.double(y), C.double(z),
	)
	out, _ := newSolid("translate", ptr)
	return out
}

// Rotate rotates the solid by Euler angles (in degrees) around the X, Y, Z axes.
func (k *ManifoldKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ms := s.(*manifoldSolid)
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_rotate(alloc, ms.ptr,
		C.double(x), C.double(y), C.double(z),
	)
	out, _ := newSolid("rotate", ptr)
	return out
}

// ToMesh extracts a triangle mesh from the solid using Manifold's MeshGL
// format. Vertex positions and normals are interleaved in MeshGL; this
// method separates them into the kernel.Mesh flat-array layout.
func (k *ManifoldKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	ms, err := solidOf(s)
	if err != nil {
		return nil, err
	}

	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_get_meshgl(meshAlloc, ms.ptr)
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))

	if numVert == 0 || numTri == 0 {
		return &kernel.Mesh{}, nil
	}

	// The first 3 properties are position; normals follow at 3..5 when present.
	numProp := int(C.manifold_meshgl_num_prop(meshGL))

	propData := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties(
		(*C.float)(unsafe.Pointer(&propData[0])),
		meshGL,
	)

	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts(
		(*C.uint32_t)(unsafe.Pointer(&indices[0])),
		meshGL,
	)

	vertices := make([]float32, numVert*3)
	var normals []float32
	hasNormals := numProp >= 6
	if hasNormals {
		normals = make([]float32, numVert*3)
	}

	for i := 0; i < numVert; i++ {
		base := i * numProp
		vertices[i*3+0] = propData[base+0]
		vertices[i*3+1] = propData[base+1]
		vertices[i*3+2] = propData[base+2]
		if hasNormals {
			normals[i*3+0] = propData[base+3]
			normals[i*3+1] = propData[base+4]
			normals[i*3+2] = propData[base+5]
		}
	}

	mesh := &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}
	if !hasNormals {
		mesh.SmoothNormals()
	}

	if mesh.VertexCount() != numVert {
		return nil, fmt.Errorf("manifold: vertex count mismatch: got %d, expected %d",
			mesh.VertexCount(), numVert)
	}

	return mesh, nil
}
