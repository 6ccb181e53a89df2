// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// backendName is reported in logs and construction errors.
const backendName = "sdfx"

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	meshCells int
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution along the longest axis.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n > 0 {
			k.meshCells = n
		}
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{meshCells: DefaultMeshCells}
	for _, o := range opts {
		o(k)
	}
	return k
}

// Name returns "sdfx".
func (k *SdfxKernel) Name() string { return backendName }

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) (sdf.SDF3, error) {
	ss, ok := s.(*sdfxSolid)
	if !ok || ss == nil {
		return nil, fmt.Errorf("%w: solid %T does not belong to the sdfx kernel", kernel.ErrInvalidGeometry, s)
	}
	return ss.s, nil
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// guard runs fn and converts both returned errors and panics raised inside
// sdfx into kernel.ConstructionError values.
func guard(op string, fn func() (sdf.SDF3, error)) (s kernel.Solid, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = kernel.Construction(backendName, op, fmt.Errorf("panic: %v", r))
			s = nil
		}
	}()
	out, err := fn()
	if err != nil {
		return nil, kernel.Construction(backendName, op, err)
	}
	return wrap(out), nil
}

// Box creates a box with the given dimensions. The resulting solid has its
// minimum corner at the origin (0,0,0) so that a position anchors the
// corner, not the center. sdf.Box3D centers the box at the origin, so we
// translate by half-dimensions.
func (k *SdfxKernel) Box(x, y, z float64) (kernel.Solid, error) {
	return guard("Box3D", func() (sdf.SDF3, error) {
		if err := kernel.CheckPositive("box", x, y, z); err != nil {
			return nil, err
		}
		s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
		if err != nil {
			return nil, err
		}
		// Shift from center-origin to min-corner-origin.
		m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
		return sdf.Transform3D(s, m), nil
	})
}

// Cylinder creates a cylinder along +Z whose base circle is centered on the
// origin. sdf.Cylinder3D is centered, so it is lifted by half its height.
func (k *SdfxKernel) Cylinder(height, radius float64) (kernel.Solid, error) {
	return guard("Cylinder3D", func() (sdf.SDF3, error) {
		if err := kernel.CheckPositive("cylinder", height, radius); err != nil {
			return nil, err
		}
		s, err := sdf.Cylinder3D(height, radius, 0)
		if err != nil {
			return nil, err
		}
		return sdf.Transform3D(s, sdf.Translate3d(v3.Vec{Z: height / 2})), nil
	})
}

// Sphere creates a sphere centered on the origin.
func (k *SdfxKernel) Sphere(radius float64) (kernel.Solid, error) {
	return guard("Sphere3D", func() (sdf.SDF3, error) {
		if err := kernel.CheckPositive("sphere", radius); err != nil {
			return nil, err
		}
		return sdf.Sphere3D(radius)
	})
}

// Torus creates a torus in the XY plane by revolving a circle of radius
// minor, offset by major from the Z axis.
func (k *SdfxKernel) Torus(major, minor float64) (kernel.Solid, error) {
	return guard("Revolve3D", func() (sdf.SDF3, error) {
		if err := kernel.CheckPositive("torus minor radius", minor); err != nil {
			return nil, err
		}
		if major < 0 {
			return nil, fmt.Errorf("%w: torus major radius must be non-negative, got %g", kernel.ErrInvalidGeometry, major)
		}
		c, err := sdf.Circle2D(minor)
		if err != nil {
			return nil, err
		}
		profile := sdf.Transform2D(c, sdf.Translate2d(v2.Vec{X: major}))
		return sdf.Revolve3D(profile)
	})
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) (kernel.Solid, error) {
	return guard("Union3D", func() (sdf.SDF3, error) {
		sa, err := unwrap(a)
		if err != nil {
			return nil, err
		}
		sb, err := unwrap(b)
		if err != nil {
			return nil, err
		}
		return sdf.Union3D(sa, sb), nil
	})
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	return guard("Difference3D", func() (sdf.SDF3, error) {
		sa, err := unwrap(a)
		if err != nil {
			return nil, err
		}
		sb, err := unwrap(b)
		if err != nil {
			return nil, err
		}
		return sdf.Difference3D(sa, sb), nil
	})
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(s.(*sdfxSolid).s, m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(s.(*sdfxSolid).s, m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (mesh *kernel.Mesh, err error) {
	sdf3, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			mesh = nil
			err = kernel.Construction(backendName, "ToTriangles", fmt.Errorf("panic: %v", r))
		}
	}()

	renderer := render.NewMarchingCubesUniform(k.meshCells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// WriteSTL renders a solid to an STL file at path.
func (k *SdfxKernel) WriteSTL(s kernel.Solid, path string) (err error) {
	sdf3, err := unwrap(s)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = kernel.Construction(backendName, "ToSTL", fmt.Errorf("panic: %v", r))
		}
	}()
	render.ToSTL(sdf3, path, render.NewMarchingCubesUniform(k.meshCells))
	return nil
}
