package tessellate

import (
	"fmt"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
)

// roundEdges applies fillets to a primitive in its local frame. Every edge
// first has its material removed; the rounding pieces are added afterwards
// so one edge's notch never cuts another edge's round.
func roundEdges(k kernel.Kernel, s kernel.Solid, pd graph.PrimitiveData, specs []filletSpec) (kernel.Solid, error) {
	var adds []kernel.Solid
	for _, fs := range specs {
		e, err := pd.Geometry(fs.index)
		if err != nil {
			return nil, err
		}
		if err := pd.CheckFilletRadius(fs.index, fs.radius); err != nil {
			return nil, err
		}

		var cut, add kernel.Solid
		switch e.Kind {
		case graph.EdgeLine:
			cut, add, err = lineFillet(k, pd.Size, e, fs.radius)
		case graph.EdgeCircle:
			cut, add, err = rimFillet(k, pd.Radius, pd.Height, e.High[0], fs.radius)
		default:
			err = fmt.Errorf("tessellate: unknown edge kind %v", e.Kind)
		}
		if err != nil {
			return nil, err
		}

		s, err = k.Difference(s, cut)
		if err != nil {
			return nil, err
		}
		adds = append(adds, add)
	}

	for _, a := range adds {
		var err error
		s, err = k.Union(s, a)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// lineFillet returns the r x r notch along a box edge and the radius-r rod
// whose quarter fills it back in.
func lineFillet(k kernel.Kernel, size cad.Vec3, e graph.EdgeGeom, r float64) (cut, add kernel.Solid, err error) {
	ext := [3]float64{size.X, size.Y, size.Z}

	// The two axes across the edge, ascending.
	var across [2]graph.Axis
	i := 0
	for a := graph.AxisX; a <= graph.AxisZ; a++ {
		if a != e.Axis {
			across[i] = a
			i++
		}
	}

	var notchSize, notchAt, rodAt [3]float64
	notchSize[e.Axis] = ext[e.Axis]
	for j, a := range across {
		notchSize[a] = r
		if e.High[j] {
			notchAt[a] = ext[a] - r
			rodAt[a] = ext[a] - r
		} else {
			rodAt[a] = r
		}
	}

	cut, err = k.Box(notchSize[0], notchSize[1], notchSize[2])
	if err != nil {
		return nil, nil, err
	}
	cut = k.Translate(cut, notchAt[0], notchAt[1], notchAt[2])

	add, err = k.Cylinder(ext[e.Axis], r)
	if err != nil {
		return nil, nil, err
	}
	// Cylinders grow along +Z; turn them onto the edge axis.
	switch e.Axis {
	case graph.AxisX:
		add = k.Rotate(add, 0, 90, 0)
	case graph.AxisY:
		add = k.Rotate(add, -90, 0, 0)
	}
	add = k.Translate(add, rodAt[0], rodAt[1], rodAt[2])
	return cut, add, nil
}

// rimFillet returns the r-wide annular band around a cylinder rim and the
// torus that rounds it.
func rimFillet(k kernel.Kernel, radius, height float64, top bool, r float64) (cut, add kernel.Solid, err error) {
	outer, err := k.Cylinder(r, radius)
	if err != nil {
		return nil, nil, err
	}
	inner, err := k.Cylinder(r, radius-r)
	if err != nil {
		return nil, nil, err
	}
	band, err := k.Difference(outer, inner)
	if err != nil {
		return nil, nil, err
	}
	torus, err := k.Torus(radius-r, r)
	if err != nil {
		return nil, nil, err
	}

	if top {
		band = k.Translate(band, 0, 0, height-r)
		torus = k.Translate(torus, 0, 0, height-r)
	} else {
		torus = k.Translate(torus, 0, 0, r)
	}
	return band, torus, nil
}
