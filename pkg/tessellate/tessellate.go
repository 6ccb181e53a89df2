// Package tessellate realizes feature-graph nodes into backend solids and
// triangle meshes using a geometry kernel. Fillets are pushed down to the
// primitives that own their edges and built there as CSG.
package tessellate

import (
	"fmt"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
)

// filletSpec is one rounded edge waiting to be applied to its primitive.
type filletSpec struct {
	index  int
	radius float64
}

// pendingFillets maps owning primitives to the edges rounded above them.
type pendingFillets map[cad.SolidID][]filletSpec

func (p pendingFillets) push(d graph.FilletData) {
	for _, e := range d.Edges {
		p[e.Solid] = append(p[e.Solid], filletSpec{index: e.Index, radius: d.Radius})
	}
}

// Realize builds the backend solid for n. The node may be detached (not yet
// inserted); its operands are resolved through g. The graph is never
// mutated.
func Realize(g *graph.Graph, n *graph.Node, k kernel.Kernel) (kernel.Solid, error) {
	if n == nil {
		return nil, fmt.Errorf("tessellate: nil node")
	}
	return walkNode(g, k, n, pendingFillets{})
}

// walkNode recursively realizes a node and its operands.
func walkNode(g *graph.Graph, k kernel.Kernel, n *graph.Node, pending pendingFillets) (kernel.Solid, error) {
	// Without fillets from above, an inserted node's solid is final.
	if len(pending) == 0 && n.Solid != nil {
		return n.Solid, nil
	}

	switch n.Kind {
	case graph.NodePrimitive:
		return handlePrimitive(k, n, pending)
	case graph.NodeBoolean:
		return handleBoolean(g, k, n, pending)
	case graph.NodeFillet:
		return handleFillet(g, k, n, pending)
	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

func child(g *graph.Graph, id cad.SolidID) (*graph.Node, error) {
	c, err := g.Get(id)
	if err != nil {
		return nil, fmt.Errorf("tessellate: operand %s: %w", id, err)
	}
	return c, nil
}

// handleBoolean realizes both operands then combines them.
func handleBoolean(g *graph.Graph, k kernel.Kernel, n *graph.Node, pending pendingFillets) (kernel.Solid, error) {
	bd, ok := n.Data.(graph.BooleanData)
	if !ok {
		return nil, fmt.Errorf("boolean node %s has unexpected data type %T", n.ID, n.Data)
	}

	operands := make([]kernel.Solid, 0, 2)
	for _, id := range []cad.SolidID{bd.A, bd.B} {
		c, err := child(g, id)
		if err != nil {
			return nil, err
		}
		s, err := walkNode(g, k, c, pending)
		if err != nil {
			return nil, err
		}
		operands = append(operands, s)
	}

	switch bd.Op {
	case cad.OpUnion:
		return k.Union(operands[0], operands[1])
	case cad.OpSubtract:
		return k.Difference(operands[0], operands[1])
	default:
		return nil, fmt.Errorf("%w: boolean %q", cad.ErrUnsupportedOperation, bd.Op)
	}
}

// handleFillet records the rounded edges and realizes the base with them.
func handleFillet(g *graph.Graph, k kernel.Kernel, n *graph.Node, pending pendingFillets) (kernel.Solid, error) {
	fd, ok := n.Data.(graph.FilletData)
	if !ok {
		return nil, fmt.Errorf("fillet node %s has unexpected data type %T", n.ID, n.Data)
	}
	base, err := child(g, fd.Base)
	if err != nil {
		return nil, err
	}

	next := make(pendingFillets, len(pending)+1)
	for id, specs := range pending {
		next[id] = append([]filletSpec(nil), specs...)
	}
	next.push(fd)
	return walkNode(g, k, base, next)
}

// handlePrimitive builds the shape in its local frame, rounds any pending
// edges, then applies rotation first and translation second.
func handlePrimitive(k kernel.Kernel, n *graph.Node, pending pendingFillets) (kernel.Solid, error) {
	pd, ok := n.Data.(graph.PrimitiveData)
	if !ok {
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID, n.Data)
	}

	var (
		solid kernel.Solid
		err   error
	)
	switch pd.Shape {
	case cad.OpBox:
		solid, err = k.Box(pd.Size.X, pd.Size.Y, pd.Size.Z)
	case cad.OpCylinder:
		solid, err = k.Cylinder(pd.Height, pd.Radius)
	case cad.OpSphere:
		solid, err = k.Sphere(pd.Radius)
	default:
		return nil, fmt.Errorf("%w: primitive %q", cad.ErrUnsupportedOperation, pd.Shape)
	}
	if err != nil {
		return nil, err
	}

	if specs := pending[n.ID]; len(specs) > 0 && !n.ID.IsZero() {
		solid, err = roundEdges(k, solid, pd, specs)
		if err != nil {
			return nil, err
		}
	}

	rot := pd.Rotation
	if !rot.IsZero() {
		solid = k.Rotate(solid, rot.X, rot.Y, rot.Z)
	}
	if !pd.Position.IsZero() {
		solid = k.Translate(solid, pd.Position.X, pd.Position.Y, pd.Position.Z)
	}
	return solid, nil
}

// Tessellate converts a realized solid into a mesh labelled with its handle.
func Tessellate(k kernel.Kernel, s kernel.Solid, id cad.SolidID) (*kernel.Mesh, error) {
	mesh, err := k.ToMesh(s)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for node %s: %w", id, err)
	}
	mesh.Label = id.String()
	return mesh, nil
}
