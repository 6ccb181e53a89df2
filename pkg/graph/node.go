package graph

import (
	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/kernel"
)

// NodeKind enumerates the types of nodes in the feature graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // box, cylinder, sphere
	NodeBoolean                   // union, subtract
	NodeFillet                    // rounded edges of a base solid
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeBoolean:
		return "boolean"
	case NodeFillet:
		return "fillet"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the feature graph.
type Node struct {
	ID       cad.SolidID `json:"id"`
	Kind     NodeKind    `json:"kind"`
	Data     NodeData    `json:"data"`
	Consumed bool        `json:"consumed"`

	// Solid is the realized backend solid, set when the node is inserted.
	Solid kernel.Solid `json:"-"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// Children returns the operand handles this node consumes, in order.
func (n *Node) Children() []cad.SolidID {
	switch d := n.Data.(type) {
	case BooleanData:
		return []cad.SolidID{d.A, d.B}
	case FilletData:
		return []cad.SolidID{d.Base}
	default:
		return nil
	}
}

// NewPrimitive returns a detached primitive node.
func NewPrimitive(d PrimitiveData) *Node {
	return &Node{Kind: NodePrimitive, Data: d}
}

// NewBoolean returns a detached boolean node combining a and b.
func NewBoolean(op cad.Operation, a, b cad.SolidID) *Node {
	return &Node{Kind: NodeBoolean, Data: BooleanData{Op: op, A: a, B: b}}
}

// NewFillet returns a detached fillet node over base.
func NewFillet(base cad.SolidID, radius float64, edges []cad.EdgeRef) *Node {
	return &Node{Kind: NodeFillet, Data: FilletData{Base: base, Radius: radius, Edges: edges}}
}
