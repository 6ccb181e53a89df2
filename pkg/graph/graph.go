package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/kernel"
)

var (
	ErrUnknownSolid     = errors.New("graph: unknown solid")
	ErrStaleSolid       = errors.New("graph: solid belongs to a torn-down session")
	ErrSolidConsumed    = errors.New("graph: solid already consumed")
	ErrSelfOperand      = errors.New("graph: solid used twice in one operation")
	ErrInvalidDimension = errors.New("graph: invalid dimension")
	ErrEmptyEdgeSet     = errors.New("graph: empty edge set")
	ErrEdgeNotInSolid   = errors.New("graph: edge not in solid")
	ErrDuplicateEdge    = errors.New("graph: duplicate edge")
	ErrFilletTooLarge   = errors.New("graph: fillet radius too large")
)

// Graph is the arena of solids produced by one kernel session. Handles
// index into it; index 0 is reserved so the zero SolidID never resolves.
// All methods are safe for concurrent use.
type Graph struct {
	mu    sync.RWMutex
	epoch uint32
	nodes []*Node
}

// New creates an empty arena for the given session epoch.
func New(epoch uint32) *Graph {
	return &Graph{
		epoch: epoch,
		nodes: make([]*Node, 1),
	}
}

// Epoch returns the session generation this arena belongs to.
func (g *Graph) Epoch() uint32 {
	return g.epoch
}

// NodeCount returns the total number of nodes, consumed or not.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes) - 1
}

// Get returns the node for id without checking consumption. Reads such as
// meshing and edge listing go through Get.
func (g *Graph) Get(id cad.SolidID) (*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.get(id)
}

func (g *Graph) get(id cad.SolidID) (*Node, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSolid, id)
	}
	if id.Epoch != g.epoch {
		return nil, fmt.Errorf("%w: %s (current epoch %d)", ErrStaleSolid, id, g.epoch)
	}
	if int(id.Index) >= len(g.nodes) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSolid, id)
	}
	return g.nodes[id.Index], nil
}

// Operand returns the node for id if it may still be consumed.
func (g *Graph) Operand(id cad.SolidID) (*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.operand(id)
}

func (g *Graph) operand(id cad.SolidID) (*Node, error) {
	n, err := g.get(id)
	if err != nil {
		return nil, err
	}
	if n.Consumed {
		return nil, fmt.Errorf("%w: %s", ErrSolidConsumed, id)
	}
	return n, nil
}

// Check validates a detached node against the arena: operands exist and
// are unconsumed, primitive dimensions are positive, fillet edges belong
// to the base and admit the radius.
func (g *Graph) Check(n *Node) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.check(n)
}

func (g *Graph) check(n *Node) error {
	switch d := n.Data.(type) {
	case PrimitiveData:
		return d.Check()
	case BooleanData:
		if d.Op != cad.OpUnion && d.Op != cad.OpSubtract {
			return fmt.Errorf("%w: %q is not a boolean", cad.ErrUnsupportedOperation, d.Op)
		}
		if d.A == d.B {
			return fmt.Errorf("%w: %s", ErrSelfOperand, d.A)
		}
		if _, err := g.operand(d.A); err != nil {
			return err
		}
		_, err := g.operand(d.B)
		return err
	case FilletData:
		if _, err := g.operand(d.Base); err != nil {
			return err
		}
		return g.checkFillet(d)
	default:
		return fmt.Errorf("graph: unsupported node data %T", n.Data)
	}
}

func (g *Graph) checkFillet(d FilletData) error {
	if len(d.Edges) == 0 {
		return ErrEmptyEdgeSet
	}
	avail, err := g.edges(d.Base)
	if err != nil {
		return err
	}
	present := make(map[cad.EdgeRef]bool, len(avail))
	for _, e := range avail {
		present[e] = true
	}
	seen := make(map[cad.EdgeRef]bool, len(d.Edges))
	for _, e := range d.Edges {
		if seen[e] {
			return fmt.Errorf("%w: %s", ErrDuplicateEdge, e)
		}
		seen[e] = true
		if !present[e] {
			return fmt.Errorf("%w: %s is not an edge of %s", ErrEdgeNotInSolid, e, d.Base)
		}
		owner, err := g.primitive(e.Solid)
		if err != nil {
			return err
		}
		if err := owner.CheckFilletRadius(e.Index, d.Radius); err != nil {
			return err
		}
	}
	return nil
}

// Insert checks n, consumes its operands and appends it to the arena with
// its realized solid. On error nothing is consumed.
func (g *Graph) Insert(n *Node, solid kernel.Solid) (cad.SolidID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.check(n); err != nil {
		return cad.SolidID{}, err
	}
	for _, c := range n.Children() {
		g.nodes[c.Index].Consumed = true
	}
	n.ID = cad.SolidID{Epoch: g.epoch, Index: uint32(len(g.nodes))}
	n.Solid = solid
	g.nodes = append(g.nodes, n)
	return n.ID, nil
}

// Mark returns a position that Rollback can return the arena to.
func (g *Graph) Mark() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Rollback drops every node inserted after mark and releases the operands
// they consumed. Handles of dropped nodes must not have been handed out.
func (g *Graph) Rollback(mark int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if mark < 1 || mark >= len(g.nodes) {
		return
	}
	for _, n := range g.nodes[mark:] {
		for _, c := range n.Children() {
			if int(c.Index) < mark {
				g.nodes[c.Index].Consumed = false
			}
		}
	}
	clear(g.nodes[mark:])
	g.nodes = g.nodes[:mark]
}

// Primitive returns the primitive data of a primitive node.
func (g *Graph) Primitive(id cad.SolidID) (PrimitiveData, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.primitive(id)
}

func (g *Graph) primitive(id cad.SolidID) (PrimitiveData, error) {
	n, err := g.get(id)
	if err != nil {
		return PrimitiveData{}, err
	}
	d, ok := n.Data.(PrimitiveData)
	if !ok {
		return PrimitiveData{}, fmt.Errorf("graph: %s is a %s, not a primitive", id, n.Kind)
	}
	return d, nil
}

// Edges returns the current edge set of a solid. Primitive edges keep the
// identity of the primitive that created them through booleans; fillets
// remove the edges they round.
func (g *Graph) Edges(id cad.SolidID) ([]cad.EdgeRef, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges(id)
}

func (g *Graph) edges(id cad.SolidID) ([]cad.EdgeRef, error) {
	n, err := g.get(id)
	if err != nil {
		return nil, err
	}
	switch d := n.Data.(type) {
	case PrimitiveData:
		count := EdgeCount(d.Shape)
		out := make([]cad.EdgeRef, count)
		for i := range out {
			out[i] = cad.EdgeRef{Solid: id, Index: i}
		}
		return out, nil
	case BooleanData:
		a, err := g.edges(d.A)
		if err != nil {
			return nil, err
		}
		b, err := g.edges(d.B)
		if err != nil {
			return nil, err
		}
		return append(a, b...), nil
	case FilletData:
		base, err := g.edges(d.Base)
		if err != nil {
			return nil, err
		}
		rounded := make(map[cad.EdgeRef]bool, len(d.Edges))
		for _, e := range d.Edges {
			rounded[e] = true
		}
		out := base[:0]
		for _, e := range base {
			if !rounded[e] {
				out = append(out, e)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("graph: unsupported node data %T", n.Data)
	}
}

// Live returns the handles of all unconsumed nodes in insertion order.
func (g *Graph) Live() []cad.SolidID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var ids []cad.SolidID
	for _, n := range g.nodes[1:] {
		if !n.Consumed {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Nodes returns a snapshot of every node in insertion order.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, len(g.nodes)-1)
	copy(out, g.nodes[1:])
	return out
}
