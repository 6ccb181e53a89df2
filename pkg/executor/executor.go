// Package executor dispatches typed CAD commands to a kernel session.
// Every successful operation allocates one node in the session's arena and
// returns its handle; failed operations leave the arena untouched.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/graph"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/session"
	"github.com/chazu/kerf/pkg/tessellate"
)

// ErrMissingOperands is returned when a boolean or fillet is requested
// without the solids it operates on.
var ErrMissingOperands = errors.New("executor: operation needs operand solids")

// Primitive defaults applied when a parameter is absent.
const (
	DefaultBoxSize        = 1.0
	DefaultCylinderRadius = 0.5
	DefaultCylinderHeight = 1.0
	DefaultSphereRadius   = 0.5
	DefaultFilletRadius   = 1.0
)

// Executor runs commands against one session.
type Executor struct {
	session *session.Session
	logger  *slog.Logger
}

// New returns an Executor bound to s. A nil logger discards output.
func New(s *session.Session, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{session: s, logger: logger}
}

// Session returns the session the executor is bound to.
func (e *Executor) Session() *session.Session { return e.session }

// ExecuteOperation creates a primitive from params. Booleans and fillets
// need operands and are rejected here with ErrMissingOperands.
func (e *Executor) ExecuteOperation(ctx context.Context, op cad.Operation, params cad.ShapeParams) (cad.SolidID, error) {
	if err := params.Validate(); err != nil {
		return cad.SolidID{}, fmt.Errorf("executor: %s: %w", op, err)
	}

	data := graph.PrimitiveData{
		Shape:    op,
		Position: params.PositionOr(),
		Rotation: params.RotationOr(),
	}
	switch op {
	case cad.OpBox:
		data.Size = cad.Vec3{
			X: params.WidthOr(DefaultBoxSize),
			Y: params.HeightOr(DefaultBoxSize),
			Z: params.DepthOr(DefaultBoxSize),
		}
	case cad.OpCylinder:
		data.Radius = params.RadiusOr(DefaultCylinderRadius)
		data.Height = params.HeightOr(DefaultCylinderHeight)
	case cad.OpSphere:
		data.Radius = params.RadiusOr(DefaultSphereRadius)
	case cad.OpUnion, cad.OpSubtract, cad.OpFillet:
		return cad.SolidID{}, fmt.Errorf("%w: %s", ErrMissingOperands, op)
	default:
		return cad.SolidID{}, fmt.Errorf("%w: %q", cad.ErrUnsupportedOperation, op)
	}

	return e.build(ctx, graph.NewPrimitive(data))
}

// Union fuses a and b into a new solid. Both operands are consumed.
func (e *Executor) Union(ctx context.Context, a, b cad.SolidID) (cad.SolidID, error) {
	return e.build(ctx, graph.NewBoolean(cad.OpUnion, a, b))
}

// Subtract removes b from a. Both operands are consumed.
func (e *Executor) Subtract(ctx context.Context, a, b cad.SolidID) (cad.SolidID, error) {
	return e.build(ctx, graph.NewBoolean(cad.OpSubtract, a, b))
}

// Fillet rounds edges of solid with a constant radius. The solid is
// consumed.
func (e *Executor) Fillet(ctx context.Context, solid cad.SolidID, radius float64, edges []cad.EdgeRef) (cad.SolidID, error) {
	return e.build(ctx, graph.NewFillet(solid, radius, edges))
}

// build checks n, realizes it through the kernel and only then inserts it,
// so unbuilt results never get a handle.
func (e *Executor) build(ctx context.Context, n *graph.Node) (cad.SolidID, error) {
	if err := ctx.Err(); err != nil {
		return cad.SolidID{}, err
	}
	k, g, err := e.session.Acquire(ctx)
	if err != nil {
		return cad.SolidID{}, err
	}
	if err := g.Check(n); err != nil {
		e.logger.Warn("executor: rejected", "kind", n.Kind.String(), "error", err)
		return cad.SolidID{}, err
	}

	solid, err := tessellate.Realize(g, n, k)
	if err != nil {
		e.logger.Error("executor: kernel failure", "kind", n.Kind.String(), "backend", k.Name(), "error", err)
		return cad.SolidID{}, err
	}

	id, err := g.Insert(n, solid)
	if err != nil {
		return cad.SolidID{}, err
	}
	e.logger.Debug("executor: built", "kind", n.Kind.String(), "solid", id.String(), "children", len(n.Children()))
	return id, nil
}

// Execute runs a command tree. Operands are built before the operation
// that consumes them. If any step fails, every solid the tree built is
// dropped again so no unreachable handles stay live.
func (e *Executor) Execute(ctx context.Context, cmd cad.CADCommand) (cad.SolidID, error) {
	_, g, err := e.session.Acquire(ctx)
	if err != nil {
		return cad.SolidID{}, err
	}
	mark := g.Mark()
	id, err := e.execute(ctx, cmd)
	if err != nil {
		g.Rollback(mark)
		return cad.SolidID{}, err
	}
	return id, nil
}

func (e *Executor) execute(ctx context.Context, cmd cad.CADCommand) (cad.SolidID, error) {
	op := cmd.Operation
	switch {
	case op.IsPrimitive():
		return e.ExecuteOperation(ctx, op, cmd.Params)

	case op == cad.OpUnion || op == cad.OpSubtract:
		if len(cmd.Sequence) < 2 {
			return cad.SolidID{}, fmt.Errorf("%w: %s has %d operands", ErrMissingOperands, op, len(cmd.Sequence))
		}
		a, err := e.execute(ctx, cmd.Sequence[0])
		if err != nil {
			return cad.SolidID{}, err
		}
		b, err := e.execute(ctx, cmd.Sequence[1])
		if err != nil {
			return cad.SolidID{}, err
		}
		if op == cad.OpUnion {
			return e.Union(ctx, a, b)
		}
		return e.Subtract(ctx, a, b)

	case op == cad.OpFillet:
		if len(cmd.Sequence) < 1 {
			return cad.SolidID{}, fmt.Errorf("%w: fillet has no operand", ErrMissingOperands)
		}
		base, err := e.execute(ctx, cmd.Sequence[0])
		if err != nil {
			return cad.SolidID{}, err
		}
		edges, err := e.pickEdges(ctx, base, cmd.Params.Edges)
		if err != nil {
			return cad.SolidID{}, err
		}
		return e.Fillet(ctx, base, cmd.Params.RadiusOr(DefaultFilletRadius), edges)

	default:
		return cad.SolidID{}, fmt.Errorf("%w: %q", cad.ErrUnsupportedOperation, op)
	}
}

// pickEdges resolves edge indices against the solid's current edge list.
// Nil indices select every edge.
func (e *Executor) pickEdges(ctx context.Context, id cad.SolidID, indices []int) ([]cad.EdgeRef, error) {
	all, err := e.Edges(ctx, id)
	if err != nil {
		return nil, err
	}
	if indices == nil {
		return all, nil
	}
	out := make([]cad.EdgeRef, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(all) {
			return nil, fmt.Errorf("%w: index %d of %d edges on %s", graph.ErrEdgeNotInSolid, i, len(all), id)
		}
		out = append(out, all[i])
	}
	return out, nil
}

// Run executes each top-level command in order and stops at the first
// failure, returning the handles built so far.
func (e *Executor) Run(ctx context.Context, pc cad.ProcessedCommand) ([]cad.SolidID, error) {
	if pc.Err != nil {
		return nil, pc.Err
	}
	ids := make([]cad.SolidID, 0, len(pc.Commands))
	for i, cmd := range pc.Commands {
		id, err := e.Execute(ctx, cmd)
		if err != nil {
			e.logger.Warn("executor: command failed", "index", i, "command", cmd.String(), "error", err)
			return ids, fmt.Errorf("executor: command %d (%s): %w", i, cmd.Operation, err)
		}
		ids = append(ids, id)
	}
	if res, err := e.Validate(ctx); err == nil {
		for _, w := range res.Warnings {
			e.logger.Info("executor: advisory", "solid", w.ID.String(), "message", w.Message)
		}
	}
	return ids, nil
}

// Validate runs every validation tier over the session's arena.
func (e *Executor) Validate(ctx context.Context) (graph.ValidationResult, error) {
	_, g, err := e.session.Acquire(ctx)
	if err != nil {
		return graph.ValidationResult{}, err
	}
	return graph.ValidateAll(g), nil
}

// Node returns the arena node behind id.
func (e *Executor) Node(ctx context.Context, id cad.SolidID) (*graph.Node, error) {
	_, g, err := e.session.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return g.Get(id)
}

// Edges returns the current edge set of a solid.
func (e *Executor) Edges(ctx context.Context, id cad.SolidID) ([]cad.EdgeRef, error) {
	_, g, err := e.session.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return g.Edges(id)
}

// Live returns the handles of solids not yet consumed by another operation.
func (e *Executor) Live(ctx context.Context) ([]cad.SolidID, error) {
	_, g, err := e.session.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return g.Live(), nil
}

// Mesh tessellates a solid for display. Meshing does not consume the
// handle.
func (e *Executor) Mesh(ctx context.Context, id cad.SolidID) (*kernel.Mesh, error) {
	k, g, err := e.session.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	n, err := g.Get(id)
	if err != nil {
		return nil, err
	}
	return tessellate.Tessellate(k, n.Solid, id)
}

// BoundingBox returns the axis-aligned bounds of a built solid.
func (e *Executor) BoundingBox(ctx context.Context, id cad.SolidID) (min, max [3]float64, err error) {
	n, err := e.Node(ctx, id)
	if err != nil {
		return min, max, err
	}
	min, max = n.Solid.BoundingBox()
	return min, max, nil
}

// STL writes a solid to path when the backend supports STL export.
func (e *Executor) STL(ctx context.Context, id cad.SolidID, path string) error {
	k, g, err := e.session.Acquire(ctx)
	if err != nil {
		return err
	}
	w, ok := k.(kernel.STLWriter)
	if !ok {
		return fmt.Errorf("executor: %s backend cannot write STL", k.Name())
	}
	n, err := g.Get(id)
	if err != nil {
		return err
	}
	return w.WriteSTL(n.Solid, path)
}
