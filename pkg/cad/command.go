package cad

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CADCommand is one typed operation. Operands of union and subtract are
// Sequence[0] and Sequence[1]; fillet's operand is Sequence[0] and its
// radius is Params.Radius. A command is consumed once by the executor.
type CADCommand struct {
	Operation Operation    `json:"operation"`
	Params    ShapeParams  `json:"params"`
	Sequence  []CADCommand `json:"sequence,omitempty"`
}

// Primitive builds a primitive command.
func Primitive(op Operation, params ShapeParams) CADCommand {
	return CADCommand{Operation: op, Params: params}
}

// Union builds union(a, b).
func Union(a, b CADCommand) CADCommand {
	return CADCommand{Operation: OpUnion, Sequence: []CADCommand{a, b}}
}

// Subtract builds subtract(a, b): b's volume removed from a.
func Subtract(a, b CADCommand) CADCommand {
	return CADCommand{Operation: OpSubtract, Sequence: []CADCommand{a, b}}
}

// Fillet builds a fillet of base with the given radius. A nil edges slice
// selects every edge of the operand.
func Fillet(base CADCommand, radius float64, edges []int) CADCommand {
	return CADCommand{
		Operation: OpFillet,
		Params:    ShapeParams{Radius: Float(radius), Edges: edges},
		Sequence:  []CADCommand{base},
	}
}

// Validate checks the operation, its operand count, and its parameters,
// recursively.
func (c CADCommand) Validate() error {
	if !c.Operation.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedOperation, string(c.Operation))
	}
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("%s: %w", c.Operation, err)
	}
	if got, want := len(c.Sequence), c.Operation.Arity(); got != want {
		return fmt.Errorf("%s: expected %d operand(s), got %d", c.Operation, want, got)
	}
	for i, sub := range c.Sequence {
		if err := sub.Validate(); err != nil {
			return fmt.Errorf("%s: operand %d: %w", c.Operation, i, err)
		}
	}
	return nil
}

// Depth returns the height of the command tree; a primitive has depth 1.
func (c CADCommand) Depth() int {
	d := 0
	for _, sub := range c.Sequence {
		if sd := sub.Depth(); sd > d {
			d = sd
		}
	}
	return d + 1
}

// String renders the command in a compact prefix form, e.g.
// subtract(box{"width":10}, sphere{}).
func (c CADCommand) String() string {
	var b strings.Builder
	b.WriteString(string(c.Operation))
	if c.Operation.IsPrimitive() || !c.Params.IsEmpty() {
		b.WriteString(c.Params.String())
	}
	if len(c.Sequence) > 0 {
		b.WriteString("(")
		for i, sub := range c.Sequence {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(sub.String())
		}
		b.WriteString(")")
	}
	return b.String()
}

// ProcessedCommand is the interpretation of one utterance. It is produced
// for display and never re-parsed.
type ProcessedCommand struct {
	Commands []CADCommand `json:"commands"`
	Context  string       `json:"context"`
	Err      error        `json:"-"`
}

// Message returns the error text, or "" when interpretation succeeded.
func (p ProcessedCommand) Message() string {
	if p.Err == nil {
		return ""
	}
	return p.Err.Error()
}

// MarshalJSON renders Err as an optional "error" string.
func (p ProcessedCommand) MarshalJSON() ([]byte, error) {
	type wire struct {
		Commands []CADCommand `json:"commands"`
		Context  string       `json:"context"`
		Error    string       `json:"error,omitempty"`
	}
	cmds := p.Commands
	if cmds == nil {
		cmds = []CADCommand{}
	}
	return json.Marshal(wire{Commands: cmds, Context: p.Context, Error: p.Message()})
}
