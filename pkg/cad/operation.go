package cad

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedOperation is returned when an operation name is outside the
// closed operation set. Execution never substitutes a default primitive.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Operation is one of the closed set of CAD operations.
type Operation string

const (
	OpBox      Operation = "box"
	OpCylinder Operation = "cylinder"
	OpSphere   Operation = "sphere"
	OpUnion    Operation = "union"
	OpSubtract Operation = "subtract"
	OpFillet   Operation = "fillet"
)

// Operations lists every supported operation in declaration order.
var Operations = []Operation{OpBox, OpCylinder, OpSphere, OpUnion, OpSubtract, OpFillet}

// ParseOperation maps a case-insensitive name to an Operation.
func ParseOperation(name string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(name)))
	if !op.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOperation, name)
	}
	return op, nil
}

// Valid reports whether op is in the closed operation set.
func (op Operation) Valid() bool {
	switch op {
	case OpBox, OpCylinder, OpSphere, OpUnion, OpSubtract, OpFillet:
		return true
	}
	return false
}

// IsPrimitive reports whether op creates a new solid from parameters alone.
func (op Operation) IsPrimitive() bool {
	return op == OpBox || op == OpCylinder || op == OpSphere
}

// Arity is the number of operand commands op consumes.
func (op Operation) Arity() int {
	switch op {
	case OpUnion, OpSubtract:
		return 2
	case OpFillet:
		return 1
	}
	return 0
}
