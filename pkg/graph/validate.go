package graph

import (
	"fmt"

	"github.com/chazu/kerf/pkg/cad"
)

// ValidationSeverity indicates whether a validation finding blocks
// realization or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks realization
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	ID       cad.SolidID        // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.ID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.ID, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	ID      cad.SolidID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no blocking error was found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs all Tier 1 structural checks on the arena and returns the
// findings. An empty slice means the arena is consistent. Validate never
// mutates the graph.
func Validate(g *Graph) []ValidationError {
	nodes := g.Nodes()
	var errs []ValidationError
	errs = append(errs, validateIDs(g, nodes)...)
	errs = append(errs, validateReferences(g, nodes)...)
	errs = append(errs, validateDAG(nodes)...)
	errs = append(errs, validateConsumption(nodes)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers and returns a
// ValidationResult with errors and warnings separated.
func ValidateAll(g *Graph) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(g) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{ID: e.ID, Message: e.Message})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	geomErrs, geomWarnings := validateGeometry(g)
	result.Errors = append(result.Errors, geomErrs...)
	result.Warnings = append(result.Warnings, geomWarnings...)
	return result
}

// validateIDs checks that every node carries the handle of its slot.
func validateIDs(g *Graph, nodes []*Node) []ValidationError {
	var errs []ValidationError
	for i, n := range nodes {
		want := cad.SolidID{Epoch: g.Epoch(), Index: uint32(i + 1)}
		if n.ID != want {
			errs = append(errs, ValidationError{
				ID:       want,
				Message:  fmt.Sprintf("node stored at %s carries handle %s", want, n.ID),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateReferences checks that every operand handle resolves in the arena.
func validateReferences(g *Graph, nodes []*Node) []ValidationError {
	var errs []ValidationError
	for _, n := range nodes {
		for _, c := range n.Children() {
			if _, err := g.Get(c); err != nil {
				errs = append(errs, ValidationError{
					ID:       n.ID,
					Message:  fmt.Sprintf("operand reference %s does not resolve: %v", c, err),
					Severity: SeverityError,
				})
			}
		}
		if fd, ok := n.Data.(FilletData); ok {
			for _, e := range fd.Edges {
				if _, err := g.Primitive(e.Solid); err != nil {
					errs = append(errs, ValidationError{
						ID:       n.ID,
						Message:  fmt.Sprintf("fillet edge %s has no primitive owner: %v", e, err),
						Severity: SeverityError,
					})
				}
			}
		}
	}
	return errs
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
// Insertion order already forbids forward references; this guards arenas
// assembled by hand.
func validateDAG(nodes []*Node) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	byID := make(map[cad.SolidID]*Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	color := make(map[cad.SolidID]int)
	var errs []ValidationError

	var visit func(id cad.SolidID) bool // returns true if cycle found
	visit = func(id cad.SolidID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				ID:       id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		n, ok := byID[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}
		for _, c := range n.Children() {
			if visit(c) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, n := range nodes {
		if color[n.ID] == white {
			if visit(n.ID) {
				// One cycle error is sufficient; stop early.
				break
			}
		}
	}
	return errs
}

// validateConsumption checks single hand-off: every operand is consumed by
// exactly one node, and every consumed node has a consumer.
func validateConsumption(nodes []*Node) []ValidationError {
	var errs []ValidationError
	consumers := make(map[cad.SolidID][]cad.SolidID)
	for _, n := range nodes {
		for _, c := range n.Children() {
			consumers[c] = append(consumers[c], n.ID)
		}
	}
	for _, n := range nodes {
		users := consumers[n.ID]
		switch {
		case len(users) > 1:
			errs = append(errs, ValidationError{
				ID:       n.ID,
				Message:  fmt.Sprintf("solid consumed by %d operations", len(users)),
				Severity: SeverityError,
			})
		case len(users) == 1 && !n.Consumed:
			errs = append(errs, ValidationError{
				ID:       n.ID,
				Message:  fmt.Sprintf("solid used by %s but not marked consumed", users[0]),
				Severity: SeverityError,
			})
		case len(users) == 0 && n.Consumed:
			errs = append(errs, ValidationError{
				ID:       n.ID,
				Message:  "solid marked consumed but no operation uses it",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
