package command

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chazu/kerf/pkg/cad"
)

// clauseSeparator splits a compound request into clauses.
var clauseSeparator = regexp.MustCompile(`(?i)\s*(?:[;,]|\bthen\b|\band\b|\bwith\b)\s*`)

var (
	filletWords   = regexp.MustCompile(`(?i)\bfillet(?:s|ed|ing)?\b|\bround(?:ed)?\s+off\b|\bround(?:ed)?\s+(?:the\s+|all\s+)?edges?\b|\bsmooth(?:ed)?\s+(?:the\s+|all\s+)?edges?\b`)
	subtractWords = regexp.MustCompile(`(?i)\b(?:subtract|minus|cut|hole|remove|drill)(?:s|ed|ing)?\b`)
	unionWords    = regexp.MustCompile(`(?i)\b(?:union|add|plus|combine|join|merge)(?:s|ed|ing)?\b`)
	holeWords     = regexp.MustCompile(`(?i)\b(?:hole|drill)(?:s|ed|ing)?\b`)
)

// clauseKind is what a clause does to the command accumulated so far.
type clauseKind int

const (
	clausePrimitive clauseKind = iota
	clauseUnion
	clauseSubtract
	clauseFillet
)

// clause is one fragment of a compound request.
type clause struct {
	text      string
	kind      clauseKind
	named     bool // names a primitive explicitly
	hasNumber bool
	explicit  bool // kind comes from an operation word
	dangling  bool // boolean verb with nothing after it to act on
}

func parseClause(text string) clause {
	c := clause{text: text}
	_, c.named = classify(text)
	c.hasNumber = numberPattern.MatchString(text)
	switch {
	case filletWords.MatchString(text):
		c.kind, c.explicit = clauseFillet, true
	case subtractWords.MatchString(text):
		c.kind, c.explicit = clauseSubtract, true
	case unionWords.MatchString(text):
		c.kind, c.explicit = clauseUnion, true
	}
	return c
}

// splitClauses cuts text at separators and merges fragments that cannot
// stand alone. A lone boolean verb ("subtract") joins the clause after it;
// a fragment with no operation word and no primitive ("width 10") joins the
// clause before it.
func splitClauses(text string) []clause {
	var raw []string
	for _, part := range clauseSeparator.Split(text, -1) {
		if part = strings.TrimSpace(part); part != "" {
			raw = append(raw, part)
		}
	}

	var out []clause
	carry := ""
	for _, part := range raw {
		if carry != "" {
			part = carry + " " + part
			carry = ""
		}
		c := parseClause(part)
		if (c.kind == clauseUnion || c.kind == clauseSubtract) && !c.named && !c.hasNumber && !holeWords.MatchString(part) {
			carry = part
			continue
		}
		if len(out) > 0 && !c.explicit && !c.named {
			prev := &out[len(out)-1]
			*prev = parseClause(prev.text + " " + part)
			continue
		}
		out = append(out, c)
	}
	if carry != "" {
		c := parseClause(carry)
		c.dangling = true
		out = append(out, c)
	}
	return out
}

// step is one accepted clause, kept for the context summary.
type step struct {
	kind   clauseKind
	prim   cad.CADCommand
	radius float64
}

func (s step) String() string {
	switch s.kind {
	case clauseFillet:
		return fmt.Sprintf("fillet the edges with radius %g", s.radius)
	case clauseSubtract:
		return fmt.Sprintf("subtract a %s with parameters: %s", s.prim.Operation, s.prim.Params)
	case clauseUnion:
		return fmt.Sprintf("add a %s with parameters: %s", s.prim.Operation, s.prim.Params)
	}
	return fmt.Sprintf("create a %s with parameters: %s", s.prim.Operation, s.prim.Params)
}

// primitiveOf builds the primitive a clause names. Holes are cylinders
// unless the clause names another shape.
func primitiveOf(c clause) (cad.CADCommand, error) {
	params, err := ExtractDimensions(c.text)
	if err != nil {
		return cad.CADCommand{}, err
	}
	op, named := classify(c.text)
	if !named && c.kind == clauseSubtract && holeWords.MatchString(c.text) {
		op = cad.OpCylinder
	}
	return cad.Primitive(op, params), nil
}

// compose folds clauses left to right into a single command tree. The
// first primitive seeds the accumulator; a union, subtract or fillet clause
// with nothing accumulated degrades to a plain primitive.
func compose(clauses []clause) (cad.CADCommand, []step, error) {
	var (
		acc   cad.CADCommand
		have  bool
		steps []step
	)
	for _, c := range clauses {
		kind := c.kind
		if !have {
			kind = clausePrimitive
		} else if c.dangling {
			return cad.CADCommand{}, nil, fmt.Errorf("%w: %q names no shape to act on", ErrInterpretation, c.text)
		}
		switch kind {
		case clauseFillet:
			radius, ok, err := firstNumber(c.text)
			if err != nil {
				return cad.CADCommand{}, nil, err
			}
			if !ok {
				radius = defaultFilletRadius
			}
			acc = cad.Fillet(acc, radius, nil)
			steps = append(steps, step{kind: kind, radius: radius})
		case clausePrimitive, clauseUnion, clauseSubtract:
			prim, err := primitiveOf(c)
			if err != nil {
				return cad.CADCommand{}, nil, err
			}
			switch {
			case !have:
				acc, have = prim, true
			case kind == clauseSubtract:
				acc = cad.Subtract(acc, prim)
			default:
				kind = clauseUnion
				acc = cad.Union(acc, prim)
			}
			steps = append(steps, step{kind: kind, prim: prim})
		}
	}
	if !have {
		return cad.CADCommand{}, nil, fmt.Errorf("%w: no shape in request", ErrInterpretation)
	}
	return acc, steps, nil
}

// defaultFilletRadius applies when a fillet clause gives no number.
const defaultFilletRadius = 1.0
