package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/kerf/pkg/cad"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms Kerf script source before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: round-box -> round_box
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
//  3. Line comments: ; and ;; become //, which zygomys understands.
//
// All transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpCommand wraps a cad.CADCommand so it can be returned from shape
// builtins and consumed by boolean and fillet builtins.
type sexpCommand struct {
	cmd  cad.CADCommand
	used bool
}

func (c *sexpCommand) SexpString(ps *zygo.PrintState) string {
	return c.cmd.String()
}
func (c *sexpCommand) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a cad.Vec3.
type sexpVec3 struct {
	vec cad.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// tracker remembers every shape a script builds so that shapes which never
// reach the final value can be reported.
type tracker struct {
	made []*sexpCommand
}

func (t *tracker) add(cmd cad.CADCommand) *sexpCommand {
	c := &sexpCommand{cmd: cmd}
	t.made = append(t.made, c)
	return c
}

// unused marks the final value as used and returns a warning for every
// other shape that was built but never consumed.
func (t *tracker) unused(final zygo.Sexp) []EvalWarning {
	if c, ok := final.(*sexpCommand); ok {
		c.used = true
	} else if items, err := sexpListToSlice(final); err == nil {
		for _, it := range items {
			if c, ok := it.(*sexpCommand); ok {
				c.used = true
			}
		}
	}
	var warnings []EvalWarning
	for _, c := range t.made {
		if !c.used {
			warnings = append(warnings, EvalWarning{
				Message: fmt.Sprintf("%s is built but never used", c.cmd.String()),
			})
		}
	}
	return warnings
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value; treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// only rejects keywords outside allowed.
func (pa kwArgs) only(fn string, allowed ...string) error {
	for k := range pa.kw {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: unknown keyword :%s", fn, k)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", describe(s))
}

// toInt extracts an int from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %s", describe(s))
}

// toVec3 accepts a vec3 value or a list/array of three numbers.
func toVec3(s zygo.Sexp) (cad.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil || len(items) != 3 {
		return cad.Vec3{}, fmt.Errorf("expected vec3 or three numbers, got %s", describe(s))
	}
	var xyz [3]float64
	for i, it := range items {
		f, err := toFloat64(it)
		if err != nil {
			return cad.Vec3{}, err
		}
		xyz[i] = f
	}
	return cad.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// toCommand extracts a shape built by another builtin and marks it used.
func toCommand(s zygo.Sexp) (cad.CADCommand, error) {
	c, ok := s.(*sexpCommand)
	if !ok {
		return cad.CADCommand{}, fmt.Errorf("expected shape, got %s", describe(s))
	}
	c.used = true
	return c.cmd, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// floatSlot reads a keyword number, or the positional argument at index
// pos when the keyword is absent. Missing values leave *dst untouched.
func floatSlot(pa kwArgs, fn, key string, pos int, dst **float64) error {
	v, ok := pa.kw[key]
	if !ok {
		if pos < 0 || pos >= len(pa.positional) {
			return nil
		}
		v = pa.positional[pos]
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = cad.Float(f)
	return nil
}

// placement reads the shared :at and :rotate keywords.
func placement(pa kwArgs, fn string, p *cad.ShapeParams) error {
	if v, ok := pa.kw["at"]; ok {
		at, err := toVec3(v)
		if err != nil {
			return fmt.Errorf("%s: at: %w", fn, err)
		}
		p.Position = &at
	}
	if v, ok := pa.kw["rotate"]; ok {
		rot, err := toVec3(v)
		if err != nil {
			return fmt.Errorf("%s: rotate: %w", fn, err)
		}
		p.Rotation = &rot
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// primitiveSlots lists, per shape, the keywords a builtin accepts in the
// order positional arguments fill them.
var primitiveSlots = map[cad.Operation][]string{
	cad.OpBox:      {"width", "height", "depth"},
	cad.OpCylinder: {"radius", "height"},
	cad.OpSphere:   {"radius"},
}

func slotField(p *cad.ShapeParams, key string) **float64 {
	switch key {
	case "width":
		return &p.Width
	case "height":
		return &p.Height
	case "depth":
		return &p.Depth
	case "radius":
		return &p.Radius
	}
	return nil
}

// registerBuiltins installs all Kerf script builtins into a zygomys
// environment. Shapes are recorded in tr as they are built.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, tr *tracker) {

	// -----------------------------------------------------------------------
	// (box 10 20 30 :at (vec3 0 0 5) :rotate (vec3 0 0 45))
	// (cylinder :radius 2 :height 10)
	// (sphere 3)
	// -----------------------------------------------------------------------
	for op, slots := range primitiveSlots {
		op, slots := op, slots
		env.AddFunction(string(op), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if err := pa.only(name, append([]string{"at", "rotate"}, slots...)...); err != nil {
				return zygo.SexpNull, err
			}
			if len(pa.positional) > len(slots) {
				return zygo.SexpNull, fmt.Errorf("%s: takes at most %d positional arguments, got %d",
					name, len(slots), len(pa.positional))
			}

			var p cad.ShapeParams
			for i, key := range slots {
				if err := floatSlot(pa, name, key, i, slotField(&p, key)); err != nil {
					return zygo.SexpNull, err
				}
			}
			if err := placement(pa, name, &p); err != nil {
				return zygo.SexpNull, err
			}
			if err := p.Validate(); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return tr.add(cad.Primitive(op, p)), nil
		})
	}

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: argument %d: %w", i+1, err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: cad.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (union a b c ...) and (subtract a b c ...), folded from the left:
	// (subtract a b c) removes b then c from a.
	// -----------------------------------------------------------------------
	booleans := map[string]func(a, b cad.CADCommand) cad.CADCommand{
		string(cad.OpUnion):    cad.Union,
		string(cad.OpSubtract): cad.Subtract,
	}
	for fn, combine := range booleans {
		combine := combine
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 shapes, got %d", name, len(args))
			}
			acc, err := toCommand(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: operand 1: %w", name, err)
			}
			for i := 1; i < len(args); i++ {
				next, err := toCommand(args[i])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", name, i+1, err)
				}
				acc = combine(acc, next)
			}
			return tr.add(acc), nil
		})
	}

	// -----------------------------------------------------------------------
	// (fillet shape :radius 1 :edges (list 0 1 2))
	// -----------------------------------------------------------------------
	env.AddFunction("fillet", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only(name, "radius", "edges"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("fillet requires exactly 1 shape, got %d", len(pa.positional))
		}
		base, err := toCommand(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fillet: %w", err)
		}

		cmd := cad.CADCommand{Operation: cad.OpFillet, Sequence: []cad.CADCommand{base}}
		if err := floatSlot(pa, name, "radius", -1, &cmd.Params.Radius); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["edges"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("fillet: edges: %w", err)
			}
			edges := make([]int, 0, len(items))
			for _, it := range items {
				e, err := toInt(it)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("fillet: edges: %w", err)
				}
				edges = append(edges, e)
			}
			cmd.Params.Edges = edges
		}
		if err := cmd.Params.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("fillet: %w", err)
		}
		return tr.add(cmd), nil
	})
}
