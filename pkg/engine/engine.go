// Package engine provides the script evaluation engine for Kerf.
// It wraps zygomys in a sandboxed environment and turns Lisp forms such as
// (fillet (union (box 10 10 10) (sphere :radius 6)) :radius 1) into
// CADCommand trees.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/kerf/pkg/cad"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Message string
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Commands []cad.CADCommand
	Errors   []EvalError
	Warnings []EvalWarning
}

// OK reports whether the script evaluated without errors.
func (r EvalResult) OK() bool {
	return len(r.Errors) == 0
}

// Engine wraps the zygomys interpreter for Kerf scripts.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism. Starting an evaluation supersedes
// any still in flight.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate takes Lisp source code and produces the CADCommands its final
// value describes. Each call creates a fresh zygomys sandbox.
//
// Return semantics:
//   - On success: result with commands, no errors, nil error
//   - On parse/eval failure: result with eval errors, nil error
//   - On fatal failure (timeout, panic, superseded): empty result + error
func (e *Engine) Evaluate(source string) (EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res := e.evaluate(source)
		ch <- evalResult{result: res}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) EvalResult {
	// Empty source is a valid program that produces nothing.
	if strings.TrimSpace(source) == "" {
		return EvalResult{}
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	tr := &tracker{}
	registerBuiltins(env, tr)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return EvalResult{Errors: parseZygomysError(err)}
	}

	final, err := env.Run()
	if err != nil {
		return EvalResult{Errors: parseZygomysError(err)}
	}

	cmds, err := commandsOf(final)
	if err != nil {
		return EvalResult{Errors: []EvalError{{Message: err.Error()}}}
	}
	return EvalResult{Commands: cmds, Warnings: tr.unused(final)}
}

// commandsOf converts the script's final value into commands. A single
// command or a list/array of commands is accepted.
func commandsOf(final zygo.Sexp) ([]cad.CADCommand, error) {
	if c, ok := final.(*sexpCommand); ok {
		return []cad.CADCommand{c.cmd}, nil
	}
	items, err := sexpListToSlice(final)
	if err != nil || len(items) == 0 {
		return nil, fmt.Errorf("script must end with a shape or a list of shapes, got %s", describe(final))
	}
	cmds := make([]cad.CADCommand, 0, len(items))
	for i, it := range items {
		c, ok := it.(*sexpCommand)
		if !ok {
			return nil, fmt.Errorf("result item %d: expected shape, got %s", i, describe(it))
		}
		cmds = append(cmds, c.cmd)
	}
	return cmds, nil
}

func describe(s zygo.Sexp) string {
	if s == nil {
		return "nothing"
	}
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
