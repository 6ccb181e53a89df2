// Package command interprets free-text requests as typed CAD commands.
//
// Interpretation is a bounded keyword and pattern match: a primitive is
// picked by keyword family, numbers fill width, height and depth in order,
// and compound requests are split into clauses joined by boolean and
// fillet verbs. Parenthesized input is evaluated as a script instead.
package command

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/engine"
)

var (
	// ErrInterpretation wraps every recoverable failure to turn text into
	// commands.
	ErrInterpretation = errors.New("command: could not interpret request")

	// ErrNotImplemented is returned for request kinds with no interpreter.
	ErrNotImplemented = errors.New("command: not implemented")
)

// Context strings reported for outcomes that carry no commands.
const (
	FailedContext    = "Failed to process command"
	SelectionContext = "Selection commands not implemented yet"
)

// Processor turns utterances into ProcessedCommands. It holds no per-request
// state and is safe for concurrent use.
type Processor struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewProcessor returns a Processor that evaluates scripts with eng. A nil
// engine gets a default one; a nil logger discards output.
func NewProcessor(eng *engine.Engine, logger *slog.Logger) *Processor {
	if eng == nil {
		eng = engine.NewEngine()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{engine: eng, logger: logger}
}

// ProcessCommand interprets text as a single primitive. Failures, including
// panics, come back as a ProcessedCommand with no commands and Err set.
func (p *Processor) ProcessCommand(text string) (pc cad.ProcessedCommand) {
	defer p.recoverInto(&pc, text)

	op := ClassifyPrimitive(text)
	params, err := ExtractDimensions(text)
	if err != nil {
		return p.failed(text, err)
	}
	p.logger.Debug("processed command", "op", op, "params", params.Fields())
	return cad.ProcessedCommand{
		Commands: []cad.CADCommand{cad.Primitive(op, params)},
		Context:  fmt.Sprintf("Processed command to create a %s with parameters: %s", op, params),
	}
}

// ProcessComplexCommand interprets text that may describe several steps.
// Text whose first form starts with "(" is evaluated as a script; blank
// lines and ";" comment lines before it are skipped. Anything else is split
// into clauses; a request with a single primitive clause yields exactly
// what ProcessCommand yields.
func (p *Processor) ProcessComplexCommand(text string) (pc cad.ProcessedCommand) {
	defer p.recoverInto(&pc, text)

	if isScript(text) {
		return p.processScript(text)
	}

	clauses := splitClauses(text)
	cmd, steps, err := compose(clauses)
	if err != nil {
		// Nothing but separators; the simple path still yields a default box.
		if len(clauses) == 0 {
			return p.ProcessCommand(text)
		}
		return p.failed(text, err)
	}
	if len(steps) == 1 && steps[0].kind == clausePrimitive {
		return p.ProcessCommand(text)
	}
	if err := cmd.Validate(); err != nil {
		return p.failed(text, err)
	}

	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.String()
	}
	p.logger.Debug("processed compound command", "steps", len(steps), "command", cmd.String())
	return cad.ProcessedCommand{
		Commands: []cad.CADCommand{cmd},
		Context:  fmt.Sprintf("Processed compound command in %d steps: %s", len(steps), strings.Join(parts, "; ")),
	}
}

// ProcessSelectionCommand interprets text against a viewport selection.
// No selection command is supported yet; it never touches kernel state.
func (p *Processor) ProcessSelectionCommand(text string, sel cad.Selection) cad.ProcessedCommand {
	p.logger.Debug("selection command not implemented", "selection", sel.String())
	return cad.ProcessedCommand{
		Commands: []cad.CADCommand{},
		Context:  SelectionContext,
		Err:      ErrNotImplemented,
	}
}

func isScript(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		return strings.HasPrefix(line, "(")
	}
	return false
}

func (p *Processor) processScript(text string) cad.ProcessedCommand {
	res, err := p.engine.Evaluate(text)
	if err != nil {
		return p.failed(text, err)
	}
	if !res.OK() {
		return p.failed(text, res.Errors[0])
	}
	if len(res.Commands) == 0 {
		return p.failed(text, errors.New("script produced no shapes"))
	}

	parts := make([]string, len(res.Commands))
	for i, c := range res.Commands {
		if err := c.Validate(); err != nil {
			return p.failed(text, err)
		}
		parts[i] = c.String()
	}
	summary := fmt.Sprintf("Evaluated script into %d command(s): %s", len(res.Commands), strings.Join(parts, ", "))
	for _, w := range res.Warnings {
		summary += "; warning: " + w.Message
	}
	return cad.ProcessedCommand{Commands: res.Commands, Context: summary}
}

// failed builds the failure result. err is wrapped with ErrInterpretation
// unless it already is.
func (p *Processor) failed(text string, err error) cad.ProcessedCommand {
	if !errors.Is(err, ErrInterpretation) {
		err = fmt.Errorf("%w: %w", ErrInterpretation, err)
	}
	p.logger.Warn("failed to process command", "text", text, "error", err)
	return cad.ProcessedCommand{
		Commands: []cad.CADCommand{},
		Context:  FailedContext,
		Err:      err,
	}
}

func (p *Processor) recoverInto(pc *cad.ProcessedCommand, text string) {
	if r := recover(); r != nil {
		*pc = p.failed(text, fmt.Errorf("panic: %v", r))
	}
}
