// Package pipeline wires interpretation, execution, meshing and history
// into the request path shared by the desktop app and the CLI.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/command"
	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/executor"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/session"
	"github.com/chazu/kerf/pkg/transcript"
)

// ErrNoHistory is returned by History when no transcript store is
// configured.
var ErrNoHistory = errors.New("pipeline: history is disabled")

// Outcome is what one submitted utterance produced.
type Outcome struct {
	Entry  transcript.Entry
	Solids []cad.SolidID
	Meshes []*kernel.Mesh
}

// Pipeline handles utterances against one kernel session.
type Pipeline struct {
	processor *command.Processor
	executor  *executor.Executor
	history   *transcript.Store
	logger    *slog.Logger
	meshing   bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMeshing controls whether results are tessellated for display.
// It is on by default.
func WithMeshing(on bool) Option {
	return func(p *Pipeline) { p.meshing = on }
}

// WithHistory records every outcome in store, replacing any store opened
// from the configuration.
func WithHistory(store *transcript.Store) Option {
	return func(p *Pipeline) { p.history = store }
}

// New builds a Pipeline from cfg. The kernel itself is created lazily on
// the first request. A nil logger discards output.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	factory, err := session.BackendFactory(cfg.Kernel, session.BackendOptions{
		MeshCells:        cfg.MeshCells,
		CylinderSegments: cfg.CylinderSegments,
	})
	if err != nil {
		return nil, err
	}

	sess := session.New(factory, logger)
	p := &Pipeline{
		processor: command.NewProcessor(engine.NewEngine(engine.WithTimeout(cfg.ScriptTimeout)), logger),
		executor:  executor.New(sess, logger),
		logger:    logger,
		meshing:   true,
	}
	for _, o := range opts {
		o(p)
	}
	if p.history == nil && cfg.HistoryPath != "" {
		store, err := transcript.Open(cfg.HistoryPath)
		if err != nil {
			return nil, err
		}
		p.history = store
	}
	return p, nil
}

// Executor returns the executor requests run on.
func (p *Pipeline) Executor() *executor.Executor { return p.executor }

// Session returns the kernel session.
func (p *Pipeline) Session() *session.Session { return p.executor.Session() }

// Submit interprets text, executes the resulting commands and meshes the
// solids they produce. Every failure ends up in the returned entry.
func (p *Pipeline) Submit(ctx context.Context, text string) Outcome {
	pc := p.processor.ProcessComplexCommand(text)

	var (
		out     Outcome
		execErr error
	)
	if pc.Err == nil {
		out.Solids, execErr = p.executor.Run(ctx, pc)
		if execErr != nil {
			p.logger.Warn("execution failed", "text", text, "error", execErr)
		}
	}
	if execErr == nil && p.meshing {
		out.Meshes, execErr = p.meshes(ctx, out.Solids)
	}

	out.Entry = transcript.NewEntry(p.Session().ID(), transcript.KindCommand, text, pc, out.Solids, execErr)
	p.record(ctx, &out.Entry)
	return out
}

// SubmitSelection interprets text against a viewport selection.
func (p *Pipeline) SubmitSelection(ctx context.Context, text string, sel cad.Selection) Outcome {
	pc := p.processor.ProcessSelectionCommand(text, sel)
	out := Outcome{
		Entry: transcript.NewEntry(p.Session().ID(), transcript.KindSelection, text, pc, nil, nil),
	}
	p.record(ctx, &out.Entry)
	return out
}

func (p *Pipeline) meshes(ctx context.Context, ids []cad.SolidID) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(ids))
	for _, id := range ids {
		m, err := p.executor.Mesh(ctx, id)
		if err != nil {
			return meshes, fmt.Errorf("mesh %s: %w", id, err)
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

func (p *Pipeline) record(ctx context.Context, e *transcript.Entry) {
	if p.history == nil {
		return
	}
	if err := p.history.Append(ctx, e); err != nil {
		p.logger.Warn("failed to record transcript entry", "entry", e.ID, "error", err)
	}
}

// History returns up to limit recorded entries, newest first, across all
// sessions.
func (p *Pipeline) History(ctx context.Context, limit int) ([]transcript.Entry, error) {
	if p.history == nil {
		return nil, ErrNoHistory
	}
	return p.history.Recent(ctx, "", limit)
}

// Reset discards every solid by tearing the kernel session down. The next
// request starts a fresh one.
func (p *Pipeline) Reset() {
	p.Session().Teardown()
}

// Close releases the session and the history store.
func (p *Pipeline) Close() error {
	p.Session().Teardown()
	if p.history != nil {
		return p.history.Close()
	}
	return nil
}
