package main

import (
	"context"
	"log/slog"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/pipeline"
	"github.com/chazu/kerf/pkg/transcript"
)

// colorPalette is a default palette used to assign distinct colors to solids.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx      context.Context
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Solid    string    `json:"solid"`
	Color    string    `json:"color"`
}

// Response is the full result returned to the frontend for one utterance.
type Response struct {
	Entry  transcript.Entry `json:"entry"`
	Meshes []MeshData       `json:"meshes"`
}

// NewApp creates a new App from cfg. A nil logger discards output.
func NewApp(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &App{
		ctx:      context.Background(),
		pipeline: p,
		logger:   logger,
	}, nil
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(ctx context.Context) {
	if err := a.pipeline.Close(); err != nil {
		a.logger.Warn("close pipeline", "error", err)
	}
}

// Submit interprets a free-text request, builds the solids it describes
// and returns them as meshes. This is the primary binding called by the
// frontend prompt.
func (a *App) Submit(text string) Response {
	return a.respond(a.pipeline.Submit(a.ctx, text))
}

// SubmitSelection interprets a request scoped to a viewport selection.
func (a *App) SubmitSelection(text string, sel cad.Selection) Response {
	return a.respond(a.pipeline.SubmitSelection(a.ctx, text, sel))
}

// History returns the most recent transcript entries, newest first. It is
// empty when history is disabled.
func (a *App) History(limit int) []transcript.Entry {
	entries, err := a.pipeline.History(a.ctx, limit)
	if err != nil {
		a.logger.Debug("history unavailable", "error", err)
		return []transcript.Entry{}
	}
	return entries
}

// Reset discards every solid and starts a new kernel session.
func (a *App) Reset() {
	a.pipeline.Reset()
}

func (a *App) respond(out pipeline.Outcome) Response {
	resp := Response{Entry: out.Entry, Meshes: []MeshData{}}
	for i, m := range out.Meshes {
		resp.Meshes = append(resp.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Solid:    m.Label,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return resp
}
