package main

import (
	"os"
	"testing"
	"time"

	"github.com/chazu/kerf/pkg/config"
)

// testApp builds an App with a coarse mesh so tests stay fast.
func testApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Config{
		Kernel:           "sdfx",
		MeshCells:        24,
		CylinderSegments: 16,
		ScriptTimeout:    5 * time.Second,
		LogLevel:         "info",
		LogFormat:        "text",
	}
	app, err := NewApp(cfg, cfg.Logger(os.Stderr))
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	t.Cleanup(func() { app.shutdown(app.ctx) })
	return app
}

// TestE2EBracketExample exercises the full pipeline: script → commands →
// executor → realized solid → mesh. This is the same path that the Wails
// Submit binding takes, but without the Wails runtime.
func TestE2EBracketExample(t *testing.T) {
	app := testApp(t)

	source, err := os.ReadFile("examples/bracket.kerf")
	if err != nil {
		t.Fatalf("failed to read bracket.kerf: %v", err)
	}

	resp := app.Submit(string(source))
	if resp.Entry.Error != "" {
		t.Fatalf("entry error: %s", resp.Entry.Error)
	}
	if len(resp.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(resp.Meshes))
	}

	m := resp.Meshes[0]
	if len(m.Vertices) == 0 || len(m.Normals) == 0 || len(m.Indices) == 0 {
		t.Fatalf("mesh has empty arrays: %d vertices, %d normals, %d indices",
			len(m.Vertices), len(m.Normals), len(m.Indices))
	}
	if m.Color == "" {
		t.Error("no color assigned")
	}
	if m.Solid != resp.Entry.Solids[0].String() {
		t.Errorf("mesh solid = %q, want %q", m.Solid, resp.Entry.Solids[0].String())
	}

	// The plate spans x 0..40 and the wall rises to z 25.
	var maxX, maxZ float32
	for i := 0; i < len(m.Vertices); i += 3 {
		if m.Vertices[i] > maxX {
			maxX = m.Vertices[i]
		}
		if m.Vertices[i+2] > maxZ {
			maxZ = m.Vertices[i+2]
		}
	}
	if maxX < 38 || maxX > 42 {
		t.Errorf("max x = %g, want about 40", maxX)
	}
	if maxZ < 23 || maxZ > 27 {
		t.Errorf("max z = %g, want about 25", maxZ)
	}
}

// TestE2EFreeText ensures a plain-language request renders one mesh.
func TestE2EFreeText(t *testing.T) {
	app := testApp(t)
	resp := app.Submit("create a box 10 20 30")

	if resp.Entry.Error != "" {
		t.Fatalf("entry error: %s", resp.Entry.Error)
	}
	want := `Processed command to create a box with parameters: {"width":10,"height":20,"depth":30}`
	if resp.Entry.Context != want {
		t.Errorf("context = %q, want %q", resp.Entry.Context, want)
	}
	if len(resp.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(resp.Meshes))
	}
}

// TestE2ESyntaxError ensures script errors land in the entry, not a crash.
func TestE2ESyntaxError(t *testing.T) {
	app := testApp(t)
	resp := app.Submit("(box 1 2")

	if resp.Entry.Error == "" {
		t.Fatal("expected an entry error for a syntax error")
	}
	if len(resp.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(resp.Meshes))
	}
}

// TestE2ECompound ensures a compound request builds one filleted solid.
func TestE2ECompound(t *testing.T) {
	app := testApp(t)
	resp := app.Submit("a box 10 10 10 then add a ball 3 then fillet the edges 1")

	if resp.Entry.Error != "" {
		t.Fatalf("entry error: %s", resp.Entry.Error)
	}
	if len(resp.Entry.Commands) != 1 || resp.Entry.Commands[0].Depth() != 3 {
		t.Fatalf("commands = %v, want one fillet(union(box, sphere))", resp.Entry.Commands)
	}
	if len(resp.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(resp.Meshes))
	}
}

func TestNewAppNilLogger(t *testing.T) {
	cfg := config.Config{Kernel: "sdfx", MeshCells: 24, ScriptTimeout: 5 * time.Second}
	app, err := NewApp(cfg, nil)
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	if got := app.History(5); got == nil || len(got) != 0 {
		t.Errorf("History() = %#v, want empty", got)
	}
	app.shutdown(app.ctx)
}
