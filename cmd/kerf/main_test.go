package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/transcript"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("KERF_MESH_CELLS", "24")
	color.NoColor = true

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunFreeText(t *testing.T) {
	out, err := execute(t, "", "run", "a", "box", "1", "2", "3")
	require.NoError(t, err)
	assert.Contains(t, out, `box{"width":1,"height":2,"depth":3}`)
	assert.Contains(t, out, "solids: s1@1")
}

func TestRunFailureReturnsError(t *testing.T) {
	out, err := execute(t, "", "run", "(box", "1")
	require.Error(t, err)
	assert.Contains(t, out, "Failed to process command")
}

func TestRunNothing(t *testing.T) {
	_, err := execute(t, "", "run")
	require.Error(t, err)
}

func TestRunWritesSTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.stl")

	out, err := execute(t, "", "run", "--stl", path, "(list (box 1 1 1) (sphere 1 :at (vec3 4 0 0)))")
	require.NoError(t, err)

	for _, p := range []string{"part-1.stl", "part-2.stl"} {
		full := filepath.Join(dir, p)
		assert.Contains(t, out, "wrote "+full)
		info, err := os.Stat(full)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestReplSession(t *testing.T) {
	out, err := execute(t, "a cube\n:live\n:reset\n:live\na ball\n:quit\n", "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "session reset")
	assert.Contains(t, out, "sphere{}")
	assert.Equal(t, 1, strings.Count(out, "kerf> s1@1\n"), "the cube is listed live only before the reset")
}

func TestHistoryCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "kerf.db")

	_, err := execute(t, "", "--history", db, "run", "a pipe 2 8")
	require.NoError(t, err)

	out, err := execute(t, "", "--history", db, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Recent Requests")
	assert.Contains(t, out, "a pipe 2 8")
}

func TestHistoryDisabled(t *testing.T) {
	t.Setenv("KERF_HISTORY_PATH", "")
	_, err := execute(t, "", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KERF_HISTORY_PATH")
}

func TestRendererEntry(t *testing.T) {
	color.NoColor = true
	r := &renderer{}

	e := transcript.Entry{
		ID:       uuid.New(),
		Text:     "a box then fillet 9",
		Context:  "Processed compound command in 2 steps",
		Error:    "executor: command 0 (fillet): fillet too large",
		Commands: []cad.CADCommand{cad.Primitive(cad.OpBox, cad.ShapeParams{})},
	}
	out := r.Entry(e)
	assert.True(t, strings.HasPrefix(out, "✗ Processed compound command"))
	assert.Contains(t, out, "  box{}\n")
	assert.Contains(t, out, "fillet too large")

	r.json = true
	assert.Contains(t, r.Entry(e), `"context":"Processed compound command in 2 steps"`)
}

func TestRendererUnavailable(t *testing.T) {
	color.NoColor = true
	r := &renderer{}

	e := transcript.Entry{
		ID:        uuid.New(),
		Kind:      transcript.KindSelection,
		Context:   "Selection commands not implemented yet",
		Error:     "command: not implemented",
		ErrorKind: transcript.ErrorNotImplemented,
		Commands:  []cad.CADCommand{},
	}
	out := r.Entry(e)
	assert.True(t, strings.HasPrefix(out, "– Selection commands"))
	assert.Contains(t, out, "unavailable: command: not implemented")

	r.json = true
	assert.Contains(t, r.Entry(e), `"errorKind":"not_implemented"`)
}

func TestRendererHistory(t *testing.T) {
	color.NoColor = true
	r := &renderer{}
	assert.Equal(t, "No history", r.History(nil))

	out := r.History([]transcript.Entry{
		{Text: strings.Repeat("x", 100), CreatedAt: time.Now()},
		{Text: "round these", Kind: transcript.KindSelection, Error: "not implemented", CreatedAt: time.Now()},
	})
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "[selection] round these")
}

func TestTruncateStr(t *testing.T) {
	assert.Equal(t, "abc", truncateStr("abc", 10))
	assert.Equal(t, "abcd...", truncateStr("abcdefghij", 7))
	assert.Equal(t, "a...", truncateStr("abcdef", 1))
}
