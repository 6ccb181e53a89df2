package transcript

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/command"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history", "kerf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	pc := cad.ProcessedCommand{
		Commands: []cad.CADCommand{
			cad.Fillet(cad.Primitive(cad.OpBox, cad.ShapeParams{Width: cad.Float(10)}), 0.5, []int{0, 4}),
		},
		Context: "Processed compound command in 2 steps",
	}
	e := NewEntry("sess-1", KindCommand, "a box 10 then fillet 0.5", pc, []cad.SolidID{{Epoch: 1, Index: 2}}, nil)
	require.NoError(t, s.Append(ctx, &e))

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, KindCommand, got.Kind)
	assert.Equal(t, e.Text, got.Text)
	assert.Equal(t, e.Context, got.Context)
	assert.False(t, got.Failed())
	require.Len(t, got.Commands, 1)
	assert.Equal(t, pc.Commands[0].String(), got.Commands[0].String())
	assert.Equal(t, []int{0, 4}, got.Commands[0].Params.Edges)
	assert.Equal(t, []cad.SolidID{{Epoch: 1, Index: 2}}, got.Solids)
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt))
}

func TestNewEntryErrors(t *testing.T) {
	failed := cad.ProcessedCommand{Context: "Failed to process command", Err: errors.New("bad number")}
	e := NewEntry("s", KindCommand, "box 1e999", failed, nil, nil)
	assert.Equal(t, "bad number", e.Error)
	assert.Equal(t, ErrorInterpretation, e.ErrorKind)
	assert.NotNil(t, e.Commands)
	assert.True(t, e.Failed())

	ok := cad.ProcessedCommand{Commands: []cad.CADCommand{cad.Primitive(cad.OpSphere, cad.ShapeParams{})}, Context: "fine"}
	e = NewEntry("s", KindCommand, "a ball", ok, nil, errors.New("executor: fillet too large"))
	assert.Equal(t, "executor: fillet too large", e.Error)
	assert.Equal(t, ErrorExecution, e.ErrorKind)

	e = NewEntry("s", KindCommand, "a ball", ok, []cad.SolidID{{Epoch: 1, Index: 1}}, nil)
	assert.Equal(t, ErrorNone, e.ErrorKind)
}

func TestErrorKindRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	sel := cad.ProcessedCommand{
		Commands: []cad.CADCommand{},
		Context:  command.SelectionContext,
		Err:      command.ErrNotImplemented,
	}
	e := NewEntry("s", KindSelection, "round this", sel, nil, nil)
	assert.Equal(t, ErrorNotImplemented, e.ErrorKind)
	require.NoError(t, s.Append(ctx, &e))

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, ErrorNotImplemented, got.ErrorKind)
}

func TestMigrateAddsErrorKindColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE entries (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		text TEXT NOT NULL,
		context TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		commands_json TEXT NOT NULL,
		solids_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	e := NewEntry("s", KindCommand, "a cube", cad.ProcessedCommand{Context: "ok"}, nil, errors.New("boom"))
	require.NoError(t, s.Append(context.Background(), &e))
	got, err := s.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, ErrorExecution, got.ErrorKind)
}

func TestGetNotFound(t *testing.T) {
	s := openTemp(t)
	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecentOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, sess := range []string{"a", "b", "a", "a"} {
		e := Entry{
			SessionID: sess,
			Kind:      KindCommand,
			Text:      string(rune('w' + i)),
			Commands:  []cad.CADCommand{},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.Append(ctx, &e))
		assert.NotEqual(t, uuid.Nil, e.ID)
	}

	all, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"z", "y", "x", "w"}, texts(all))

	onlyA, err := s.Recent(ctx, "a", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y"}, texts(onlyA))
}

func TestSelectionEntry(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	pc := cad.ProcessedCommand{Commands: []cad.CADCommand{}, Context: "Selection commands not implemented yet", Err: errors.New("command: not implemented")}
	e := NewEntry("s", KindSelection, "round these", pc, nil, nil)
	require.NoError(t, s.Append(ctx, &e))

	got, err := s.Recent(ctx, "s", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, KindSelection, got[0].Kind)
	assert.Empty(t, got[0].Commands)
	assert.Equal(t, "command: not implemented", got[0].Error)
}

func TestInMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	e := Entry{SessionID: "m", Kind: KindCommand, Text: "box"}
	require.NoError(t, s.Append(context.Background(), &e))
	got, err := s.Recent(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func texts(es []Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Text
	}
	return out
}
