// Package transcript stores the history of utterances and their outcomes in
// a local sqlite database.
package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chazu/kerf/pkg/cad"
	"github.com/chazu/kerf/pkg/command"
)

// ErrNotFound is returned by Get for an unknown entry ID.
var ErrNotFound = errors.New("transcript: entry not found")

// Kind tells plain requests from selection-scoped ones.
type Kind string

const (
	KindCommand   Kind = "command"
	KindSelection Kind = "selection"
)

// ErrorKind says which stage an entry failed in, so a frontend can react
// without matching error text.
type ErrorKind string

const (
	ErrorNone           ErrorKind = ""
	ErrorNotImplemented ErrorKind = "not_implemented"
	ErrorInterpretation ErrorKind = "interpretation"
	ErrorExecution      ErrorKind = "execution"
)

// Entry is one utterance and what became of it.
type Entry struct {
	ID        uuid.UUID        `json:"id"`
	SessionID string           `json:"sessionId"`
	Kind      Kind             `json:"kind"`
	Text      string           `json:"text"`
	Context   string           `json:"context"`
	Error     string           `json:"error,omitempty"`
	ErrorKind ErrorKind        `json:"errorKind,omitempty"`
	Commands  []cad.CADCommand `json:"commands"`
	Solids    []cad.SolidID    `json:"solids,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NewEntry records the interpretation of text. execErr, if any, replaces
// the interpretation error as the entry's error.
func NewEntry(sessionID string, kind Kind, text string, pc cad.ProcessedCommand, solids []cad.SolidID, execErr error) Entry {
	e := Entry{
		ID:        uuid.New(),
		SessionID: sessionID,
		Kind:      kind,
		Text:      text,
		Context:   pc.Context,
		Error:     pc.Message(),
		Commands:  pc.Commands,
		Solids:    solids,
		CreatedAt: time.Now().UTC(),
	}
	switch {
	case errors.Is(pc.Err, command.ErrNotImplemented):
		e.ErrorKind = ErrorNotImplemented
	case pc.Err != nil:
		e.ErrorKind = ErrorInterpretation
	}
	if execErr != nil {
		e.Error = execErr.Error()
		e.ErrorKind = ErrorExecution
	}
	if e.Commands == nil {
		e.Commands = []cad.CADCommand{}
	}
	return e
}

// Failed reports whether the entry carries an error.
func (e Entry) Failed() bool { return e.Error != "" }

// Store is a sqlite-backed transcript.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the transcript database at path. ":memory:" opens a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("transcript: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("transcript: open database: %w", err)
	}
	// One connection keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("transcript: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		text TEXT NOT NULL,
		context TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		error_kind TEXT NOT NULL DEFAULT '',
		commands_json TEXT NOT NULL,
		solids_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_entries_session ON entries(session_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Databases written before error kinds were recorded lack the column.
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('entries') WHERE name = 'error_kind'`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.db.Exec(`ALTER TABLE entries ADD COLUMN error_kind TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores e. A zero ID or CreatedAt is filled in.
func (s *Store) Append(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	cmds, err := json.Marshal(e.Commands)
	if err != nil {
		return fmt.Errorf("transcript: encode commands: %w", err)
	}
	solids, err := json.Marshal(e.Solids)
	if err != nil {
		return fmt.Errorf("transcript: encode solids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (id, session_id, kind, text, context, error, error_kind, commands_json, solids_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID.String(), e.SessionID, string(e.Kind), e.Text, e.Context, e.Error, string(e.ErrorKind), string(cmds), string(solids), e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("transcript: insert entry: %w", err)
	}
	return nil
}

const selectEntry = `
	SELECT id, session_id, kind, text, context, error, error_kind, commands_json, solids_json, created_at
	FROM entries`

// Get returns the entry with the given ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id.String())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// Recent returns up to limit entries, newest first. A non-empty sessionID
// restricts the result to that session.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := selectEntry + ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args := []any{limit}
	if sessionID != "" {
		query = selectEntry + ` WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`
		args = []any{sessionID, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("transcript: query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e              Entry
		id, kind       string
		errKind        string
		cmdsJSON, sols string
		created        int64
	)
	if err := sc.Scan(&id, &e.SessionID, &kind, &e.Text, &e.Context, &e.Error, &errKind, &cmdsJSON, &sols, &created); err != nil {
		return Entry{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Entry{}, fmt.Errorf("transcript: bad entry id %q: %w", id, err)
	}
	e.ID = parsed
	e.Kind = Kind(kind)
	e.ErrorKind = ErrorKind(errKind)
	e.CreatedAt = time.Unix(0, created).UTC()
	if err := json.Unmarshal([]byte(cmdsJSON), &e.Commands); err != nil {
		return Entry{}, fmt.Errorf("transcript: decode commands: %w", err)
	}
	if err := json.Unmarshal([]byte(sols), &e.Solids); err != nil {
		return Entry{}, fmt.Errorf("transcript: decode solids: %w", err)
	}
	return e, nil
}
