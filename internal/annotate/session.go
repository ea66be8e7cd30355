// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bom-reconcile/pkg/types"
)

const dbFile = "session.db"

// ErrNoSession is returned when a named session does not exist.
var ErrNoSession = errors.New("no such session")

// Session describes a saved annotation session.
type Session struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	Count     int       `json:"count" yaml:"count"`
}

// SessionDB persists annotation sessions in dir/session.db.
type SessionDB struct {
	db *sql.DB
}

// OpenSessionDB opens or creates the session database under dir, creating
// dir and the schema as needed.
func OpenSessionDB(dir string) (*SessionDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SessionDB{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SessionDB) Close() error {
	return s.db.Close()
}

func (s *SessionDB) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS annotations (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			part_number TEXT NOT NULL,
			kind TEXT NOT NULL,
			ignored INTEGER NOT NULL DEFAULT 0,
			update_primary INTEGER NOT NULL DEFAULT 0,
			update_secondary INTEGER NOT NULL DEFAULT 0,
			comment TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (session_id, part_number, kind)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save replaces the annotations of the named session with snap, creating
// the session on first save.
func (s *SessionDB) Save(ctx context.Context, name string, snap Snapshot) (Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	sess, err := lookup(ctx, tx, name)
	switch {
	case errors.Is(err, ErrNoSession):
		sess = Session{ID: uuid.NewString(), Name: name, CreatedAt: now}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			sess.ID, name, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
		); err != nil {
			return Session{}, fmt.Errorf("creating session %s: %w", name, err)
		}
	case err != nil:
		return Session{}, err
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET updated_at = ? WHERE id = ?`, now.Format(time.RFC3339Nano), sess.ID,
		); err != nil {
			return Session{}, fmt.Errorf("touching session %s: %w", name, err)
		}
	}
	sess.UpdatedAt = now

	if _, err := tx.ExecContext(ctx, `DELETE FROM annotations WHERE session_id = ?`, sess.ID); err != nil {
		return Session{}, fmt.Errorf("deleting old annotations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO annotations (session_id, part_number, kind, ignored, update_primary, update_secondary, comment)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Session{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range snap.Entries() {
		if e.Annotation.IsZero() {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			sess.ID, e.PartNumber, string(e.Kind),
			e.Ignored, e.UpdateSource.Primary, e.UpdateSource.Secondary, e.Comment,
		); err != nil {
			return Session{}, fmt.Errorf("inserting annotation %s: %w", e.AnnotationKey, err)
		}
		sess.Count++
	}

	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("committing session %s: %w", name, err)
	}
	return sess, nil
}

// Load reads the named session. A missing session yields an empty snapshot
// and ErrNoSession.
func (s *SessionDB) Load(ctx context.Context, name string) (Snapshot, Session, error) {
	sess, err := lookup(ctx, s.db, name)
	if err != nil {
		return Snapshot{}, Session{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT part_number, kind, ignored, update_primary, update_secondary, comment
		 FROM annotations WHERE session_id = ?`, sess.ID)
	if err != nil {
		return nil, Session{}, fmt.Errorf("querying annotations: %w", err)
	}
	defer rows.Close()

	snap := make(Snapshot)
	for rows.Next() {
		var (
			k    types.AnnotationKey
			kind string
			a    types.Annotation
		)
		if err := rows.Scan(&k.PartNumber, &kind, &a.Ignored, &a.UpdateSource.Primary, &a.UpdateSource.Secondary, &a.Comment); err != nil {
			return nil, Session{}, fmt.Errorf("scanning annotation: %w", err)
		}
		k.Kind = types.IssueKind(kind)
		snap[k] = a
	}
	if err := rows.Err(); err != nil {
		return nil, Session{}, fmt.Errorf("reading annotations: %w", err)
	}
	sess.Count = len(snap)
	return snap, sess, nil
}

// Sessions lists saved sessions by name.
func (s *SessionDB) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.name, s.created_at, s.updated_at, count(a.kind)
		 FROM sessions s LEFT JOIN annotations a ON a.session_id = s.id
		 GROUP BY s.id ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess             Session
			created, updated string
		)
		if err := rows.Scan(&sess.ID, &sess.Name, &created, &updated, &sess.Count); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		sess.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Clear deletes the named session and its annotations. Clearing a missing
// session is not an error.
func (s *SessionDB) Clear(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE name = ?`, name); err != nil {
		return fmt.Errorf("clearing session %s: %w", name, err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func lookup(ctx context.Context, q queryer, name string) (Session, error) {
	var (
		sess             Session
		created, updated string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM sessions WHERE name = ?`, name,
	).Scan(&sess.ID, &sess.Name, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%s: %w", name, ErrNoSession)
	}
	if err != nil {
		return Session{}, fmt.Errorf("looking up session %s: %w", name, err)
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return sess, nil
}
