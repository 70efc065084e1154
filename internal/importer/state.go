package importer

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// StateDB remembers which export files and sessions were imported so re-runs
// skip them.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS imported_files (
		path        TEXT PRIMARY KEY,
		size        INTEGER NOT NULL,
		sha256      TEXT NOT NULL,
		sessions    INTEGER NOT NULL DEFAULT 0,
		imported_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS imported_sessions (
		key        TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		logged     INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsImported reports whether path was imported with the same size and hash.
func (s *StateDB) IsImported(ctx context.Context, f FileRef) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM imported_files WHERE path = ? AND size = ? AND sha256 = ?`,
		f.Path, f.Size, f.SHA256,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking import state: %w", err)
	}
	return n > 0, nil
}

// MarkImported records a file and the number of sessions logged from it. A
// changed file under the same path replaces the old record.
func (s *StateDB) MarkImported(ctx context.Context, f FileRef, sessions int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO imported_files (path, size, sha256, sessions, imported_at)
		 VALUES (?, ?, ?, ?, ?)`,
		f.Path, f.Size, f.SHA256, sessions, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording import of %s: %w", f.Path, err)
	}
	return nil
}

// SessionState is the local record of one exported session.
type SessionState struct {
	ID     uuid.UUID
	Logged bool
}

// LookupSession returns the record for key, or a zero SessionState when the
// session was never reserved.
func (s *StateDB) LookupSession(ctx context.Context, key string) (SessionState, error) {
	var id string
	var st SessionState
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, logged FROM imported_sessions WHERE key = ?`, key,
	).Scan(&id, &st.Logged)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionState{}, nil
	}
	if err != nil {
		return SessionState{}, fmt.Errorf("checking session state: %w", err)
	}
	if st.ID, err = uuid.Parse(id); err != nil {
		return SessionState{}, fmt.Errorf("session state %s: %w", key, err)
	}
	return st, nil
}

// ReserveSession returns the session ID assigned to key, assigning a new one
// the first time. The ID is stored before the session is sent so a resend
// after a failure reuses it.
func (s *StateDB) ReserveSession(ctx context.Context, key string) (SessionState, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO imported_sessions (key, session_id, logged, updated_at)
		 VALUES (?, ?, 0, ?)`,
		key, uuid.NewString(), time.Now().UTC(),
	)
	if err != nil {
		return SessionState{}, fmt.Errorf("reserving session %s: %w", key, err)
	}
	return s.LookupSession(ctx, key)
}

// MarkSessionLogged records that the server accepted the session for key.
func (s *StateDB) MarkSessionLogged(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE imported_sessions SET logged = 1, updated_at = ? WHERE key = ?`,
		time.Now().UTC(), key,
	)
	if err != nil {
		return fmt.Errorf("recording session %s: %w", key, err)
	}
	return nil
}

func (s *StateDB) Close() error {
	return s.db.Close()
}

// FileRef identifies one version of an export file.
type FileRef struct {
	Path   string
	Size   int64
	SHA256 string
}

// Ref stats and hashes path. The stored path is absolute.
func Ref(path string) (FileRef, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileRef{}, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return FileRef{}, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return FileRef{}, fmt.Errorf("hashing %s: %w", abs, err)
	}
	return FileRef{Path: abs, Size: n, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}
