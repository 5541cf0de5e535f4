// Package store archives finished interview sessions in a local
// SQLite database so transcripts survive past the process.
package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"prompter/session"
)

// Record is an archived session row.
type Record struct {
	ID            string
	InterviewType string
	Language      string
	PersonaName   string
	StartedAt     time.Time
	EndedAt       time.Time
	TurnCount     int
}

type Store struct {
	db      *sql.DB
	entropy *ulid.MonotonicEntropy
}

// DefaultPath returns the default archive location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "prompter", "sessions.sqlite")
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	interviewType TEXT NOT NULL,
	language      TEXT NOT NULL,
	personaName   TEXT NOT NULL DEFAULT '',
	startedAt     REAL NOT NULL,
	endedAt       REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	id        TEXT PRIMARY KEY,
	sessionId TEXT NOT NULL REFERENCES sessions(id),
	seq       INTEGER NOT NULL,
	askedAt   REAL NOT NULL,
	question  TEXT NOT NULL,
	answer    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS turns_session ON turns(sessionId, seq);
`

// Open opens (or creates) the archive with WAL enabled.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, entropy: ulid.Monotonic(rand.Reader, 0)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession archives a finished session with its turns and returns
// the archive ID. Sessions with no completed turns are skipped.
func (s *Store) SaveSession(setup session.Setup, startedAt, endedAt time.Time, turns []session.Turn) (string, error) {
	if len(turns) == 0 {
		return "", nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := ulid.MustNew(ulid.Timestamp(startedAt), s.entropy).String()
	_, err = tx.Exec(`
		INSERT INTO sessions (id, interviewType, language, personaName, startedAt, endedAt)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, string(setup.InterviewType), setup.Language, setup.PersonaName,
		unixFloat(startedAt), unixFloat(endedAt))
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	for i, t := range turns {
		_, err := tx.Exec(`
			INSERT INTO turns (id, sessionId, seq, askedAt, question, answer)
			VALUES (?, ?, ?, ?, ?, ?)
		`, t.ID, id, i, unixFloat(t.Timestamp), t.Question, t.Answer)
		if err != nil {
			return "", fmt.Errorf("insert turn %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Sessions lists archived sessions newest first.
func (s *Store) Sessions() ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.interviewType, s.language, s.personaName, s.startedAt, s.endedAt,
		       (SELECT COUNT(*) FROM turns t WHERE t.sessionId = s.id)
		FROM sessions s
		ORDER BY s.startedAt DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var startedAt, endedAt float64
		if err := rows.Scan(&r.ID, &r.InterviewType, &r.Language, &r.PersonaName,
			&startedAt, &endedAt, &r.TurnCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		r.StartedAt = timeFromUnix(startedAt)
		r.EndedAt = timeFromUnix(endedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Session returns one archived session, or nil when unknown.
func (s *Store) Session(id string) (*Record, error) {
	row := s.db.QueryRow(`
		SELECT s.id, s.interviewType, s.language, s.personaName, s.startedAt, s.endedAt,
		       (SELECT COUNT(*) FROM turns t WHERE t.sessionId = s.id)
		FROM sessions s
		WHERE s.id = ?
	`, id)

	var r Record
	var startedAt, endedAt float64
	if err := row.Scan(&r.ID, &r.InterviewType, &r.Language, &r.PersonaName,
		&startedAt, &endedAt, &r.TurnCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	r.StartedAt = timeFromUnix(startedAt)
	r.EndedAt = timeFromUnix(endedAt)
	return &r, nil
}

// Turns returns a session's turns in completion order.
func (s *Store) Turns(sessionID string) ([]session.Turn, error) {
	rows, err := s.db.Query(`
		SELECT id, askedAt, question, answer
		FROM turns
		WHERE sessionId = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []session.Turn
	for rows.Next() {
		var t session.Turn
		var askedAt float64
		if err := rows.Scan(&t.ID, &askedAt, &t.Question, &t.Answer); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Timestamp = timeFromUnix(askedAt)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func unixFloat(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func timeFromUnix(sec float64) time.Time {
	return time.Unix(0, int64(sec*float64(time.Second)))
}
