package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// SessionRow represents a session in the database.
type SessionRow struct {
	Code      string
	GameType  string
	Status    string // "waiting", "playing", "finished"
	CreatedAt time.Time
}

// MoveRow is one entry of a session's append-only move log.
type MoveRow struct {
	ID        string    `json:"id"`
	Ply       int       `json:"ply"`
	PlayerID  string    `json:"playerId"`
	Action    string    `json:"action"`
	Notation  string    `json:"notation,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store handles SQLite persistence.
type Store struct {
	db      *sql.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if strings.Contains(path, ":memory:") {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	s := &Store{db: db, encoder: encoder, decoder: decoder}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			code       TEXT PRIMARY KEY,
			game_type  TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'waiting',
			roster     TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS match_state (
			session_code TEXT PRIMARY KEY REFERENCES sessions(code),
			snapshot     BLOB NOT NULL,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS moves (
			id           TEXT PRIMARY KEY,
			session_code TEXT NOT NULL REFERENCES sessions(code),
			ply          INTEGER NOT NULL,
			player_id    TEXT NOT NULL,
			action       TEXT NOT NULL,
			notation     TEXT NOT NULL DEFAULT '',
			payload      TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS moves_by_session ON moves(session_code, ply);
	`)
	return err
}

// CreateSession inserts a new session.
func (s *Store) CreateSession(code, gameType string) error {
	_, err := s.db.Exec(
		"INSERT INTO sessions (code, game_type, status) VALUES (?, ?, 'waiting')",
		code, gameType,
	)
	return err
}

// GetSession retrieves a session by code.
func (s *Store) GetSession(code string) (*SessionRow, error) {
	row := s.db.QueryRow("SELECT code, game_type, status, created_at FROM sessions WHERE code = ?", code)
	var sr SessionRow
	if err := row.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.CreatedAt); err != nil {
		return nil, err
	}
	return &sr, nil
}

// UpdateSessionStatus changes a session's status.
func (s *Store) UpdateSessionStatus(code, status string) error {
	_, err := s.db.Exec("UPDATE sessions SET status = ? WHERE code = ?", status, code)
	return err
}

// SaveRoster stores the session's serialized seating.
func (s *Store) SaveRoster(code, rosterJSON string) error {
	res, err := s.db.Exec("UPDATE sessions SET roster = ? WHERE code = ?", rosterJSON, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetRoster returns the serialized seating, empty if never saved.
func (s *Store) GetRoster(code string) (string, error) {
	var roster string
	err := s.db.QueryRow("SELECT roster FROM sessions WHERE code = ?", code).Scan(&roster)
	return roster, err
}

// ListSessions returns all sessions with the given status (or all if status is empty).
func (s *Store) ListSessions(status string) ([]SessionRow, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query("SELECT code, game_type, status, created_at FROM sessions ORDER BY created_at DESC")
	} else {
		rows, err = s.db.Query("SELECT code, game_type, status, created_at FROM sessions WHERE status = ? ORDER BY created_at DESC", status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []SessionRow
	for rows.Next() {
		var sr SessionRow
		if err := rows.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sr)
	}
	return result, rows.Err()
}

// SaveSnapshot upserts the zstd-compressed match state.
func (s *Store) SaveSnapshot(sessionCode string, state []byte) error {
	compressed := s.encoder.EncodeAll(state, nil)
	_, err := s.db.Exec(`
		INSERT INTO match_state (session_code, snapshot, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_code) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at
	`, sessionCode, compressed)
	return err
}

// LoadSnapshot returns the decompressed match state.
func (s *Store) LoadSnapshot(sessionCode string) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRow("SELECT snapshot FROM match_state WHERE session_code = ?", sessionCode).Scan(&compressed)
	if err != nil {
		return nil, err
	}
	state, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot %s: %w", sessionCode, err)
	}
	return state, nil
}

// AppendMove adds mv to the session's move log. The ply number is assigned
// here; ID and CreatedAt are filled in on the returned row.
func (s *Store) AppendMove(sessionCode string, mv MoveRow) (MoveRow, error) {
	mv.ID = uuid.NewString()
	mv.CreatedAt = time.Now().UTC()
	err := s.db.QueryRow(`
		INSERT INTO moves (id, session_code, ply, player_id, action, notation, payload, created_at)
		VALUES (?, ?, (SELECT COUNT(*) + 1 FROM moves WHERE session_code = ?), ?, ?, ?, ?, ?)
		RETURNING ply
	`, mv.ID, sessionCode, sessionCode, mv.PlayerID, mv.Action, mv.Notation, mv.Payload, mv.CreatedAt).Scan(&mv.Ply)
	if err != nil {
		return MoveRow{}, err
	}
	return mv, nil
}

// ListMoves returns the move log in ply order.
func (s *Store) ListMoves(sessionCode string) ([]MoveRow, error) {
	rows, err := s.db.Query(`
		SELECT id, ply, player_id, action, notation, payload, created_at
		FROM moves WHERE session_code = ? ORDER BY ply
	`, sessionCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []MoveRow
	for rows.Next() {
		var mv MoveRow
		if err := rows.Scan(&mv.ID, &mv.Ply, &mv.PlayerID, &mv.Action, &mv.Notation, &mv.Payload, &mv.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, mv)
	}
	return result, rows.Err()
}

// DeleteSession removes a session, its match state and its move log.
func (s *Store) DeleteSession(code string) error {
	for _, q := range []string{
		"DELETE FROM moves WHERE session_code = ?",
		"DELETE FROM match_state WHERE session_code = ?",
		"DELETE FROM sessions WHERE code = ?",
	} {
		if _, err := s.db.Exec(q, code); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}
