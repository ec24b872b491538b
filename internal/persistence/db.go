// Package persistence stores simulation snapshots in SQLite. Each save is
// one zstd-compressed JSON envelope plus a little metadata; the snapshot
// format itself belongs to the engine package.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/emberhollow/aicore/internal/engine"
)

// ErrNoSave is returned when a requested save does not exist.
var ErrNoSave = errors.New("persistence: save not found")

// Store wraps a SQLite connection for snapshot persistence.
type Store struct {
	conn *sqlx.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// SaveInfo describes one stored snapshot.
type SaveInfo struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Tick      uint64    `db:"tick" json:"tick"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Size      int       `db:"size" json:"size"` // compressed bytes
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	s := &Store{conn: conn, enc: enc, dec: dec}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		tick INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		payload BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saves_created ON saves(created_at);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SaveSnapshot stores a snapshot under a fresh id and returns it.
func (s *Store) SaveSnapshot(name string, tick uint64, snap engine.Snapshot) (string, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	payload := s.enc.EncodeAll(raw, nil)

	id := uuid.NewString()
	_, err = s.conn.Exec(
		`INSERT INTO saves (id, name, tick, created_at, payload) VALUES (?, ?, ?, ?, ?)`,
		id, name, tick, time.Now().UTC(), payload,
	)
	if err != nil {
		return "", fmt.Errorf("insert save: %w", err)
	}
	return id, nil
}

// LoadSnapshot reads back one save by id.
func (s *Store) LoadSnapshot(id string) (engine.Snapshot, error) {
	var payload []byte
	err := s.conn.Get(&payload, `SELECT payload FROM saves WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, ErrNoSave
	}
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("select save: %w", err)
	}
	return s.decode(payload)
}

// LatestSnapshot reads back the most recent save, if any.
func (s *Store) LatestSnapshot() (engine.Snapshot, string, error) {
	var row struct {
		ID      string `db:"id"`
		Payload []byte `db:"payload"`
	}
	err := s.conn.Get(&row, `SELECT id, payload FROM saves ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, "", ErrNoSave
	}
	if err != nil {
		return engine.Snapshot{}, "", fmt.Errorf("select latest save: %w", err)
	}
	snap, err := s.decode(row.Payload)
	return snap, row.ID, err
}

func (s *Store) decode(payload []byte) (engine.Snapshot, error) {
	raw, err := s.dec.DecodeAll(payload, nil)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("decompress snapshot: %w", err)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return engine.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// ListSaves returns save metadata, newest first.
func (s *Store) ListSaves() ([]SaveInfo, error) {
	var out []SaveInfo
	err := s.conn.Select(&out, `
		SELECT id, name, tick, created_at, length(payload) AS size
		FROM saves ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	return out, nil
}

// DeleteSave removes one save by id.
func (s *Store) DeleteSave(id string) error {
	res, err := s.conn.Exec(`DELETE FROM saves WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoSave
	}
	return nil
}

// SetMeta stores a small key/value pair (tick counters, format hints).
func (s *Store) SetMeta(key, value string) error {
	_, err := s.conn.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// GetMeta reads a metadata value; ok is false when the key is absent.
func (s *Store) GetMeta(key string) (string, bool, error) {
	var value string
	err := s.conn.Get(&value, `SELECT value FROM meta WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
