package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// createdLayout is fixed-width so created_at sorts lexically.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .fichas) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("store: check schema_version table: %w", err)
	}
	if tableCount == 0 {
		return s.freshInstall()
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return s.freshInstall()
	}
	if err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}
	if v != currentSchemaVersion {
		return fmt.Errorf("store: unknown schema version %d", v)
	}
	return nil
}

func (s *SqlStore) freshInstall() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin install tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(schemaV1); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
		return fmt.Errorf("store: set schema version: %w", err)
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts r, replacing any run with the same ID.
func (s *SqlStore) SaveRun(r *Run) (string, error) {
	stamp(r)
	payload, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("store: marshal run %q: %w", r.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO runs(id, base, schema_name, score, created_at, payload)
		 VALUES(?, ?, ?, ?, ?, ?)`,
		r.ID, r.Base, r.Schema, r.Report.Score, r.CreatedAt.UTC().Format(createdLayout), payload,
	)
	if err != nil {
		return "", fmt.Errorf("store: insert run %q: %w", r.ID, err)
	}
	return r.ID, nil
}

// GetRun returns the run by id.
func (s *SqlStore) GetRun(id string) (*Run, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM runs WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: get run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get run %q: %w", id, err)
	}
	return decodeRun(payload)
}

// ListRuns returns runs newest first, optionally filtered by base.
func (s *SqlStore) ListRuns(base string) ([]*Run, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if base == "" {
		rows, err = s.db.Query("SELECT payload FROM runs ORDER BY created_at DESC, id")
	} else {
		rows, err = s.db.Query("SELECT payload FROM runs WHERE base = ? ORDER BY created_at DESC, id", base)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r, err := decodeRun(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func decodeRun(payload []byte) (*Run, error) {
	var r Run
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("store: decode run: %w", err)
	}
	return &r, nil
}
