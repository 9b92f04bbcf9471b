// Package store persists fusion runs so a record and its diagnostics can be
// listed and reloaded later.
package store

import (
	"encoding/json"
	"errors"
	"time"

	"fichas/internal/quality"
)

// DefaultDBPath is the default relative path for the SQLite DB (per-workspace).
// Open() creates the parent dir (e.g. .fichas).
const DefaultDBPath = ".fichas/fichas.db"

// ErrNotFound is returned by GetRun for an unknown ID.
var ErrNotFound = errors.New("run not found")

// Run is one persisted fusion run: the fused record plus its diagnostics.
type Run struct {
	ID        string          `json:"id"`
	Base      string          `json:"base"`
	Schema    string          `json:"schema"`
	CreatedAt time.Time       `json:"created_at"`
	Record    json.RawMessage `json:"record"`
	Report    quality.Report  `json:"report"`
	Problems  []string        `json:"problems,omitempty"`
	Excluded  []string        `json:"excluded,omitempty"`
}

// Store is the persistence facade for runs. CLI and MCP use only this
// interface; implementation is SQLite or in-memory.
type Store interface {
	// SaveRun stores r, assigning a v4 UUID when r.ID is empty and the
	// current time when r.CreatedAt is zero. It returns the ID.
	SaveRun(r *Run) (string, error)
	GetRun(id string) (*Run, error)
	// ListRuns returns runs newest first; an empty base lists every run.
	ListRuns(base string) ([]*Run, error)
	Close() error
}
