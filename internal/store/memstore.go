package store

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"fichas/internal/quality"
)

// MemStore implements Store in memory. Runs are copied on the way in and out.
type MemStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{runs: make(map[string]*Run)}
}

func (s *MemStore) SaveRun(r *Run) (string, error) {
	stamp(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = copyRun(r)
	return r.ID, nil
}

func (s *MemStore) GetRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("store: get run %q: %w", id, ErrNotFound)
	}
	return copyRun(r), nil
}

func (s *MemStore) ListRuns(base string) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Run
	for _, r := range s.runs {
		if base == "" || r.Base == base {
			out = append(out, copyRun(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) Close() error { return nil }

func copyRun(r *Run) *Run {
	c := *r
	c.Record = bytes.Clone(r.Record)
	c.Report.Fields = append([]quality.FieldResult(nil), r.Report.Fields...)
	c.Problems = append([]string(nil), r.Problems...)
	c.Excluded = append([]string(nil), r.Excluded...)
	return &c
}
