package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"fichas/internal/quality"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sql, err := Open(filepath.Join(t.TempDir(), "nested", "fichas.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = sql.Close() })
	return map[string]Store{"sql": sql, "mem": NewMemStore()}
}

func sampleRun(base string, at time.Time) *Run {
	return &Run{
		Base:      base,
		Schema:    "ficha_ayuda",
		CreatedAt: at,
		Record:    json.RawMessage(`{"organismo":"Consejería"}`),
		Report: quality.Report{
			Fields: []quality.FieldResult{{Field: "usuario", Valid: false, Reason: "empty"}},
			Score:  0,
		},
		Problems: []string{`field "usuario": empty field`},
		Excluded: []string{"ayuda_parte2.json"},
	}
}

func TestStore_SaveGet(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			r := sampleRun("ayuda", time.Time{})
			id, err := s.SaveRun(r)
			if err != nil {
				t.Fatalf("SaveRun: %v", err)
			}
			if _, err := uuid.Parse(id); err != nil {
				t.Errorf("id %q is not a UUID: %v", id, err)
			}
			if r.CreatedAt.IsZero() {
				t.Error("CreatedAt not stamped")
			}
			got, err := s.GetRun(id)
			if err != nil {
				t.Fatalf("GetRun: %v", err)
			}
			if diff := cmp.Diff(r, got, cmpopts.EquateApproxTime(time.Microsecond)); diff != "" {
				t.Errorf("run mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_GetUnknown(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.GetRun("nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_ListRuns(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for i, base := range []string{"ayuda", "beca", "ayuda"} {
				r := sampleRun(base, t0.Add(time.Duration(i)*time.Second))
				r.ID = base + string(rune('0'+i))
				if _, err := s.SaveRun(r); err != nil {
					t.Fatal(err)
				}
			}
			ids := func(runs []*Run) []string {
				var out []string
				for _, r := range runs {
					out = append(out, r.ID)
				}
				return out
			}
			all, err := s.ListRuns("")
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{"ayuda2", "beca1", "ayuda0"}, ids(all)); diff != "" {
				t.Errorf("ListRuns(\"\") mismatch (-want +got):\n%s", diff)
			}
			ayuda, err := s.ListRuns("ayuda")
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{"ayuda2", "ayuda0"}, ids(ayuda)); diff != "" {
				t.Errorf("ListRuns(ayuda) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMemStore_CopiesRuns(t *testing.T) {
	s := NewMemStore()
	r := sampleRun("ayuda", time.Now())
	id, _ := s.SaveRun(r)
	r.Problems[0] = "changed"
	got, _ := s.GetRun(id)
	if got.Problems[0] == "changed" {
		t.Error("MemStore aliases saved run")
	}
}

func TestSqlStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fichas.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.SaveRun(sampleRun("ayuda", time.Time{}))
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.GetRun(id); err != nil {
		t.Errorf("GetRun after reopen: %v", err)
	}
	var v int
	if err := s.db.QueryRow("SELECT version FROM schema_version").Scan(&v); err != nil || v != currentSchemaVersion {
		t.Errorf("schema version = %d (err %v), want %d", v, err, currentSchemaVersion)
	}
}

func TestSqlStore_UnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fichas.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()
	if _, err := Open(path); err == nil {
		t.Error("expected error for unknown schema version")
	}
}
