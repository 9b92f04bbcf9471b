package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefault_IsValid(t *testing.T) {
	if _, err := Load(nil, ".yaml"); err != nil {
		t.Fatalf("empty config: %v", err)
	}
}

func TestLoad_Formats(t *testing.T) {
	want := Default()
	want.Parallel = 8
	want.Gate = true
	want.Strategies = map[string]string{"descripcion": "longest"}
	want.Log.Level = "debug"

	tests := []struct {
		name string
		ext  string
		data string
	}{
		{"yaml", ".yaml", "parallel: 8\ngate: true\nstrategies:\n  descripcion: longest\nlog:\n  level: debug\n"},
		{"yml", ".yml", "parallel: 8\ngate: true\nstrategies: {descripcion: longest}\nlog: {level: debug}\n"},
		{"json", ".json", `{"parallel": 8, "gate": true, "strategies": {"descripcion": "longest"}, "log": {"level": "debug"}}`},
		{"sniff json", "", `  {"parallel": 8, "gate": true, "strategies": {"descripcion": "longest"}, "log": {"level": "debug"}}`},
		{"sniff yaml", "", "parallel: 8\ngate: true\nstrategies:\n  descripcion: longest\nlog:\n  level: debug\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load([]byte(tt.data), tt.ext)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"parallel", "parallel: 0", "parallel"},
		{"threshold", "threshold: 1.5", "threshold"},
		{"strategy", "strategies:\n  descripcion: vote", "strategies"},
		{"log level", "log:\n  level: loud", "log.level"},
		{"db", `db: ""`, "db"},
		{"syntax", "parallel: [", "parse yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data), ".yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fichas.yaml")
	if err := os.WriteFile(path, []byte("db: runs.db\nthreshold: 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if c.DB != "runs.db" || c.Threshold != 0.5 || c.Parallel != 4 {
		t.Errorf("config = %+v", c)
	}
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
