package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// execute runs the CLI in-process with flags reset to their defaults.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFuse_SaveAndList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ayuda_parte1.json"), "```json\n{\"categoria\": [\"Vivienda\"], \"usuario\": \"Ana\"}\n```")
	writeFile(t, filepath.Join(dir, "ayuda_parte2.json"), `{"categoria": ["Empleo", "vivienda "]}`)
	writeFile(t, filepath.Join(dir, "ayuda_parte3.json"), "respuesta sin json")
	db := filepath.Join(dir, "db", "fichas.db")
	recPath := filepath.Join(dir, "ficha.json")

	_, stderr, err := execute(t, "fuse", "--dir", dir, "--base", "ayuda", "-o", recPath, "--save", "--db", db)
	if err != nil {
		t.Fatalf("fuse: %v\n%s", err, stderr)
	}
	if !strings.Contains(stderr, "excluded ayuda_parte3.json") {
		t.Errorf("stderr missing exclusion:\n%s", stderr)
	}
	data, err := os.ReadFile(recPath)
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("record not JSON: %v", err)
	}
	cats := rec["categoria"].([]any)
	if len(cats) != 2 || cats[0] != "empleo" || cats[1] != "vivienda" {
		t.Errorf("categoria = %v", cats)
	}

	m := regexp.MustCompile(`Saved run ([0-9a-f-]{36})`).FindStringSubmatch(stderr)
	if m == nil {
		t.Fatalf("no run ID in stderr:\n%s", stderr)
	}
	stdout, _, err := execute(t, "runs", "--db", db, "--format", "markdown")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(stdout, m[1]) || !strings.Contains(stdout, "ayuda") {
		t.Errorf("runs output missing saved run:\n%s", stdout)
	}

	stdout, _, err = execute(t, "runs", "show", m[1], "--db", db)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	if !strings.Contains(stdout, `"base": "ayuda"`) {
		t.Errorf("runs show output:\n%s", stdout)
	}
}

func TestFuse_NoChunks(t *testing.T) {
	if _, _, err := execute(t, "fuse", "--dir", t.TempDir(), "--base", "nada"); err == nil {
		t.Error("expected error when no chunks match")
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ficha.json")
	writeFile(t, path, `{"descripcion": "Ayuda", "cuantia": "mucho"}`)

	stdout, _, err := execute(t, "verify", path, "--format", "markdown")
	if err == nil {
		t.Fatal("expected error for an incomplete record")
	}
	for _, want := range []string{"cuantia", "shape mismatch", "missing field"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("verify output missing %q:\n%s", want, stdout)
		}
	}
}

func TestScore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ficha.json")
	writeFile(t, path, `{"tipo_ayuda": ["Donación"], "usuario": "Ana"}`)

	stdout, _, err := execute(t, "score", path)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !strings.Contains(stdout, "Donación") {
		t.Errorf("score output missing vocabulary reason:\n%s", stdout)
	}
	if _, _, err := execute(t, "score", path, "--strict"); err == nil {
		t.Error("expected --strict to fail a low score")
	}
}

func TestSchema(t *testing.T) {
	stdout, _, err := execute(t, "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	for _, want := range []string{"ficha_ayuda", "lugares_presentacion", "line_set"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("schema output missing %q:\n%s", want, stdout)
		}
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "fichas.yaml")
	writeFile(t, cfg, "strategies:\n  descripcion: line_set\nlog:\n  format: json\n")
	stdout, _, err := execute(t, "schema", "--config", cfg, "--format", "markdown")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	row := regexp.MustCompile(`\|\s*descripcion\s*\|\s*scalar\s*\|\s*\|\s*line_set\s*\|`)
	if !row.MatchString(stdout) {
		t.Errorf("descripcion strategy not overridden:\n%s", stdout)
	}

	writeFile(t, cfg, "parallel: 0\n")
	if _, _, err := execute(t, "schema", "--config", cfg); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestBadFlags(t *testing.T) {
	if _, _, err := execute(t, "schema", "--log-level", "loud"); err == nil {
		t.Error("expected error for unknown log level")
	}
	if _, _, err := execute(t, "schema", "--format", "html"); err == nil {
		t.Error("expected error for unknown table format")
	}
}

type closeErrWriter struct {
	bytes.Buffer
	err    error
	closed bool
}

func (w *closeErrWriter) Close() error {
	w.closed = true
	return w.err
}

func TestWriteJSONClose(t *testing.T) {
	flushErr := errors.New("disk full")
	w := &closeErrWriter{err: flushErr}
	err := writeJSONClose(w, map[string]any{"descripcion": "x"})
	if !errors.Is(err, flushErr) {
		t.Errorf("writeJSONClose error = %v, want %v", err, flushErr)
	}
	if !w.closed {
		t.Error("writer not closed")
	}
	if !strings.Contains(w.String(), `"descripcion": "x"`) {
		t.Errorf("encoded = %q", w.String())
	}

	ok := &closeErrWriter{}
	if err := writeJSONClose(ok, map[string]any{}); err != nil {
		t.Errorf("writeJSONClose = %v, want nil", err)
	}
	if !ok.closed {
		t.Error("writer not closed on success")
	}
}
