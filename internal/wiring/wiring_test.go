package wiring

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fichas/internal/config"
	"fichas/internal/fusion"
	"fichas/internal/pipeline"
)

func TestBuild_Defaults(t *testing.T) {
	rt, err := Build(nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rt.Schema.Name() != "ficha_ayuda" {
		t.Errorf("schema = %q", rt.Schema.Name())
	}
	if !rt.Vocabulary.Contains("Subvención") {
		t.Error("default vocabulary missing Subvención")
	}
	if rt.Input().Gate {
		t.Error("gate on by default")
	}
}

func TestBuild_FromFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	cfg := config.Default()
	cfg.Schema = write("schema.yaml", "name: mini\nfields:\n  - name: tipo_ayuda\n    shape: string_list\n  - name: descripcion\n    shape: scalar\n")
	cfg.Vocabulary = write("tipos.json", `{"tipos_de_ayuda": ["Beca"]}`)
	cfg.Rules = write("rules.yaml", "min_description_words: 1\n")
	cfg.Strategies = map[string]string{"descripcion": "line_set"}
	cfg.DB = filepath.Join(dir, "db", "fichas.db")

	rt, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got, _ := rt.Engine.Strategy("descripcion"); got != fusion.LineSet {
		t.Errorf("descripcion strategy = %q", got)
	}
	res, err := pipeline.Run(context.Background(), rt.Input(), []pipeline.Chunk{
		{Name: "x_parte1.json", Raw: `{"tipo_ayuda": ["beca"], "descripcion": "- Dos palabras."}`},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Report.Score != 1 {
		t.Errorf("score = %v, want 1: %+v", res.Report.Score, res.Report.Invalid())
	}

	st, err := rt.OpenStore()
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer st.Close()
}

func TestBuild_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	for name, mutate := range map[string]func(*config.Config){
		"schema":     func(c *config.Config) { c.Schema = missing },
		"vocabulary": func(c *config.Config) { c.Vocabulary = missing },
		"rules":      func(c *config.Config) { c.Rules = missing },
		"strategy":   func(c *config.Config) { c.Strategies = map[string]string{"categoria": "longest"} },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(cfg)
			if _, err := Build(cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}
