package vocabulary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	v := Default()
	if v.Len() == 0 {
		t.Fatal("default vocabulary is empty")
	}
	for _, term := range []string{"Subvención", " subvención ", "PRÉSTAMO", "«Aval»"} {
		if !v.Contains(term) {
			t.Errorf("Contains(%q) = false, want true", term)
		}
	}
	for _, term := range []string{"", "Donación", "Subvenciones"} {
		if v.Contains(term) {
			t.Errorf("Contains(%q) = true, want false", term)
		}
	}
}

func TestNew_DedupsCanonically(t *testing.T) {
	v := New("Beca", " beca", "", "Premio")
	if diff := cmp.Diff([]string{"Beca", "Premio"}, v.Terms()); diff != "" {
		t.Errorf("Terms mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Formats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		file string
		body string
		want []string
	}{
		{"upstream json", "tipos.json", `{"tipos_de_ayuda": ["Subvención", "Préstamo"]}`, []string{"Subvención", "Préstamo"}},
		{"json list", "lista.json", `["Beca"]`, []string{"Beca"}},
		{"yaml list", "tipos.yaml", "- Aval\n- Garantía\n", []string{"Aval", "Garantía"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			v, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := cmp.Diff(tt.want, v.Terms()); diff != "" {
				t.Errorf("Terms mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, body := range []string{
		`"solo texto"`,
		`{"otros": ["x"]}`,
		`{"tipos_de_ayuda": "Beca"}`,
		`[1, 2]`,
		`[]`,
		`{"tipos_de_ayuda": [`,
	} {
		if _, err := Parse([]byte(body)); err == nil {
			t.Errorf("Parse(%s) = nil error, want error", body)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
