package format_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"fichas/internal/conform"
	"fichas/internal/format"
	"fichas/internal/quality"
	"fichas/internal/schema"
	"fichas/internal/store"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    format.Mode
		wantErr bool
	}{
		{"", format.ASCII, false},
		{"table", format.ASCII, false},
		{"Markdown", format.Markdown, false},
		{"md", format.Markdown, false},
		{"html", format.ASCII, true},
	}
	for _, tt := range tests {
		got, err := format.ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestTable_ASCII(t *testing.T) {
	tb := format.NewTable(format.ASCII, "Field", "Score")
	tb.Row("descripcion", 0.5)
	tb.AlignRight(2)
	out := tb.String()
	for _, want := range []string{"FIELD", "descripcion", "0.5", "───"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if tb.Len() != 1 {
		t.Errorf("Len = %d, want 1", tb.Len())
	}
}

func TestTable_Markdown(t *testing.T) {
	tb := format.NewTable(format.Markdown, "Field", "Total")
	tb.Row("cuantia", 2)
	tb.Footer("TOTAL", 2)
	out := tb.String()
	for _, want := range []string{"| Field", "---", "cuantia", "TOTAL"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestReport(t *testing.T) {
	rep := quality.Report{
		Fields: []quality.FieldResult{
			{Field: "tipo_ayuda", Valid: false, Reason: "terms outside vocabulary: Donación"},
			{Field: "usuario", Valid: true},
		},
		Score: 0.5,
	}
	out := format.Report(rep, format.Markdown)
	for _, want := range []string{"tipo_ayuda", "Donación", "✗", "✓", "0.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestProblems(t *testing.T) {
	errs := []error{
		&conform.FieldError{Field: "cuantia", Err: conform.ErrShapeMismatch, Detail: "expected struct_list, got text"},
		fmt.Errorf("loose error"),
	}
	out := format.Problems(errs, format.Markdown)
	for _, want := range []string{"cuantia", "shape mismatch", "expected struct_list", "loose error"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestSchema(t *testing.T) {
	out := format.Schema(schema.Default(), func(string) string { return "longest" }, format.Markdown)
	for _, want := range []string{"lugares_presentacion", "channel_list", "longest", "valor"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRuns(t *testing.T) {
	runs := []*store.Run{{
		ID:        "0b4e",
		Base:      "ayuda",
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Report:    quality.Report{Score: 0.78},
		Problems:  []string{"a", "b"},
	}}
	out := format.Runs(runs, format.Markdown)
	for _, want := range []string{"0b4e", "ayuda", "2026-03-01 10:00:00", "0.78"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"corto", 10, "corto"},
		{"subvención directa", 10, "subvenc..."},
		{"ñandú", 2, "ña"},
	}
	for _, tt := range tests {
		if got := format.Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
