package format

import (
	"errors"
	"fmt"
	"time"

	"fichas/internal/conform"
	"fichas/internal/quality"
	"fichas/internal/schema"
	"fichas/internal/store"
)

// Report renders a quality report with the score as footer.
func Report(rep quality.Report, m Mode) string {
	t := NewTable(m, "Rule", "Valid", "Reason")
	for _, f := range rep.Fields {
		t.Row(f.Field, Mark(f.Valid), f.Reason)
	}
	t.Footer("score", fmt.Sprintf("%.2f", rep.Score), "")
	t.Wrap(3, 60)
	return t.String()
}

// Problems renders verify diagnostics. Errors that are not *conform.FieldError
// get an empty field column.
func Problems(errs []error, m Mode) string {
	t := NewTable(m, "Field", "Problem", "Detail")
	for _, err := range errs {
		var fe *conform.FieldError
		if errors.As(err, &fe) {
			t.Row(fe.Field, fe.Err, fe.Detail)
			continue
		}
		t.Row("", err, "")
	}
	return t.String()
}

// Schema renders the field table of s. strategy resolves a field's merge
// strategy; nil leaves the column blank.
func Schema(s *schema.Schema, strategy func(field string) string, m Mode) string {
	t := NewTable(m, "Field", "Shape", "Key", "Strategy", "Required", "Default")
	for _, f := range s.Fields() {
		st := ""
		if strategy != nil {
			st = strategy(f.Name)
		}
		t.Row(f.Name, f.Shape, f.Key, st, Mark(f.Mandatory()), Mark(f.HasDefault()))
	}
	return t.String()
}

// Runs renders stored runs.
func Runs(runs []*store.Run, m Mode) string {
	t := NewTable(m, "ID", "Base", "Created", "Score", "Problems", "Excluded")
	for _, r := range runs {
		t.Row(r.ID, r.Base, r.CreatedAt.UTC().Format(time.DateTime), fmt.Sprintf("%.2f", r.Report.Score), len(r.Problems), len(r.Excluded))
	}
	t.AlignRight(4)
	return t.String()
}

// Mark returns "✓" for true and "✗" for false.
func Mark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}

// Truncate shortens s to max runes, appending "..." when it cuts.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
