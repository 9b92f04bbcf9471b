// Package format renders diagnostics as terminal or Markdown tables.
package format

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // box-drawing terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps a flag value to a Mode. "" and "table" select ASCII.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table", "ascii":
		return ASCII, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return ASCII, fmt.Errorf("format: unknown mode %q", s)
	}
}

// Table accumulates rows and renders them once.
type Table struct {
	w    table.Writer
	mode Mode
	cols []table.ColumnConfig
}

// NewTable returns an empty table with the given column headers.
func NewTable(m Mode, header ...string) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	if len(header) > 0 {
		row := make(table.Row, len(header))
		for i, h := range header {
			row[i] = h
		}
		w.AppendHeader(row)
	}
	return &Table{w: w, mode: m}
}

// Row appends a data row.
func (t *Table) Row(vals ...any) { t.w.AppendRow(table.Row(vals)) }

// Footer appends a footer row.
func (t *Table) Footer(vals ...any) { t.w.AppendFooter(table.Row(vals)) }

// Wrap caps column n (1-based) at width characters, wrapping longer cells.
func (t *Table) Wrap(n, width int) {
	t.column(table.ColumnConfig{Number: n, WidthMax: width, WidthMaxEnforcer: text.WrapSoft})
}

// AlignRight right-aligns column n (1-based).
func (t *Table) AlignRight(n int) {
	t.column(table.ColumnConfig{Number: n, Align: text.AlignRight})
}

// column accumulates configs; go-pretty replaces the whole list on every
// SetColumnConfigs.
func (t *Table) column(c table.ColumnConfig) {
	t.cols = append(t.cols, c)
	t.w.SetColumnConfigs(t.cols)
}

// Len returns the number of data rows.
func (t *Table) Len() int { return t.w.Length() }

// String renders the table in its Mode.
func (t *Table) String() string {
	if t.mode == Markdown {
		return t.w.RenderMarkdown()
	}
	return t.w.Render()
}
