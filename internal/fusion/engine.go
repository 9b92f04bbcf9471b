// Package fusion reconciles N partial extractions of one ficha into a single
// record. Every field is folded by a strategy resolved once per schema field;
// candidates that do not conform to the field's shape are skipped.
package fusion

import (
	"fmt"
	"log/slog"
	"strings"

	"fichas/internal/ficha"
	"fichas/internal/logging"
	"fichas/internal/normalize"
	"fichas/internal/schema"
)

// Engine holds the per-field plans for one schema. It is safe for concurrent
// use; no method mutates it.
type Engine struct {
	schema *schema.Schema
	plans  []plan
	logger *slog.Logger
}

type plan struct {
	field    schema.FieldSpec
	strategy Strategy
	def      any // conformed default, nil unless mandatory-with-default
}

// Option configures the Engine during construction.
type Option func(*engineConfig) error

type engineConfig struct {
	strategies map[string]Strategy
	logger     *slog.Logger
}

// WithStrategy overrides the strategy for one field.
func WithStrategy(field string, s Strategy) Option {
	return func(cfg *engineConfig) error {
		switch s {
		case Longest, UnionStrings, UnionByKey, LineSet, ChannelMerge:
		default:
			return fmt.Errorf("fusion: unknown strategy %q for field %q", s, field)
		}
		cfg.strategies[field] = s
		return nil
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *engineConfig) error {
		cfg.logger = l
		return nil
	}
}

// New resolves a plan for every field of s.
func New(s *schema.Schema, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("fusion: schema is required")
	}
	cfg := &engineConfig{strategies: make(map[string]Strategy)}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	for name := range cfg.strategies {
		if _, ok := s.Field(name); !ok {
			return nil, fmt.Errorf("fusion: strategy override for unknown field %q", name)
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.New("fusion")
	}

	e := &Engine{schema: s, logger: logger}
	for _, f := range s.Fields() {
		st, ok := cfg.strategies[f.Name]
		if !ok && f.Strategy != "" {
			st, ok = Strategy(f.Strategy), true
		}
		if !ok {
			st = ShapeDefault(f.Shape)
		}
		if !st.accepts(f.Shape) {
			return nil, fmt.Errorf("fusion: field %q: strategy %q cannot fold %s", f.Name, st, f.Shape)
		}
		p := plan{field: f, strategy: st}
		if f.HasDefault() {
			def, ok := ficha.Conform(f, f.Default)
			if !ok || ficha.IsEmpty(def) {
				return nil, fmt.Errorf("fusion: field %q: default does not conform to %s", f.Name, f.Shape)
			}
			p.def = def
		}
		e.plans = append(e.plans, p)
	}
	return e, nil
}

// Schema returns the schema the engine was built for.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// Strategy returns the resolved strategy of a field.
func (e *Engine) Strategy(field string) (Strategy, bool) {
	for _, p := range e.plans {
		if p.field.Name == field {
			return p.strategy, true
		}
	}
	return "", false
}

// Fuse merges partials into one record. Fields no partial answers stay at
// their zero value. The partials are not modified and the record shares no
// storage with them.
func (e *Engine) Fuse(partials []ficha.Partial) ficha.Record {
	rec := ficha.NewRecord(e.schema)
	for _, p := range e.plans {
		cands := e.candidates(p.field, partials)
		if len(cands) == 0 {
			continue
		}
		rec.Set(p.field.Name, ficha.Clone(p.strategy.fold(p.field, cands)))
	}
	return rec
}

func (e *Engine) candidates(f schema.FieldSpec, partials []ficha.Partial) []any {
	var out []any
	for i, part := range partials {
		raw, ok := part[f.Name]
		if !ok {
			continue
		}
		v, ok := ficha.Conform(f, raw)
		if !ok {
			e.logger.Debug("skip candidate",
				slog.String("field", f.Name),
				slog.Int("partial", i),
				slog.String("shape", string(f.Shape)))
			continue
		}
		if ficha.IsEmpty(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Complete returns a copy of rec in which every empty mandatory-with-default
// field carries its default. Channel lists are completed per channel.
func (e *Engine) Complete(rec ficha.Record) ficha.Record {
	out := rec.Clone()
	for _, p := range e.plans {
		if p.def == nil {
			continue
		}
		name := p.field.Name
		if p.field.Shape != schema.ChannelList {
			if ficha.IsEmpty(out.Get(name)) {
				out.Set(name, ficha.Clone(p.def))
			}
			continue
		}
		cur, ok := out.Get(name).(ficha.Channels)
		if !ok {
			cur = ficha.Zero(p.field).(ficha.Channels)
		}
		def := p.def.(ficha.Channels)
		for _, ch := range p.field.Channels {
			if len(def[ch]) > 0 && ficha.IsEmpty(cur[ch]) {
				cur[ch] = ficha.Clone(def[ch]).([]ficha.Item)
			}
		}
		out.Set(name, cur)
	}
	return out
}

// Sanitize returns a copy of rec with the tidy rules of struct_list fields
// applied: incomplete items are dropped and near-duplicates collapse to the
// first seen.
func (e *Engine) Sanitize(rec ficha.Record) ficha.Record {
	out := rec.Clone()
	for _, p := range e.plans {
		t := p.field.Tidy
		if t == nil || p.field.Shape != schema.StructList {
			continue
		}
		items, ok := out.Get(p.field.Name).([]ficha.Item)
		if !ok {
			continue
		}
		out.Set(p.field.Name, tidy(t, items))
	}
	return out
}

func tidy(t *schema.Tidy, items []ficha.Item) []ficha.Item {
	seen := make(map[string]struct{})
	kept := []ficha.Item{}
	for _, it := range items {
		if !complete(it, t.Require) {
			continue
		}
		id := tidyKey(it, t.Key)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, it)
	}
	return kept
}

func complete(it ficha.Item, require []string) bool {
	for _, k := range require {
		if ficha.IsEmpty(it[k]) {
			return false
		}
	}
	return true
}

// tidyKey compares the first key sub-field as a concept and the rest by
// canonical form, so "100,5" and "1005" stay distinct.
func tidyKey(it ficha.Item, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		if i == 0 {
			parts[i] = normalize.Concept(identity(it[k]))
		} else {
			parts[i] = normalize.Key(identity(it[k]))
		}
	}
	return strings.Join(parts, "\x1f")
}

// Fuse builds a throwaway engine for s and fuses partials with it.
func Fuse(s *schema.Schema, partials []ficha.Partial) (ficha.Record, error) {
	e, err := New(s)
	if err != nil {
		return ficha.Record{}, err
	}
	return e.Fuse(partials), nil
}
