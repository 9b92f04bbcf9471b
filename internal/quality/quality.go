// Package quality scores a ficha against a fixed battery of domain rules.
// The score is advisory; whether a record is good enough is the caller's
// call (see Report.Passed).
package quality

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"fichas/internal/conform"
	"fichas/internal/ficha"
	"fichas/internal/schema"
)

// Vocabulary is a closed set of allowed terms.
type Vocabulary interface {
	Contains(term string) bool
}

// Vocabularies maps a categorical field name to its vocabulary.
type Vocabularies map[string]Vocabulary

// FieldResult is the outcome of one rule.
type FieldResult struct {
	Field  string `json:"field"`
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Report collects rule outcomes in battery order.
type Report struct {
	Fields []FieldResult `json:"fields"`
	Score  float64       `json:"score"`
}

// Passed reports whether the score reaches threshold.
func (r Report) Passed(threshold float64) bool { return r.Score >= threshold }

// Field returns the result of the rule reported under name.
func (r Report) Field(name string) (FieldResult, bool) {
	for _, f := range r.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldResult{}, false
}

// Invalid returns the failing results.
func (r Report) Invalid() []FieldResult {
	var out []FieldResult
	for _, f := range r.Fields {
		if !f.Valid {
			out = append(out, f)
		}
	}
	return out
}

// check returns "" when the value passes, otherwise the reason.
type check func(s *Scorer, v any) string

type rule struct {
	field  string // reported name
	source string // schema field the value is read from
	vocab  bool   // skipped without a vocabulary for source
	check  check
}

var battery = []rule{
	{"tipo_ayuda", "tipo_ayuda", true, checkVocabulary("tipo_ayuda")},
	{"descripcion", "descripcion", false, checkDescription},
	{"referencia_legislativa", "referencia_legislativa", false, checkLegislation},
	{"cuantia", "cuantia", false, checkAmounts},
	{"lugares_presentacion.online", "lugares_presentacion", false, checkOnlinePortal},
	{"usuario", "usuario", false, checkUser},
	{"documentos_presentar", "documentos_presentar", false, checkDocuments},
	{"requisitos_acceso", "requisitos_acceso", false, checkRequirements},
	{"frase_publicitaria", "frase_publicitaria", false, checkSlogan},
}

// Scorer evaluates candidates for one schema.
type Scorer struct {
	schema *schema.Schema
	vocabs Vocabularies
	rules  Rules
}

// Option configures the Scorer during construction.
type Option func(*Scorer) error

// WithRules replaces the embedded thresholds.
func WithRules(r Rules) Option {
	return func(s *Scorer) error {
		s.rules = r
		return nil
	}
}

// New returns a scorer for s. A vocabulary rule is evaluated only when
// vocabs holds an entry for its field.
func New(s *schema.Schema, vocabs Vocabularies, opts ...Option) (*Scorer, error) {
	if s == nil {
		return nil, fmt.Errorf("quality: schema is required")
	}
	sc := &Scorer{schema: s, vocabs: vocabs, rules: DefaultRules()}
	for _, opt := range opts {
		if err := opt(sc); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// Rules returns the thresholds in use.
func (s *Scorer) Rules() Rules { return s.rules }

// Score coerces each rule's field from candidate and evaluates the battery.
// Rules whose field is not in the schema, and vocabulary rules without a
// vocabulary, are not evaluated. Score is valid/evaluated rounded to two
// decimals, or 0 when nothing was evaluated.
func (s *Scorer) Score(candidate map[string]any) Report {
	rep := Report{Fields: []FieldResult{}}
	valid := 0
	for _, r := range battery {
		f, ok := s.schema.Field(r.source)
		if !ok {
			continue
		}
		if r.vocab && s.vocabs[r.source] == nil {
			continue
		}
		reason := r.check(s, conform.Coerce(f, candidate[r.source]))
		res := FieldResult{Field: r.field, Valid: reason == "", Reason: reason}
		if res.Valid {
			valid++
		}
		rep.Fields = append(rep.Fields, res)
	}
	if n := len(rep.Fields); n > 0 {
		rep.Score = math.Round(float64(valid)/float64(n)*100) / 100
	}
	return rep
}

func checkVocabulary(field string) check {
	return func(s *Scorer, v any) string {
		terms, _ := v.([]string)
		if len(terms) == 0 {
			return "empty"
		}
		var bad []string
		for _, t := range terms {
			if !s.vocabs[field].Contains(t) {
				bad = append(bad, t)
			}
		}
		if len(bad) > 0 {
			return "terms outside vocabulary: " + strings.Join(bad, ", ")
		}
		return ""
	}
}

var currency = regexp.MustCompile(`\d[\d\s]*[,.]?\d*\s*€`)

func checkDescription(s *Scorer, v any) string {
	text, _ := v.(string)
	if n := len(strings.Fields(text)); n <= s.rules.MinDescriptionWords {
		return fmt.Sprintf("too short: %d words, want more than %d", n, s.rules.MinDescriptionWords)
	}
	if currency.MatchString(text) {
		return "contains a currency amount"
	}
	return ""
}

func checkLegislation(_ *Scorer, v any) string {
	text, _ := v.(string)
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "- ") || !strings.HasSuffix(t, ".") || !strings.Contains(t, "\n") {
		return `want a multi-line list of "- <norma>." lines`
	}
	return ""
}

func checkAmounts(_ *Scorer, v any) string {
	items, _ := v.([]ficha.Item)
	for _, it := range items {
		if !ficha.IsEmpty(it["valor"]) && !ficha.IsEmpty(it["unidad"]) {
			return ""
		}
	}
	return "no item with both valor and unidad"
}

func checkOnlinePortal(s *Scorer, v any) string {
	ch, _ := v.(ficha.Channels)
	for _, it := range ch["online"] {
		if text, ok := it["valor"].(string); ok && strings.Contains(text, s.rules.OnlinePortal) {
			return ""
		}
	}
	return fmt.Sprintf("online channel does not mention %s", s.rules.OnlinePortal)
}

func checkUser(s *Scorer, v any) string {
	text, _ := v.(string)
	u := strings.ToUpper(strings.TrimSpace(text))
	if u == "" {
		return "empty"
	}
	for _, p := range s.rules.PlaceholderUsers {
		if u == strings.ToUpper(p) {
			return fmt.Sprintf("generic placeholder %q", text)
		}
	}
	return ""
}

func checkDocuments(s *Scorer, v any) string {
	items, _ := v.([]ficha.Item)
	n := 0
	for _, it := range items {
		if !ficha.IsEmpty(it["clave"]) && !ficha.IsEmpty(it["valor"]) {
			n++
		}
	}
	if n < s.rules.MinDocuments {
		return fmt.Sprintf("%d complete documents, want at least %d", n, s.rules.MinDocuments)
	}
	return ""
}

var pointSplit = regexp.MustCompile(`[\n\-•]+`)

func checkRequirements(s *Scorer, v any) string {
	text, _ := v.(string)
	n := 0
	for _, p := range pointSplit.Split(text, -1) {
		if utf8.RuneCountInString(strings.TrimSpace(p)) > s.rules.MinPointLength {
			n++
		}
	}
	if n < s.rules.MinRequirementPoints {
		return fmt.Sprintf("%d points, want at least %d", n, s.rules.MinRequirementPoints)
	}
	return ""
}

func checkSlogan(s *Scorer, v any) string {
	text, _ := v.(string)
	n := len(strings.Fields(text))
	if n == 0 {
		return "empty"
	}
	if n > s.rules.MaxSloganWords {
		return fmt.Sprintf("%d words, want at most %d", n, s.rules.MaxSloganWords)
	}
	return ""
}
