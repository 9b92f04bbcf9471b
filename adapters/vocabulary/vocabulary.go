// Package vocabulary provides closed sets of allowed terms for categorical
// fields. The default set is the list of aid types (tipos de ayuda) a ficha
// may declare.
package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"fichas/internal/normalize"
)

//go:embed tipos_ayuda.yaml
var defaultTerms []byte

// Vocabulary is an immutable set of terms compared in canonical form.
type Vocabulary struct {
	terms []string
	index map[string]struct{}
}

// New builds a vocabulary from terms. Blank terms are ignored and canonical
// duplicates keep the first spelling.
func New(terms ...string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]struct{}, len(terms))}
	for _, t := range terms {
		k := normalize.Key(t)
		if k == "" {
			continue
		}
		if _, dup := v.index[k]; dup {
			continue
		}
		v.index[k] = struct{}{}
		v.terms = append(v.terms, t)
	}
	return v
}

// Contains reports whether term matches an entry after canonicalization, so
// "subvención " and "Subvención" are the same term.
func (v *Vocabulary) Contains(term string) bool {
	_, ok := v.index[normalize.Key(term)]
	return ok
}

// Terms returns the entries in declaration order.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Len returns the number of distinct terms.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Load reads a vocabulary file: either the upstream JSON object
// {"tipos_de_ayuda": [...]} or a bare YAML/JSON list of strings.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: read %q: %w", path, err)
	}
	v, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: load %q: %w", path, err)
	}
	return v, nil
}

// Parse decodes vocabulary data in any format Load accepts.
func Parse(data []byte) (*Vocabulary, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("vocabulary: parse: %w", err)
	}
	var list any
	switch t := doc.(type) {
	case []any:
		list = t
	case map[string]any:
		var ok bool
		if list, ok = t["tipos_de_ayuda"]; !ok {
			return nil, fmt.Errorf("vocabulary: parse: missing key %q", "tipos_de_ayuda")
		}
	default:
		return nil, fmt.Errorf("vocabulary: parse: want a list or an object, got %T", doc)
	}
	items, ok := list.([]any)
	if !ok {
		return nil, fmt.Errorf("vocabulary: parse: terms must be a list, got %T", list)
	}
	terms := make([]string, 0, len(items))
	for i, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("vocabulary: parse: term %d is %T, want string", i, it)
		}
		terms = append(terms, s)
	}
	v := New(terms...)
	if v.Len() == 0 {
		return nil, fmt.Errorf("vocabulary: parse: no terms")
	}
	return v, nil
}

var defaultVocabulary = sync.OnceValue(func() *Vocabulary {
	v, err := Parse(defaultTerms)
	if err != nil {
		panic(fmt.Sprintf("vocabulary: embedded tipos_ayuda.yaml: %v", err))
	}
	return v
})

// Default returns the embedded aid-type vocabulary.
func Default() *Vocabulary { return defaultVocabulary() }
