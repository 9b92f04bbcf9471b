// Package normalize builds comparison keys for fused text.
//
// Keys are never persisted as content; they only decide whether two values
// denote the same thing. Pipeline order for Key:
//  1. drop escaped and bare double quotes
//  2. strip one layer of wrapping quotes (', “”, «»)
//  3. collapse whitespace runs and trim
//  4. Unicode NFC, then full case folding
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// the chain is stateful, so each caller borrows its own copy
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFC, cases.Fold())
	},
}

var wrappers = [][2]string{
	{"'", "'"},
	{"“", "”"},
	{"«", "»"},
	{"‘", "’"},
}

// Key returns the canonical comparison form of s.
func Key(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, `\"`, "")
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.TrimSpace(s)
	s = unwrap(s)
	s = collapse(s)
	if s == "" {
		return ""
	}

	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// stopwords are removed by Concept; they carry no identity in monetary concepts.
var stopwords = map[string]bool{
	"de": true, "del": true, "la": true, "las": true,
	"para": true, "con": true, "por": true,
}

// Concept is a looser key for monetary concepts: Key plus punctuation removal
// and stopword removal, so "Ayuda para la vivienda" and "ayuda vivienda"
// collide.
func Concept(s string) string {
	k := Key(s)
	if k == "" {
		return ""
	}
	k = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, k)
	words := strings.Fields(k)
	kept := words[:0]
	for _, w := range words {
		if !stopwords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func unwrap(s string) string {
	for _, w := range wrappers {
		if len(s) >= len(w[0])+len(w[1]) && strings.HasPrefix(s, w[0]) && strings.HasSuffix(s, w[1]) {
			return strings.TrimSpace(s[len(w[0]) : len(s)-len(w[1])])
		}
	}
	return s
}

func collapse(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
