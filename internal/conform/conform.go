// Package conform repairs raw generator output into a field's declared shape
// and verifies candidate records against a schema.
//
// Coerce never fails: the worst case is the shape's zero value. Verify turns
// what Coerce had to give up on into typed diagnostics.
package conform

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fichas/internal/ficha"
	"fichas/internal/schema"
)

// Diagnostic kinds. Every error returned by Verify wraps exactly one of these.
var (
	ErrMissingField  = errors.New("missing field")
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrEmptyField    = errors.New("empty field")
	// ErrDecodeFailure marks raw text that is not a JSON document. Coerce
	// recovers from it locally; callers that need an object surface it.
	ErrDecodeFailure = errors.New("decode failure")
)

// FieldError is one per-field diagnostic.
type FieldError struct {
	Field  string
	Err    error
	Detail string
}

func (e *FieldError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("field %q: %v: %s", e.Field, e.Err, e.Detail)
}

func (e *FieldError) Unwrap() error { return e.Err }

var (
	openFence  = regexp.MustCompile("(?i)^```[a-z0-9_+-]*[ \t]*\r?\n?")
	closeFence = regexp.MustCompile("\r?\n?```$")
	listSplit  = regexp.MustCompile(`[,\n]`)
)

// Clean strips markdown code fences and one layer of wrapping double quotes.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "```") {
		s = openFence.ReplaceAllString(s, "")
		s = closeFence.ReplaceAllString(s, "")
		s = strings.TrimSpace(s)
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// Decode attempts a structured JSON decode of cleaned text. Text that is not
// JSON comes back trimmed, unchanged otherwise.
func Decode(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// Coerce reshapes raw into f's shape. raw may be generator text (fenced,
// quoted, JSON or prose) or an already decoded value.
func Coerce(f schema.FieldSpec, raw any) any {
	v, _ := coerce(f, raw)
	return v
}

// coerce reports false when it had to discard data to reach the shape, as
// opposed to raw simply being absent or blank.
func coerce(f schema.FieldSpec, raw any) (any, bool) {
	v := unwrap(f, decodeRaw(raw))
	if f.Shape == schema.Scalar {
		if text, ok := rawText(raw); ok {
			switch v.(type) {
			case float64, bool:
				// keep the written form: "1.50" stays "1.50"
				return Clean(text), true
			}
		}
	}

	if v == nil {
		return ficha.Zero(f), true
	}
	if s, ok := v.(string); ok && f.Shape != schema.Scalar && f.Shape != schema.StringList && ficha.IsEmpty(s) {
		return ficha.Zero(f), true
	}

	switch f.Shape {
	case schema.Scalar:
		return scalar(v)
	case schema.StringList:
		return stringList(v)
	case schema.StructList:
		items, ok := structList(f, v)
		if !ok {
			return ficha.Zero(f), false
		}
		return items, true
	case schema.ChannelList:
		return channels(f, v)
	default:
		return ficha.Zero(f), false
	}
}

// decodeRaw turns generator text into a decoded value; anything already
// decoded passes through.
func decodeRaw(raw any) any {
	switch t := raw.(type) {
	case string:
		return Decode(Clean(t))
	case []byte:
		return Decode(Clean(string(t)))
	case json.RawMessage:
		return Decode(Clean(string(t)))
	default:
		return raw
	}
}

// rawText reports the text behind raw when raw is undecoded generator output.
func rawText(raw any) (string, bool) {
	switch t := raw.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case json.RawMessage:
		return string(t), true
	default:
		return "", false
	}
}

// unwrap peels one wrapper object keyed by the field's own name or its
// declared unwrap key, e.g. {"tipo_ayuda": [...]}.
func unwrap(f schema.FieldSpec, v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if inner, ok := m[f.Name]; ok {
		return inner
	}
	if f.Unwrap != "" {
		if inner, ok := m[f.Unwrap]; ok {
			return inner
		}
	}
	return v
}

func scalar(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case []string:
		return strings.TrimSpace(strings.Join(t, "\n")), true
	case []any:
		lines := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return "", false
			}
			lines = append(lines, strings.TrimSpace(s))
		}
		return strings.TrimSpace(strings.Join(lines, "\n")), true
	default:
		return "", false
	}
}

func stringList(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		return splitList(t), true
	case []string:
		return splitNonEmpty(t), true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			switch x := e.(type) {
			case string:
				if s := strings.TrimSpace(x); s != "" {
					out = append(out, s)
				}
			case float64:
				out = append(out, strconv.FormatFloat(x, 'f', -1, 64))
			case nil:
			default:
				return []string{}, false
			}
		}
		return out, true
	default:
		return []string{}, false
	}
}

func splitList(s string) []string {
	return splitNonEmpty(listSplit.Split(s, -1))
}

func splitNonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func structList(f schema.FieldSpec, v any) ([]ficha.Item, bool) {
	switch t := v.(type) {
	case []any:
		out := make([]ficha.Item, 0, len(t))
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, ficha.Item(m))
		}
		return out, true
	case []ficha.Item:
		return t, true
	case map[string]any:
		if _, ok := t[f.Key]; ok {
			return []ficha.Item{ficha.Item(t)}, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func channels(f schema.FieldSpec, v any) (any, bool) {
	var m map[string]any
	switch t := v.(type) {
	case map[string]any:
		m = t
	case ficha.Channels:
		return t, true
	default:
		return ficha.Zero(f), false
	}
	out := make(ficha.Channels, len(f.Channels))
	ok := true
	for _, name := range f.Channels {
		raw, present := m[name]
		if !present || ficha.IsEmpty(raw) {
			out[name] = []ficha.Item{}
			continue
		}
		items, good := structList(f, raw)
		if !good {
			ok = false
			items = []ficha.Item{}
		}
		out[name] = items
	}
	return out, ok
}

// Verify checks candidate against every schema field and returns one
// *FieldError per problem, in schema order. A field can yield both a shape
// mismatch and an empty-field error because a rejected value coerces to the
// zero value.
func Verify(s *schema.Schema, candidate map[string]any) []error {
	var errs []error
	for _, f := range s.Fields() {
		raw, present := candidate[f.Name]
		if !present {
			errs = append(errs, &FieldError{Field: f.Name, Err: ErrMissingField})
			continue
		}
		v, ok := coerce(f, raw)
		if !ok {
			errs = append(errs, &FieldError{
				Field:  f.Name,
				Err:    ErrShapeMismatch,
				Detail: fmt.Sprintf("expected %s, got %s", f.Shape, describe(unwrap(f, decodeRaw(raw)))),
			})
		}
		if f.Mandatory() && ficha.IsEmpty(v) {
			errs = append(errs, &FieldError{Field: f.Name, Err: ErrEmptyField})
		}
	}
	return errs
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "text"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any, []string, []ficha.Item:
		return "list"
	case map[string]any, ficha.Item, ficha.Channels:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
