package ficha

import (
	"bytes"
	"encoding/json"

	"fichas/internal/schema"
)

// Record is a field→value mapping that always carries every schema field, in
// schema order. Downstream consumers only need emptiness checks.
type Record struct {
	names  []string
	values map[string]any
}

// NewRecord returns a record with every field of s at its shape's zero value.
func NewRecord(s *schema.Schema) Record {
	r := Record{
		names:  s.Names(),
		values: make(map[string]any, s.Len()),
	}
	for _, f := range s.Fields() {
		r.values[f.Name] = Zero(f)
	}
	return r
}

// Names returns the field names in schema order.
func (r Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Get returns a field's value, or nil if the field is not in the schema.
func (r Record) Get(name string) any { return r.values[name] }

// Set replaces a field's value. Names outside the schema are ignored and
// reported as false.
func (r Record) Set(name string, v any) bool {
	if _, ok := r.values[name]; !ok {
		return false
	}
	r.values[name] = v
	return true
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := Record{
		names:  r.Names(),
		values: make(map[string]any, len(r.values)),
	}
	for k, v := range r.values {
		out.values[k] = Clone(v)
	}
	return out
}

// Map returns a deep copy of the values as a plain map, the form accepted by
// the validator and the scorer.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = Clone(v)
	}
	return out
}

// MarshalJSON writes the fields in schema order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
