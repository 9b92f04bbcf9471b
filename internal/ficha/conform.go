package ficha

import (
	"fichas/internal/schema"
)

// Conform checks that raw already has the field's shape and returns it in
// typed form. It never repairs: a value of the wrong shape, or a list with a
// single element of the wrong type, reports false. Fusion uses this to drop
// malformed candidates; repair lives in package conform.
func Conform(f schema.FieldSpec, raw any) (any, bool) {
	switch f.Shape {
	case schema.Scalar:
		s, ok := raw.(string)
		return s, ok
	case schema.StringList:
		return asStrings(raw)
	case schema.StructList:
		return asItems(raw)
	case schema.ChannelList:
		return asChannels(f, raw)
	default:
		return nil, false
	}
}

func asStrings(raw any) ([]string, bool) {
	switch t := raw.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func asItems(raw any) ([]Item, bool) {
	switch t := raw.(type) {
	case []Item:
		return t, true
	case []map[string]any:
		out := make([]Item, len(t))
		for i, m := range t {
			out[i] = Item(m)
		}
		return out, true
	case []any:
		out := make([]Item, 0, len(t))
		for _, e := range t {
			switch m := e.(type) {
			case map[string]any:
				out = append(out, Item(m))
			case Item:
				out = append(out, m)
			default:
				return nil, false
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// asChannels accepts a mapping whose declared channels each hold a struct
// list. Missing channels become empty; undeclared keys are ignored.
func asChannels(f schema.FieldSpec, raw any) (Channels, bool) {
	var m map[string]any
	switch t := raw.(type) {
	case Channels:
		m = make(map[string]any, len(t))
		for k, v := range t {
			m[k] = v
		}
	case map[string]any:
		m = t
	default:
		return nil, false
	}
	out := make(Channels, len(f.Channels))
	for _, name := range f.Channels {
		v, present := m[name]
		if !present || v == nil {
			out[name] = []Item{}
			continue
		}
		items, ok := asItems(v)
		if !ok {
			return nil, false
		}
		out[name] = items
	}
	return out, true
}
