// Package ficha holds the value model shared by fusion, validation and
// scoring: typed field values, the emptiness classifier, strict shape
// conformance and the ordered Record.
//
// Typed values by shape:
//
//	scalar        string
//	string_list   []string
//	struct_list   []Item
//	channel_list  Channels
package ficha

import (
	"fichas/internal/schema"
)

// Item is one element of a struct list: an identity sub-field plus arbitrary
// other keys.
type Item map[string]any

// Channels maps a channel name (e.g. "presencial", "online") to its items.
type Channels map[string][]Item

// Partial is one chunk-level extraction as decoded from the generator.
type Partial map[string]any

// Zero returns the zero value of a field's shape. Channel lists carry every
// declared channel with an empty list.
func Zero(f schema.FieldSpec) any {
	switch f.Shape {
	case schema.StringList:
		return []string{}
	case schema.StructList:
		return []Item{}
	case schema.ChannelList:
		ch := make(Channels, len(f.Channels))
		for _, name := range f.Channels {
			ch[name] = []Item{}
		}
		return ch
	default:
		return ""
	}
}

// Clone deep-copies a typed value so defaults and records never share
// backing storage.
func Clone(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []Item:
		return cloneItems(t)
	case Channels:
		out := make(Channels, len(t))
		for k, items := range t {
			out[k] = cloneItems(items)
		}
		return out
	case Item:
		return cloneItem(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = cloneItem(it)
	}
	return out
}

func cloneItem(it Item) Item {
	out := make(Item, len(it))
	for k, e := range it {
		out[k] = Clone(e)
	}
	return out
}
