package ficha

import (
	"strings"
)

// placeholders are the dash sentinels the generator emits for "no data".
var placeholders = map[string]bool{
	"-": true,
	"–": true,
	"—": true,
}

// IsEmpty is the single emptiness predicate for every value shape:
//   - nil is empty
//   - a string is empty when blank or a placeholder dash
//   - a list is empty when every element is empty (so a zero-length list is)
//   - a map, Item or Channels value is empty when every value is empty
//
// Numbers and booleans are never empty.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == "" || placeholders[s]
	case []string:
		for _, s := range t {
			if !IsEmpty(s) {
				return false
			}
		}
		return true
	case []Item:
		for _, it := range t {
			if !IsEmpty(it) {
				return false
			}
		}
		return true
	case []any:
		for _, e := range t {
			if !IsEmpty(e) {
				return false
			}
		}
		return true
	case Item:
		return emptyMap(t)
	case map[string]any:
		return emptyMap(t)
	case Partial:
		return emptyMap(t)
	case Channels:
		for _, items := range t {
			if !IsEmpty(items) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func emptyMap[M ~map[string]any](m M) bool {
	for _, e := range m {
		if !IsEmpty(e) {
			return false
		}
	}
	return true
}
