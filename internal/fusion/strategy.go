package fusion

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"fichas/internal/ficha"
	"fichas/internal/normalize"
	"fichas/internal/schema"
)

// Strategy names a merge algorithm. Values match the schema's `strategy:`
// attribute.
type Strategy string

const (
	// Longest keeps the candidate with the greatest trimmed length; the
	// first seen wins a tie.
	Longest Strategy = "longest"
	// UnionStrings canonicalizes every element, dedupes and sorts.
	UnionStrings Strategy = "union_strings"
	// UnionByKey appends items whose canonical identity is unseen.
	UnionByKey Strategy = "union_by_key"
	// LineSet unions "- ...." lines of a scalar, sorted.
	LineSet Strategy = "line_set"
	// ChannelMerge runs UnionByKey independently per channel.
	ChannelMerge Strategy = "channel_merge"
)

// ShapeDefault is the strategy used when neither an option nor the schema
// names one for a field.
func ShapeDefault(shape schema.Shape) Strategy {
	switch shape {
	case schema.StringList:
		return UnionStrings
	case schema.StructList:
		return UnionByKey
	case schema.ChannelList:
		return ChannelMerge
	default:
		return Longest
	}
}

// accepts reports the shape a strategy folds.
func (s Strategy) accepts(shape schema.Shape) bool {
	switch s {
	case Longest, LineSet:
		return shape == schema.Scalar
	case UnionStrings:
		return shape == schema.StringList
	case UnionByKey:
		return shape == schema.StructList
	case ChannelMerge:
		return shape == schema.ChannelList
	default:
		return false
	}
}

// fold applies the strategy to conformed, non-empty candidates in arrival
// order.
func (s Strategy) fold(f schema.FieldSpec, cands []any) any {
	switch s {
	case Longest:
		return longest(cands)
	case UnionStrings:
		return unionStrings(cands)
	case UnionByKey:
		lists := make([][]ficha.Item, 0, len(cands))
		for _, c := range cands {
			lists = append(lists, c.([]ficha.Item))
		}
		return unionByKey(f.Key, lists)
	case LineSet:
		return lineSet(cands)
	case ChannelMerge:
		return channelMerge(f, cands)
	default:
		panic(fmt.Sprintf("fusion: unknown strategy %q", s))
	}
}

func longest(cands []any) string {
	best, bestLen := "", -1
	for _, c := range cands {
		t := strings.TrimSpace(c.(string))
		if n := utf8.RuneCountInString(t); n > bestLen {
			best, bestLen = t, n
		}
	}
	return best
}

func unionStrings(cands []any) []string {
	set := make(map[string]struct{})
	for _, c := range cands {
		for _, e := range c.([]string) {
			k := normalize.Key(e)
			if ficha.IsEmpty(k) {
				continue
			}
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func unionByKey(key string, lists [][]ficha.Item) []ficha.Item {
	seen := make(map[string]struct{})
	out := []ficha.Item{}
	for _, items := range lists {
		for _, it := range items {
			if ficha.IsEmpty(it) {
				continue
			}
			id := normalize.Key(identity(it[key]))
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}

func lineSet(cands []any) string {
	set := make(map[string]struct{})
	for _, c := range cands {
		for _, line := range strings.Split(strings.TrimSpace(c.(string)), "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "- ") && strings.HasSuffix(line, ".") {
				set[line] = struct{}{}
			}
		}
	}
	lines := make([]string, 0, len(set))
	for l := range set {
		lines = append(lines, l)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func channelMerge(f schema.FieldSpec, cands []any) ficha.Channels {
	out := make(ficha.Channels, len(f.Channels))
	for _, name := range f.Channels {
		lists := make([][]ficha.Item, 0, len(cands))
		for _, c := range cands {
			lists = append(lists, c.(ficha.Channels)[name])
		}
		out[name] = unionByKey(f.Key, lists)
	}
	return out
}

// identity renders an identity sub-field as text before canonicalization.
func identity(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
