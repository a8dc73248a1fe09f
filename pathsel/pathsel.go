// Package pathsel reads values out of untyped, possibly self-referential
// nested data (the shape produced by decoding arbitrary JSON into any).
//
// Two entry points:
//   - Select: dotted-path field access ("a.b.c").
//   - Find: pattern-driven depth-first search that locates a leaf equal to a
//     target key and returns the record enclosing it.
//
// Both are pure: no input node is ever mutated and nothing panics across the
// package boundary.
package pathsel

import (
	"reflect"
	"strconv"
	"strings"
)

// Select resolves a dotted path against v. Empty path segments are dropped;
// an empty path returns v unchanged. ok is false when any intermediate
// segment is missing or the current node cannot be traversed.
func Select(path string, v any) (any, bool) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		nxt, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = nxt
	}
	return cur, true
}

// SegmentKind tags one step of a search pattern.
type SegmentKind int

const (
	// SegKey descends into a map by a literal key.
	SegKey SegmentKind = iota
	// SegAnyElement searches every element of the slice expected at this
	// position, in slice order.
	SegAnyElement
	// SegByValue descends into a map using the target key itself as the key.
	SegByValue
)

// Segment is one step of a compiled pattern.
type Segment struct {
	Kind SegmentKind
	Key  string // set for SegKey only
}

// ParsePattern compiles the external pattern spelling into tagged segments:
// "[]" is any-array-element, "[value]" is keyed-by-target, anything else is
// a literal key.
func ParsePattern(raw []string) []Segment {
	out := make([]Segment, 0, len(raw))
	for _, s := range raw {
		switch s {
		case "[]":
			out = append(out, Segment{Kind: SegAnyElement})
		case "[value]":
			out = append(out, Segment{Kind: SegByValue})
		default:
			out = append(out, Segment{Kind: SegKey, Key: s})
		}
	}
	return out
}

// Match is a successful Find. Record is the map enclosing the matched leaf
// (one level above it) so callers can read sibling fields; Depth counts
// traversal levels from the root. The root itself stays with the caller, so
// no back-references are attached and Record serializes cycle-free.
type Match struct {
	Record map[string]any
	Depth  int
}

// Find runs a depth-first search for a leaf equal to target, consuming one
// pattern segment per level. A branch that revisits a node already on the
// current call chain is abandoned (reference identity, not deep equality),
// so self-referential inputs terminate. The first match in slice order wins.
func Find(pattern []Segment, target any, root any) (Match, bool) {
	if target == nil {
		return Match{}, false
	}
	w := walker{target: target, visited: make(map[uintptr]struct{})}
	return w.find(pattern, root, nil, 0)
}

type walker struct {
	target  any
	visited map[uintptr]struct{}
}

// nodeID returns a reference identity for maps and slices; ok is false for
// scalars, which cannot participate in cycles.
func nodeID(v any) (uintptr, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	default:
		return 0, false
	}
}

func (w *walker) find(pattern []Segment, node any, parent map[string]any, depth int) (Match, bool) {
	if len(pattern) == 0 {
		if leafEqual(node, w.target) && parent != nil {
			return Match{Record: parent, Depth: depth}, true
		}
		return Match{}, false
	}

	if id, ok := nodeID(node); ok {
		if _, seen := w.visited[id]; seen {
			return Match{}, false
		}
		w.visited[id] = struct{}{}
		defer delete(w.visited, id)
	}

	seg := pattern[0]
	switch n := node.(type) {
	case []any:
		// Arrays are only traversable under an any-element segment.
		if seg.Kind != SegAnyElement {
			return Match{}, false
		}
		for _, el := range n {
			if m, ok := w.find(pattern[1:], el, parent, depth+1); ok {
				return m, true
			}
		}
		return Match{}, false
	case map[string]any:
		var key string
		switch seg.Kind {
		case SegKey:
			key = seg.Key
		case SegByValue:
			key = keyString(w.target)
		default:
			return Match{}, false
		}
		child, ok := n[key]
		if !ok {
			return Match{}, false
		}
		return w.find(pattern[1:], child, n, depth+1)
	default:
		return Match{}, false
	}
}

// leafEqual compares a candidate leaf (string or number) against the target
// with loose numeric equality: 5, 5.0 and "5" all match a numeric target.
func leafEqual(leaf, target any) bool {
	if leaf == nil {
		return false
	}
	lf, lNum := toFloat(leaf)
	tf, tNum := toFloat(target)
	if lNum && tNum {
		return lf == tf
	}
	ls, lStr := leaf.(string)
	ts, tStr := target.(string)
	if lStr && tStr {
		return ls == ts
	}
	// cross string/number comparison via numeric parse
	if lStr && tNum {
		if f, err := strconv.ParseFloat(ls, 64); err == nil {
			return f == tf
		}
		return false
	}
	if tStr && lNum {
		if f, err := strconv.ParseFloat(ts, 64); err == nil {
			return f == lf
		}
		return false
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// keyString renders the target as a map key for SegByValue steps.
func keyString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
