package pathsel

import "testing"

func TestSelect(t *testing.T) {
	root := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": 42.0},
		},
		"s": "str",
	}

	t.Run("nested_hit", func(t *testing.T) {
		v, ok := Select("a.b.c", root)
		if !ok || v != 42.0 {
			t.Fatalf("Select a.b.c: ok=%v v=%v", ok, v)
		}
	})

	t.Run("empty_path_returns_input", func(t *testing.T) {
		v, ok := Select("", root)
		if !ok {
			t.Fatalf("empty path should succeed")
		}
		if _, isMap := v.(map[string]any); !isMap {
			t.Fatalf("empty path should return input unchanged, got %T", v)
		}
	})

	t.Run("empty_segments_dropped", func(t *testing.T) {
		v, ok := Select("a..b..c", root)
		if !ok || v != 42.0 {
			t.Fatalf("Select with empty segments: ok=%v v=%v", ok, v)
		}
	})

	t.Run("missing_segment", func(t *testing.T) {
		if _, ok := Select("a.x.c", root); ok {
			t.Fatalf("missing segment should report false")
		}
	})

	t.Run("untraversable_node", func(t *testing.T) {
		if _, ok := Select("s.anything", root); ok {
			t.Fatalf("descending into a string should report false")
		}
	})

	t.Run("nil_input", func(t *testing.T) {
		if _, ok := Select("a", nil); ok {
			t.Fatalf("nil input should report false")
		}
	})
}

func TestParsePattern(t *testing.T) {
	segs := ParsePattern([]string{"items", "[]", "[value]", "id"})
	want := []Segment{
		{Kind: SegKey, Key: "items"},
		{Kind: SegAnyElement},
		{Kind: SegByValue},
		{Kind: SegKey, Key: "id"},
	}
	if len(segs) != len(want) {
		t.Fatalf("got %d segments, want %d", len(segs), len(want))
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Fatalf("segment %d: got %+v want %+v", i, segs[i], want[i])
		}
	}
}

func TestFindBasic(t *testing.T) {
	root := map[string]any{
		"items": []any{
			map[string]any{"id": 1.0, "name": "first"},
			map[string]any{"id": 2.0, "name": "second"},
		},
	}
	pattern := ParsePattern([]string{"items", "[]", "id"})

	m, ok := Find(pattern, 2.0, root)
	if !ok {
		t.Fatalf("expected match for id=2")
	}
	if m.Record["name"] != "second" {
		t.Fatalf("expected enclosing record of id=2, got %v", m.Record)
	}
	if m.Depth != 3 {
		t.Fatalf("expected depth 3, got %d", m.Depth)
	}

	if _, ok := Find(pattern, 9.0, root); ok {
		t.Fatalf("expected miss for id=9")
	}
}

// Matching a numeric target against uint32, int and string leaves must all
// work: decoded responses carry float64 but callers pass native ints.
func TestFindLooseNumericEquality(t *testing.T) {
	root := []any{map[string]any{"id": "7", "name": "as-string"}}
	pattern := ParsePattern([]string{"[]", "id"})

	m, ok := Find(pattern, uint32(7), root)
	if !ok || m.Record["name"] != "as-string" {
		t.Fatalf("string leaf should match numeric target: ok=%v rec=%v", ok, m.Record)
	}
}

// Self-referential input must terminate: a = {}; a.self = a; a.v = 5.
func TestFindTerminatesOnSelfReference(t *testing.T) {
	a := map[string]any{}
	a["self"] = a
	a["v"] = 5.0

	m, ok := Find(ParsePattern([]string{"v"}), 5.0, a)
	if !ok {
		t.Fatalf("expected match on self-referential input")
	}
	if m.Record["v"] != 5.0 {
		t.Fatalf("expected enclosing record to be the container, got %v", m.Record)
	}
}

// A cyclic branch is abandoned while sibling branches still match.
func TestFindAbandonsCyclicBranch(t *testing.T) {
	root := map[string]any{}
	root["items"] = []any{
		root, // cycle back to the container
		map[string]any{"v": 5.0},
	}

	m, ok := Find(ParsePattern([]string{"items", "[]", "v"}), 5.0, root)
	if !ok {
		t.Fatalf("expected match despite cyclic sibling")
	}
	if m.Record["v"] != 5.0 {
		t.Fatalf("wrong record: %v", m.Record)
	}
}

// Elements are tried in array order; the first successful match wins.
func TestFindFirstMatchWins(t *testing.T) {
	root := []any{
		map[string]any{"id": 1.0, "name": "first"},
		map[string]any{"id": 1.0, "name": "shadowed"},
	}
	m, ok := Find(ParsePattern([]string{"[]", "id"}), 1.0, root)
	if !ok || m.Record["name"] != "first" {
		t.Fatalf("expected array-order tie break, got %v", m.Record)
	}
}

// An array reached without an any-element segment fails that branch.
func TestFindArrayNeedsAnyElementSegment(t *testing.T) {
	root := map[string]any{"items": []any{map[string]any{"id": 1.0}}}
	if _, ok := Find(ParsePattern([]string{"items", "id"}), 1.0, root); ok {
		t.Fatalf("literal segment over an array should fail")
	}
}

func TestFindByValueSegment(t *testing.T) {
	root := map[string]any{
		"5": map[string]any{"id": 5.0, "name": "keyed"},
	}
	m, ok := Find(ParsePattern([]string{"[value]", "id"}), 5.0, root)
	if !ok || m.Record["name"] != "keyed" {
		t.Fatalf("[value] segment should index by the target: ok=%v rec=%v", ok, m.Record)
	}
}

func TestFindNilTarget(t *testing.T) {
	if _, ok := Find(ParsePattern([]string{"v"}), nil, map[string]any{"v": nil}); ok {
		t.Fatalf("nil target must never match")
	}
}
