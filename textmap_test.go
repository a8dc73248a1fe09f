package contenttypes

import (
	"encoding/json"
	"testing"
)

func TestRenderConditionalAndLiteral(t *testing.T) {
	rules := []TextRule{
		{Values: []string{"name"}, Matched: "{0}", NotMatching: "missing"},
		LiteralRule(" yeahhhhh"),
	}

	if got := Render(rules, map[string]any{"name": "John"}, nil); got != "John yeahhhhh" {
		t.Fatalf("matched render: got %q", got)
	}
	if got := Render(rules, map[string]any{}, nil); got != "missing yeahhhhh" {
		t.Fatalf("fallback render: got %q", got)
	}
}

func TestRenderMultiplePlaceholders(t *testing.T) {
	rules := []TextRule{
		{Values: []string{"first", "last"}, Matched: "{0} {1}", NotMatching: "anonymous"},
	}
	target := map[string]any{"first": "Ada", "last": "Lovelace"}
	if got := Render(rules, target, nil); got != "Ada Lovelace" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderBadPlaceholders(t *testing.T) {
	rules := []TextRule{
		{Values: []string{"name"}, Matched: "{0} {7} {x}", NotMatching: "n/a"},
	}
	got := Render(rules, map[string]any{"name": "John"}, nil)
	if got != "John ? ?" {
		t.Fatalf("out-of-range and non-numeric indexes must render the marker, got %q", got)
	}
}

func TestRenderNestedPathAndNumbers(t *testing.T) {
	rules := []TextRule{
		{Values: []string{"owner.id"}, Matched: "owner {0}", NotMatching: "unowned"},
	}
	target := map[string]any{"owner": map[string]any{"id": 17.0}}
	if got := Render(rules, target, nil); got != "owner 17" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderNilValueFallsBack(t *testing.T) {
	rules := []TextRule{
		{Values: []string{"name"}, Matched: "{0}", NotMatching: "none"},
	}
	if got := Render(rules, map[string]any{"name": nil}, nil); got != "none" {
		t.Fatalf("nil resolved value must fall back, got %q", got)
	}
}

func TestTextRuleUnmarshalStringOrObject(t *testing.T) {
	raw := `[" kg", {"values":["w"],"matchedString":"{0}","notMatchingString":"?"}]`
	var rules []TextRule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Literal != " kg" {
		t.Fatalf("literal rule: %+v", rules[0])
	}
	if len(rules[1].Values) != 1 || rules[1].Matched != "{0}" {
		t.Fatalf("conditional rule: %+v", rules[1])
	}
	if got := Render(rules, map[string]any{"w": 3.5}, nil); got != "kg 3.5" {
		t.Fatalf("rendered %q", got)
	}
}
