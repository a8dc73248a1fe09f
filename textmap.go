package contenttypes

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/aramtech/rfid-content-types/pathsel"
)

// unknownMarker replaces placeholders whose index cannot be resolved.
const unknownMarker = "?"

// TextRule is one fragment of a display-text template. A rule is either a
// literal fragment or a conditional one: when every path in Values resolves
// on the target, Matched is emitted with {0},{1},… substituted in order;
// otherwise NotMatching is emitted.
//
// On the wire a literal rule is a bare JSON string and a conditional rule an
// object, mirroring the definition feed.
type TextRule struct {
	Literal     string   `json:"-"`
	Values      []string `json:"values,omitempty"`
	Matched     string   `json:"matchedString,omitempty"`
	NotMatching string   `json:"notMatchingString,omitempty"`
}

// LiteralRule builds a pass-through fragment.
func LiteralRule(s string) TextRule { return TextRule{Literal: s} }

func (r TextRule) literal() bool { return len(r.Values) == 0 && r.Matched == "" }

func (r *TextRule) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = TextRule{Literal: s}
		return nil
	}
	type plain TextRule // avoid recursing into this method
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = TextRule(p)
	return nil
}

var placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)

// Render produces display text for target from ordered rules. Fragments are
// trimmed and joined with single spaces; a fragment that fails for any
// reason is logged and skipped while the rest still render. Render never
// panics.
func Render(rules []TextRule, target any, log Logger) string {
	if log == nil {
		log = NopLogger{}
	}
	frags := make([]string, 0, len(rules))
	for i, rule := range rules {
		frag, ok := renderFragment(rule, target, log, i)
		if !ok {
			continue
		}
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		frags = append(frags, frag)
	}
	return strings.Join(frags, " ")
}

func renderFragment(rule TextRule, target any, log Logger, idx int) (frag string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Warn("text fragment skipped", Fields{"rule": idx, "panic": rec})
			frag, ok = "", false
		}
	}()

	if rule.literal() {
		return rule.Literal, true
	}

	vals := make([]string, 0, len(rule.Values))
	for _, path := range rule.Values {
		v, found := pathsel.Select(path, target)
		if !found || v == nil {
			return rule.NotMatching, true
		}
		vals = append(vals, stringify(v))
	}

	out := placeholderRe.ReplaceAllStringFunc(rule.Matched, func(ph string) string {
		n, err := strconv.Atoi(ph[1 : len(ph)-1])
		if err != nil || n < 0 || n >= len(vals) {
			return unknownMarker
		}
		return vals[n]
	})
	return out, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return unknownMarker
		}
		return string(b)
	}
}
