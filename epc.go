package contenttypes

import "strconv"

// TagKey is the decoded numeric identity of a tag: which content type it
// belongs to and the value within that type.
type TagKey struct {
	ContentTypeID uint32
	ContentValue  uint32
}

// DecodeEPC extracts a TagKey from a hex identifier. The decode window is
// the last 16 hex characters (the whole string when shorter); the window
// splits into two 8-character chunks parsed as hex. ok is false when either
// chunk is not valid hex — malformed input is a value, not a panic.
func DecodeEPC(epc string) (TagKey, bool) {
	w := epc
	if len(w) > 16 {
		w = w[len(w)-16:]
	}
	if len(w) != 16 {
		return TagKey{}, false
	}
	hi, err := strconv.ParseUint(w[:8], 16, 32)
	if err != nil {
		return TagKey{}, false
	}
	lo, err := strconv.ParseUint(w[8:], 16, 32)
	if err != nil {
		return TagKey{}, false
	}
	return TagKey{ContentTypeID: uint32(hi), ContentValue: uint32(lo)}, true
}
