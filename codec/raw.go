package codec

// Bytes is the identity codec for []byte memo values: the memo wire framing
// and epoch validation still apply, but the payload is stored as-is.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores Go strings as their raw bytes. No UTF-8 validation happens
// in either direction.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
