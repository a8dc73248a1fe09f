package codec

import "fmt"

// Limit wraps another codec and rejects oversized payloads before they reach
// it. Encode passes through untouched; Decode fails when the input exceeds
// MaxDecode bytes. MaxDecode <= 0 disables the check.
//
// Useful in front of a shared provider, where a foreign or corrupted write
// could otherwise hand the inner codec an arbitrarily large buffer.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
