package codec

import "github.com/fxamacker/cbor/v2"

// CBOR serializes memo values with fxamacker/cbor. The zero value is not
// usable; build instances through NewCBOR or MustCBOR so the encode and
// decode modes are initialized together.
//
// Deterministic mode (RFC 8949 Core Deterministic) yields byte-identical
// output for equal values, which matters when the stored bytes feed hashes
// or deduplication. The default mode trades that for speed and size. Times
// encode as RFC3339Nano either way.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	opts := cbor.PreferredUnsortedEncOptions()
	if deterministic {
		opts = cbor.CoreDetEncOptions()
	}
	opts.Time = cbor.TimeRFC3339Nano

	enc, err := opts.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: enc, dec: dec}, nil
}

// MustCBOR panics on a mode-construction error. Intended for package-level
// variables in tests and examples.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
