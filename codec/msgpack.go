package codec

import "github.com/vmihailenco/msgpack/v5"

// Msgpack serializes memo values with vmihailenco/msgpack/v5. The zero value
// is ready to use. Struct tags follow `msgpack:"..."`, not `json:"..."`, so
// types shared with a JSON store may need both.
type Msgpack[V any] struct{}

func (Msgpack[V]) Encode(v V) ([]byte, error) { return msgpack.Marshal(v) }

func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	err := msgpack.Unmarshal(b, &v)
	return v, err
}
