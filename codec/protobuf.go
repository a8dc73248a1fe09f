package codec

import "google.golang.org/protobuf/proto"

// Protobuf serializes proto.Message memo values. Decode needs a fresh
// message to unmarshal into, so the codec carries a constructor:
//
//	codec.NewProtobuf(func() *tagpb.Extra { return &tagpb.Extra{} })
type Protobuf[T proto.Message] struct {
	ctor func() T
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{ctor: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) { return proto.Marshal(v) }

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.ctor()
	err := proto.Unmarshal(b, m)
	return m, err
}
