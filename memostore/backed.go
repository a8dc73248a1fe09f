package memostore

import (
	"context"
	"fmt"
	"time"

	"github.com/aramtech/rfid-content-types/codec"
	"github.com/aramtech/rfid-content-types/internal/util"
	"github.com/aramtech/rfid-content-types/internal/wire"
	"github.com/aramtech/rfid-content-types/provider"
)

// Backed places memos in a provider.Provider, serialized by a Codec and
// framed with the store's current epoch. Clear bumps the epoch instead of
// enumerating provider keys; entries written under an older epoch fail
// validation on read and are deleted (self-heal), so a Clear is effective
// even on providers with no native flush.
type Backed[V any] struct {
	ns    string
	p     provider.Provider
	codec codec.Codec[V]
	ttl   time.Duration
	epoch EpochSource

	// SelfHeal, when set, observes entries dropped on read.
	// reason ∈ {"corrupt", "epoch_mismatch", "value_decode"}. Wire it to
	// Hooks.MemoSelfHeal when the resolver's hooks should see these events.
	SelfHeal func(reason string)
}

var _ Store[int] = (*Backed[int])(nil)

// NewBacked wires a provider-backed store with an in-process epoch.
// defaultTTL applies when Set is called with ttl<=0; zero disables expiry
// (provider permitting).
func NewBacked[V any](namespace string, p provider.Provider, c codec.Codec[V], defaultTTL time.Duration) (*Backed[V], error) {
	return NewBackedWithEpoch[V](namespace, p, c, defaultTTL, &LocalEpoch{})
}

// NewBackedWithEpoch is NewBacked with an explicit epoch source, e.g. a
// RedisEpoch shared across replicas.
func NewBackedWithEpoch[V any](namespace string, p provider.Provider, c codec.Codec[V], defaultTTL time.Duration, epoch EpochSource) (*Backed[V], error) {
	if namespace == "" {
		return nil, fmt.Errorf("memostore: namespace is required")
	}
	if p == nil {
		return nil, fmt.Errorf("memostore: provider is required")
	}
	if c == nil {
		return nil, fmt.Errorf("memostore: codec is required")
	}
	if epoch == nil {
		epoch = &LocalEpoch{}
	}
	return &Backed[V]{ns: namespace, p: p, codec: c, ttl: defaultTTL, epoch: epoch}, nil
}

func (s *Backed[V]) key(id string) string {
	return util.MemoKey(s.ns, id)
}

func (s *Backed[V]) heal(ctx context.Context, storageKey, reason string) {
	_ = s.p.Del(ctx, storageKey)
	if s.SelfHeal != nil {
		s.SelfHeal(reason)
	}
}

func (s *Backed[V]) Get(ctx context.Context, id string) (Entry[V], bool, error) {
	cur, err := s.epoch.Current(ctx)
	if err != nil {
		return Entry[V]{}, false, err
	}
	k := s.key(id)
	raw, ok, err := s.p.Get(ctx, k)
	if err != nil || !ok {
		return Entry[V]{}, false, err
	}
	epoch, found, payload, err := wire.DecodeMemo(raw)
	if err != nil {
		s.heal(ctx, k, "corrupt")
		return Entry[V]{}, false, nil
	}
	if epoch != cur {
		s.heal(ctx, k, "epoch_mismatch") // written before last Clear
		return Entry[V]{}, false, nil
	}
	if !found {
		return Entry[V]{}, true, nil
	}
	v, err := s.codec.Decode(payload)
	if err != nil {
		s.heal(ctx, k, "value_decode")
		return Entry[V]{}, false, nil
	}
	return Entry[V]{Found: true, Value: v}, true, nil
}

func (s *Backed[V]) Set(ctx context.Context, id string, e Entry[V], ttl time.Duration) error {
	cur, err := s.epoch.Current(ctx)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	var payload []byte
	if e.Found {
		b, err := s.codec.Encode(e.Value)
		if err != nil {
			return err
		}
		payload = b
	}
	raw := wire.EncodeMemo(cur, e.Found, payload)
	_, err = s.p.Set(ctx, s.key(id), raw, 1, ttl)
	return err
}

func (s *Backed[V]) Delete(ctx context.Context, id string) error {
	return s.p.Del(ctx, s.key(id))
}

func (s *Backed[V]) Clear(ctx context.Context) error {
	_, err := s.epoch.Bump(ctx)
	return err
}

func (s *Backed[V]) Close(ctx context.Context) error {
	return s.p.Close(ctx)
}
