package memostore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aramtech/rfid-content-types/codec"
)

// memProvider is an in-memory provider.Provider for tests.
type memProvider struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemProvider() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	p.m[key] = cp
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

func (p *memProvider) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// corrupt overwrites every stored value in place.
func (p *memProvider) corrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.m {
		p.m[k] = []byte("garbage")
	}
}

func newBackedString(t *testing.T, p *memProvider) *Backed[string] {
	t.Helper()
	s, err := NewBacked[string]("virtual:test", p, codec.JSON[string]{}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBackedSetGet(t *testing.T) {
	ctx := context.Background()
	p := newMemProvider()
	s := newBackedString(t, p)

	if _, ok, err := s.Get(ctx, "a"); ok || err != nil {
		t.Fatalf("empty Get = ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "a", Entry[string]{Found: true, Value: "hit"}, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "b", Entry[string]{}, 0); err != nil {
		t.Fatal(err)
	}

	e, ok, err := s.Get(ctx, "a")
	if err != nil || !ok || !e.Found || e.Value != "hit" {
		t.Fatalf("Get(a) = %+v ok=%v err=%v", e, ok, err)
	}
	e, ok, err = s.Get(ctx, "b")
	if err != nil || !ok || e.Found {
		t.Fatalf("miss entry Get(b) = %+v ok=%v err=%v", e, ok, err)
	}
}

func TestBackedClearInvalidatesByEpoch(t *testing.T) {
	ctx := context.Background()
	p := newMemProvider()
	s := newBackedString(t, p)

	_ = s.Set(ctx, "a", Entry[string]{Found: true, Value: "old"}, 0)

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	// provider still holds the bytes; the epoch check rejects them
	if p.len() != 1 {
		t.Fatalf("clear enumerated provider keys (%d left)", p.len())
	}
	var healed []string
	s.SelfHeal = func(reason string) { healed = append(healed, reason) }
	if _, ok, err := s.Get(ctx, "a"); ok || err != nil {
		t.Fatalf("pre-clear entry visible after Clear: ok=%v err=%v", ok, err)
	}
	if len(healed) != 1 || healed[0] != "epoch_mismatch" {
		t.Fatalf("self-heal reasons = %v", healed)
	}
	if p.len() != 0 {
		t.Fatalf("stale entry not deleted on read")
	}

	// writes after Clear land under the new epoch
	_ = s.Set(ctx, "a", Entry[string]{Found: true, Value: "new"}, 0)
	e, ok, err := s.Get(ctx, "a")
	if err != nil || !ok || e.Value != "new" {
		t.Fatalf("post-clear Get = %+v ok=%v err=%v", e, ok, err)
	}
}

func TestBackedSelfHealsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	p := newMemProvider()
	s := newBackedString(t, p)

	_ = s.Set(ctx, "a", Entry[string]{Found: true, Value: "hit"}, 0)
	p.corrupt()

	var healed []string
	s.SelfHeal = func(reason string) { healed = append(healed, reason) }

	if _, ok, err := s.Get(ctx, "a"); ok || err != nil {
		t.Fatalf("corrupt entry served: ok=%v err=%v", ok, err)
	}
	if len(healed) != 1 || healed[0] != "corrupt" {
		t.Fatalf("self-heal reasons = %v", healed)
	}
	if p.len() != 0 {
		t.Fatalf("corrupt entry not deleted")
	}

	// the slot is usable again immediately
	if err := s.Set(ctx, "a", Entry[string]{Found: true, Value: "fresh"}, 0); err != nil {
		t.Fatal(err)
	}
	if e, ok, _ := s.Get(ctx, "a"); !ok || e.Value != "fresh" {
		t.Fatalf("healed slot Get = %+v ok=%v", e, ok)
	}
}

func TestBackedSharedEpoch(t *testing.T) {
	ctx := context.Background()
	p := newMemProvider()
	epoch := &LocalEpoch{}

	a, err := NewBackedWithEpoch[string]("virtual:test", p, codec.JSON[string]{}, time.Minute, epoch)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBackedWithEpoch[string]("virtual:test", p, codec.JSON[string]{}, time.Minute, epoch)
	if err != nil {
		t.Fatal(err)
	}

	_ = a.Set(ctx, "k", Entry[string]{Found: true, Value: "v"}, 0)
	if e, ok, _ := b.Get(ctx, "k"); !ok || e.Value != "v" {
		t.Fatalf("shared provider Get = %+v ok=%v", e, ok)
	}

	// one store Clears; the other must not serve stale entries
	if err := a.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Fatalf("peer served entry written before Clear")
	}
}

func TestBackedValidatesArguments(t *testing.T) {
	p := newMemProvider()
	if _, err := NewBacked[string]("", p, codec.JSON[string]{}, 0); err == nil {
		t.Fatalf("empty namespace accepted")
	}
	if _, err := NewBacked[string]("ns", nil, codec.JSON[string]{}, 0); err == nil {
		t.Fatalf("nil provider accepted")
	}
	if _, err := NewBacked[string]("ns", p, nil, 0); err == nil {
		t.Fatalf("nil codec accepted")
	}
}
