// Package memostore persists per-identifier memo entries: the outcome of a
// remote redirection or extras lookup, including confirmed misses, so repeat
// requests for the same identifier never hit the network again within a
// session.
//
// Use Local (default) for in-process memos, or Backed to place memos in any
// provider.Provider (Ristretto, BigCache, Redis) with a pluggable Codec.
package memostore

import (
	"context"
	"time"
)

// Entry is one memoized outcome. Found=false records a confirmed miss; the
// zero Value is meaningless in that case.
type Entry[V any] struct {
	Found bool
	Value V
}

// Store abstracts where memos live.
type Store[V any] interface {
	// Get returns the memo for id; ok=false when nothing is memoized yet.
	Get(ctx context.Context, id string) (Entry[V], bool, error)
	// Set memoizes the outcome for id. ttl<=0 means store-default retention.
	Set(ctx context.Context, id string, e Entry[V], ttl time.Duration) error
	// Delete removes one memo (best-effort).
	Delete(ctx context.Context, id string) error
	// Clear drops every memo in the store. Entries written before Clear must
	// never be observed afterwards.
	Clear(ctx context.Context) error
	// Close releases resources (no-op ok).
	Close(ctx context.Context) error
}
