package memostore

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// EpochSource is the clear-counter behind a Backed store. Bumping the epoch
// invalidates every memo written under earlier epochs.
type EpochSource interface {
	// Current returns the epoch in force; missing state reads as 0.
	Current(ctx context.Context) (uint64, error)
	// Bump atomically increments and returns the new epoch.
	Bump(ctx context.Context) (uint64, error)
}

// LocalEpoch keeps the epoch in-process (default). Suitable whenever the
// provider is also in-process, or when each replica owns its memo namespace.
type LocalEpoch struct {
	n atomic.Uint64
}

func (e *LocalEpoch) Current(context.Context) (uint64, error) { return e.n.Load(), nil }
func (e *LocalEpoch) Bump(context.Context) (uint64, error)    { return e.n.Add(1), nil }

// RedisEpoch shares the epoch across processes, so a Clear issued by one
// replica invalidates memos read by all of them. Pair it with a Redis
// provider; a shared epoch over per-process providers clears more than
// intended but never serves stale entries.
type RedisEpoch struct {
	rdb redis.UniversalClient
	key string
}

var _ EpochSource = (*RedisEpoch)(nil)

func NewRedisEpoch(client redis.UniversalClient, namespace string) *RedisEpoch {
	return &RedisEpoch{rdb: client, key: "epoch:" + namespace}
}

func (e *RedisEpoch) Current(ctx context.Context) (uint64, error) {
	res, err := e.rdb.Get(ctx, e.key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis epoch parse: %w", err)
	}
	return u, nil
}

func (e *RedisEpoch) Bump(ctx context.Context) (uint64, error) {
	v, err := e.rdb.Incr(ctx, e.key).Result()
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}
