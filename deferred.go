package contenttypes

import (
	"context"
	"strconv"
	"sync"

	"github.com/aramtech/rfid-content-types/pathsel"
)

// endpointCache is the per-endpoint state behind deferred content: an
// append-only list of remote records, the grow-only set of values a flush
// has already covered (found or confirmed-miss), and the endpoint's single
// batcher. Exactly one instance exists per endpoint path, created lazily and
// alive until the resolver is cleared or closed.
type endpointCache struct {
	mu       sync.RWMutex
	records  []any
	resolved map[string]struct{}
	batcher  *Batcher[uint32]
}

func resolvedKey(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

func (ec *endpointCache) probe(pattern []pathsel.Segment, target any) (map[string]any, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	m, ok := pathsel.Find(pattern, target, ec.records)
	if !ok {
		return nil, false
	}
	return m.Record, true
}

func (ec *endpointCache) isResolved(v uint32) bool {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	_, ok := ec.resolved[resolvedKey(v)]
	return ok
}

// endpoint returns the cache for def's path, creating it (and its batcher)
// on first use.
func (r *Resolver) endpoint(def *Definition) *endpointCache {
	r.epMu.Lock()
	defer r.epMu.Unlock()
	ec, ok := r.endpoints[def.Path]
	if ok {
		return ec
	}
	ec = &endpointCache{resolved: make(map[string]struct{})}
	ec.batcher = NewBatcher[uint32]("deferred:"+def.Path, r.batchCfg,
		func(ctx context.Context, vals []uint32) error {
			return r.flushDeferred(ctx, def, ec, vals)
		}, r.log, r.hooks)
	r.endpoints[def.Path] = ec
	return ec
}

// resolveDeferred drives one value through the per-endpoint state machine:
// cache probe, confirmed-miss short-circuit, enqueue-and-await, re-probe.
// A value the remote confirmed absent yields ("", nil).
func (r *Resolver) resolveDeferred(ctx context.Context, def *Definition, value uint32) (string, error) {
	ec := r.endpoint(def)
	pattern := pathsel.ParsePattern(def.MatchPattern)

	// 1. synchronous probe: a hit never touches the network
	if rec, ok := ec.probe(pattern, value); ok {
		return Render(def.Rules, rec, r.log), nil
	}

	// 2. a prior flush covered this value and it was absent
	if ec.isResolved(value) {
		return "", nil
	}

	// 3. coalesce with concurrent requests, await the flush
	ch := make(chan error, 1)
	if err := ec.batcher.Set(ctx, value, func(err error) { ch <- err }); err != nil {
		return "", err
	}
	select {
	case err := <-ch:
		if err != nil {
			return "", err
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if rec, ok := ec.probe(pattern, value); ok {
		return Render(def.Rules, rec, r.log), nil
	}
	// flushed but still absent: confirmed miss (or a settle race, which the
	// deferred path resolves as a single miss rather than retrying)
	return "", nil
}

// flushDeferred is the endpoint batcher's bulk callback: one remote call for
// the de-duplicated set of genuinely new values, idempotent merge of the
// returned records, and resolved-marking of every flushed value.
func (r *Resolver) flushDeferred(ctx context.Context, def *Definition, ec *endpointCache, vals []uint32) error {
	fresh := make([]uint32, 0, len(vals))
	seen := make(map[uint32]struct{}, len(vals))
	ec.mu.RLock()
	for _, v := range vals {
		if _, dup := seen[v]; dup {
			continue
		}
		if _, done := ec.resolved[resolvedKey(v)]; done {
			continue
		}
		seen[v] = struct{}{}
		fresh = append(fresh, v)
	}
	ec.mu.RUnlock()
	if len(fresh) == 0 {
		return nil
	}

	field := coalesce(def.RequestField, "values")
	resp, err := r.client.Post(ctx, def.Path, map[string]any{field: fresh}, r.reqOpts)
	if err != nil {
		return err
	}

	var data any
	if resp != nil {
		data = resp.Data
	}
	arr := extractArray(data, def.ResponsePath)
	pattern := pathsel.ParsePattern(def.MatchPattern)

	ec.mu.Lock()
	for _, rec := range arr {
		key, ok := pathsel.Select(def.KeyPath, rec)
		if !ok || key == nil {
			r.log.Warn("deferred record without unique key dropped", Fields{"endpoint": def.Path})
			continue
		}
		if _, exists := pathsel.Find(pattern, key, ec.records); exists {
			// overlapping flushes must not duplicate records
			r.hooks.MergeConflict(def.Path, stringify(key))
			continue
		}
		ec.records = append(ec.records, rec)
	}
	for _, v := range vals {
		ec.resolved[resolvedKey(v)] = struct{}{}
	}
	ec.mu.Unlock()
	return nil
}

// fetchSingle is deferred content in single mode: one direct remote call for
// one value, no batching or caching.
func (r *Resolver) fetchSingle(ctx context.Context, def *Definition, value uint32) (string, error) {
	field := coalesce(def.RequestField, "values")
	resp, err := r.client.Post(ctx, def.Path, map[string]any{field: []uint32{value}}, r.reqOpts)
	if err != nil {
		return "", err
	}
	var data any
	if resp != nil {
		data = resp.Data
	}
	arr := extractArray(data, def.ResponsePath)
	m, ok := pathsel.Find(pathsel.ParsePattern(def.MatchPattern), value, arr)
	if !ok {
		return "", nil
	}
	return Render(def.Rules, m.Record, r.log), nil
}

// extractArray selects the result array out of a response body; an empty
// path means the body itself is the array.
func extractArray(data any, path string) []any {
	v := data
	if path != "" {
		sel, ok := pathsel.Select(path, data)
		if !ok {
			return nil
		}
		v = sel
	}
	arr, _ := v.([]any)
	return arr
}
