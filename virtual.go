package contenttypes

import (
	"context"

	"github.com/aramtech/rfid-content-types/memostore"
	"github.com/aramtech/rfid-content-types/pathsel"
)

// resolveVirtual handles identifiers with no local definition: the raw EPC
// string may redirect to a substitute (contentTypeID, contentValue) pair via
// an independent remote lookup, memoized per identifier.
func (r *Resolver) resolveVirtual(ctx context.Context, epc string) (*Result, error) {
	if r.virtualPath == "" {
		return nil, nil
	}
	e, ok, err := r.virtualMemo.Get(ctx, epc)
	if err != nil {
		// memo backend trouble reads as "not memoized yet"
		r.log.Warn("virtual memo read failed", Fields{"epc": epc, "err": err})
	} else if ok {
		if !e.Found {
			return nil, nil // confirmed non-virtual, negative-cached
		}
		return r.dispatchKey(ctx, epc, e.Value)
	}

	res := &Result{Kind: KindUnknown, Virtual: true}
	res.Retry = func(ctx context.Context, attempt int) (*Result, error) {
		return r.virtualFetch(ctx, epc, attempt)
	}
	return res, nil
}

// virtualFetch enqueues the identifier, awaits the flush, and re-checks the
// memo. An enqueue/settle race (flush completed but the memo still empty)
// retries with attempt+1 up to the ceiling; past it the lookup fails
// permanently instead of looping.
func (r *Resolver) virtualFetch(ctx context.Context, epc string, attempt int) (*Result, error) {
	if attempt >= r.retryCeiling {
		r.hooks.RetryExhausted(epc, attempt)
		return nil, &RetryExhaustedError{EPC: epc, Attempts: attempt}
	}

	if e, ok, err := r.virtualMemo.Get(ctx, epc); err == nil && ok {
		if !e.Found {
			return nil, nil
		}
		return r.dispatchKey(ctx, epc, e.Value)
	}

	ch := make(chan error, 1)
	if err := r.virtualBatcher.Set(ctx, epc, func(err error) { ch <- err }); err != nil {
		return nil, err
	}
	select {
	case err := <-ch:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if e, ok, err := r.virtualMemo.Get(ctx, epc); err == nil && ok {
		if !e.Found {
			return nil, nil
		}
		return r.dispatchKey(ctx, epc, e.Value)
	}
	return r.virtualFetch(ctx, epc, attempt+1)
}

// flushVirtual is the redirection batcher's bulk callback. Response items
// carry {epc, contentTypeId, contentValue}; identifiers the remote did not
// return are memoized as confirmed non-virtual.
func (r *Resolver) flushVirtual(ctx context.Context, epcs []string) error {
	fresh := make([]string, 0, len(epcs))
	seen := make(map[string]struct{}, len(epcs))
	for _, id := range epcs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok, err := r.virtualMemo.Get(ctx, id); err == nil && ok {
			continue
		}
		fresh = append(fresh, id)
	}
	if len(fresh) == 0 {
		return nil
	}

	resp, err := r.client.Post(ctx, r.virtualPath, map[string]any{"epcs": fresh}, r.reqOpts)
	if err != nil {
		return err
	}
	var data any
	if resp != nil {
		data = resp.Data
	}

	returned := make(map[string]struct{}, len(fresh))
	for _, item := range extractArray(data, r.virtualRespPath) {
		id, ok := pathsel.Select("epc", item)
		if !ok {
			continue
		}
		ids, _ := id.(string)
		ct, okCT := pathsel.Select("contentTypeId", item)
		cv, okCV := pathsel.Select("contentValue", item)
		if ids == "" || !okCT || !okCV {
			r.log.Warn("malformed virtual redirection item dropped", Fields{"path": r.virtualPath})
			continue
		}
		key := TagKey{ContentTypeID: asUint32(ct), ContentValue: asUint32(cv)}
		returned[ids] = struct{}{}
		if err := r.virtualMemo.Set(ctx, ids, memostore.Entry[TagKey]{Found: true, Value: key}, r.memoTTL); err != nil {
			r.log.Warn("virtual memo write failed", Fields{"epc": ids, "err": err})
		}
	}
	for _, id := range fresh {
		if _, ok := returned[id]; ok {
			continue
		}
		if err := r.virtualMemo.Set(ctx, id, memostore.Entry[TagKey]{}, r.memoTTL); err != nil {
			r.log.Warn("virtual memo write failed", Fields{"epc": id, "err": err})
		}
	}
	return nil
}

func asUint32(v any) uint32 {
	switch n := v.(type) {
	case float64:
		return uint32(n)
	case int:
		return uint32(n)
	case uint32:
		return n
	case int64:
		return uint32(n)
	case uint64:
		return uint32(n)
	}
	return 0
}
