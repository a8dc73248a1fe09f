package contenttypes

import (
	"context"

	"github.com/aramtech/rfid-content-types/memostore"
	"github.com/aramtech/rfid-content-types/pathsel"
)

// extraInfo fetches supplementary per-identifier data, batched by EPC string
// on its own endpoint. Strictly best-effort: every miss, timeout or remote
// failure resolves to nil. Negative results are memoized like positive ones.
func (r *Resolver) extraInfo(ctx context.Context, epc string) map[string]any {
	if e, ok, err := r.extrasMemo.Get(ctx, epc); err == nil && ok {
		if !e.Found {
			return nil
		}
		return e.Value
	}

	ch := make(chan error, 1)
	if err := r.extrasBatcher.Set(ctx, epc, func(err error) { ch <- err }); err != nil {
		r.log.Warn("extras enqueue failed", Fields{"epc": epc, "err": err})
		return nil
	}
	select {
	case err := <-ch:
		if err != nil {
			return nil
		}
	case <-ctx.Done():
		return nil
	}

	if e, ok, err := r.extrasMemo.Get(ctx, epc); err == nil && ok && e.Found {
		return e.Value
	}
	return nil
}

// flushExtras is the extras batcher's bulk callback. Each response item
// carries the identifier under "epc"; the item itself is the memoized value.
func (r *Resolver) flushExtras(ctx context.Context, epcs []string) error {
	fresh := make([]string, 0, len(epcs))
	seen := make(map[string]struct{}, len(epcs))
	for _, id := range epcs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok, err := r.extrasMemo.Get(ctx, id); err == nil && ok {
			continue
		}
		fresh = append(fresh, id)
	}
	if len(fresh) == 0 {
		return nil
	}

	resp, err := r.client.Post(ctx, r.extrasPath, map[string]any{"epcs": fresh}, r.reqOpts)
	if err != nil {
		return err
	}
	var data any
	if resp != nil {
		data = resp.Data
	}

	returned := make(map[string]struct{}, len(fresh))
	for _, item := range extractArray(data, r.extrasRespPath) {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		idv, ok := pathsel.Select("epc", rec)
		if !ok {
			continue
		}
		id, _ := idv.(string)
		if id == "" {
			continue
		}
		returned[id] = struct{}{}
		if err := r.extrasMemo.Set(ctx, id, memostore.Entry[map[string]any]{Found: true, Value: rec}, r.memoTTL); err != nil {
			r.log.Warn("extras memo write failed", Fields{"epc": id, "err": err})
		}
	}
	for _, id := range fresh {
		if _, ok := returned[id]; ok {
			continue
		}
		if err := r.extrasMemo.Set(ctx, id, memostore.Entry[map[string]any]{}, r.memoTTL); err != nil {
			r.log.Warn("extras memo write failed", Fields{"epc": id, "err": err})
		}
	}
	return nil
}
