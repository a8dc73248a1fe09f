// usage:
//
// import (
//
//	"log/slog"
//
//	contenttypes "github.com/aramtech/rfid-content-types"
//	asynchook "github.com/aramtech/rfid-content-types/hooks/async"
//	"github.com/aramtech/rfid-content-types/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery:   10, // sample logs: ~every 10th self-heal
//	    FlushErrorEvery: 1,  // log every flush failure
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	r, _ := contenttypes.New(contenttypes.Options{
//	    Client: client,
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	contenttypes "github.com/aramtech/rfid-content-types"
)

// Hooks fans events out to a slow inner implementation from worker
// goroutines, so batcher hot paths never block on a sink. Events are dropped
// when the queue is full.
type Hooks struct {
	inner contenttypes.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ contenttypes.Hooks = (*Hooks)(nil)

func New(inner contenttypes.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) FlushCoalesced(b string, n int) { h.try(func() { h.inner.FlushCoalesced(b, n) }) }
func (h *Hooks) LockTimeout(b string)           { h.try(func() { h.inner.LockTimeout(b) }) }
func (h *Hooks) MemoSelfHeal(s, r string)       { h.try(func() { h.inner.MemoSelfHeal(s, r) }) }
func (h *Hooks) MergeConflict(e, k string)      { h.try(func() { h.inner.MergeConflict(e, k) }) }
func (h *Hooks) RetryExhausted(epc string, n int) {
	h.try(func() { h.inner.RetryExhausted(epc, n) })
}
func (h *Hooks) FlushError(b string, n int, err error) {
	h.try(func() { h.inner.FlushError(b, n, err) })
}
