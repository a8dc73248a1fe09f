package contenttypes

import (
	"context"
	"fmt"
	"time"
)

// FlushFunc is the user-supplied bulk callback. It receives an atomic
// snapshot of the queue and runs outside the batcher's critical section.
type FlushFunc[T any] func(ctx context.Context, items []T) error

// BatcherConfig tunes one coalescing window. Zero fields fall back to the
// package defaults.
type BatcherConfig struct {
	// Period is the debounce quiet window and also the staleness bound:
	// once Period has elapsed since the last flush, the next Set flushes
	// immediately instead of re-arming the timer.
	Period time.Duration
	// Skew is added on top of Period when arming the debounce timer.
	Skew time.Duration
	// LockTimeout bounds how long a caller may wait to enter the critical
	// section before failing with ErrLockTimeout.
	LockTimeout time.Duration
}

// Batcher coalesces items arriving close in time into single bulk calls.
//
// The enqueue-plus-flush-decision step is serialized per batcher; the bulk
// callback itself runs after the snapshot is taken and the section released,
// so a slow remote call never blocks unrelated enqueues. Flushes of one
// batcher are strictly sequential; distinct batchers are independent.
type Batcher[T any] struct {
	name        string
	period      time.Duration
	skew        time.Duration
	lockTimeout time.Duration
	flush       FlushFunc[T]
	log         Logger
	hooks       Hooks

	// sem has capacity 1; holding the token means being inside the
	// critical section. Everything below is guarded by it.
	sem       chan struct{}
	queue     []T
	waiters   []func(error)
	timer     *time.Timer
	timerGen  uint64 // invalidates superseded timer firings
	lastFlush time.Time
}

// NewBatcher builds a batcher named for diagnostics. nil log/hooks disable
// the respective outputs.
func NewBatcher[T any](name string, cfg BatcherConfig, flush FlushFunc[T], log Logger, hooks Hooks) *Batcher[T] {
	b := &Batcher[T]{
		name:        name,
		period:      coalesce(cfg.Period, defaultBatchPeriod),
		skew:        coalesce(cfg.Skew, defaultBatchSkew),
		lockTimeout: coalesce(cfg.LockTimeout, defaultLockTimeout),
		flush:       flush,
		log:         log,
		hooks:       hooks,
		sem:         make(chan struct{}, 1),
		lastFlush:   time.Now(),
	}
	if b.log == nil {
		b.log = NopLogger{}
	}
	if b.hooks == nil {
		b.hooks = NopHooks{}
	}
	return b
}

// Set appends item, registers the optional completion callback, and decides
// whether to flush: immediately when a timer is pending and the staleness
// bound has elapsed, otherwise by (re)arming the debounce timer. done is
// invoked exactly once with the flush outcome, even when the bulk callback
// fails — no waiter hangs forever.
func (b *Batcher[T]) Set(ctx context.Context, item T, done func(error)) error {
	if err := b.acquire(); err != nil {
		return err
	}
	b.queue = append(b.queue, item)
	if done != nil {
		b.waiters = append(b.waiters, done)
	}
	if b.timer != nil && time.Since(b.lastFlush) >= b.period {
		// continuous arrivals must not starve flushing
		_ = b.flushLocked(ctx)
		return nil
	}
	b.armTimerLocked()
	b.release()
	return nil
}

// Notify registers a completion callback for the next flush without
// enqueueing an item.
func (b *Batcher[T]) Notify(done func(error)) error {
	if done == nil {
		return nil
	}
	if err := b.acquire(); err != nil {
		return err
	}
	b.waiters = append(b.waiters, done)
	b.armTimerLocked()
	b.release()
	return nil
}

// SetNow bypasses the timer and flushes synchronously with whatever is
// queued plus the given items. Used for explicit cache-warm or sync points.
func (b *Batcher[T]) SetNow(ctx context.Context, items ...T) error {
	if err := b.acquire(); err != nil {
		return err
	}
	b.queue = append(b.queue, items...)
	return b.flushLocked(ctx)
}

// Cancel stops a pending debounce timer. Queued items stay queued until the
// next Set or SetNow.
func (b *Batcher[T]) Cancel() error {
	if err := b.acquire(); err != nil {
		return err
	}
	b.stopTimerLocked()
	b.release()
	return nil
}

func (b *Batcher[T]) acquire() error {
	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}
	t := time.NewTimer(b.lockTimeout)
	defer t.Stop()
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-t.C:
		b.hooks.LockTimeout(b.name)
		b.log.Warn("batcher lock timeout", Fields{"batcher": b.name})
		return ErrLockTimeout
	}
}

func (b *Batcher[T]) release() { <-b.sem }

func (b *Batcher[T]) armTimerLocked() {
	b.stopTimerLocked()
	gen := b.timerGen
	b.timer = time.AfterFunc(b.period+b.skew, func() { b.onTimer(gen) })
}

func (b *Batcher[T]) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.timerGen++
}

func (b *Batcher[T]) onTimer(gen uint64) {
	// background goroutine: the bounded-acquisition contract protects
	// callers, so waiting here is fine
	b.sem <- struct{}{}
	if gen != b.timerGen {
		// superseded by a later Set/Cancel
		b.release()
		return
	}
	_ = b.flushLocked(context.Background())
}

// flushLocked snapshots queue and waiters, leaves the critical section, runs
// the bulk callback, then completes every waiter with its outcome. Must be
// entered holding the section; always releases it.
func (b *Batcher[T]) flushLocked(ctx context.Context) error {
	items := b.queue
	waiters := b.waiters
	b.queue = nil
	b.waiters = nil
	b.stopTimerLocked()
	b.lastFlush = time.Now()
	b.release()

	var err error
	if len(items) > 0 && b.flush != nil {
		err = b.runFlush(ctx, items)
		if err != nil {
			err = &FlushError{Batcher: b.name, Items: len(items), Err: err}
			b.log.Error("bulk flush failed", Fields{"batcher": b.name, "items": len(items), "err": err})
			b.hooks.FlushError(b.name, len(items), err)
		} else {
			b.hooks.FlushCoalesced(b.name, len(items))
		}
	}
	for _, w := range waiters {
		w(err)
	}
	return err
}

func (b *Batcher[T]) runFlush(ctx context.Context, items []T) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("bulk callback panic: %v", rec)
		}
	}()
	return b.flush(ctx, items)
}
