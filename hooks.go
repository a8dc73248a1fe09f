package contenttypes

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; the resolvers call them on
// hot paths. Wrap with hooks/async for fan-out to slow sinks.
type Hooks interface {
	// One flush drained n queued items into a single bulk call.
	FlushCoalesced(batcher string, n int)

	// The bulk callback of a flush failed; its n waiters received err.
	FlushError(batcher string, n int, err error)

	// A caller gave up waiting for a batcher's critical section.
	LockTimeout(batcher string)

	// A memo entry was dropped on read.
	// reason ∈ {"corrupt", "epoch_mismatch", "value_decode"}
	MemoSelfHeal(store, reason string)

	// A flush returned a record whose unique key was already cached; the
	// duplicate was discarded.
	MergeConflict(endpoint, key string)

	// A virtual redirection gave up after the attempt ceiling.
	RetryExhausted(epc string, attempts int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) FlushCoalesced(string, int)    {}
func (NopHooks) FlushError(string, int, error) {}
func (NopHooks) LockTimeout(string)            {}
func (NopHooks) MemoSelfHeal(string, string)   {}
func (NopHooks) MergeConflict(string, string)  {}
func (NopHooks) RetryExhausted(string, int)    {}
