package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	contenttypes "github.com/aramtech/rfid-content-types"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery   uint64
	FlushErrorEvery uint64
	// Optional identifier redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

// Hooks logs resolver events through slog with per-event sampling. EPCs and
// merge keys are redacted before logging.
type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr   atomic.Uint64
	flushErrorCtr atomic.Uint64
}

var _ contenttypes.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) FlushCoalesced(batcher string, n int) {
	h.l.Debug("flush coalesced", "batcher", batcher, "items", n)
}

func (h *Hooks) FlushError(batcher string, n int, err error) {
	if !sample(h.opts.FlushErrorEvery, &h.flushErrorCtr) {
		return
	}
	h.l.Error("flush failed", "batcher", batcher, "items", n, "err", err)
}

func (h *Hooks) LockTimeout(batcher string) {
	h.l.Warn("batcher lock timeout", "batcher", batcher)
}

func (h *Hooks) MemoSelfHeal(store, reason string) {
	if !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Warn("memo self-heal", "store", store, "reason", reason)
}

func (h *Hooks) MergeConflict(endpoint, key string) {
	h.l.Debug("duplicate record dropped on merge", "endpoint", endpoint, "key", h.redact(key))
}

func (h *Hooks) RetryExhausted(epc string, attempts int) {
	h.l.Error("virtual lookup retry ceiling hit", "epc", h.redact(epc), "attempts", attempts)
}
