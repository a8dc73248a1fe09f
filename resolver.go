package contenttypes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aramtech/rfid-content-types/memostore"
	"github.com/aramtech/rfid-content-types/pathsel"
)

// Options tune a Resolver. Only Client is required; zero values fall back to
// the package defaults. Memo stores default to in-process memostore.Local
// instances owned (and closed) by the Resolver.
type Options struct {
	// Required
	Client Client

	// Definitions loaded for this session, e.g. via LoadContentTypes.
	Definitions []Definition

	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks

	// Batch configures the per-endpoint deferred batchers. The virtual and
	// extras batchers share Period/Skew but use HotLockTimeout, since
	// redirection sits on the hottest path.
	Batch          BatcherConfig
	HotLockTimeout time.Duration

	// RetryCeiling bounds virtual fetch attempts; 0 => default.
	RetryCeiling int

	// RequestOptions forwarded to every bulk remote call.
	RequestOptions RequestOptions

	// VirtualPath enables identifier redirection; empty disables it.
	VirtualPath         string
	VirtualResponsePath string
	// ExtrasPath enables the best-effort extras lookup; empty disables it.
	ExtrasPath         string
	ExtrasResponsePath string

	// Custom memo stores (e.g. provider-backed). nil => in-process.
	VirtualMemo memostore.Store[TagKey]
	ExtrasMemo  memostore.Store[map[string]any]
	MemoTTL     time.Duration // provider-backed stores only; 0 => 10m

	// Sweep configuration for the default in-process memo stores.
	CleanupInterval time.Duration // 0 => 1h
	Retention       time.Duration // 0 => 30d
}

// Resolver turns EPC identifiers into display content. It owns every cache
// of a session: per-endpoint record caches, the virtual redirection memo and
// the extras memo. Independent Resolver instances share nothing; create one
// per session and Clear or Close it at the session boundary to bound memory
// and avoid stale carry-over.
type Resolver struct {
	client Client
	log    Logger
	hooks  Hooks

	defs map[uint32]*Definition

	batchCfg     BatcherConfig
	reqOpts      RequestOptions
	retryCeiling int
	memoTTL      time.Duration

	epMu      sync.Mutex
	endpoints map[string]*endpointCache

	virtualPath     string
	virtualRespPath string
	virtualMemo     memostore.Store[TagKey]
	virtualBatcher  *Batcher[string]

	extrasPath     string
	extrasRespPath string
	extrasMemo     memostore.Store[map[string]any]
	extrasBatcher  *Batcher[string]

	closeOnce sync.Once
}

// New builds a Resolver. The returned instance is safe for concurrent use.
func New(opts Options) (*Resolver, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("contenttypes: client is required")
	}

	r := &Resolver{
		client:       opts.Client,
		log:          coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:        coalesce[Hooks](opts.Hooks, NopHooks{}),
		defs:         make(map[uint32]*Definition, len(opts.Definitions)),
		reqOpts:      opts.RequestOptions,
		retryCeiling: coalesce(opts.RetryCeiling, defaultRetryCeiling),
		memoTTL:      coalesce(opts.MemoTTL, defaultMemoTTL),
		endpoints:    make(map[string]*endpointCache),

		virtualPath:     opts.VirtualPath,
		virtualRespPath: opts.VirtualResponsePath,
		extrasPath:      opts.ExtrasPath,
		extrasRespPath:  opts.ExtrasResponsePath,
	}

	r.batchCfg = BatcherConfig{
		Period:      coalesce(opts.Batch.Period, defaultBatchPeriod),
		Skew:        coalesce(opts.Batch.Skew, defaultBatchSkew),
		LockTimeout: coalesce(opts.Batch.LockTimeout, defaultLockTimeout),
	}
	hotCfg := r.batchCfg
	hotCfg.LockTimeout = coalesce(opts.HotLockTimeout, defaultHotLockTimeout)

	for i := range opts.Definitions {
		def := opts.Definitions[i]
		r.defs[def.ID] = &def
	}

	sweep := coalesce(opts.CleanupInterval, defaultSweep)
	retention := coalesce(opts.Retention, defaultRetention)
	r.virtualMemo = opts.VirtualMemo
	if r.virtualMemo == nil {
		r.virtualMemo = memostore.NewLocal[TagKey](sweep, retention)
	}
	r.extrasMemo = opts.ExtrasMemo
	if r.extrasMemo == nil {
		r.extrasMemo = memostore.NewLocal[map[string]any](sweep, retention)
	}

	r.virtualBatcher = NewBatcher[string]("virtual", hotCfg, r.flushVirtual, r.log, r.hooks)
	r.extrasBatcher = NewBatcher[string]("extras", hotCfg, r.flushExtras, r.log, r.hooks)
	return r, nil
}

// LoadContentTypes fetches the definition list for a session and eagerly
// resolves FetchedList backing data, so FetchedList dispatch never touches
// the network afterwards.
func LoadContentTypes(ctx context.Context, client Client, path string, opts RequestOptions) ([]Definition, error) {
	resp, err := client.Post(ctx, path, map[string]any{}, opts)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Data == nil {
		return nil, fmt.Errorf("contenttypes: empty definition response from %q", path)
	}

	// the feed arrives as untyped JSON; round-trip through encoding/json to
	// apply the tagged-variant decoding
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, err
	}
	var defs []Definition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("contenttypes: malformed definition feed: %w", err)
	}

	for i := range defs {
		def := &defs[i]
		if def.Kind != KindFetchedList || def.DataPath == "" {
			continue
		}
		dataResp, err := client.Post(ctx, def.DataPath, map[string]any{}, opts)
		if err != nil {
			return nil, fmt.Errorf("contenttypes: backing data for type %d: %w", def.ID, err)
		}
		var data any
		if dataResp != nil {
			data = dataResp.Data
		}
		if def.ResponsePath != "" {
			if sel, ok := pathsel.Select(def.ResponsePath, data); ok {
				data = sel
			}
		}
		def.Data = data
	}
	return defs, nil
}

// Resolve decodes epc and dispatches on its content type. Malformed input
// and unmatched lookups yield (nil, nil) — never a panic. A pending virtual
// redirection returns a Result whose Retry drives settlement.
func (r *Resolver) Resolve(ctx context.Context, epc string) (*Result, error) {
	key, ok := DecodeEPC(epc)
	if !ok {
		r.log.Debug("malformed epc", Fields{"epc": epc})
		return nil, nil
	}
	def, found := r.defs[key.ContentTypeID]
	if !found {
		return r.resolveVirtual(ctx, epc)
	}
	return r.dispatch(ctx, epc, key, def, false)
}

// dispatchKey re-enters dispatch with a redirected key. A substitute type id
// absent from the table is a confirmed non-match.
func (r *Resolver) dispatchKey(ctx context.Context, epc string, key TagKey) (*Result, error) {
	def, found := r.defs[key.ContentTypeID]
	if !found {
		return nil, nil
	}
	return r.dispatch(ctx, epc, key, def, true)
}

func (r *Resolver) dispatch(_ context.Context, epc string, key TagKey, def *Definition, virtual bool) (*Result, error) {
	res := &Result{
		ContentTypeID: key.ContentTypeID,
		ContentValue:  key.ContentValue,
		Kind:          def.Kind,
		Virtual:       virtual,
	}

	switch def.Kind {
	case KindFixed, KindManual:
		res.Text = expandTemplate(def.Template, epc, key)

	case KindLegacy:
		// formatting-only shim kept for tags minted before the template
		// variants existed
		res.Text = expandTemplate(coalesce(def.Template, "{contentValue}"), epc, key)

	case KindEnum:
		matched := false
		for _, e := range def.Enum {
			if e.Value == key.ContentValue {
				res.Text = e.Text
				matched = true
				break
			}
		}
		if !matched {
			return nil, nil
		}

	case KindFetchedList:
		m, ok := pathsel.Find(pathsel.ParsePattern(def.MatchPattern), key.ContentValue, def.Data)
		if !ok {
			return nil, nil
		}
		res.Text = Render(def.Rules, m.Record, r.log)

	case KindDeferred:
		d := def // capture
		res.Fetch = func(ctx context.Context) (string, error) {
			if d.Mode == ModeSingle {
				return r.fetchSingle(ctx, d, key.ContentValue)
			}
			return r.resolveDeferred(ctx, d, key.ContentValue)
		}

	case KindUnknown:
		return nil, nil

	default:
		return nil, nil
	}

	if r.extrasPath != "" {
		id := epc
		res.ExtraInfo = func(ctx context.Context) map[string]any {
			return r.extraInfo(ctx, id)
		}
	}
	return res, nil
}

func expandTemplate(tpl, epc string, key TagKey) string {
	return strings.NewReplacer(
		"{epc}", epc,
		"{contentTypeId}", strconv.FormatUint(uint64(key.ContentTypeID), 10),
		"{contentValue}", strconv.FormatUint(uint64(key.ContentValue), 10),
	).Replace(tpl)
}

// ClearEndpointCaches drops every per-endpoint record cache, resolved set
// and batcher. Pending debounce timers are cancelled; items already handed
// to a running flush complete normally.
func (r *Resolver) ClearEndpointCaches() {
	r.epMu.Lock()
	old := r.endpoints
	r.endpoints = make(map[string]*endpointCache)
	r.epMu.Unlock()
	for _, ec := range old {
		_ = ec.batcher.Cancel()
	}
}

// ClearVirtualMemo drops every memoized redirection, positive and negative.
func (r *Resolver) ClearVirtualMemo(ctx context.Context) error {
	return r.virtualMemo.Clear(ctx)
}

// ClearExtrasMemo drops every memoized extras entry.
func (r *Resolver) ClearExtrasMemo(ctx context.Context) error {
	return r.extrasMemo.Clear(ctx)
}

// ClearAll resets every cache this resolver owns; call it at session
// boundaries.
func (r *Resolver) ClearAll(ctx context.Context) error {
	r.ClearEndpointCaches()
	return errors.Join(r.ClearVirtualMemo(ctx), r.ClearExtrasMemo(ctx))
}

// Close cancels pending batch timers and releases the memo stores. The
// resolver must not be used afterwards.
func (r *Resolver) Close(ctx context.Context) error {
	var err error
	r.closeOnce.Do(func() {
		r.ClearEndpointCaches()
		_ = r.virtualBatcher.Cancel()
		_ = r.extrasBatcher.Cancel()
		err = errors.Join(r.virtualMemo.Close(ctx), r.extrasMemo.Close(ctx))
	})
	return err
}
