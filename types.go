package contenttypes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the content-type variants. Definitions arrive with a
// string tag on the wire; dispatch happens on this enum so every switch can
// be exhaustive.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindFixed
	KindManual
	KindEnum
	KindDeferred
	KindFetchedList
	KindLegacy
)

var kindNames = map[Kind]string{
	KindFixed:       "fixed",
	KindManual:      "manual",
	KindEnum:        "enum",
	KindDeferred:    "deferred",
	KindFetchedList: "fetchedList",
	KindLegacy:      "legacy",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for kk, name := range kindNames {
		if name == s {
			*k = kk
			return nil
		}
	}
	return fmt.Errorf("contenttypes: unknown content-type kind %q", s)
}

func (k Kind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

// DeferredMode selects how a Deferred definition reaches its endpoint.
type DeferredMode uint8

const (
	// ModeBatched coalesces values through the shared per-endpoint batcher.
	ModeBatched DeferredMode = iota
	// ModeSingle issues one direct call per invocation.
	ModeSingle
)

func (m *DeferredMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "", "batched":
		*m = ModeBatched
	case "single":
		*m = ModeSingle
	default:
		return fmt.Errorf("contenttypes: unknown deferred mode %q", s)
	}
	return nil
}

// EnumEntry is one row of an Enum definition's value→text table.
type EnumEntry struct {
	Value uint32 `json:"value"`
	Text  string `json:"text"`
}

// Definition is one externally supplied content-type rule. Which fields are
// meaningful depends on Kind:
//
//	Fixed/Manual/Legacy: Template
//	Enum:                Enum
//	FetchedList:         DataPath (hydrated into Data at load), MatchPattern, Rules
//	Deferred:            Path, RequestField, ResponsePath, MatchPattern, KeyPath, Rules, Mode
type Definition struct {
	ID   uint32 `json:"id"`
	Kind Kind   `json:"kind"`

	Template string      `json:"template,omitempty"`
	Enum     []EnumEntry `json:"enum,omitempty"`

	Path         string       `json:"path,omitempty"`
	RequestField string       `json:"requestField,omitempty"`
	ResponsePath string       `json:"responsePath,omitempty"`
	MatchPattern []string     `json:"matchPattern,omitempty"`
	KeyPath      string       `json:"keyPath,omitempty"`
	Rules        []TextRule   `json:"rules,omitempty"`
	Mode         DeferredMode `json:"mode,omitempty"`

	DataPath string `json:"dataPath,omitempty"`
	// Data is the FetchedList backing payload, resolved once by
	// LoadContentTypes. Never serialized back out.
	Data any `json:"-"`
}

// RequestOptions carries cache-control hints for the remote client.
type RequestOptions struct {
	ForceFresh  bool
	MaxAge      time.Duration
	BypassScope bool
}

// Response is the opaque remote reply envelope.
type Response struct {
	Data any
}

// Client is the remote capability this package consumes. Transport detail is
// entirely the caller's concern.
type Client interface {
	Post(ctx context.Context, path string, body any, opts RequestOptions) (*Response, error)
}

// Result is the uniform outcome of resolving one EPC.
//
// Exactly one of the capability fields is populated per variant: Fetch for
// deferred content, Retry while a virtual redirection is unsettled.
// ExtraInfo is attached to every resolved record.
type Result struct {
	Text          string
	ContentTypeID uint32
	ContentValue  uint32
	Kind          Kind

	// Virtual marks a record reached through identifier redirection.
	Virtual bool

	// Fetch resolves deferred display text on demand. No network call
	// happens until it is invoked. A confirmed miss yields ("", nil).
	Fetch func(ctx context.Context) (string, error)

	// Retry drives an unsettled virtual redirection. Callers start at
	// attempt 0; the function re-invokes itself on the enqueue/settle race
	// up to the configured ceiling.
	Retry func(ctx context.Context, attempt int) (*Result, error)

	// ExtraInfo fetches best-effort supplementary data for the identifier.
	// Any miss or failure yields nil, never an error.
	ExtraInfo func(ctx context.Context) map[string]any
}

// Pending reports whether this result still needs Retry to settle.
func (r *Result) Pending() bool { return r != nil && r.Retry != nil }
