package contenttypes

import "time"

// Named defaults for thresholds that were tuning constants in earlier
// revisions of this logic. All of them are overridable via Options.
const (
	defaultBatchPeriod    = 250 * time.Millisecond
	defaultBatchSkew      = 50 * time.Millisecond
	defaultLockTimeout    = 2 * time.Second
	defaultHotLockTimeout = 10 * time.Second
	defaultRetryCeiling   = 5
	defaultMemoTTL        = 10 * time.Minute
	defaultSweep          = time.Hour
	defaultRetention      = 30 * 24 * time.Hour
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
