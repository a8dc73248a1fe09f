package contenttypes

import (
	"errors"
	"fmt"
)

// ErrLockTimeout is returned when a caller could not enter a batcher's
// critical section within the configured bound. The caller's item was not
// enqueued; nothing else is affected.
var ErrLockTimeout = errors.New("contenttypes: batcher lock acquisition timed out")

// RetryExhaustedError reports a virtual redirection that stayed unsettled
// past the attempt ceiling.
type RetryExhaustedError struct {
	EPC      string
	Attempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("contenttypes: virtual lookup for %q unsettled after %d attempts", e.EPC, e.Attempts)
}

// FlushError wraps the failure of one bulk flush and is delivered to every
// waiter of that flush. Unrelated pending items and cached records are not
// affected.
type FlushError struct {
	Batcher string
	Items   int
	Err     error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("contenttypes: flush of %q (%d items) failed: %v", e.Batcher, e.Items, e.Err)
}

func (e *FlushError) Unwrap() error { return e.Err }
