package delivery

import "errors"

// Queue errors.
var (
	// ErrAlreadyEnqueued means a briefing for this subscription and local
	// date is already queued; the scheduler treats it as a no-op.
	ErrAlreadyEnqueued = errors.New("briefing already enqueued for this date")

	ErrItemNotFound = errors.New("queue item not found")
	ErrNotRetryable = errors.New("queue item is not in a failed state")
)
