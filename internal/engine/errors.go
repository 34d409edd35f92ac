package engine

import "errors"

// Sentinel errors returned by EnqueueUpdate (spec §7). Callers should
// compare with errors.Is.
var (
	// ErrValidationFailure indicates an enqueue of a malformed update.
	ErrValidationFailure = errors.New("engine: validation failure")

	// ErrBackpressure indicates the target partition's queue was full;
	// retryable by the caller.
	ErrBackpressure = errors.New("engine: backpressure")

	// ErrShuttingDown indicates an enqueue arrived after Stop was
	// called.
	ErrShuttingDown = errors.New("engine: shutting down")

	// ErrNotStarted indicates an operation that requires a running
	// engine was attempted before Start completed.
	ErrNotStarted = errors.New("engine: not started")
)
