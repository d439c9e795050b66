package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrFetchFailed marks an upstream fetch that exhausted its retries.
	// Callers must treat it as "no progress this round": it is never
	// equivalent to an empty result set, and watermarks must not advance
	// past data that failed to fetch.
	ErrFetchFailed = errors.New("upstream fetch failed")
)
