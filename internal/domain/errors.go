package domain

import "errors"

// ErrInvalidArgument is returned when a caller-supplied parameter is
// malformed: an out-of-range threshold, a non-positive lookback, or empty
// candidate text. It is always returned before any storage access.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrStorage wraps any failure of the underlying post store. Storage
// failures are never retried and never downgraded to a "not a duplicate"
// result; the call aborts and the error reaches the caller.
var ErrStorage = errors.New("storage failure")

// ErrDuplicateContent is returned by InsertPost when a post with the same
// content hash already exists. For archive imports this makes re-running an
// interrupted import a no-op per item.
var ErrDuplicateContent = errors.New("duplicate content hash")
