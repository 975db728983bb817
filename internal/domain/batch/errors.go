package batch

import "errors"

var (
	// ErrCancelled indicates a pass stopped because its context was cancelled.
	ErrCancelled = errors.New("batch cancelled")
	// ErrRootNotFound indicates the orders root is missing or not a directory.
	ErrRootNotFound = errors.New("orders root not found")
	// ErrInvalidLookback indicates a lookback that is not a non-negative number of hours.
	ErrInvalidLookback = errors.New("invalid lookback")
	// ErrNotAnOrder indicates a directory without its <name>.xml descriptor.
	ErrNotAnOrder = errors.New("not an order directory")
	// ErrOrderFileMissing indicates the order file named by a filter outcome cannot be opened.
	ErrOrderFileMissing = errors.New("order file missing")
)
