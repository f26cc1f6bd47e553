package inspection

import "errors"

var (
	// ErrNotFound indicates a missing order record.
	ErrNotFound = errors.New("order: not found")

	// ErrAlreadyClosed indicates an attempt to close an order twice.
	// Closure data is written once and never overwritten.
	ErrAlreadyClosed = errors.New("order: already closed")
)
