package seismograph

import "errors"

var (
	// ErrNotFound indicates a missing seismograph record.
	ErrNotFound = errors.New("seismograph: not found")

	// ErrNoCurrentEntry indicates a history without an open entry. A
	// constructed seismograph always has one, so hitting this means the
	// record was corrupted or built without initialization.
	ErrNoCurrentEntry = errors.New("seismograph: history has no current entry")

	// ErrUnknownStatus indicates a status value outside the known set.
	ErrUnknownStatus = errors.New("seismograph: unknown status")

	// ErrUnknownOperation indicates an operation outside the known set.
	ErrUnknownOperation = errors.New("seismograph: unknown operation")
)
