package report

import "errors"

var (
	// ErrStoreLocked is returned when the store lock could not be acquired
	// before the context was done.
	ErrStoreLocked = errors.New("report store is locked by another writer")

	// ErrInvalidEngineReport is returned for engine output that lacks the
	// expected structure.
	ErrInvalidEngineReport = errors.New("invalid engine report")

	// ErrUnknownFormat is returned by NewWriter for an unsupported format.
	ErrUnknownFormat = errors.New("unknown report format")
)
