package progress

import "errors"

var (
	// ErrProgressUnavailable means the progress update could not be applied
	// (lock or datastore failure). The caller may retry.
	ErrProgressUnavailable = errors.New("progress update unavailable")
	ErrInvalidGoalStatus   = errors.New("invalid goal status")
)
