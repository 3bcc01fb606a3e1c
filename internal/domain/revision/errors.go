package revision

import "errors"

var (
	// ErrInvalidUnderstanding indicates an unmapped comprehension tier.
	ErrInvalidUnderstanding = errors.New("invalid understanding level")
	// ErrInvalidAccuracy indicates an accuracy outside [0,100].
	ErrInvalidAccuracy = errors.New("accuracy must be between 0 and 100")
	// ErrInvalidInput indicates a malformed request.
	ErrInvalidInput = errors.New("invalid revision input")
	// ErrItemNotFound indicates the item doesn't exist.
	ErrItemNotFound = errors.New("revision item not found")
	// ErrItemNotPending indicates an operation that requires a pending item.
	ErrItemNotPending = errors.New("revision item is not pending")
	// ErrCatchupRunning indicates a catch-up pass is already in flight for the owner.
	ErrCatchupRunning = errors.New("catch-up already running for owner")
)
