package models

import "errors"

var (
	// ErrInvalidPayload is returned when client-supplied data fails validation.
	ErrInvalidPayload = errors.New("invalid bug payload")

	// ErrNotFound is returned when no bug exists with the requested id.
	ErrNotFound = errors.New("bug not found")

	// ErrStoreFault wraps failures of the underlying persistence layer.
	ErrStoreFault = errors.New("store failure")
)
