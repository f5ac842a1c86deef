package services

import "errors"

var (
	// ErrNotFound means the id or token did not resolve to a record.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a state-machine rule or a concurrent update blocked
	// the mutation; the caller may retry explicitly.
	ErrConflict = errors.New("conflicting request")
	// ErrInvalidInput rejects malformed admin input before any mutation.
	ErrInvalidInput = errors.New("invalid input")
)
