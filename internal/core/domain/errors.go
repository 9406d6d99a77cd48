package domain

import "errors"

var (
	// ErrNoCandidate is returned when a candidate source has nothing to offer
	// for the requested filter.
	ErrNoCandidate = errors.New("no candidate point available")

	// ErrNotFound means a stored artifact or key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformed means a stored artifact exists but cannot be decoded.
	ErrMalformed = errors.New("malformed artifact")
)
