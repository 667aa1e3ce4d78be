package hash

import "errors"

var (
	// ErrInvalidLength is returned when an invalid length is specified
	ErrInvalidLength = errors.New("length out of range")

	// ErrUnknownHash is returned when a hash function name is not recognised
	ErrUnknownHash = errors.New("unknown hash function")
)
