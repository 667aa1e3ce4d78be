package group

import "errors"

var (
	// ErrUnsupportedGroup is returned for an unknown group type
	ErrUnsupportedGroup = errors.New("unsupported group")

	// ErrInvalidElement is returned when bytes do not encode a group element
	ErrInvalidElement = errors.New("invalid group element encoding")

	// ErrNilElement is returned when a nil element is provided
	ErrNilElement = errors.New("element cannot be nil")

	// ErrLengthMismatch is returned when bases and exponents differ in length
	ErrLengthMismatch = errors.New("bases and exponents must have the same length")

	// ErrHashToElementFailed is returned when try-and-increment finds no element
	ErrHashToElementFailed = errors.New("hash-to-element failed to find a valid element")
)
