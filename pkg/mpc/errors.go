package mpc

import "errors"

var (
	// ErrInvalidConfig is returned when the protocol configuration is invalid
	ErrInvalidConfig = errors.New("invalid protocol configuration")

	// ErrStateConsumed is returned when a multiplication state is advanced twice
	ErrStateConsumed = errors.New("protocol state already advanced")

	// ErrNilShare is returned when a nil share is provided
	ErrNilShare = errors.New("share cannot be nil")

	// ErrShareCount is returned when a dealer supplies the wrong number of shares
	ErrShareCount = errors.New("one share per party required")

	// ErrInvalidCoinLength is returned for a non-positive coin length
	ErrInvalidCoinLength = errors.New("coin length must be positive")
)
