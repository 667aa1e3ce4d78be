package security

import (
	"errors"
	"math/big"
)

var (
	// ErrInvalidThreshold is returned when threshold parameters are invalid
	ErrInvalidThreshold = errors.New("invalid threshold: must satisfy 1 <= t <= n")

	// ErrInvalidPartyIndex is returned when a party index is outside [1, n]
	ErrInvalidPartyIndex = errors.New("invalid party index: must be in range [1, n]")

	// ErrInvalidPartyCount is returned when party count is too small
	ErrInvalidPartyCount = errors.New("invalid party count")

	// ErrInvalidRange is returned when a value is outside expected range
	ErrInvalidRange = errors.New("value out of valid range")

	// ErrNilValue is returned when a nil value is provided
	ErrNilValue = errors.New("nil value provided")
)

// ValidateThreshold checks that a (t, n) sharing is well formed:
// n >= 1 and 1 <= t <= n
func ValidateThreshold(threshold, parties int) error {
	if parties < 1 {
		return ErrInvalidPartyCount
	}

	if threshold < 1 || threshold > parties {
		return ErrInvalidThreshold
	}

	return nil
}

// ValidatePartyCount checks that an interactive protocol has at least two parties
func ValidatePartyCount(parties int) error {
	if parties < 2 {
		return ErrInvalidPartyCount
	}
	return nil
}

// ValidatePartyIndex checks that a 1-based party index is valid for n parties
func ValidatePartyIndex(index, parties int) error {
	if parties < 1 {
		return ErrInvalidPartyCount
	}

	if index < 1 || index > parties {
		return ErrInvalidPartyIndex
	}

	return nil
}

// ValidateReduced checks that value lies in [0, modulus)
func ValidateReduced(value, modulus *big.Int) error {
	if value == nil || modulus == nil {
		return ErrNilValue
	}

	if value.Sign() < 0 || value.Cmp(modulus) >= 0 {
		return ErrInvalidRange
	}

	return nil
}
