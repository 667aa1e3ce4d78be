package zk

import "errors"

var (
	// ErrNilSecret is returned when a nil secret is provided
	ErrNilSecret = errors.New("secret cannot be nil")

	// ErrNilElement is returned when a nil group element is provided
	ErrNilElement = errors.New("group element cannot be nil")

	// ErrNilGroup is returned when a nil group is provided
	ErrNilGroup = errors.New("group cannot be nil")

	// ErrInvalidWitness is returned when the witness doesn't satisfy the relation
	ErrInvalidWitness = errors.New("invalid witness: does not satisfy the relation")

	// ErrInvalidProof is returned when proof verification fails
	ErrInvalidProof = errors.New("invalid proof")

	// ErrNilValue is returned when a nil value is provided
	ErrNilValue = errors.New("value cannot be nil")

	// ErrNoncesConsumed is returned when proof nonces are used a second time
	ErrNoncesConsumed = errors.New("proof nonces already consumed")
)
