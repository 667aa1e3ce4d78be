package commitment

import "errors"

var (
	// ErrNilGroup is returned when a nil group is provided
	ErrNilGroup = errors.New("group cannot be nil")

	// ErrNilValue is returned when a nil value is provided
	ErrNilValue = errors.New("value cannot be nil")

	// ErrNilScalar is returned when a nil scalar is provided
	ErrNilScalar = errors.New("scalar cannot be nil")

	// ErrEmptyValue is returned when an empty value is provided
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrNilCommitment is returned when a nil commitment is provided
	ErrNilCommitment = errors.New("commitment cannot be nil")
)
