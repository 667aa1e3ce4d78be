package vss

import (
	"errors"
	"fmt"
)

var (
	// ErrCheatDetected matches every *CheatDetectedError via errors.Is
	ErrCheatDetected = errors.New("cheat detected")

	// ErrInsufficientShares matches every *InsufficientSharesError via errors.Is
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrCommunication matches every *CommunicationError via errors.Is
	ErrCommunication = errors.New("communication error")

	// ErrInvalidInput is returned for mismatched indices, thresholds or nil
	// operands passed by the caller
	ErrInvalidInput = errors.New("invalid input")

	// ErrNilGroup is returned when a nil group is provided
	ErrNilGroup = errors.New("group cannot be nil")

	// ErrMalformedShare is returned when a wire share cannot be decoded
	ErrMalformedShare = errors.New("malformed share encoding")
)

// CheatDetectedError names the party whose data failed a verifiable check.
// Party is the 1-based share index of the offender.
type CheatDetectedError struct {
	Party  int
	Reason string
}

func (e *CheatDetectedError) Error() string {
	return fmt.Sprintf("cheat detected: party %d: %s", e.Party, e.Reason)
}

// Is lets errors.Is(err, ErrCheatDetected) match
func (e *CheatDetectedError) Is(target error) bool {
	return target == ErrCheatDetected
}

// NewCheatDetected builds a *CheatDetectedError
func NewCheatDetected(party int, format string, args ...any) error {
	return &CheatDetectedError{Party: party, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientSharesError reports how many valid contributions were
// available against how many were required
type InsufficientSharesError struct {
	Have int
	Need int
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares: have %d, need %d", e.Have, e.Need)
}

// Is lets errors.Is(err, ErrInsufficientShares) match
func (e *InsufficientSharesError) Is(target error) bool {
	return target == ErrInsufficientShares
}

// CommunicationError wraps a channel failure or an unexpected message
type CommunicationError struct {
	Party int
	Op    string
	Err   error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("communication error: %s with party %d: %v", e.Op, e.Party, e.Err)
}

// Is lets errors.Is(err, ErrCommunication) match
func (e *CommunicationError) Is(target error) bool {
	return target == ErrCommunication
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// NewCommunicationError builds a *CommunicationError
func NewCommunicationError(party int, op string, err error) error {
	return &CommunicationError{Party: party, Op: op, Err: err}
}
