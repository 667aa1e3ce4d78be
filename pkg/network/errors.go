package network

import "errors"

var (
	// ErrInvalidPartyID is returned when party ID is invalid
	ErrInvalidPartyID = errors.New("invalid party ID")

	// ErrInvalidPartyCount is returned when party count is invalid
	ErrInvalidPartyCount = errors.New("invalid party count")

	// ErrSelfConnection is returned when a protocol tries to use its own slot
	ErrSelfConnection = errors.New("cannot send to or receive from self")

	// ErrMessageTooLarge is returned when message exceeds size limit
	ErrMessageTooLarge = errors.New("message too large")

	// ErrInvalidMessage is returned when message is malformed
	ErrInvalidMessage = errors.New("invalid message")

	// ErrUnexpectedMessage is returned when a message of the wrong type arrives
	ErrUnexpectedMessage = errors.New("unexpected message type")

	// ErrSessionMismatch is returned when a message belongs to another session
	ErrSessionMismatch = errors.New("message belongs to a different session")

	// ErrInvalidSequence is returned when sequence number is invalid
	ErrInvalidSequence = errors.New("invalid sequence number")

	// ErrTransportClosed is returned when transport is closed
	ErrTransportClosed = errors.New("transport closed")

	// ErrEncryptionFailed is returned when encryption fails
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed is returned when decryption fails
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidNonce is returned when nonce is invalid or reused
	ErrInvalidNonce = errors.New("invalid or reused nonce")

	// ErrInvalidRate is returned for a non-positive rate limit
	ErrInvalidRate = errors.New("rate limit must be positive")
)
