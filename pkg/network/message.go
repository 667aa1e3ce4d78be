package network

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the protocol phase a message belongs to
type MessageType uint8

const (
	// MessageTypeShare carries a dealt share to its holder
	MessageTypeShare MessageType = iota + 1
	// MessageTypeCommitmentCheck rebroadcasts received commitments for the equality check
	MessageTypeCommitmentCheck
	// MessageTypeOpen publishes a share so the value can be reconstructed
	MessageTypeOpen
	// MessageTypeCoinCommit is the hash commitment of a coin-toss contribution
	MessageTypeCoinCommit
	// MessageTypeCoinReveal opens a coin-toss contribution
	MessageTypeCoinReveal
	// MessageTypeCoinResult rebroadcasts the combined coin for the cross-check
	MessageTypeCoinResult
	// MessageTypeProofCommit is the first message of a multiplication proof
	MessageTypeProofCommit
	// MessageTypeProofResponse answers the multiplication proof challenge
	MessageTypeProofResponse
	// MessageTypeExclusion announces the set of provers a party rejected
	MessageTypeExclusion
	// MessageTypeComplaint names the dealers whose shares a party rejected
	MessageTypeComplaint
	// MessageTypeShareOpening publishes the shares a dealer was challenged on
	MessageTypeShareOpening
	// MessageTypeReveal carries a reveal-in-exponent contribution
	MessageTypeReveal
	// MessageTypeRevealBundle carries a contribution to a non-shareholder
	MessageTypeRevealBundle
)

// Message is the envelope every protocol payload travels in
type Message struct {
	// Type identifies the message type
	Type MessageType

	// From is the sender's 0-based party position
	From int

	// To is the recipient's 0-based party position
	To int

	// SessionID ties the message to one protocol invocation
	SessionID uuid.UUID

	// Sequence is the per-channel message counter
	Sequence uint64

	// Timestamp is when the message was created
	Timestamp time.Time

	// Payload is the gob-encoded body
	Payload []byte
}

const (
	// CurrentProtocolVersion is the current protocol version
	CurrentProtocolVersion uint16 = 1

	// HeaderSize is the fixed size of the message header
	HeaderSize = 2 + 1 + 4 + 4 + 8 + 8 + 4 + 16 // 47 bytes

	// MaxPayloadSize bounds a single payload
	MaxPayloadSize = 16 << 20
)

// NewMessage gob-encodes body into a fresh envelope
func NewMessage(msgType MessageType, from, to int, sessionID uuid.UUID, body any) (*Message, error) {
	payload, err := EncodePayload(body)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		From:      from,
		To:        to,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Payload:   payload,
	}, nil
}

// Serialize serializes a message to bytes
func (m *Message) Serialize() ([]byte, error) {
	payloadSize := len(m.Payload)
	if payloadSize > MaxPayloadSize {
		return nil, ErrMessageTooLarge
	}

	buf := make([]byte, HeaderSize+payloadSize)
	offset := 0

	binary.BigEndian.PutUint16(buf[offset:], CurrentProtocolVersion)
	offset += 2

	buf[offset] = byte(m.Type)
	offset++

	binary.BigEndian.PutUint32(buf[offset:], uint32(m.From))
	offset += 4

	binary.BigEndian.PutUint32(buf[offset:], uint32(m.To))
	offset += 4

	binary.BigEndian.PutUint64(buf[offset:], m.Sequence)
	offset += 8

	binary.BigEndian.PutUint64(buf[offset:], uint64(m.Timestamp.UnixNano()))
	offset += 8

	binary.BigEndian.PutUint32(buf[offset:], uint32(payloadSize))
	offset += 4

	copy(buf[offset:offset+16], m.SessionID[:])
	offset += 16

	copy(buf[offset:], m.Payload)

	return buf, nil
}

// DeserializeMessage parses bytes produced by Serialize
func DeserializeMessage(data []byte) (*Message, error) {
	if len(data) < HeaderSize {
		return nil, ErrInvalidMessage
	}

	offset := 0

	version := binary.BigEndian.Uint16(data[offset:])
	offset += 2
	if version != CurrentProtocolVersion {
		return nil, ErrInvalidMessage
	}

	msgType := MessageType(data[offset])
	offset++

	from := int32(binary.BigEndian.Uint32(data[offset:]))
	offset += 4

	to := int32(binary.BigEndian.Uint32(data[offset:]))
	offset += 4

	sequence := binary.BigEndian.Uint64(data[offset:])
	offset += 8

	timestamp := int64(binary.BigEndian.Uint64(data[offset:]))
	offset += 8

	payloadSize := int(binary.BigEndian.Uint32(data[offset:]))
	offset += 4

	if payloadSize > MaxPayloadSize || len(data) != HeaderSize+payloadSize {
		return nil, ErrInvalidMessage
	}

	var sessionID uuid.UUID
	copy(sessionID[:], data[offset:offset+16])
	offset += 16

	payload := make([]byte, payloadSize)
	copy(payload, data[offset:])

	return &Message{
		Type:      msgType,
		From:      int(from),
		To:        int(to),
		SessionID: sessionID,
		Sequence:  sequence,
		Timestamp: time.Unix(0, timestamp),
		Payload:   payload,
	}, nil
}

// Decode gob-decodes the payload into body
func (m *Message) Decode(body any) error {
	return DecodePayload(m.Payload, body)
}

// EncodePayload encodes arbitrary data into payload
func EncodePayload(data any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(data); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodePayload decodes payload into data
func DecodePayload(payload []byte, data any) error {
	buf := bytes.NewBuffer(payload)
	dec := gob.NewDecoder(buf)

	return dec.Decode(data)
}

// ValidateMessage checks an incoming message against what the receiver expects
func ValidateMessage(msg *Message, want MessageType, sessionID uuid.UUID, from, to int, sequence uint64) error {
	if msg == nil {
		return ErrInvalidMessage
	}
	if msg.SessionID != sessionID {
		return ErrSessionMismatch
	}
	if msg.Type != want {
		return ErrUnexpectedMessage
	}
	if msg.From != from || msg.To != to {
		return ErrInvalidPartyID
	}
	if msg.Sequence != sequence {
		return ErrInvalidSequence
	}
	if msg.Timestamp.IsZero() {
		return ErrInvalidMessage
	}
	return nil
}

// String returns a string representation of message type
func (mt MessageType) String() string {
	switch mt {
	case MessageTypeShare:
		return "SHARE"
	case MessageTypeCommitmentCheck:
		return "COMMITMENT_CHECK"
	case MessageTypeOpen:
		return "OPEN"
	case MessageTypeCoinCommit:
		return "COIN_COMMIT"
	case MessageTypeCoinReveal:
		return "COIN_REVEAL"
	case MessageTypeCoinResult:
		return "COIN_RESULT"
	case MessageTypeProofCommit:
		return "PROOF_COMMIT"
	case MessageTypeProofResponse:
		return "PROOF_RESPONSE"
	case MessageTypeExclusion:
		return "EXCLUSION"
	case MessageTypeReveal:
		return "REVEAL"
	case MessageTypeRevealBundle:
		return "REVEAL_BUNDLE"
	case MessageTypeComplaint:
		return "COMPLAINT"
	case MessageTypeShareOpening:
		return "SHARE_OPENING"
	default:
		return "UNKNOWN"
	}
}
