// Package network carries protocol messages between parties.
//
// Every party owns one slot per participant. The slot for the party itself
// has RoleSelf and no channel: protocol code substitutes its local value
// instead of sending. All other slots are RolePeer and hold a reliable,
// ordered point-to-point Channel. Framing beyond a single byte string per
// call is the channel's concern.
package network

import "context"

// Channel is a reliable ordered byte pipe to one peer
type Channel interface {
	// Send delivers one message to the peer
	Send(ctx context.Context, data []byte) error

	// Receive blocks until the next message from the peer arrives
	Receive(ctx context.Context) ([]byte, error)
}

// Role says whether a slot is this party or a remote peer
type Role int

const (
	// RolePeer is a remote party reached over a channel
	RolePeer Role = iota
	// RoleSelf is the local party; its slot is never sent or received on
	RoleSelf
)

// String returns the role name
func (r Role) String() string {
	if r == RoleSelf {
		return "self"
	}
	return "peer"
}

// Slots is the fixed channel array of one party, indexed by 0-based
// party position. Party position i holds share index i+1.
type Slots struct {
	self     int
	channels []Channel
}

// NewSlots builds the slot array. channels[self] is ignored and may be nil;
// every other entry must be set.
func NewSlots(self int, channels []Channel) (*Slots, error) {
	if len(channels) < 2 {
		return nil, ErrInvalidPartyCount
	}
	if self < 0 || self >= len(channels) {
		return nil, ErrInvalidPartyID
	}

	slots := &Slots{self: self, channels: make([]Channel, len(channels))}
	for i, ch := range channels {
		if i == self {
			continue
		}
		if ch == nil {
			return nil, ErrInvalidPartyID
		}
		slots.channels[i] = ch
	}
	return slots, nil
}

// Len returns the number of parties
func (s *Slots) Len() int { return len(s.channels) }

// Self returns the 0-based position of the local party
func (s *Slots) Self() int { return s.self }

// Role returns the role of slot i
func (s *Slots) Role(i int) Role {
	if i == s.self {
		return RoleSelf
	}
	return RolePeer
}

// Channel returns the channel for slot i
func (s *Slots) Channel(i int) (Channel, error) {
	if i < 0 || i >= len(s.channels) {
		return nil, ErrInvalidPartyID
	}
	if i == s.self {
		return nil, ErrSelfConnection
	}
	return s.channels[i], nil
}

// Peers returns every slot position except the local one, in order
func (s *Slots) Peers() []int {
	peers := make([]int, 0, len(s.channels)-1)
	for i := range s.channels {
		if i != s.self {
			peers = append(peers, i)
		}
	}
	return peers
}

// Wrap returns a copy of the slots with every peer channel replaced by
// wrap(i, ch). It is how decorators such as encryption or rate limiting
// are layered on.
func (s *Slots) Wrap(wrap func(peer int, ch Channel) (Channel, error)) (*Slots, error) {
	out := &Slots{self: s.self, channels: make([]Channel, len(s.channels))}
	for _, i := range s.Peers() {
		ch, err := wrap(i, s.channels[i])
		if err != nil {
			return nil, err
		}
		out.channels[i] = ch
	}
	return out, nil
}
