package network

import (
	"context"
	"sync"
)

// MemoryMesh connects n parties in-process. Queues are unbounded so a
// sender never blocks on a slow receiver, which lets every party run its
// broadcast rounds as send-all then receive-all.
type MemoryMesh struct {
	n      int
	queues [][]*queue // queues[from][to]
}

// NewMemoryMesh creates a fully connected in-memory mesh for n parties
func NewMemoryMesh(n int) (*MemoryMesh, error) {
	if n < 2 {
		return nil, ErrInvalidPartyCount
	}

	m := &MemoryMesh{n: n, queues: make([][]*queue, n)}
	for i := range m.queues {
		m.queues[i] = make([]*queue, n)
		for j := range m.queues[i] {
			if i != j {
				m.queues[i][j] = newQueue()
			}
		}
	}
	return m, nil
}

// Channels returns party's channel array; the entry for party itself is nil
func (m *MemoryMesh) Channels(party int) []Channel {
	chans := make([]Channel, m.n)
	for j := 0; j < m.n; j++ {
		if j == party {
			continue
		}
		chans[j] = &memoryChannel{out: m.queues[party][j], in: m.queues[j][party]}
	}
	return chans
}

// Slots returns the slot array for party
func (m *MemoryMesh) Slots(party int) (*Slots, error) {
	return NewSlots(party, m.Channels(party))
}

// Close closes every queue; blocked receivers return ErrTransportClosed
func (m *MemoryMesh) Close() {
	for i := range m.queues {
		for _, q := range m.queues[i] {
			if q != nil {
				q.close()
			}
		}
	}
}

type memoryChannel struct {
	out *queue
	in  *queue
}

func (c *memoryChannel) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.out.push(append([]byte(nil), data...))
}

func (c *memoryChannel) Receive(ctx context.Context) ([]byte, error) {
	return c.in.pop(ctx)
}

type queue struct {
	mu     sync.Mutex
	items  [][]byte
	notify chan struct{}
	closed bool
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

func (q *queue) push(item []byte) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrTransportClosed
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

func (q *queue) pop(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrTransportClosed
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// NewPipe returns the two ends of an in-memory channel, for talking to a
// party outside the mesh
func NewPipe() (Channel, Channel) {
	ab, ba := newQueue(), newQueue()
	return &memoryChannel{out: ab, in: ba}, &memoryChannel{out: ba, in: ab}
}
