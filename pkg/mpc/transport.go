package mpc

import (
	"context"

	"github.com/Caqil/pedersen-mpc/pkg/network"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
)

// send delivers body to the party at slot peer
func (p *Party) send(ctx context.Context, peer int, msgType network.MessageType, body any) error {
	op := "send " + msgType.String()

	ch, err := p.slots.Channel(peer)
	if err != nil {
		return vss.NewCommunicationError(peer+1, op, err)
	}

	msg, err := network.NewMessage(msgType, p.slots.Self(), peer, p.session, body)
	if err != nil {
		return vss.NewCommunicationError(peer+1, op, err)
	}
	msg.Sequence = p.sendSeq[peer]

	data, err := msg.Serialize()
	if err != nil {
		return vss.NewCommunicationError(peer+1, op, err)
	}
	if err := ch.Send(ctx, data); err != nil {
		return vss.NewCommunicationError(peer+1, op, err)
	}

	p.sendSeq[peer]++
	p.metrics.message(directionSent, msgType)
	return nil
}

// receive reads the next message from slot peer into body. Anything but
// the expected type, session, route and sequence number is a
// communication error.
func (p *Party) receive(ctx context.Context, peer int, msgType network.MessageType, body any) error {
	op := "receive " + msgType.String()

	ch, err := p.slots.Channel(peer)
	if err != nil {
		return vss.NewCommunicationError(peer+1, op, err)
	}

	data, err := ch.Receive(ctx)
	if err != nil {
		return vss.NewCommunicationError(peer+1, op, err)
	}

	msg, err := network.DeserializeMessage(data)
	if err != nil {
		return vss.NewCommunicationError(peer+1, op, err)
	}
	if err := network.ValidateMessage(msg, msgType, p.session, peer, p.slots.Self(), p.recvSeq[peer]); err != nil {
		return vss.NewCommunicationError(peer+1, op, err)
	}
	p.recvSeq[peer]++

	if err := msg.Decode(body); err != nil {
		return vss.NewCommunicationError(peer+1, op, err)
	}

	p.metrics.message(directionReceived, msgType)
	return nil
}

// broadcast sends the same body to every peer
func (p *Party) broadcast(ctx context.Context, msgType network.MessageType, body any) error {
	for _, peer := range p.slots.Peers() {
		if err := p.send(ctx, peer, msgType, body); err != nil {
			return err
		}
	}
	return nil
}

// exchange broadcasts own and collects one value from every peer. The
// result is indexed by slot position; the local slot holds own.
func exchange[T any](ctx context.Context, p *Party, msgType network.MessageType, own T) ([]T, error) {
	if err := p.broadcast(ctx, msgType, own); err != nil {
		return nil, err
	}

	out := make([]T, p.slots.Len())
	out[p.slots.Self()] = own
	for _, peer := range p.slots.Peers() {
		if err := p.receive(ctx, peer, msgType, &out[peer]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
