package mpc

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Caqil/pedersen-mpc/pkg/crypto/rand"
	"github.com/Caqil/pedersen-mpc/pkg/network"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
)

// commitmentCheck is the rebroadcast of the commitments a party received
// from a dealer
type commitmentCheck struct {
	Dealer      int
	Commitments [][]byte
}

// SendShares deals shares[i] to the party at slot i and keeps the local
// one. It is the dealer's half of a distribution and ends with the
// commitment-equality round.
func (p *Party) SendShares(ctx context.Context, shares []*vss.Share) (*vss.Share, error) {
	if len(shares) != p.slots.Len() {
		return nil, fmt.Errorf("%w: %d shares for %d parties", ErrShareCount, len(shares), p.slots.Len())
	}
	for i, s := range shares {
		if s == nil {
			return nil, ErrNilShare
		}
		if s.Index != i+1 {
			return nil, fmt.Errorf("%w: share %d has index %d", vss.ErrInvalidInput, i, s.Index)
		}
	}

	for _, peer := range p.slots.Peers() {
		if err := p.send(ctx, peer, network.MessageTypeShare, shares[peer].ToWire()); err != nil {
			return nil, err
		}
	}

	own := shares[p.slots.Self()]
	if err := p.verifyCommitmentEquality(ctx, p.Index(), vss.EncodeElements(own.Commitments)); err != nil {
		return nil, err
	}
	return own, nil
}

// ReceiveShare receives and checks the share dealt by the party with
// 1-based index dealer. A share failing the Feldman check is blamed on the
// dealer.
func (p *Party) ReceiveShare(ctx context.Context, dealer, threshold int) (*vss.Share, error) {
	share, raw, cheat, err := p.receiveDealt(ctx, dealer, threshold)
	if err != nil {
		return nil, err
	}
	if cheat != nil {
		return nil, cheat
	}
	if err := p.verifyCommitmentEquality(ctx, dealer, raw); err != nil {
		return nil, err
	}
	return share, nil
}

// receiveDealt reads a dealt share. Transport failures come back as err;
// a share that does not check out comes back as cheat together with the
// raw commitments, so the caller can still take part in the equality round.
func (p *Party) receiveDealt(ctx context.Context, dealer, threshold int) (share *vss.Share, raw [][]byte, cheat, err error) {
	slot := dealer - 1
	if p.slots.Role(slot) == network.RoleSelf || slot < 0 || slot >= p.slots.Len() {
		return nil, nil, nil, fmt.Errorf("%w: dealer %d", vss.ErrInvalidInput, dealer)
	}

	var w vss.WireShare
	if err := p.receive(ctx, slot, network.MessageTypeShare, &w); err != nil {
		return nil, nil, nil, err
	}

	share, err = vss.FromWire(p.gctx, &w)
	switch {
	case err != nil:
		cheat = vss.NewCheatDetected(dealer, "undecodable share: %v", err)
	case share.Index != p.Index():
		cheat = vss.NewCheatDetected(dealer, "dealt share for index %d to party %d", share.Index, p.Index())
	case share.Threshold != threshold:
		cheat = vss.NewCheatDetected(dealer, "dealt threshold %d, expected %d", share.Threshold, threshold)
	default:
		if verr := share.Validate(p.gctx); verr != nil {
			cheat = vss.NewCheatDetected(dealer, "dealt share does not match commitments")
		}
	}
	if cheat != nil {
		p.log.WarnEvent().Int("dealer", dealer).Err(cheat).Msg("rejected dealt share")
		return nil, w.Commitments, cheat, nil
	}
	return share, w.Commitments, nil, nil
}

// verifyCommitmentEquality rebroadcasts the commitments received from
// dealer and compares them with every peer's copy. Every copy comes from
// the dealer, so a mismatch is blamed on the dealer. Only the dealer itself
// knows what it sent and blames the peer whose copy is wrong.
func (p *Party) verifyCommitmentEquality(ctx context.Context, dealer int, commitments [][]byte) error {
	own := commitmentCheck{Dealer: dealer, Commitments: commitments}
	all, err := exchange(ctx, p, network.MessageTypeCommitmentCheck, own)
	if err != nil {
		return err
	}

	for _, peer := range p.slots.Peers() {
		theirs := all[peer]
		if theirs.Dealer != dealer {
			return vss.NewCommunicationError(peer+1, "commitment check", fmt.Errorf("check for dealer %d, expected %d", theirs.Dealer, dealer))
		}
		if sameEncodings(commitments, theirs.Commitments) {
			continue
		}
		if dealer == p.Index() {
			return vss.NewCheatDetected(peer+1, "reported commitments that were not dealt")
		}
		return vss.NewCheatDetected(dealer, "party %d holds different commitments than party %d", peer+1, p.Index())
	}
	return nil
}

// ShareInput shares a private input of the party with index dealer. Only
// the dealer's value is used; everyone else may pass nil.
func (p *Party) ShareInput(ctx context.Context, dealer int, value *big.Int, threshold int) (share *vss.Share, err error) {
	ctx, cancel := p.begin(ctx)
	defer cancel()
	start := time.Now()
	defer func() { p.metrics.observe(ProtoShare, start, err) }()

	if dealer != p.Index() {
		return p.ReceiveShare(ctx, dealer, threshold)
	}

	shares, err := vss.ShareValue(p.gctx, value, threshold, p.slots.Len())
	if err != nil {
		return nil, err
	}
	p.log.DebugEvent().Int("threshold", threshold).Msg("dealing input")
	return p.SendShares(ctx, shares)
}

// ShareRandom has every party deal a uniformly random value and sums the
// received shares. Nobody learns the resulting value.
func (p *Party) ShareRandom(ctx context.Context, threshold int) (share *vss.Share, err error) {
	ctx, cancel := p.begin(ctx)
	defer cancel()
	start := time.Now()
	defer func() { p.metrics.observe(ProtoShare, start, err) }()

	var sum *vss.Share
	for slot := 0; slot < p.slots.Len(); slot++ {
		var s *vss.Share
		if p.slots.Role(slot) == network.RoleSelf {
			s, err = p.dealRandom(ctx, threshold)
		} else {
			s, err = p.ReceiveShare(ctx, slot+1, threshold)
		}
		if err != nil {
			return nil, err
		}

		if sum == nil {
			sum = s
			continue
		}
		if sum, err = sum.Add(p.gctx, s); err != nil {
			return nil, err
		}
	}
	return sum, nil
}

func (p *Party) dealRandom(ctx context.Context, threshold int) (*vss.Share, error) {
	value, err := rand.GenerateScalar(p.gctx.Order())
	if err != nil {
		return nil, err
	}
	shares, err := vss.ShareValue(p.gctx, value, threshold, p.slots.Len())
	value.SetInt64(0)
	if err != nil {
		return nil, err
	}
	return p.SendShares(ctx, shares)
}

// Open publishes share to every party and reconstructs the value. The
// local share is placed first so it is always among those interpolated.
func (p *Party) Open(ctx context.Context, share *vss.Share) (value *big.Int, err error) {
	if share == nil {
		return nil, ErrNilShare
	}
	if share.Index != p.Index() {
		return nil, fmt.Errorf("%w: share index %d held by party %d", vss.ErrInvalidInput, share.Index, p.Index())
	}

	ctx, cancel := p.begin(ctx)
	defer cancel()
	start := time.Now()
	defer func() { p.metrics.observe(ProtoOpen, start, err) }()

	all, err := exchange(ctx, p, network.MessageTypeOpen, share.ToWire())
	if err != nil {
		return nil, err
	}

	shares := make([]*vss.Share, 0, len(all))
	shares = append(shares, share)
	for _, peer := range p.slots.Peers() {
		s, err := vss.FromWire(p.gctx, all[peer])
		if err != nil {
			return nil, vss.NewCheatDetected(peer+1, "undecodable share: %v", err)
		}
		if s.Index != peer+1 {
			return nil, vss.NewCheatDetected(peer+1, "opened share carries index %d", s.Index)
		}
		shares = append(shares, s)
	}

	value, err = vss.Reconstruct(p.gctx, shares)
	if err != nil {
		return nil, err
	}
	p.log.Debug("opened shared value")
	return value, nil
}

func sameEncodings(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
