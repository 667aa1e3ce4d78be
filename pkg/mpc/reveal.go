package mpc

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
	"github.com/Caqil/pedersen-mpc/pkg/logger"
	"github.com/Caqil/pedersen-mpc/pkg/network"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
	"github.com/Caqil/pedersen-mpc/pkg/zk"
)

var revealDomain = []byte("PEDERSEN-MPC-V1-REVEAL")

// errRejectedContribution marks a reveal contribution that failed its checks
var errRejectedContribution = errors.New("reveal contribution rejected")

// RevealContribution is one shareholder's input to a reveal: g^v and h^r
// for its share (v, r), each with a proof of knowledge of the exponent
type RevealContribution struct {
	Index      int
	GData      group.Element
	HBlind     group.Element
	DataProof  *zk.SchnorrProof
	BlindProof *zk.SchnorrProof
}

// RevealBundle is a contribution addressed to a party that holds no share.
// It carries the sharing's commitments so the receiver can compute every
// contributor's MAC itself.
type RevealBundle struct {
	Threshold    int
	Commitments  []group.Element
	Contribution *RevealContribution
}

type wireContribution struct {
	Index      int
	GData      []byte
	HBlind     []byte
	DataProof  *zk.WireSchnorrProof
	BlindProof *zk.WireSchnorrProof
}

type wireBundle struct {
	Threshold    int
	Commitments  [][]byte
	Contribution *wireContribution
}

// NewRevealContribution computes the contribution of share
func NewRevealContribution(gctx *vss.GroupContext, share *vss.Share) (*RevealContribution, error) {
	if share == nil {
		return nil, ErrNilShare
	}
	if err := share.Validate(gctx); err != nil {
		return nil, fmt.Errorf("%w: %v", vss.ErrInvalidInput, err)
	}

	g := gctx.Group()
	proofContext := revealContext(share.Commitments[0], share.Index)

	gData := g.Exp(gctx.GenData(), share.Data)
	hBlind := g.Exp(gctx.GenBlind(), share.Blind)

	dataProof, err := zk.ProveSchnorr(g, gctx.GenData(), gData, share.Data, proofContext)
	if err != nil {
		return nil, err
	}
	blindProof, err := zk.ProveSchnorr(g, gctx.GenBlind(), hBlind, share.Blind, proofContext)
	if err != nil {
		return nil, err
	}

	return &RevealContribution{
		Index:      share.Index,
		GData:      gData,
		HBlind:     hBlind,
		DataProof:  dataProof,
		BlindProof: blindProof,
	}, nil
}

// Check verifies the contribution against the sharing's commitments: the
// two elements must multiply to the contributor's MAC, and both proofs of
// knowledge must hold. Without the proofs a contributor could shift value
// between the two elements and still match its MAC.
func (c *RevealContribution) Check(gctx *vss.GroupContext, commitments []group.Element) error {
	if c == nil || c.GData == nil || c.HBlind == nil || c.DataProof == nil || c.BlindProof == nil {
		return fmt.Errorf("%w: incomplete", errRejectedContribution)
	}
	if c.Index < 1 || len(commitments) == 0 {
		return fmt.Errorf("%w: index %d", errRejectedContribution, c.Index)
	}

	mac, err := (&vss.Share{Commitments: commitments}).ComputeMAC(gctx, c.Index)
	if err != nil {
		return err
	}

	g := gctx.Group()
	if !g.Mul(c.GData, c.HBlind).Equal(mac) {
		return fmt.Errorf("%w: does not match MAC of party %d", errRejectedContribution, c.Index)
	}

	proofContext := revealContext(commitments[0], c.Index)
	if !c.DataProof.Verify(g, gctx.GenData(), c.GData, proofContext) {
		return fmt.Errorf("%w: data proof", errRejectedContribution)
	}
	if !c.BlindProof.Verify(g, gctx.GenBlind(), c.HBlind, proofContext) {
		return fmt.Errorf("%w: blind proof", errRejectedContribution)
	}
	return nil
}

// CombineContributions interpolates g^v in the exponent from accepted
// contributions. Contributions must already be checked; the first
// threshold distinct indices in increasing order are used.
func CombineContributions(gctx *vss.GroupContext, accepted []*RevealContribution, threshold int) (group.Element, error) {
	sorted := slices.Clone(accepted)
	slices.SortStableFunc(sorted, func(x, y *RevealContribution) int { return x.Index - y.Index })

	indices := make([]int, 0, threshold)
	elems := make([]group.Element, 0, threshold)
	for _, c := range sorted {
		if len(indices) == threshold {
			break
		}
		if n := len(indices); n > 0 && indices[n-1] == c.Index {
			continue
		}
		indices = append(indices, c.Index)
		elems = append(elems, c.GData)
	}
	if len(indices) < threshold {
		return nil, &vss.InsufficientSharesError{Have: len(indices), Need: threshold}
	}

	return vss.InterpolateInExponent(gctx, indices, elems)
}

// RevealInExponent computes g^v for the value v shared by share, without
// revealing v. Contributions that fail their checks are discarded; the
// reveal fails only when fewer than threshold remain.
func (p *Party) RevealInExponent(ctx context.Context, share *vss.Share) (result group.Element, err error) {
	if share == nil {
		return nil, ErrNilShare
	}
	if share.Index != p.Index() {
		return nil, fmt.Errorf("%w: share index %d held by party %d", vss.ErrInvalidInput, share.Index, p.Index())
	}

	ctx, cancel := p.begin(ctx)
	defer cancel()
	start := time.Now()
	defer func() { p.metrics.observe(ProtoReveal, start, err) }()

	own, err := NewRevealContribution(p.gctx, share)
	if err != nil {
		return nil, err
	}

	all, err := exchange(ctx, p, network.MessageTypeReveal, own.toWire())
	if err != nil {
		return nil, err
	}

	accepted := []*RevealContribution{own}
	for _, peer := range p.slots.Peers() {
		c, err := contributionFromWire(p.gctx.Group(), all[peer])
		if err == nil && c.Index != peer+1 {
			err = fmt.Errorf("%w: index %d from party %d", errRejectedContribution, c.Index, peer+1)
		}
		if err == nil {
			err = c.Check(p.gctx, share.Commitments)
		}
		if err != nil {
			p.log.WarnEvent().Int("contributor", peer+1).Err(err).Msg("discarding reveal contribution")
			p.metrics.excluded(ProtoReveal, 1)
			continue
		}
		accepted = append(accepted, c)
	}

	return CombineContributions(p.gctx, accepted, share.Threshold)
}

// RevealSend prepares the bundle a shareholder sends to a non-shareholder
func RevealSend(gctx *vss.GroupContext, share *vss.Share) (*RevealBundle, error) {
	c, err := NewRevealContribution(gctx, share)
	if err != nil {
		return nil, err
	}
	return &RevealBundle{
		Threshold:    share.Threshold,
		Commitments:  append([]group.Element(nil), share.Commitments...),
		Contribution: c,
	}, nil
}

// RevealRecv combines bundles from shareholders. The commitments carried
// by the most bundles are taken as the sharing; bundles disagreeing with
// them, duplicates and contributions failing their checks are dropped.
func RevealRecv(gctx *vss.GroupContext, bundles []*RevealBundle) (group.Element, error) {
	type variant struct {
		bundle *RevealBundle
		count  int
	}

	var variants []*variant
	keys := make(map[string]*variant)
	for _, b := range bundles {
		if b == nil || len(b.Commitments) == 0 || b.Threshold != len(b.Commitments) {
			continue
		}
		key := bundleKey(b)
		v, ok := keys[key]
		if !ok {
			v = &variant{bundle: b}
			keys[key] = v
			variants = append(variants, v)
		}
		v.count++
	}
	if len(variants) == 0 {
		return nil, &vss.InsufficientSharesError{Have: 0, Need: 1}
	}

	best := variants[0]
	for _, v := range variants[1:] {
		if v.count > best.count {
			best = v
		}
	}
	bestKey := bundleKey(best.bundle)
	commitments := best.bundle.Commitments

	accepted := make([]*RevealContribution, 0, len(bundles))
	seen := make(map[int]struct{})
	for _, b := range bundles {
		if b == nil || bundleKey(b) != bestKey {
			continue
		}
		c := b.Contribution
		if err := c.Check(gctx, commitments); err != nil {
			continue
		}
		if _, dup := seen[c.Index]; dup {
			continue
		}
		seen[c.Index] = struct{}{}
		accepted = append(accepted, c)
	}

	return CombineContributions(gctx, accepted, best.bundle.Threshold)
}

// RevealTo sends this party's bundle for share over ch to a receiver that
// holds no share. The receiver sits at position Parties() in message
// routing.
func (p *Party) RevealTo(ctx context.Context, ch network.Channel, share *vss.Share) error {
	if share == nil {
		return ErrNilShare
	}
	if share.Index != p.Index() {
		return fmt.Errorf("%w: share index %d held by party %d", vss.ErrInvalidInput, share.Index, p.Index())
	}
	to := p.slots.Len()

	bundle, err := RevealSend(p.gctx, share)
	if err != nil {
		return err
	}

	msg, err := network.NewMessage(network.MessageTypeRevealBundle, p.slots.Self(), to, p.session, bundle.toWire())
	if err != nil {
		return vss.NewCommunicationError(to+1, "send "+network.MessageTypeRevealBundle.String(), err)
	}
	msg.Sequence = p.bundleSeq
	data, err := msg.Serialize()
	if err != nil {
		return vss.NewCommunicationError(to+1, "send "+network.MessageTypeRevealBundle.String(), err)
	}
	if err := ch.Send(ctx, data); err != nil {
		return vss.NewCommunicationError(to+1, "send "+network.MessageTypeRevealBundle.String(), err)
	}

	p.bundleSeq++
	p.metrics.message(directionSent, network.MessageTypeRevealBundle)
	return nil
}

// RevealReceiver collects bundles from every shareholder over one channel
// each and combines them
type RevealReceiver struct {
	gctx     *vss.GroupContext
	channels []network.Channel
	session  uuid.UUID
	log      *logger.Logger

	// next holds the lowest acceptable sequence number per channel
	next []uint64
}

// NewRevealReceiver creates a receiver; channels[i] reaches the
// shareholder with index i+1
func NewRevealReceiver(gctx *vss.GroupContext, channels []network.Channel, session uuid.UUID, log *logger.Logger) (*RevealReceiver, error) {
	if gctx == nil {
		return nil, vss.ErrNilGroup
	}
	if len(channels) < 1 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidConfig)
	}
	for _, ch := range channels {
		if ch == nil {
			return nil, fmt.Errorf("%w: nil channel", ErrInvalidConfig)
		}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RevealReceiver{
		gctx:     gctx,
		channels: channels,
		session:  session,
		log:      log,
		next:     make([]uint64, len(channels)),
	}, nil
}

// Receive reads one bundle from every shareholder and returns the revealed
// element. A transport failure or a malformed message aborts.
func (r *RevealReceiver) Receive(ctx context.Context) (group.Element, error) {
	to := len(r.channels)
	op := "receive " + network.MessageTypeRevealBundle.String()

	bundles := make([]*RevealBundle, 0, len(r.channels))
	for i, ch := range r.channels {
		data, err := ch.Receive(ctx)
		if err != nil {
			return nil, vss.NewCommunicationError(i+1, op, err)
		}
		msg, err := network.DeserializeMessage(data)
		if err != nil {
			return nil, vss.NewCommunicationError(i+1, op, err)
		}
		if err := network.ValidateMessage(msg, network.MessageTypeRevealBundle, r.session, i, to, msg.Sequence); err != nil {
			return nil, vss.NewCommunicationError(i+1, op, err)
		}
		if msg.Sequence < r.next[i] {
			return nil, vss.NewCommunicationError(i+1, op, network.ErrInvalidSequence)
		}
		r.next[i] = msg.Sequence + 1

		var w wireBundle
		if err := msg.Decode(&w); err != nil {
			return nil, vss.NewCommunicationError(i+1, op, err)
		}
		b, err := bundleFromWire(r.gctx.Group(), &w)
		if err != nil {
			r.log.WarnEvent().Int("contributor", i+1).Err(err).Msg("discarding reveal bundle")
			continue
		}
		bundles = append(bundles, b)
	}

	return RevealRecv(r.gctx, bundles)
}

func revealContext(c0 group.Element, index int) []byte {
	out := make([]byte, 0, len(revealDomain)+8+len(c0.Bytes()))
	out = append(out, revealDomain...)
	out = binary.BigEndian.AppendUint64(out, uint64(index))
	return append(out, c0.Bytes()...)
}

func bundleKey(b *RevealBundle) string {
	var buf bytes.Buffer
	buf.Write(binary.BigEndian.AppendUint32(nil, uint32(b.Threshold)))
	for _, c := range b.Commitments {
		buf.Write(c.Bytes())
	}
	return buf.String()
}

func (c *RevealContribution) toWire() *wireContribution {
	return &wireContribution{
		Index:      c.Index,
		GData:      c.GData.Bytes(),
		HBlind:     c.HBlind.Bytes(),
		DataProof:  c.DataProof.ToWire(),
		BlindProof: c.BlindProof.ToWire(),
	}
}

func contributionFromWire(g group.Group, w *wireContribution) (*RevealContribution, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: empty", errRejectedContribution)
	}
	gData, err := g.ElementFromBytes(w.GData)
	if err != nil {
		return nil, err
	}
	hBlind, err := g.ElementFromBytes(w.HBlind)
	if err != nil {
		return nil, err
	}
	dataProof, err := zk.SchnorrFromWire(g, w.DataProof)
	if err != nil {
		return nil, err
	}
	blindProof, err := zk.SchnorrFromWire(g, w.BlindProof)
	if err != nil {
		return nil, err
	}
	return &RevealContribution{
		Index:      w.Index,
		GData:      gData,
		HBlind:     hBlind,
		DataProof:  dataProof,
		BlindProof: blindProof,
	}, nil
}

func (b *RevealBundle) toWire() *wireBundle {
	return &wireBundle{
		Threshold:    b.Threshold,
		Commitments:  vss.EncodeElements(b.Commitments),
		Contribution: b.Contribution.toWire(),
	}
}

func bundleFromWire(g group.Group, w *wireBundle) (*RevealBundle, error) {
	commitments, err := vss.DecodeElements(g, w.Commitments)
	if err != nil {
		return nil, err
	}
	c, err := contributionFromWire(g, w.Contribution)
	if err != nil {
		return nil, err
	}
	return &RevealBundle{Threshold: w.Threshold, Commitments: commitments, Contribution: c}, nil
}
