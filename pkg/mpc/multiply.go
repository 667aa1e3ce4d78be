package mpc

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/Caqil/pedersen-mpc/internal/math"
	"github.com/Caqil/pedersen-mpc/internal/security"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/rand"
	"github.com/Caqil/pedersen-mpc/pkg/network"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
	"github.com/Caqil/pedersen-mpc/pkg/zk"
)

// mulRun is the state shared by the phases of one multiplication
type mulRun struct {
	p     *Party
	a, b  *vss.Share
	start time.Time

	// tau is the blinding constant of the product sharing this party dealt
	tau *big.Int

	// products[i] is the product share dealt by slot i, raw[i] the
	// commitments it came with
	products []*vss.Share
	raw      [][][]byte

	// dealt holds the product shares this party dealt, kept until
	// complaints against it are answered
	dealt []*vss.Share

	// complaints lists the dealers whose product share this party rejected
	complaints []int

	// rejected maps provers whose proof this party rejected to the reason
	rejected map[int]string

	// excluded maps dropped prover slots to the reason
	excluded map[int]string

	nonces      *zk.MulNonces
	commitments []*zk.MulCommitment
	coin        *CoinToss
}

type exclusionSet struct {
	Excluded []int
}

// complaint names the dealers, by 1-based index, whose product share the
// sender rejected
type complaint struct {
	Dealers []int
}

// shareOpening is a dealer's public answer to the complaints against it
type shareOpening struct {
	Shares []*vss.WireShare
}

// MulNotStarted is a multiplication that has not exchanged anything yet
type MulNotStarted struct {
	run  *mulRun
	used bool
}

// MulPolySent holds the product shares received from every party
type MulPolySent struct {
	run  *mulRun
	used bool
}

// MulProofCommitted holds the proof nonces, every party's proof commitment
// and the committed coin that will produce the challenges
type MulProofCommitted struct {
	run  *mulRun
	used bool
}

// MulProofResponded is the terminal state
type MulProofResponded struct {
	result   *vss.Share
	excluded []int
}

// NewMultiplication prepares the multiplication of the values shared by a
// and b. Both must be this party's shares with equal thresholds, and there
// must be at least 2t-1 parties.
func (p *Party) NewMultiplication(a, b *vss.Share) (*MulNotStarted, error) {
	if a == nil || b == nil {
		return nil, ErrNilShare
	}
	if a.Index != p.Index() || b.Index != p.Index() {
		return nil, fmt.Errorf("%w: shares for index %d/%d held by party %d", vss.ErrInvalidInput, a.Index, b.Index, p.Index())
	}
	if a.Threshold != b.Threshold {
		return nil, fmt.Errorf("%w: threshold %d != %d", vss.ErrInvalidInput, a.Threshold, b.Threshold)
	}
	if need := 2*a.Threshold - 1; p.slots.Len() < need {
		return nil, fmt.Errorf("%w: %d parties cannot multiply threshold %d sharings", vss.ErrInvalidInput, p.slots.Len(), a.Threshold)
	}
	if err := a.Validate(p.gctx); err != nil {
		return nil, fmt.Errorf("%w: %v", vss.ErrInvalidInput, err)
	}
	if err := b.Validate(p.gctx); err != nil {
		return nil, fmt.Errorf("%w: %v", vss.ErrInvalidInput, err)
	}

	return &MulNotStarted{run: &mulRun{
		p:        p,
		a:        a,
		b:        b,
		start:    time.Now(),
		products: make([]*vss.Share, p.slots.Len()),
		raw:      make([][][]byte, p.slots.Len()),
		rejected: make(map[int]string),
		excluded: make(map[int]string),
	}}, nil
}

// SendPolynomial reshares this party's product αβ and collects the product
// share dealt by every other party
func (s *MulNotStarted) SendPolynomial(ctx context.Context) (*MulPolySent, error) {
	if s.used {
		return nil, ErrStateConsumed
	}
	s.used = true
	m := s.run
	p := m.p

	tau, err := rand.GenerateScalar(p.gctx.Order())
	if err != nil {
		return nil, m.finish(err)
	}
	m.tau = tau

	product := new(big.Int).Mul(m.a.Data, m.b.Data)
	product.Mod(product, p.gctx.Order())
	dealt, err := vss.ShareValueWithBlind(p.gctx, product, tau, m.a.Threshold, p.slots.Len())
	security.SecureZeroBigInt(product)
	if err != nil {
		return nil, m.finish(err)
	}
	m.dealt = dealt
	defer m.wipeDealt()

	for slot := 0; slot < p.slots.Len(); slot++ {
		if p.slots.Role(slot) == network.RoleSelf {
			own, err := p.SendShares(ctx, dealt)
			if err != nil {
				return nil, m.finish(err)
			}
			m.products[slot] = own
			m.raw[slot] = vss.EncodeElements(own.Commitments)
			continue
		}

		share, raw, cheat, err := p.receiveDealt(ctx, slot+1, m.a.Threshold)
		if err != nil {
			return nil, m.finish(err)
		}
		if cheat != nil {
			if p.cfg.Exclusion == AbortOnCheat {
				return nil, m.finish(cheat)
			}
			m.complaints = append(m.complaints, slot+1)
		}
		if err := p.verifyCommitmentEquality(ctx, slot+1, raw); err != nil {
			return nil, m.finish(err)
		}
		m.products[slot] = share
		m.raw[slot] = raw
	}

	if p.cfg.Exclusion == ExcludeCheaters {
		if err := m.resolveComplaints(ctx); err != nil {
			return nil, m.finish(err)
		}
	}

	p.log.Debug("product shares exchanged")
	return &MulPolySent{run: m}, nil
}

// CommitProof commits to the challenge coin and exchanges the first
// message of every party's multiplication proof. The coin is committed
// before the proof commitments and opened after them, so no prover can
// know its challenge while choosing its commitment.
func (s *MulPolySent) CommitProof(ctx context.Context) (*MulProofCommitted, error) {
	if s.used {
		return nil, ErrStateConsumed
	}
	s.used = true
	m := s.run
	p := m.p

	coin, err := p.CommitCoin(ctx, ChallengeBits(p.gctx.Order(), p.slots.Len()))
	if err != nil {
		return nil, m.finish(err)
	}
	m.coin = coin

	ownB, err := m.b.ComputeMAC(p.gctx, p.Index())
	if err != nil {
		return nil, m.finish(err)
	}
	nonces, commitment, err := zk.CommitMul(p.gctx.Params(), ownB)
	if err != nil {
		return nil, m.finish(err)
	}
	m.nonces = nonces

	all, err := exchange(ctx, p, network.MessageTypeProofCommit, commitment.ToWire())
	if err != nil {
		nonces.Zero()
		return nil, m.finish(err)
	}

	m.commitments = make([]*zk.MulCommitment, len(all))
	m.commitments[p.slots.Self()] = commitment
	for _, peer := range p.slots.Peers() {
		if m.isExcluded(peer) {
			continue
		}
		c, err := zk.MulCommitmentFromWire(p.gctx.Group(), all[peer])
		if err != nil {
			if err := m.reject(peer, vss.NewCheatDetected(peer+1, "undecodable proof commitment: %v", err)); err != nil {
				nonces.Zero()
				return nil, m.finish(err)
			}
			continue
		}
		m.commitments[peer] = c
	}

	p.log.Debug("proof commitments exchanged")
	return &MulProofCommitted{run: m}, nil
}

// Respond opens the coin, answers this party's challenge, verifies every
// other prover and combines the accepted product shares into this party's
// share of ab
func (s *MulProofCommitted) Respond(ctx context.Context) (*MulProofResponded, error) {
	if s.used {
		return nil, ErrStateConsumed
	}
	s.used = true
	m := s.run
	p := m.p
	order := p.gctx.Order()

	coin, err := m.coin.Reveal(ctx)
	if err != nil {
		m.nonces.Zero()
		return nil, m.finish(err)
	}
	challenges, err := Challenges(coin, order, p.slots.Len())
	if err != nil {
		m.nonces.Zero()
		return nil, m.finish(err)
	}

	witness := &zk.MulWitness{
		Alpha: m.a.Data,
		Rho:   m.a.Blind,
		Beta:  m.b.Data,
		Sigma: m.b.Blind,
		Tau:   m.tau,
	}
	response, err := m.nonces.Respond(order, witness, challenges[p.slots.Self()])
	security.SecureZeroBigInt(m.tau)
	if err != nil {
		return nil, m.finish(err)
	}

	all, err := exchange(ctx, p, network.MessageTypeProofResponse, response.ToWire())
	if err != nil {
		return nil, m.finish(err)
	}

	for _, peer := range p.slots.Peers() {
		if m.isExcluded(peer) {
			continue
		}
		if _, ok := m.rejected[peer]; ok {
			continue
		}
		if reason := m.verifyProver(peer, all[peer], challenges[peer]); reason != nil {
			if err := m.reject(peer, reason); err != nil {
				return nil, m.finish(err)
			}
		}
	}

	if p.cfg.Exclusion == ExcludeCheaters {
		if err := m.tallyRejections(ctx); err != nil {
			return nil, m.finish(err)
		}
	}

	result, err := m.combine()
	if err != nil {
		return nil, m.finish(err)
	}

	excluded := m.excludedIndices()
	p.metrics.excluded(ProtoMultiply, len(excluded))
	p.log.DebugEvent().Ints("excluded", excluded).Msg("multiplication complete")
	m.finish(nil)
	return &MulProofResponded{result: result, excluded: excluded}, nil
}

// Result returns this party's share of the product
func (s *MulProofResponded) Result() *vss.Share { return s.result }

// Excluded returns the 1-based indices of provers whose contributions were
// dropped, in increasing order
func (s *MulProofResponded) Excluded() []int { return append([]int(nil), s.excluded...) }

// Multiply runs all phases of a multiplication
func (p *Party) Multiply(ctx context.Context, a, b *vss.Share) (*vss.Share, error) {
	ctx, cancel := p.begin(ctx)
	defer cancel()

	s0, err := p.NewMultiplication(a, b)
	if err != nil {
		return nil, err
	}
	s1, err := s0.SendPolynomial(ctx)
	if err != nil {
		return nil, err
	}
	s2, err := s1.CommitProof(ctx)
	if err != nil {
		return nil, err
	}
	s3, err := s2.Respond(ctx)
	if err != nil {
		return nil, err
	}
	return s3.Result(), nil
}

// verifyProver checks the proof of the prover at slot peer. The statement
// is built from public data only: the MACs of the prover's operand shares
// and the constant-term commitment of the product sharing it dealt.
func (m *mulRun) verifyProver(peer int, w *zk.WireMulResponse, e *big.Int) error {
	p := m.p
	index := peer + 1

	response, err := zk.MulResponseFromWire(w)
	if err != nil {
		return vss.NewCheatDetected(index, "undecodable proof response: %v", err)
	}

	A, err := m.a.ComputeMAC(p.gctx, index)
	if err != nil {
		return err
	}
	B, err := m.b.ComputeMAC(p.gctx, index)
	if err != nil {
		return err
	}
	st := &zk.MulStatement{A: A, B: B, C: m.products[peer].Commitments[0]}

	if err := zk.VerifyMul(p.gctx.Params(), st, m.commitments[peer], e, response); err != nil {
		return vss.NewCheatDetected(index, "multiplication proof rejected: %v", err)
	}
	return nil
}

// reject applies the exclusion policy to a failed proof check of slot
func (m *mulRun) reject(slot int, cheat error) error {
	if m.p.cfg.Exclusion == AbortOnCheat {
		return cheat
	}
	m.rejected[slot] = cheat.Error()
	m.p.log.WarnEvent().Int("prover", slot+1).Err(cheat).Msg("rejected proof")
	return nil
}

func (m *mulRun) exclude(slot int, reason string) {
	if m.isExcluded(slot) {
		return
	}
	m.excluded[slot] = reason
	m.p.log.WarnEvent().Int("prover", slot+1).Str("reason", reason).Msg("excluding contribution")
}

func (m *mulRun) isExcluded(slot int) bool {
	_, ok := m.excluded[slot]
	return ok
}

func (m *mulRun) excludedIndices() []int {
	out := make([]int, 0, len(m.excluded))
	for slot := range m.excluded {
		out = append(out, slot+1)
	}
	slices.Sort(out)
	return out
}

// resolveComplaints makes rejected product shares public. Every party
// announces the dealers it rejected; each accused dealer then opens the
// complainers' shares to everyone. A dealer whose opening is missing or does
// not match its commitments is excluded. A valid opening replaces the
// complainer's copy.
func (m *mulRun) resolveComplaints(ctx context.Context) error {
	p := m.p
	n := p.slots.Len()

	all, err := exchange(ctx, p, network.MessageTypeComplaint, complaint{Dealers: m.complaints})
	if err != nil {
		return err
	}

	// accused[d] lists the slots complaining about the dealer at slot d
	accused := make([][]int, n)
	for slot, c := range all {
		seen := make(map[int]bool, len(c.Dealers))
		for _, dealer := range c.Dealers {
			d := dealer - 1
			if d < 0 || d >= n || d == slot || seen[d] {
				continue
			}
			seen[d] = true
			accused[d] = append(accused[d], slot)
		}
	}

	var own shareOpening
	for _, c := range accused[p.slots.Self()] {
		own.Shares = append(own.Shares, m.dealt[c].ToWire())
	}
	openings, err := exchange(ctx, p, network.MessageTypeShareOpening, own)
	if err != nil {
		return err
	}

	for d := 0; d < n; d++ {
		for _, c := range accused[d] {
			share, cheat := m.checkOpening(d, c, openings[d])
			if cheat != nil {
				m.exclude(d, cheat.Error())
				break
			}
			if c == p.slots.Self() {
				m.products[d] = share
			}
		}
	}
	return nil
}

// checkOpening finds the share of complainer in the dealer's opening and
// checks it against the commitments every party agreed on
func (m *mulRun) checkOpening(dealer, complainer int, opening shareOpening) (*vss.Share, error) {
	p := m.p
	for _, w := range opening.Shares {
		if w == nil || w.Index != complainer+1 {
			continue
		}
		if !sameEncodings(w.Commitments, m.raw[dealer]) {
			return nil, vss.NewCheatDetected(dealer+1, "opened share of party %d under other commitments", complainer+1)
		}
		share, err := vss.FromWire(p.gctx, w)
		if err != nil || share.Threshold != m.a.Threshold || share.Validate(p.gctx) != nil {
			return nil, vss.NewCheatDetected(dealer+1, "opened share of party %d does not match commitments", complainer+1)
		}
		return share, nil
	}
	return nil, vss.NewCheatDetected(dealer+1, "did not open the share of party %d", complainer+1)
}

// tallyRejections drops every prover whose proof at least t parties
// rejected. Proofs are checked on broadcast data: a false statement is
// rejected by every honest party, and fewer than t parties cannot drop a
// prover on their own.
func (m *mulRun) tallyRejections(ctx context.Context) error {
	p := m.p
	n := p.slots.Len()

	own := make([]int, 0, len(m.rejected))
	for slot := range m.rejected {
		own = append(own, slot+1)
	}
	slices.Sort(own)

	all, err := exchange(ctx, p, network.MessageTypeExclusion, exclusionSet{Excluded: own})
	if err != nil {
		return err
	}

	votes := make([]int, n)
	for _, set := range all {
		seen := make(map[int]bool, len(set.Excluded))
		for _, index := range set.Excluded {
			if index < 1 || index > n || seen[index] {
				continue
			}
			seen[index] = true
			votes[index-1]++
		}
	}

	for slot, v := range votes {
		if v < m.a.Threshold {
			continue
		}
		reason, ok := m.rejected[slot]
		if !ok {
			reason = fmt.Sprintf("proof rejected by %d parties", v)
		}
		m.exclude(slot, reason)
	}
	return nil
}

// wipeDealt clears the product shares dealt to other parties
func (m *mulRun) wipeDealt() {
	self := m.p.slots.Self()
	for i, s := range m.dealt {
		if i != self {
			s.Zero()
		}
	}
	m.dealt = nil
}

// combine interpolates the accepted product shares at zero. With nothing
// excluded the cached Vandermonde row for n parties is used.
func (m *mulRun) combine() (*vss.Share, error) {
	p := m.p
	n := p.slots.Len()
	need := 2*m.a.Threshold - 1

	slots := make([]int, 0, n)
	indices := make([]int, 0, n)
	for slot := 0; slot < n; slot++ {
		if !m.isExcluded(slot) {
			slots = append(slots, slot)
			indices = append(indices, slot+1)
		}
	}
	if len(slots) < need {
		return nil, &vss.InsufficientSharesError{Have: len(slots), Need: need}
	}

	var lambdas []*big.Int
	var err error
	if len(slots) == n {
		lambdas, err = p.lambdas.Lambdas(n)
	} else {
		lambdas, err = math.LagrangeCoefficientsAtZero(indices, p.gctx.Order())
	}
	if err != nil {
		return nil, err
	}

	var result *vss.Share
	for i, slot := range slots {
		term, err := m.products[slot].ScalarMultiply(p.gctx, lambdas[i])
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = term
			continue
		}
		if result, err = result.Add(p.gctx, term); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// finish records the outcome of the run once
func (m *mulRun) finish(err error) error {
	if m.start.IsZero() {
		return err
	}
	m.p.metrics.observe(ProtoMultiply, m.start, err)
	m.start = time.Time{}
	return err
}
