package mpc

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/hash"
	"github.com/Caqil/pedersen-mpc/pkg/network"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig(3, 5).Validate())
	require.Equal(t, 5, DefaultConfig(3, 5).MultiplicationThreshold())

	bad := []*Config{
		DefaultConfig(0, 5),
		DefaultConfig(6, 5),
		DefaultConfig(1, 1),
		{Threshold: 2, Parties: 3, CommitHash: hash.HashFunction(99)},
		{Threshold: 2, Parties: 3, Exclusion: ExclusionPolicy(7)},
		{Threshold: 2, Parties: 3, Timeout: -time.Second},
	}
	for i, cfg := range bad {
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, "config %d", i)
	}
}

func TestParseExclusionPolicy(t *testing.T) {
	for _, p := range []ExclusionPolicy{AbortOnCheat, ExcludeCheaters} {
		parsed, err := ParseExclusionPolicy(p.String())
		require.NoError(t, err)
		require.Equal(t, p, parsed)
	}
	_, err := ParseExclusionPolicy("ignore")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewParty(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	mesh, err := network.NewMemoryMesh(3)
	require.NoError(t, err)
	defer mesh.Close()

	slots, err := mesh.Slots(1)
	require.NoError(t, err)

	p, err := NewParty(gctx, slots, DefaultConfig(2, 3))
	require.NoError(t, err)
	require.Equal(t, 2, p.Index())
	require.Equal(t, 3, p.Parties())
	require.Equal(t, DefaultSession, p.Session())

	_, err = NewParty(gctx, slots, DefaultConfig(2, 4))
	require.ErrorIs(t, err, ErrInvalidConfig)

	other := newTestContext(t, group.Secp256k1)
	_, err = NewParty(gctx, slots, DefaultConfig(2, 3), WithVandermondeCache(mustCache(t, other)))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestShareInputAndOpen(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	parties := newParties(t, gctx, DefaultConfig(2, 3), nil)

	opened := make([]*big.Int, len(parties))
	errs := runParties(t, parties, func(ctx context.Context, p *Party) error {
		var value *big.Int
		if p.Index() == 2 {
			value = big.NewInt(99)
		}
		s, err := p.ShareInput(ctx, 2, value, 2)
		if err != nil {
			return err
		}
		opened[p.Index()-1], err = p.Open(ctx, s)
		return err
	})

	for i, err := range errs {
		require.NoError(t, err, "party %d", i+1)
		require.Equal(t, int64(99), opened[i].Int64())
	}
}

func TestShareRandom(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	parties := newParties(t, gctx, DefaultConfig(2, 4), nil)

	shares := make([]*vss.Share, len(parties))
	errs := runParties(t, parties, func(ctx context.Context, p *Party) error {
		s, err := p.ShareRandom(ctx, 2)
		shares[p.Index()-1] = s
		return err
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	for _, s := range shares {
		require.NoError(t, s.Validate(gctx))
		require.True(t, s.SameCommitments(shares[0]))
	}
	a, err := vss.Reconstruct(gctx, shares[:2])
	require.NoError(t, err)
	b, err := vss.Reconstruct(gctx, shares[2:])
	require.NoError(t, err)
	require.Equal(t, 0, a.Cmp(b))
}

// TestEndToEnd runs the five party scenario: 10 and 21 are input by
// parties 1 and 2, combined to 241, multiplied to 2410 and a random value
// is revealed in the exponent
func TestEndToEnd(t *testing.T) {
	for _, gt := range []group.GroupType{group.Ed25519, group.Secp256k1, group.BN254} {
		t.Run(gt.String(), func(t *testing.T) {
			gctx := newTestContext(t, gt)
			parties := newParties(t, gctx, DefaultConfig(3, 5), nil)

			type outcome struct {
				combined, shifted, product, random *big.Int
				revealed                           group.Element
			}
			results := make([]outcome, len(parties))

			errs := runParties(t, parties, func(ctx context.Context, p *Party) error {
				out := &results[p.Index()-1]
				inputs := map[int]*big.Int{1: big.NewInt(10), 2: big.NewInt(21)}

				x, err := p.ShareInput(ctx, 1, inputs[p.Index()], 3)
				if err != nil {
					return err
				}
				y, err := p.ShareInput(ctx, 2, inputs[p.Index()], 3)
				if err != nil {
					return err
				}

				y11, err := y.ScalarMultiply(gctx, big.NewInt(11))
				if err != nil {
					return err
				}
				z, err := x.Add(gctx, y11)
				if err != nil {
					return err
				}
				if out.combined, err = p.Open(ctx, z); err != nil {
					return err
				}

				five, err := vss.ShareConstValue(gctx, big.NewInt(5), 3, 5)
				if err != nil {
					return err
				}
				shifted, err := z.Add(gctx, five[p.Index()-1])
				if err != nil {
					return err
				}
				if out.shifted, err = p.Open(ctx, shifted); err != nil {
					return err
				}

				product, err := p.Multiply(ctx, x, z)
				if err != nil {
					return err
				}
				if out.product, err = p.Open(ctx, product); err != nil {
					return err
				}

				r, err := p.ShareRandom(ctx, 3)
				if err != nil {
					return err
				}
				if out.revealed, err = p.RevealInExponent(ctx, r); err != nil {
					return err
				}
				out.random, err = p.Open(ctx, r)
				return err
			})

			for i, err := range errs {
				require.NoError(t, err, "party %d", i+1)
			}
			for i, out := range results {
				require.Equal(t, int64(241), out.combined.Int64(), "party %d", i+1)
				require.Equal(t, int64(246), out.shifted.Int64(), "party %d", i+1)
				require.Equal(t, int64(2410), out.product.Int64(), "party %d", i+1)

				want := gctx.Group().Exp(gctx.GenData(), out.random)
				require.True(t, out.revealed.Equal(want), "party %d revealed a different element", i+1)
				require.Equal(t, 0, out.random.Cmp(results[0].random))
			}
		})
	}
}

func TestCheatDealtShare(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	wrap := tamper(0, []int{2}, network.MessageTypeShare, rewrite(func(w *vss.WireShare) {
		w.Blind = increment(w.Blind)
	}))
	parties := newParties(t, gctx, DefaultConfig(2, 3), wrap)

	errs := runParties(t, parties, func(ctx context.Context, p *Party) error {
		var value *big.Int
		if p.Index() == 1 {
			value = big.NewInt(7)
		}
		_, err := p.ShareInput(ctx, 1, value, 2)
		return err
	})

	requireCheat(t, errs[2], 1)
}

func TestCheatCommitmentRebroadcast(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	wrap := tamper(3, []int{1}, network.MessageTypeCommitmentCheck, rewrite(func(c *commitmentCheck) {
		c.Commitments[0] = gctx.GenBlind().Bytes()
	}))
	parties := newParties(t, gctx, DefaultConfig(3, 4), wrap)

	errs := runParties(t, parties, func(ctx context.Context, p *Party) error {
		var value *big.Int
		if p.Index() == 1 {
			value = big.NewInt(7)
		}
		_, err := p.ShareInput(ctx, 1, value, 3)
		return err
	})

	// party 2 cannot tell a lying relay from an equivocating dealer and
	// blames the dealer; the dealer knows what it sent
	requireCheat(t, errs[1], 1)
}

func TestCheatDealerEquivocates(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	other := dealLocally(t, gctx, 99, 2, 3)
	wrap := tamper(2, []int{0}, network.MessageTypeShare, rewrite(func(w *vss.WireShare) {
		*w = *other[0].ToWire()
	}))
	parties := newParties(t, gctx, DefaultConfig(2, 3), wrap)

	errs := runIndependent(t, parties, testTimeout, func(ctx context.Context, p *Party) error {
		var value *big.Int
		if p.Index() == 3 {
			value = big.NewInt(7)
		}
		_, err := p.ShareInput(ctx, 3, value, 2)
		return err
	})

	// party 1 got a valid share of another sharing
	requireCheat(t, errs[0], 3)
	requireCheat(t, errs[1], 3)
	requireCheat(t, errs[2], 1)
}

func TestCheatOpenedShare(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	shares := dealLocally(t, gctx, 5, 2, 3)
	wrap := tamper(2, []int{0}, network.MessageTypeOpen, rewrite(func(w *vss.WireShare) {
		w.Data = increment(w.Data)
	}))
	parties := newParties(t, gctx, DefaultConfig(2, 3), wrap)

	errs := runIndependent(t, parties, testTimeout, func(ctx context.Context, p *Party) error {
		_, err := p.Open(ctx, shares[p.Index()-1])
		return err
	})

	requireCheat(t, errs[0], 3)
	require.NoError(t, errs[1])
	require.NoError(t, errs[2])
}

func TestSessionMismatch(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	shares := dealLocally(t, gctx, 5, 2, 3)
	other := uuid.New()
	parties := newParties(t, gctx, DefaultConfig(2, 3), nil, func(i int) []Option {
		if i == 1 {
			return []Option{WithSession(other)}
		}
		return nil
	})

	errs := runIndependent(t, parties, testTimeout, func(ctx context.Context, p *Party) error {
		_, err := p.Open(ctx, shares[p.Index()-1])
		return err
	})

	for _, err := range errs {
		require.ErrorIs(t, err, vss.ErrCommunication)
		require.ErrorIs(t, err, network.ErrSessionMismatch)
	}
}

func TestOpenRejectsForeignShare(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	shares := dealLocally(t, gctx, 5, 2, 3)
	parties := newParties(t, gctx, DefaultConfig(2, 3), nil)

	_, err := parties[0].Open(context.Background(), shares[1])
	require.ErrorIs(t, err, vss.ErrInvalidInput)

	_, err = parties[0].SendShares(context.Background(), shares[:2])
	require.ErrorIs(t, err, ErrShareCount)
}
