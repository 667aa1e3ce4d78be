package mpc

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/hash"
	"github.com/Caqil/pedersen-mpc/pkg/network"
)

func TestCoinTossAgreement(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	cfg := DefaultConfig(2, 4)
	cfg.CommitHash = hash.SHA3_256
	parties := newParties(t, gctx, cfg, nil)

	coins := make([][]byte, len(parties))
	errs := runParties(t, parties, func(ctx context.Context, p *Party) error {
		var err error
		coins[p.Index()-1], err = p.CoinToss(ctx, 13)
		return err
	})

	for i, err := range errs {
		require.NoError(t, err)
		require.Len(t, coins[i], 2)
		require.Equal(t, coins[0], coins[i])
	}
	require.LessOrEqual(t, coins[0][0], byte(0x1f), "only 13 bits may be set")
}

func TestCoinTossInvalidLength(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	parties := newParties(t, gctx, DefaultConfig(2, 2), nil)

	_, err := parties[0].CoinToss(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidCoinLength)
}

func TestCoinTossRevealTwice(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	parties := newParties(t, gctx, DefaultConfig(2, 2), nil)

	errs := runParties(t, parties, func(ctx context.Context, p *Party) error {
		toss, err := p.CommitCoin(ctx, 64)
		if err != nil {
			return err
		}
		if _, err := toss.Reveal(ctx); err != nil {
			return err
		}
		_, err = toss.Reveal(ctx)
		if err == ErrStateConsumed {
			return nil
		}
		return err
	})
	for _, err := range errs {
		require.NoError(t, err)
	}
}

func TestCheatCoinOpening(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	wrap := tamper(2, []int{0}, network.MessageTypeCoinReveal, rewrite(func(r *coinReveal) {
		r.Value[0] ^= 0x01
	}))
	parties := newParties(t, gctx, DefaultConfig(2, 3), wrap)

	errs := runParties(t, parties, func(ctx context.Context, p *Party) error {
		_, err := p.CoinToss(ctx, 256)
		return err
	})

	requireCheat(t, errs[0], 3)
}

func TestCheatCoinResult(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	wrap := tamper(1, []int{2}, network.MessageTypeCoinResult, rewrite(func(r *coinResult) {
		r.Coin[0] ^= 0x80
	}))
	parties := newParties(t, gctx, DefaultConfig(2, 3), wrap)

	errs := runIndependent(t, parties, testTimeout, func(ctx context.Context, p *Party) error {
		_, err := p.CoinToss(ctx, 256)
		return err
	})

	requireCheat(t, errs[2], 2)
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
}

func TestChallenges(t *testing.T) {
	order := big.NewInt(251) // one byte per challenge
	require.Equal(t, 24, ChallengeBits(order, 3))

	coin := []byte{0x05, 0xff, 0xfb, 0x99}
	challenges, err := Challenges(coin, order, 3)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 4, 0}, []int64{challenges[0].Int64(), challenges[1].Int64(), challenges[2].Int64()})

	_, err = Challenges(coin[:2], order, 3)
	require.ErrorIs(t, err, ErrInvalidCoinLength)

	gctx := newTestContext(t, group.Ed25519)
	q := gctx.Order()
	long := make([]byte, ChallengeBits(q, 4)/8)
	for i := range long {
		long[i] = 0xff
	}
	challenges, err = Challenges(long, q, 4)
	require.NoError(t, err)
	for _, e := range challenges {
		require.Equal(t, -1, e.Cmp(q))
	}
}

func TestCoinStream(t *testing.T) {
	coin := []byte("agreed coin")

	read := func(info string) []byte {
		r, err := CoinStream(coin, []byte(info))
		require.NoError(t, err)
		out := make([]byte, 96)
		_, err = io.ReadFull(r, out)
		require.NoError(t, err)
		return out
	}

	require.Equal(t, read("psi"), read("psi"))
	require.NotEqual(t, read("psi"), read("other"))
}

// zeroCoin makes a party contribute all-zero values to every toss
func zeroCoin(p *Party) {
	p.coinSource = func(size int) ([]byte, error) { return make([]byte, size), nil }
}

func TestCoinTossUnbiasedWithOneHonestParty(t *testing.T) {
	const (
		tosses = 200
		bits   = 64
		// five standard deviations of Binomial(200, 1/2)
		tolerance = 36
	)

	gctx := newTestContext(t, group.Ed25519)
	parties := newParties(t, gctx, DefaultConfig(2, 3), nil, func(i int) []Option {
		if i == 0 {
			return nil
		}
		return []Option{zeroCoin}
	})

	coins := make([][][]byte, len(parties))
	errs := runParties(t, parties, func(ctx context.Context, p *Party) error {
		for k := 0; k < tosses; k++ {
			coin, err := p.CoinToss(ctx, bits)
			if err != nil {
				return err
			}
			coins[p.Index()-1] = append(coins[p.Index()-1], coin)
		}
		return nil
	})
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, coins[0], coins[1])
	require.Equal(t, coins[0], coins[2])

	var ones [bits]int
	for _, coin := range coins[0] {
		for bit := range ones {
			if coin[bit/8]&(0x80>>(bit%8)) != 0 {
				ones[bit]++
			}
		}
	}
	for bit, n := range ones {
		require.InDelta(t, tosses/2, n, tolerance, "bit %d set in %d of %d tosses", bit, n, tosses)
	}
}
