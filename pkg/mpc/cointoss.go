package mpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/Caqil/pedersen-mpc/pkg/crypto/commitment"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/hash"
	"github.com/Caqil/pedersen-mpc/pkg/network"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
)

type coinCommit struct {
	Digest []byte
}

type coinReveal struct {
	Salt  []byte
	Value []byte
}

type coinResult struct {
	Coin []byte
}

// CoinToss is a coin toss whose commitments have been exchanged but not yet
// opened. Every party's contribution is fixed at this point.
type CoinToss struct {
	p       *Party
	numBits int
	own     *commitment.HashCommitment
	digests [][]byte
	start   time.Time
	done    bool
}

// CommitCoin samples this party's contribution to a numBits coin and
// exchanges hash commitments to it
func (p *Party) CommitCoin(ctx context.Context, numBits int) (*CoinToss, error) {
	if numBits <= 0 {
		return nil, ErrInvalidCoinLength
	}
	start := time.Now()

	value, err := p.coinSource(coinBytes(numBits))
	if err != nil {
		return nil, err
	}
	own, err := commitment.NewHashCommitment(value, p.cfg.CommitHash)
	if err != nil {
		return nil, err
	}

	all, err := exchange(ctx, p, network.MessageTypeCoinCommit, coinCommit{Digest: own.Digest})
	if err != nil {
		own.Zero()
		p.metrics.observe(ProtoCoinToss, start, err)
		return nil, err
	}

	digests := make([][]byte, len(all))
	for i, c := range all {
		digests[i] = c.Digest
	}
	return &CoinToss{p: p, numBits: numBits, own: own, digests: digests, start: start}, nil
}

// Reveal opens every contribution and returns their XOR. Besides checking
// each opening against its commitment, the combined coin is broadcast once
// more so a party that opened differently towards different peers is
// caught.
func (c *CoinToss) Reveal(ctx context.Context) (coin []byte, err error) {
	if c.done {
		return nil, ErrStateConsumed
	}
	c.done = true
	defer c.own.Zero()
	defer func() { c.p.metrics.observe(ProtoCoinToss, c.start, err) }()

	p := c.p
	all, err := exchange(ctx, p, network.MessageTypeCoinReveal, coinReveal{Salt: c.own.Salt, Value: c.own.Value})
	if err != nil {
		return nil, err
	}

	size := coinBytes(c.numBits)
	coin = make([]byte, size)
	for slot, r := range all {
		if len(r.Value) != size {
			return nil, vss.NewCheatDetected(slot+1, "coin contribution of %d bytes, expected %d", len(r.Value), size)
		}
		if !commitment.VerifyHashCommitment(c.digests[slot], r.Salt, r.Value, p.cfg.CommitHash) {
			return nil, vss.NewCheatDetected(slot+1, "coin opening does not match commitment")
		}
		for i := range coin {
			coin[i] ^= r.Value[i]
		}
	}
	if extra := 8*size - c.numBits; extra > 0 {
		coin[0] &= 0xff >> extra
	}

	results, err := exchange(ctx, p, network.MessageTypeCoinResult, coinResult{Coin: coin})
	if err != nil {
		return nil, err
	}
	for _, peer := range p.slots.Peers() {
		if !bytes.Equal(results[peer].Coin, coin) {
			return nil, vss.NewCheatDetected(peer+1, "combined coin differs")
		}
	}

	p.log.DebugEvent().Int("bits", c.numBits).Msg("coin tossed")
	return coin, nil
}

// CoinToss runs a complete commit/reveal toss of numBits bits. The result
// is uniform as long as one party is honest.
func (p *Party) CoinToss(ctx context.Context, numBits int) ([]byte, error) {
	ctx, cancel := p.begin(ctx)
	defer cancel()

	toss, err := p.CommitCoin(ctx, numBits)
	if err != nil {
		return nil, err
	}
	return toss.Reveal(ctx)
}

// CoinStream expands a tossed coin into a byte stream of up to
// hash.MaxStreamLength bytes. Parties holding the same coin and info read
// the same stream.
func CoinStream(coin, info []byte) (io.Reader, error) {
	return hash.NewStream(coin, info)
}

// challengeWidth is the number of coin bytes consumed per challenge
func challengeWidth(order *big.Int) int {
	return (order.BitLen() + 7) / 8
}

// ChallengeBits is the coin length needed to derive n challenges mod order
func ChallengeBits(order *big.Int, n int) int {
	return 8 * n * challengeWidth(order)
}

// Challenges slices coin into n big-endian chunks and reduces each mod
// order. Challenge i belongs to the prover at slot i.
func Challenges(coin []byte, order *big.Int, n int) ([]*big.Int, error) {
	width := challengeWidth(order)
	if n <= 0 || len(coin) < n*width {
		return nil, fmt.Errorf("%w: %d coin bytes for %d challenges", ErrInvalidCoinLength, len(coin), n)
	}

	out := make([]*big.Int, n)
	for i := range out {
		e := new(big.Int).SetBytes(coin[i*width : (i+1)*width])
		out[i] = e.Mod(e, order)
	}
	return out, nil
}

func coinBytes(numBits int) int {
	return (numBits + 7) / 8
}
