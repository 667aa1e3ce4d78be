package vss

import (
	"fmt"
	"math/big"

	"github.com/Caqil/pedersen-mpc/internal/math"
	"github.com/Caqil/pedersen-mpc/internal/security"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
)

// ShareValue splits value into n shares, any threshold of which reconstruct it.
// Share i (0-based) has Index i+1.
func ShareValue(ctx *GroupContext, value *big.Int, threshold, n int) ([]*Share, error) {
	return ShareValueWithBlind(ctx, value, nil, threshold, n)
}

// ShareValueWithBlind is ShareValue with a caller-chosen constant term for
// the blinding polynomial, so C_0 = g^value h^blind is known in advance.
// A nil blind is replaced by a uniform one.
func ShareValueWithBlind(ctx *GroupContext, value, blind *big.Int, threshold, n int) ([]*Share, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: nil value", ErrInvalidInput)
	}
	if err := security.ValidateThreshold(threshold, n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	data, err := math.NewRandomPolynomial(threshold-1, value, ctx.order)
	if err != nil {
		return nil, err
	}
	defer data.Zero()

	blinding, err := math.NewRandomPolynomial(threshold-1, blind, ctx.order)
	if err != nil {
		return nil, err
	}
	defer blinding.Zero()

	return dealShares(ctx, data, blinding, threshold, n), nil
}

// ShareConstValue shares a value every party already knows. The
// coefficients are fixed (a_i = b_i = i for i ≥ 1, b_0 = 0) so every party
// computes the same sharing locally without communication.
func ShareConstValue(ctx *GroupContext, value *big.Int, threshold, n int) ([]*Share, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: nil value", ErrInvalidInput)
	}
	if err := security.ValidateThreshold(threshold, n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	dataCoeffs := make([]*big.Int, threshold)
	blindCoeffs := make([]*big.Int, threshold)
	dataCoeffs[0] = value
	blindCoeffs[0] = big.NewInt(0)
	for i := 1; i < threshold; i++ {
		dataCoeffs[i] = big.NewInt(int64(i))
		blindCoeffs[i] = big.NewInt(int64(i))
	}

	data, err := math.NewPolynomial(dataCoeffs, ctx.order)
	if err != nil {
		return nil, err
	}
	blind, err := math.NewPolynomial(blindCoeffs, ctx.order)
	if err != nil {
		return nil, err
	}

	return dealShares(ctx, data, blind, threshold, n), nil
}

// dealShares evaluates both polynomials at 1..n and attaches the coefficient commitments
func dealShares(ctx *GroupContext, data, blind *math.Polynomial, threshold, n int) []*Share {
	commitments := make([]group.Element, threshold)
	for i := 0; i < threshold; i++ {
		commitments[i] = ctx.Commit(data.Coefficients[i], blind.Coefficients[i])
	}

	dataValues := data.EvaluateRange(n)
	blindValues := blind.EvaluateRange(n)

	shares := make([]*Share, n)
	for i := 0; i < n; i++ {
		shares[i] = &Share{
			Index:       i + 1,
			Threshold:   threshold,
			Data:        dataValues[i],
			Blind:       blindValues[i],
			Commitments: append([]group.Element(nil), commitments...),
		}
	}
	return shares
}

// Reconstruct recovers the shared value.
//
// Every supplied share is validated and must carry the same commitments as
// the first. Interpolation then uses the first Threshold shares with
// distinct indices, in array order, so callers should put the shares they
// trust most first.
func Reconstruct(ctx *GroupContext, shares []*Share) (*big.Int, error) {
	if len(shares) == 0 {
		return nil, &InsufficientSharesError{Have: 0, Need: 1}
	}
	if shares[0] == nil {
		return nil, fmt.Errorf("%w: nil share", ErrInvalidInput)
	}
	threshold := shares[0].Threshold

	indices := make([]int, 0, threshold)
	values := make([]*big.Int, 0, threshold)
	seen := make(map[int]struct{}, len(shares))
	for _, s := range shares {
		if s == nil {
			return nil, fmt.Errorf("%w: nil share", ErrInvalidInput)
		}
		if err := s.Validate(ctx); err != nil {
			return nil, err
		}
		if !s.SameCommitments(shares[0]) {
			return nil, NewCheatDetected(s.Index, "commitments differ from share %d", shares[0].Index)
		}
		if _, dup := seen[s.Index]; dup {
			continue
		}
		seen[s.Index] = struct{}{}
		if len(indices) < threshold {
			indices = append(indices, s.Index)
			values = append(values, s.Data)
		}
	}

	if len(indices) < threshold {
		return nil, &InsufficientSharesError{Have: len(indices), Need: threshold}
	}

	return math.InterpolateAtZero(indices, values, ctx.order)
}
