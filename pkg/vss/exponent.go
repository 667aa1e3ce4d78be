package vss

import (
	"math/big"

	"github.com/Caqil/pedersen-mpc/internal/math"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
)

// InterpolateInExponent recovers g^{f(0)} from the points g^{f(indices[i])}
// without learning f(0): ∏ elems[i]^{λ_i}.
func InterpolateInExponent(ctx *GroupContext, indices []int, elems []group.Element) (group.Element, error) {
	if len(indices) != len(elems) {
		return nil, math.ErrPointValueMismatch
	}

	lambdas, err := math.LagrangeCoefficientsAtZero(indices, ctx.order)
	if err != nil {
		return nil, err
	}
	return group.MultiExp(ctx.Group(), elems, lambdas)
}

// ShareExponent returns g^{Data}, the share lifted into the group
func (s *Share) ShareExponent(ctx *GroupContext) group.Element {
	return ctx.Group().Exp(ctx.GenData(), new(big.Int).Set(s.Data))
}
