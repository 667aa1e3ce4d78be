// Package vss implements Pedersen verifiable secret sharing.
//
// A dealer picks two random polynomials of degree t-1, the data polynomial
// carrying the secret and a blinding polynomial, and publishes
// C_i = g^{a_i} h^{b_i} for each coefficient pair. Every share can then be
// checked against the public commitments without learning anything about
// the secret, and shares compose homomorphically.
package vss

import (
	"math/big"

	"github.com/Caqil/pedersen-mpc/pkg/crypto/commitment"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
)

// GroupContext bundles the public parameters every party must agree on:
// the group, its order and the two generators. It is immutable once built.
type GroupContext struct {
	group  group.Group
	params *commitment.Params
	order  *big.Int
}

// NewGroupContext derives the context for a group. GenBlind is hashed from
// a fixed domain tag so nobody knows its discrete log relative to GenData.
func NewGroupContext(g group.Group) (*GroupContext, error) {
	if g == nil {
		return nil, ErrNilGroup
	}

	params, err := commitment.NewParams(g)
	if err != nil {
		return nil, err
	}

	return &GroupContext{
		group:  g,
		params: params,
		order:  g.Order(),
	}, nil
}

// NewGroupContextFor is a shortcut for group.New followed by NewGroupContext
func NewGroupContextFor(groupType group.GroupType) (*GroupContext, error) {
	g, err := group.New(groupType)
	if err != nil {
		return nil, err
	}
	return NewGroupContext(g)
}

// Group returns the underlying group
func (c *GroupContext) Group() group.Group { return c.group }

// GenData returns the generator g
func (c *GroupContext) GenData() group.Element { return c.params.G }

// GenBlind returns the blinding generator h
func (c *GroupContext) GenBlind() group.Element { return c.params.H }

// Order returns a copy of the group order q
func (c *GroupContext) Order() *big.Int { return new(big.Int).Set(c.order) }

// Params returns the Pedersen commitment parameters
func (c *GroupContext) Params() *commitment.Params { return c.params }

// Commit computes g^data h^blind
func (c *GroupContext) Commit(data, blind *big.Int) group.Element {
	return c.group.Mul(c.group.Exp(c.params.G, data), c.group.Exp(c.params.H, blind))
}

// mod reduces x into [0, q)
func (c *GroupContext) mod(x *big.Int) *big.Int {
	return x.Mod(x, c.order)
}
