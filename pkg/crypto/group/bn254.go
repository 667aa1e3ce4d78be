package group

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// bn254Group is G1 of BN254. Its cofactor is 1.
type bn254Group struct {
	order     *big.Int
	generator bn254.G1Affine
}

type bn254Element struct {
	p bn254.G1Affine
}

func newBN254() *bn254Group {
	_, _, g1, _ := bn254.Generators()
	return &bn254Group{order: fr.Modulus(), generator: g1}
}

func (e *bn254Element) Bytes() []byte {
	b := e.p.Bytes()
	return b[:]
}

func (e *bn254Element) Equal(other Element) bool {
	o, ok := other.(*bn254Element)
	if !ok || o == nil {
		return false
	}
	return e.p.Equal(&o.p)
}

func (e *bn254Element) IsIdentity() bool {
	return e.p.IsInfinity()
}

func (g *bn254Group) Name() string { return BN254.String() }

func (g *bn254Group) Order() *big.Int { return new(big.Int).Set(g.order) }

func (g *bn254Group) ElementSize() int { return bn254.SizeOfG1AffineCompressed }

func (g *bn254Group) Generator() Element {
	return &bn254Element{p: g.generator}
}

func (g *bn254Group) Identity() Element {
	e := &bn254Element{}
	e.p.X.SetZero()
	e.p.Y.SetZero()
	return e
}

func (g *bn254Group) Exp(base Element, k *big.Int) Element {
	b := g.point(base)
	kr := reduce(k, g.order)
	r := &bn254Element{}
	if b.Equal(&g.generator) {
		r.p.ScalarMultiplicationBase(kr)
	} else {
		r.p.ScalarMultiplication(b, kr)
	}
	return r
}

func (g *bn254Group) Mul(a, b Element) Element {
	r := &bn254Element{}
	r.p.Add(g.point(a), g.point(b))
	return r
}

func (g *bn254Group) Negate(a Element) Element {
	r := &bn254Element{}
	r.p.Neg(g.point(a))
	return r
}

func (g *bn254Group) ElementFromBytes(data []byte) (Element, error) {
	if len(data) != bn254.SizeOfG1AffineCompressed {
		return nil, ErrInvalidElement
	}
	e := &bn254Element{}
	if _, err := e.p.SetBytes(data); err != nil {
		return nil, ErrInvalidElement
	}
	return e, nil
}

func (g *bn254Group) HashToElement(dst, msg []byte) (Element, error) {
	p, err := bn254.HashToG1(msg, dst)
	if err != nil {
		return nil, err
	}
	return &bn254Element{p: p}, nil
}

func (g *bn254Group) point(e Element) *bn254.G1Affine {
	pe, ok := e.(*bn254Element)
	if !ok || pe == nil {
		panic("group: element does not belong to bn254")
	}
	return &pe.p
}
