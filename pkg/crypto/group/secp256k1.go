package group

import (
	"bytes"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// secp256k1Identity is the encoding used for the point at infinity
var secp256k1Identity = []byte{0x00}

type secp256k1Group struct {
	order     *big.Int
	generator secp256k1.JacobianPoint
}

// secp256k1Element keeps its point in affine form (Z = 1), or all zero for infinity
type secp256k1Element struct {
	p secp256k1.JacobianPoint
}

func newSecp256k1() *secp256k1Group {
	params := btcec.S256().Params()
	g := &secp256k1Group{order: new(big.Int).Set(params.N)}
	g.generator.X.SetByteSlice(params.Gx.Bytes())
	g.generator.Y.SetByteSlice(params.Gy.Bytes())
	g.generator.Z.SetInt(1)
	return g
}

func newSecp256k1Element(p *secp256k1.JacobianPoint) *secp256k1Element {
	e := &secp256k1Element{}
	if isInfinity(p) {
		return e
	}
	e.p.Set(p)
	e.p.ToAffine()
	return e
}

func isInfinity(p *secp256k1.JacobianPoint) bool {
	return (p.X.IsZero() && p.Y.IsZero()) || p.Z.IsZero()
}

func (e *secp256k1Element) Bytes() []byte {
	if isInfinity(&e.p) {
		return append([]byte(nil), secp256k1Identity...)
	}
	return secp256k1.NewPublicKey(&e.p.X, &e.p.Y).SerializeCompressed()
}

func (e *secp256k1Element) Equal(other Element) bool {
	o, ok := other.(*secp256k1Element)
	if !ok || o == nil {
		return false
	}
	return bytes.Equal(e.Bytes(), o.Bytes())
}

func (e *secp256k1Element) IsIdentity() bool {
	return isInfinity(&e.p)
}

func (g *secp256k1Group) Name() string { return Secp256k1.String() }

func (g *secp256k1Group) Order() *big.Int { return new(big.Int).Set(g.order) }

func (g *secp256k1Group) ElementSize() int { return 33 }

func (g *secp256k1Group) Generator() Element {
	return newSecp256k1Element(&g.generator)
}

func (g *secp256k1Group) Identity() Element {
	return &secp256k1Element{}
}

func (g *secp256k1Group) Exp(base Element, k *big.Int) Element {
	b := g.point(base)
	kr := reduce(k, g.order)
	if isInfinity(b) || kr.Sign() == 0 {
		return g.Identity()
	}

	var s secp256k1.ModNScalar
	s.SetByteSlice(kr.FillBytes(make([]byte, 32)))

	var r secp256k1.JacobianPoint
	if newSecp256k1Element(b).Equal(g.Generator()) {
		secp256k1.ScalarBaseMultNonConst(&s, &r)
	} else {
		secp256k1.ScalarMultNonConst(&s, b, &r)
	}
	return newSecp256k1Element(&r)
}

func (g *secp256k1Group) Mul(a, b Element) Element {
	var r secp256k1.JacobianPoint
	secp256k1.AddNonConst(g.point(a), g.point(b), &r)
	return newSecp256k1Element(&r)
}

func (g *secp256k1Group) Negate(a Element) Element {
	p := g.point(a)
	if isInfinity(p) {
		return g.Identity()
	}
	var r secp256k1.JacobianPoint
	r.Set(p)
	r.Y.Negate(1).Normalize()
	return newSecp256k1Element(&r)
}

// ElementFromBytes accepts the 33-byte compressed form or the identity byte
func (g *secp256k1Group) ElementFromBytes(data []byte) (Element, error) {
	if bytes.Equal(data, secp256k1Identity) {
		return g.Identity(), nil
	}
	if len(data) != btcec.PubKeyBytesLenCompressed {
		return nil, ErrInvalidElement
	}
	pk, err := btcec.ParsePubKey(data)
	if err != nil {
		return nil, ErrInvalidElement
	}
	var p secp256k1.JacobianPoint
	pk.AsJacobian(&p)
	return newSecp256k1Element(&p), nil
}

// HashToElement treats XMD output as an x coordinate and retries until it
// lies on the curve. The cofactor is 1, so any curve point will do.
func (g *secp256k1Group) HashToElement(dst, msg []byte) (Element, error) {
	for ctr := 0; ctr < hashToElementAttempts; ctr++ {
		x, err := candidateBytes(dst, msg, ctr, 32)
		if err != nil {
			return nil, err
		}
		pk, err := btcec.ParsePubKey(append([]byte{secp256k1.PubKeyFormatCompressedEven}, x...))
		if err != nil {
			continue
		}
		var p secp256k1.JacobianPoint
		pk.AsJacobian(&p)
		return newSecp256k1Element(&p), nil
	}
	return nil, ErrHashToElementFailed
}

func (g *secp256k1Group) point(e Element) *secp256k1.JacobianPoint {
	pe, ok := e.(*secp256k1Element)
	if !ok || pe == nil {
		panic("group: element does not belong to secp256k1")
	}
	return &pe.p
}
