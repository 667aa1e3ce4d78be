package group

import (
	"math/big"

	"filippo.io/edwards25519"
)

// ed25519Order is l = 2^252 + 27742317777372353535851937790883648493
var ed25519Order, _ = new(big.Int).SetString("1000000000000000000000000000000014DEF9DEA2F79CD65812631A5CF5D3ED", 16)

// ed25519Group is the prime-order subgroup of edwards25519
type ed25519Group struct {
	generator *edwards25519.Point
	lMinusOne *edwards25519.Scalar
}

type ed25519Element struct {
	p *edwards25519.Point
}

func newEd25519() *ed25519Group {
	return &ed25519Group{
		generator: edwards25519.NewGeneratorPoint(),
		lMinusOne: ed25519Scalar(new(big.Int).Sub(ed25519Order, big.NewInt(1))),
	}
}

func (e *ed25519Element) Bytes() []byte {
	return e.p.Bytes()
}

func (e *ed25519Element) Equal(other Element) bool {
	o, ok := other.(*ed25519Element)
	if !ok || o == nil {
		return false
	}
	return e.p.Equal(o.p) == 1
}

func (e *ed25519Element) IsIdentity() bool {
	return e.p.Equal(edwards25519.NewIdentityPoint()) == 1
}

func (g *ed25519Group) Name() string { return Ed25519.String() }

func (g *ed25519Group) Order() *big.Int { return new(big.Int).Set(ed25519Order) }

func (g *ed25519Group) ElementSize() int { return 32 }

func (g *ed25519Group) Generator() Element {
	return &ed25519Element{p: edwards25519.NewGeneratorPoint()}
}

func (g *ed25519Group) Identity() Element {
	return &ed25519Element{p: edwards25519.NewIdentityPoint()}
}

func (g *ed25519Group) Exp(base Element, k *big.Int) Element {
	b := g.point(base)
	s := ed25519Scalar(k)
	if b.Equal(g.generator) == 1 {
		return &ed25519Element{p: new(edwards25519.Point).ScalarBaseMult(s)}
	}
	return &ed25519Element{p: new(edwards25519.Point).ScalarMult(s, b)}
}

func (g *ed25519Group) Mul(a, b Element) Element {
	return &ed25519Element{p: new(edwards25519.Point).Add(g.point(a), g.point(b))}
}

func (g *ed25519Group) Negate(a Element) Element {
	return &ed25519Element{p: new(edwards25519.Point).Negate(g.point(a))}
}

func (g *ed25519Group) ElementFromBytes(data []byte) (Element, error) {
	if len(data) != 32 {
		return nil, ErrInvalidElement
	}
	p, err := new(edwards25519.Point).SetBytes(data)
	if err != nil {
		return nil, ErrInvalidElement
	}
	if !g.inPrimeOrderSubgroup(p) {
		return nil, ErrInvalidElement
	}
	return &ed25519Element{p: p}, nil
}

// HashToElement uses try-and-increment over XMD output, clearing the
// cofactor so the result lands in the prime-order subgroup.
func (g *ed25519Group) HashToElement(dst, msg []byte) (Element, error) {
	identity := edwards25519.NewIdentityPoint()
	for ctr := 0; ctr < hashToElementAttempts; ctr++ {
		candidate, err := candidateBytes(dst, msg, ctr, 32)
		if err != nil {
			return nil, err
		}
		p, err := new(edwards25519.Point).SetBytes(candidate)
		if err != nil {
			continue
		}
		p.MultByCofactor(p)
		if p.Equal(identity) == 1 {
			continue
		}
		return &ed25519Element{p: p}, nil
	}
	return nil, ErrHashToElementFailed
}

// inPrimeOrderSubgroup checks [l]P == identity as [l-1]P + P
func (g *ed25519Group) inPrimeOrderSubgroup(p *edwards25519.Point) bool {
	q := new(edwards25519.Point).ScalarMult(g.lMinusOne, p)
	q.Add(q, p)
	return q.Equal(edwards25519.NewIdentityPoint()) == 1
}

func (g *ed25519Group) point(e Element) *edwards25519.Point {
	pe, ok := e.(*ed25519Element)
	if !ok || pe == nil {
		panic("group: element does not belong to ed25519")
	}
	return pe.p
}

// ed25519Scalar converts k mod l into a canonical little-endian scalar
func ed25519Scalar(k *big.Int) *edwards25519.Scalar {
	buf := reduce(k, ed25519Order).FillBytes(make([]byte, 32))
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(buf)
	if err != nil {
		// unreachable: the value is already reduced mod l
		panic(err)
	}
	return s
}
