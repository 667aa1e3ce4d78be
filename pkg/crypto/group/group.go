// Package group provides prime-order groups for Pedersen commitments.
//
// Groups are written multiplicatively: Exp(g, k) is g^k and Mul(a, b) is a·b.
// Unlike a signing curve API, exponents may be zero and the identity is a
// first-class element, because commitments to zero coefficients and
// interpolation in the exponent both need it.
package group

import (
	"math/big"
	"strings"

	"github.com/Caqil/pedersen-mpc/pkg/crypto/hash"
)

// GroupType selects one of the built-in groups
type GroupType int

const (
	// Ed25519 is the prime-order subgroup of edwards25519
	Ed25519 GroupType = iota
	// Secp256k1 is the Bitcoin/Ethereum curve
	Secp256k1
	// BN254 is the G1 group of the BN254 pairing-friendly curve
	BN254
)

// Element is an element of a prime-order group. Implementations are
// immutable: group operations always return new elements.
type Element interface {
	// Bytes returns the canonical encoding of the element
	Bytes() []byte

	// Equal reports whether both elements are the same group element
	Equal(other Element) bool

	// IsIdentity reports whether the element is the neutral element
	IsIdentity() bool
}

// Group defines the operations the sharing and proof layers rely on
type Group interface {
	// Name returns the group name
	Name() string

	// Order returns the prime order q of the group
	Order() *big.Int

	// Generator returns the standard generator
	Generator() Element

	// Identity returns the neutral element
	Identity() Element

	// Exp computes base^k. k is reduced mod q; zero and negative values are allowed.
	Exp(base Element, k *big.Int) Element

	// Mul computes a·b
	Mul(a, b Element) Element

	// Negate computes a⁻¹
	Negate(a Element) Element

	// ElementFromBytes decodes an element, rejecting anything outside the group
	ElementFromBytes(data []byte) (Element, error)

	// HashToElement maps msg to an element with unknown discrete log
	HashToElement(dst, msg []byte) (Element, error)

	// ElementSize returns the length of a non-identity encoding
	ElementSize() int
}

// New creates a group of the given type
func New(groupType GroupType) (Group, error) {
	switch groupType {
	case Ed25519:
		return newEd25519(), nil
	case Secp256k1:
		return newSecp256k1(), nil
	case BN254:
		return newBN254(), nil
	default:
		return nil, ErrUnsupportedGroup
	}
}

// String returns the group type name
func (gt GroupType) String() string {
	switch gt {
	case Ed25519:
		return "ed25519"
	case Secp256k1:
		return "secp256k1"
	case BN254:
		return "bn254"
	default:
		return "unknown"
	}
}

// ParseGroupType parses a name produced by GroupType.String
func ParseGroupType(name string) (GroupType, error) {
	switch strings.ToLower(name) {
	case "ed25519", "edwards25519":
		return Ed25519, nil
	case "secp256k1":
		return Secp256k1, nil
	case "bn254":
		return BN254, nil
	default:
		return 0, ErrUnsupportedGroup
	}
}

// MultiExp computes ∏ bases[i]^exps[i]
func MultiExp(g Group, bases []Element, exps []*big.Int) (Element, error) {
	if len(bases) != len(exps) {
		return nil, ErrLengthMismatch
	}

	acc := g.Identity()
	for i := range bases {
		if bases[i] == nil || exps[i] == nil {
			return nil, ErrNilElement
		}
		acc = g.Mul(acc, g.Exp(bases[i], exps[i]))
	}
	return acc, nil
}

// reduce returns k mod order in [0, order)
func reduce(k, order *big.Int) *big.Int {
	if k == nil {
		return new(big.Int)
	}
	return new(big.Int).Mod(k, order)
}

// hashToElementAttempts bounds try-and-increment loops; each attempt
// succeeds with probability about 1/2, so exhausting it is not expected.
const hashToElementAttempts = 256

// candidateBytes produces the ctr-th candidate encoding for try-and-increment
func candidateBytes(dst, msg []byte, ctr int, length int) ([]byte, error) {
	input := make([]byte, 0, len(msg)+1)
	input = append(input, msg...)
	input = append(input, byte(ctr))
	return hash.ExpandMessageXMD(input, dst, length)
}
