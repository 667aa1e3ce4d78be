// Package zk implements the zero-knowledge proofs used by the Pedersen
// protocols: Schnorr proofs of knowledge of a discrete log for an arbitrary
// base, and the GRR98 proof that a reshared value is the product of two
// committed shares.
package zk

import (
	"math/big"

	"github.com/Caqil/pedersen-mpc/internal/security"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/hash"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/rand"
)

// SchnorrProof represents a Schnorr proof of knowledge of discrete logarithm
// Proves knowledge of x such that Y = base^x without revealing x
type SchnorrProof struct {
	// Commitment is the prover's commitment R = base^k
	Commitment group.Element

	// Challenge is the Fiat-Shamir challenge e = H(base, Y, R, context)
	Challenge *big.Int

	// Response is z = k + e*x mod q
	Response *big.Int
}

// WireSchnorrProof is the serializable form of a SchnorrProof
type WireSchnorrProof struct {
	Commitment []byte
	Challenge  []byte
	Response   []byte
}

// ProveSchnorr creates a non-interactive proof of knowledge of secret such
// that public = base^secret
func ProveSchnorr(g group.Group, base, public group.Element, secret *big.Int, context []byte) (*SchnorrProof, error) {
	if g == nil {
		return nil, ErrNilGroup
	}
	if secret == nil {
		return nil, ErrNilSecret
	}
	if base == nil || public == nil {
		return nil, ErrNilElement
	}

	if !g.Exp(base, secret).Equal(public) {
		return nil, ErrInvalidWitness
	}

	order := g.Order()
	k, err := rand.GenerateRandomScalar(order)
	if err != nil {
		return nil, err
	}
	defer security.SecureZeroBigInt(k)

	commitment := g.Exp(base, k)
	challenge := computeSchnorrChallenge(g, base, public, commitment, context)

	response := new(big.Int).Mul(challenge, secret)
	response.Add(response, k)
	response.Mod(response, order)

	return &SchnorrProof{
		Commitment: commitment,
		Challenge:  challenge,
		Response:   response,
	}, nil
}

// Verify checks base^z == R · Y^e and that e was derived from the transcript
func (sp *SchnorrProof) Verify(g group.Group, base, public group.Element, context []byte) bool {
	if sp == nil || g == nil || base == nil || public == nil {
		return false
	}
	if sp.Commitment == nil || sp.Challenge == nil || sp.Response == nil {
		return false
	}

	expectedChallenge := computeSchnorrChallenge(g, base, public, sp.Commitment, context)
	if !security.SecureCompareScalars(sp.Challenge, expectedChallenge) {
		return false
	}

	lhs := g.Exp(base, sp.Response)
	rhs := g.Mul(sp.Commitment, g.Exp(public, sp.Challenge))
	return lhs.Equal(rhs)
}

// ToWire converts the proof to its serializable form
func (sp *SchnorrProof) ToWire() *WireSchnorrProof {
	return &WireSchnorrProof{
		Commitment: sp.Commitment.Bytes(),
		Challenge:  sp.Challenge.Bytes(),
		Response:   sp.Response.Bytes(),
	}
}

// SchnorrFromWire decodes a proof
func SchnorrFromWire(g group.Group, w *WireSchnorrProof) (*SchnorrProof, error) {
	if w == nil {
		return nil, ErrInvalidProof
	}
	commitment, err := g.ElementFromBytes(w.Commitment)
	if err != nil {
		return nil, err
	}
	return &SchnorrProof{
		Commitment: commitment,
		Challenge:  new(big.Int).SetBytes(w.Challenge),
		Response:   new(big.Int).SetBytes(w.Response),
	}, nil
}

// computeSchnorrChallenge computes e = H(base || Y || R || context) mod q
func computeSchnorrChallenge(g group.Group, base, public, commitment group.Element, context []byte) *big.Int {
	transcript := make([]byte, 0, 3*g.ElementSize()+len(context))
	transcript = append(transcript, base.Bytes()...)
	transcript = append(transcript, public.Bytes()...)
	transcript = append(transcript, commitment.Bytes()...)
	transcript = append(transcript, context...)

	return hash.FiatShamirChallenge(transcript, g.Order())
}
