package zk

import (
	"fmt"
	"math/big"

	"github.com/Caqil/pedersen-mpc/internal/security"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/commitment"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/rand"
)

// MulResponseSize is the number of scalars in a multiplication proof response
const MulResponseSize = 5

// MulWitness is what the prover knows: its shares (α, ρ) of a and (β, σ)
// of b, and the blinding constant τ of the sharing it dealt for αβ.
type MulWitness struct {
	Alpha *big.Int
	Rho   *big.Int
	Beta  *big.Int
	Sigma *big.Int
	Tau   *big.Int
}

// MulStatement is the public side of the proof for one prover:
//
//	A = g^α h^ρ  (MAC of the prover's share of a)
//	B = g^β h^σ  (MAC of the prover's share of b)
//	C = g^{αβ} h^τ (constant-term commitment of the prover's product sharing)
type MulStatement struct {
	A group.Element
	B group.Element
	C group.Element
}

// MulCommitment is the first prover message
type MulCommitment struct {
	M1 group.Element // g^d h^s
	M2 group.Element // g^x h^{s1}
	M3 group.Element // B^x h^{s2}
}

// MulResponse holds z_k = nonce_k + e·secret_k for the five pairs
// (d, β), (s, σ), (x, α), (s1, ρ), (s2, τ - σα)
type MulResponse struct {
	R [MulResponseSize]*big.Int
}

// MulNonces are the prover's one-time blinding values. They are wiped by
// Respond and cannot be used again.
type MulNonces struct {
	d, s, x, s1, s2 *big.Int
	consumed        bool
}

// CommitMul samples fresh nonces and computes the prover's commitment.
// b is the MAC of the prover's own share of the second operand.
func CommitMul(params *commitment.Params, b group.Element) (*MulNonces, *MulCommitment, error) {
	if params == nil {
		return nil, nil, ErrNilGroup
	}
	if b == nil {
		return nil, nil, ErrNilElement
	}

	order := params.Group.Order()
	values := make([]*big.Int, 5)
	for i := range values {
		v, err := rand.GenerateScalar(order)
		if err != nil {
			security.SecureZeroBigInts(values...)
			return nil, nil, err
		}
		values[i] = v
	}
	n := &MulNonces{d: values[0], s: values[1], x: values[2], s1: values[3], s2: values[4]}

	g := params.Group
	m1, _ := params.Commit(n.d, n.s)
	m2, _ := params.Commit(n.x, n.s1)
	m3 := g.Mul(g.Exp(b, n.x), g.Exp(params.H, n.s2))

	return n, &MulCommitment{M1: m1, M2: m2, M3: m3}, nil
}

// Respond answers challenge e and wipes the nonces
func (n *MulNonces) Respond(order *big.Int, w *MulWitness, e *big.Int) (*MulResponse, error) {
	if n.consumed {
		return nil, ErrNoncesConsumed
	}
	if w == nil || e == nil || w.Alpha == nil || w.Rho == nil || w.Beta == nil || w.Sigma == nil || w.Tau == nil {
		return nil, ErrNilValue
	}
	defer n.Zero()

	// τ - σα
	tauTerm := new(big.Int).Mul(w.Sigma, w.Alpha)
	tauTerm.Sub(w.Tau, tauTerm)
	defer security.SecureZeroBigInt(tauTerm)

	pairs := [MulResponseSize][2]*big.Int{
		{n.d, w.Beta},
		{n.s, w.Sigma},
		{n.x, w.Alpha},
		{n.s1, w.Rho},
		{n.s2, tauTerm},
	}

	resp := &MulResponse{}
	for i, p := range pairs {
		z := new(big.Int).Mul(e, p[1])
		z.Add(z, p[0])
		resp.R[i] = z.Mod(z, order)
	}
	return resp, nil
}

// Zero wipes the nonces and marks them consumed
func (n *MulNonces) Zero() {
	security.SecureZeroBigInts(n.d, n.s, n.x, n.s1, n.s2)
	n.consumed = true
}

// VerifyMul checks the three GRR98 equations for challenge e:
//
//	g^{z0} h^{z1} = M1 · B^e
//	g^{z2} h^{z3} = M2 · A^e
//	B^{z2} h^{z4} = M3 · C^e
func VerifyMul(params *commitment.Params, st *MulStatement, c *MulCommitment, e *big.Int, r *MulResponse) error {
	if params == nil || st == nil || c == nil || r == nil || e == nil {
		return ErrNilValue
	}
	if st.A == nil || st.B == nil || st.C == nil || c.M1 == nil || c.M2 == nil || c.M3 == nil {
		return ErrNilElement
	}
	for i, z := range r.R {
		if z == nil {
			return fmt.Errorf("%w: response %d missing", ErrInvalidProof, i)
		}
	}

	g := params.Group

	lhs, _ := params.Commit(r.R[0], r.R[1])
	if !lhs.Equal(g.Mul(c.M1, g.Exp(st.B, e))) {
		return fmt.Errorf("%w: knowledge of b's opening", ErrInvalidProof)
	}

	lhs, _ = params.Commit(r.R[2], r.R[3])
	if !lhs.Equal(g.Mul(c.M2, g.Exp(st.A, e))) {
		return fmt.Errorf("%w: knowledge of a's opening", ErrInvalidProof)
	}

	lhs = g.Mul(g.Exp(st.B, r.R[2]), g.Exp(params.H, r.R[4]))
	if !lhs.Equal(g.Mul(c.M3, g.Exp(st.C, e))) {
		return fmt.Errorf("%w: product relation", ErrInvalidProof)
	}
	return nil
}

// WireMulCommitment is the serializable form of a MulCommitment
type WireMulCommitment struct {
	M1, M2, M3 []byte
}

// WireMulResponse is the serializable form of a MulResponse
type WireMulResponse struct {
	R [][]byte
}

// ToWire converts the commitment to its serializable form
func (c *MulCommitment) ToWire() *WireMulCommitment {
	return &WireMulCommitment{M1: c.M1.Bytes(), M2: c.M2.Bytes(), M3: c.M3.Bytes()}
}

// MulCommitmentFromWire decodes a commitment
func MulCommitmentFromWire(g group.Group, w *WireMulCommitment) (*MulCommitment, error) {
	if w == nil {
		return nil, ErrInvalidProof
	}
	elems := make([]group.Element, 3)
	for i, b := range [][]byte{w.M1, w.M2, w.M3} {
		e, err := g.ElementFromBytes(b)
		if err != nil {
			return nil, fmt.Errorf("%w: M%d: %v", ErrInvalidProof, i+1, err)
		}
		elems[i] = e
	}
	return &MulCommitment{M1: elems[0], M2: elems[1], M3: elems[2]}, nil
}

// ToWire converts the response to its serializable form
func (r *MulResponse) ToWire() *WireMulResponse {
	w := &WireMulResponse{R: make([][]byte, MulResponseSize)}
	for i, z := range r.R {
		w.R[i] = z.Bytes()
	}
	return w
}

// MulResponseFromWire decodes a response
func MulResponseFromWire(w *WireMulResponse) (*MulResponse, error) {
	if w == nil || len(w.R) != MulResponseSize {
		return nil, ErrInvalidProof
	}
	r := &MulResponse{}
	for i, b := range w.R {
		r.R[i] = new(big.Int).SetBytes(b)
	}
	return r, nil
}
