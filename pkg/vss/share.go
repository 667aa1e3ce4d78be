package vss

import (
	"fmt"
	"math/big"

	"github.com/Caqil/pedersen-mpc/internal/security"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
)

// Share is one party's point on a Pedersen-shared polynomial pair.
//
// Data and Blind are secret. Commitments are public and identical for
// every share of the same sharing; they hold one element per coefficient.
type Share struct {
	// Index is the 1-based evaluation point of this share
	Index int

	// Threshold is the number of shares needed to reconstruct
	Threshold int

	// Data is f(Index) for the data polynomial
	Data *big.Int

	// Blind is r(Index) for the blinding polynomial
	Blind *big.Int

	// Commitments holds C_i = g^{a_i} h^{b_i} for i in [0, Threshold)
	Commitments []group.Element
}

// ComputeMAC evaluates the commitments in the exponent at index:
// ∏ C_i^{index^i} = g^{f(index)} h^{r(index)}.
// This is the public authenticity tag of the share held by party index.
func (s *Share) ComputeMAC(ctx *GroupContext, index int) (group.Element, error) {
	if index < 1 {
		return nil, fmt.Errorf("%w: index %d", ErrInvalidInput, index)
	}
	if len(s.Commitments) == 0 {
		return nil, fmt.Errorf("%w: share has no commitments", ErrInvalidInput)
	}

	g := ctx.Group()
	x := big.NewInt(int64(index))
	power := big.NewInt(1)
	mac := g.Identity()
	for _, c := range s.Commitments {
		if c == nil {
			return nil, fmt.Errorf("%w: nil commitment", ErrInvalidInput)
		}
		mac = g.Mul(mac, g.Exp(c, power))
		power = ctx.mod(new(big.Int).Mul(power, x))
	}
	return mac, nil
}

// Validate runs the Feldman check g^Data h^Blind == MAC(Index).
// A failure is reported as a *CheatDetectedError naming the share's index.
func (s *Share) Validate(ctx *GroupContext) error {
	if err := s.checkShape(); err != nil {
		return NewCheatDetected(s.Index, "malformed share: %v", err)
	}

	mac, err := s.ComputeMAC(ctx, s.Index)
	if err != nil {
		return NewCheatDetected(s.Index, "malformed share: %v", err)
	}
	if !mac.Equal(ctx.Commit(s.Data, s.Blind)) {
		return NewCheatDetected(s.Index, "share does not match commitments")
	}
	return nil
}

// Add returns the share of the sum. Both shares must have the same index
// and threshold.
func (s *Share) Add(ctx *GroupContext, other *Share) (*Share, error) {
	if err := s.compatible(other); err != nil {
		return nil, err
	}

	g := ctx.Group()
	commitments := make([]group.Element, len(s.Commitments))
	for i := range s.Commitments {
		commitments[i] = g.Mul(s.Commitments[i], other.Commitments[i])
	}

	return &Share{
		Index:       s.Index,
		Threshold:   s.Threshold,
		Data:        ctx.mod(new(big.Int).Add(s.Data, other.Data)),
		Blind:       ctx.mod(new(big.Int).Add(s.Blind, other.Blind)),
		Commitments: commitments,
	}, nil
}

// ScalarMultiply returns the share of c times the shared value
func (s *Share) ScalarMultiply(ctx *GroupContext, c *big.Int) (*Share, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil scalar", ErrInvalidInput)
	}
	if err := s.checkShape(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	g := ctx.Group()
	commitments := make([]group.Element, len(s.Commitments))
	for i, ci := range s.Commitments {
		commitments[i] = g.Exp(ci, c)
	}

	return &Share{
		Index:       s.Index,
		Threshold:   s.Threshold,
		Data:        ctx.mod(new(big.Int).Mul(s.Data, c)),
		Blind:       ctx.mod(new(big.Int).Mul(s.Blind, c)),
		Commitments: commitments,
	}, nil
}

// SameCommitments reports whether both shares belong to the same sharing
func (s *Share) SameCommitments(other *Share) bool {
	if other == nil || len(s.Commitments) != len(other.Commitments) {
		return false
	}
	for i := range s.Commitments {
		if s.Commitments[i] == nil || !s.Commitments[i].Equal(other.Commitments[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. Group elements are immutable and are shared.
func (s *Share) Clone() *Share {
	c := &Share{
		Index:       s.Index,
		Threshold:   s.Threshold,
		Commitments: append([]group.Element(nil), s.Commitments...),
	}
	if s.Data != nil {
		c.Data = new(big.Int).Set(s.Data)
	}
	if s.Blind != nil {
		c.Blind = new(big.Int).Set(s.Blind)
	}
	return c
}

// Zero wipes the secret values
func (s *Share) Zero() {
	security.SecureZeroBigInts(s.Data, s.Blind)
}

func (s *Share) checkShape() error {
	switch {
	case s.Index < 1:
		return fmt.Errorf("index %d", s.Index)
	case s.Threshold < 1:
		return fmt.Errorf("threshold %d", s.Threshold)
	case len(s.Commitments) != s.Threshold:
		return fmt.Errorf("%d commitments for threshold %d", len(s.Commitments), s.Threshold)
	case s.Data == nil || s.Blind == nil:
		return fmt.Errorf("nil share value")
	}
	return nil
}

func (s *Share) compatible(other *Share) error {
	if other == nil {
		return fmt.Errorf("%w: nil share", ErrInvalidInput)
	}
	if s.Index != other.Index {
		return fmt.Errorf("%w: index %d != %d", ErrInvalidInput, s.Index, other.Index)
	}
	if s.Threshold != other.Threshold {
		return fmt.Errorf("%w: threshold %d != %d", ErrInvalidInput, s.Threshold, other.Threshold)
	}
	if err := s.checkShape(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := other.checkShape(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
