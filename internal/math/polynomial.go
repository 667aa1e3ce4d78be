// Package math provides the modular arithmetic behind Pedersen sharing:
// polynomials over Z_q, Lagrange coefficients and Vandermonde inverses.
package math

import (
	"math/big"

	"github.com/Caqil/pedersen-mpc/internal/security"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/rand"
)

// Polynomial represents a polynomial over a finite field (mod q)
// f(x) = coefficients[0] + coefficients[1]*x + coefficients[2]*x^2 + ...
type Polynomial struct {
	// Coefficients in ascending order (index 0 is constant term)
	Coefficients []*big.Int

	// Modulus is the field modulus (the group order)
	Modulus *big.Int
}

// NewPolynomial creates a new polynomial with given coefficients
func NewPolynomial(coefficients []*big.Int, modulus *big.Int) (*Polynomial, error) {
	if len(coefficients) == 0 {
		return nil, ErrEmptyCoefficients
	}
	if modulus == nil || modulus.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}

	normalized := make([]*big.Int, len(coefficients))
	for i, coef := range coefficients {
		if coef == nil {
			normalized[i] = big.NewInt(0)
		} else {
			normalized[i] = new(big.Int).Mod(coef, modulus)
		}
	}

	return &Polynomial{
		Coefficients: normalized,
		Modulus:      modulus,
	}, nil
}

// NewRandomPolynomial generates a polynomial of the given degree whose
// non-constant coefficients are uniform in [0, q). A nil constantTerm is
// replaced by a uniform value as well.
func NewRandomPolynomial(degree int, constantTerm *big.Int, modulus *big.Int) (*Polynomial, error) {
	if degree < 0 {
		return nil, ErrInvalidDegree
	}
	if modulus == nil || modulus.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}

	coefficients := make([]*big.Int, degree+1)

	if constantTerm != nil {
		coefficients[0] = new(big.Int).Mod(constantTerm, modulus)
	} else {
		c, err := rand.GenerateScalar(modulus)
		if err != nil {
			return nil, err
		}
		coefficients[0] = c
	}

	for i := 1; i <= degree; i++ {
		coef, err := rand.GenerateScalar(modulus)
		if err != nil {
			return nil, err
		}
		coefficients[i] = coef
	}

	return &Polynomial{
		Coefficients: coefficients,
		Modulus:      modulus,
	}, nil
}

// Evaluate evaluates the polynomial at point x: f(x) mod q
// Uses Horner's method
func (p *Polynomial) Evaluate(x *big.Int) *big.Int {
	n := len(p.Coefficients)
	if x == nil || n == 0 {
		return big.NewInt(0)
	}

	xMod := new(big.Int).Mod(x, p.Modulus)

	// f(x) = a₀ + x(a₁ + x(a₂ + x(a₃ + ...)))
	result := new(big.Int).Set(p.Coefficients[n-1])
	for i := n - 2; i >= 0; i-- {
		result.Mul(result, xMod)
		result.Add(result, p.Coefficients[i])
		result.Mod(result, p.Modulus)
	}

	return result
}

// EvaluateRange evaluates the polynomial at the party indices 1..n.
// Element i of the result is f(i+1).
func (p *Polynomial) EvaluateRange(n int) []*big.Int {
	results := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		results[i] = p.Evaluate(big.NewInt(int64(i + 1)))
	}
	return results
}

// Zero overwrites every coefficient with zero. Dealers call it once the
// evaluations and commitments have been produced.
func (p *Polynomial) Zero() {
	for _, coef := range p.Coefficients {
		security.SecureZeroBigInt(coef)
	}
}
