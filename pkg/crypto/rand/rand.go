// Package rand provides cryptographically secure random number generation
package rand

import (
	"crypto/rand"
	"io"
	"math/big"
)

// Reader is the randomness source for every helper in this package.
// Tests may replace it with a deterministic reader.
var Reader io.Reader = rand.Reader

// GenerateRandomBytes generates n cryptographically secure random bytes
func GenerateRandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}

	bytes := make([]byte, n)
	if _, err := io.ReadFull(Reader, bytes); err != nil {
		return nil, err
	}

	return bytes, nil
}

// GenerateScalar returns a uniform value in [0, max). Polynomial
// coefficients and proof nonces are drawn from here.
func GenerateScalar(max *big.Int) (*big.Int, error) {
	if max == nil {
		return nil, ErrNilMax
	}
	if max.Sign() <= 0 {
		return nil, ErrInvalidMax
	}

	return rand.Int(Reader, max)
}

// GenerateRandomScalar generates a random scalar in range [1, max)
func GenerateRandomScalar(max *big.Int) (*big.Int, error) {
	if max == nil {
		return nil, ErrNilMax
	}
	if max.Cmp(big.NewInt(1)) <= 0 {
		return nil, ErrInvalidMax
	}

	for {
		value, err := rand.Int(Reader, max)
		if err != nil {
			return nil, err
		}
		// Rejecting zero keeps the distribution uniform over [1, max)
		if value.Sign() != 0 {
			return value, nil
		}
	}
}
