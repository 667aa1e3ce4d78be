package security

import (
	"crypto/subtle"
	"math/big"
)

// ConstantTimeCompare reports whether a and b hold the same bytes
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// SecureCompareScalars compares two non-negative scalars over a common
// fixed-width encoding. Nil or negative values never compare equal.
func SecureCompareScalars(a, b *big.Int) bool {
	if a == nil || b == nil || a.Sign() < 0 || b.Sign() < 0 {
		return false
	}

	width := max((a.BitLen()+7)/8, (b.BitLen()+7)/8, 1)
	return subtle.ConstantTimeCompare(a.FillBytes(make([]byte, width)), b.FillBytes(make([]byte, width))) == 1
}
