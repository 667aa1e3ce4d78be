// Package security provides validation and secret-handling helpers
package security

import (
	"crypto/subtle"
	"math/big"
	"runtime"
)

// SecureZero overwrites a byte slice with zeros
func SecureZero(data []byte) {
	if len(data) == 0 {
		return
	}

	zeros := make([]byte, len(data))
	subtle.ConstantTimeCopy(1, data, zeros)

	runtime.KeepAlive(data)
}

// SecureZeroBigInt clears a big.Int in place
// The backing words returned by Bits are overwritten before the value is reset.
func SecureZeroBigInt(b *big.Int) {
	if b == nil {
		return
	}

	words := b.Bits()
	for i := range words {
		words[i] = 0
	}
	b.SetInt64(0)

	runtime.KeepAlive(b)
}

// SecureZeroBigInts clears every value in the slice
func SecureZeroBigInts(values ...*big.Int) {
	for _, v := range values {
		SecureZeroBigInt(v)
	}
}
