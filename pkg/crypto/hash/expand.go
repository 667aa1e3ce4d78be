package hash

import "crypto/sha256"

// ExpandMessageXMD implements expand_message_xmd from RFC 9380 with SHA-256.
// It produces lenInBytes uniform bytes bound to msg and the domain
// separation tag dst. lenInBytes must not exceed 255*32 and dst must be at
// most 255 bytes.
func ExpandMessageXMD(msg, dst []byte, lenInBytes int) ([]byte, error) {
	const bInBytes = 32
	const rInBytes = 64

	ell := (lenInBytes + bInBytes - 1) / bInBytes
	if lenInBytes <= 0 || ell > 255 || len(dst) > 255 {
		return nil, ErrInvalidLength
	}

	// DST_prime = DST || I2OSP(len(DST), 1)
	dstPrime := make([]byte, 0, len(dst)+1)
	dstPrime = append(dstPrime, dst...)
	dstPrime = append(dstPrime, byte(len(dst)))

	// msg_prime = Z_pad || msg || I2OSP(len_in_bytes, 2) || I2OSP(0, 1) || DST_prime
	h := sha256.New()
	h.Write(make([]byte, rInBytes))
	h.Write(msg)
	h.Write([]byte{byte(lenInBytes >> 8), byte(lenInBytes), 0})
	h.Write(dstPrime)
	b0 := h.Sum(nil)

	// b_1 = H(b_0 || I2OSP(1, 1) || DST_prime)
	h.Reset()
	h.Write(b0)
	h.Write([]byte{1})
	h.Write(dstPrime)
	bi := h.Sum(nil)

	uniform := make([]byte, 0, ell*bInBytes)
	uniform = append(uniform, bi...)

	strxor := make([]byte, bInBytes)
	for i := 2; i <= ell; i++ {
		// b_i = H(strxor(b_0, b_(i-1)) || I2OSP(i, 1) || DST_prime)
		for j := 0; j < bInBytes; j++ {
			strxor[j] = b0[j] ^ bi[j]
		}

		h.Reset()
		h.Write(strxor)
		h.Write([]byte{byte(i)})
		h.Write(dstPrime)
		bi = h.Sum(nil)

		uniform = append(uniform, bi...)
	}

	return uniform[:lenInBytes], nil
}
