package commitment

import (
	"github.com/Caqil/pedersen-mpc/internal/security"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/hash"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/rand"
)

// SaltSize is the length of the random salt mixed into hash commitments
const SaltSize = 32

var hashCommitDomain = []byte("PEDERSEN-MPC-V1-HASH-COMMIT")

// HashCommitment binds a party to a byte string before it is revealed.
// Digest is public; Salt and Value stay private until the reveal.
type HashCommitment struct {
	Digest []byte
	Salt   []byte
	Value  []byte
}

// NewHashCommitment commits to value as H(domain || salt || value). The
// salt keeps short values (a single coin byte) from being brute forced
// out of the digest.
func NewHashCommitment(value []byte, hashFunc hash.HashFunction) (*HashCommitment, error) {
	if len(value) == 0 {
		return nil, ErrEmptyValue
	}

	salt, err := rand.GenerateRandomBytes(SaltSize)
	if err != nil {
		return nil, err
	}

	return &HashCommitment{
		Digest: hash.HashCommit(commitInput(salt, value), hashFunc),
		Salt:   salt,
		Value:  append([]byte(nil), value...),
	}, nil
}

// VerifyHashCommitment checks a revealed (salt, value) against a digest
func VerifyHashCommitment(digest, salt, value []byte, hashFunc hash.HashFunction) bool {
	if len(digest) == 0 || len(salt) != SaltSize || len(value) == 0 {
		return false
	}
	return hash.VerifyHashCommit(digest, commitInput(salt, value), hashFunc)
}

// Zero wipes the opening information
func (hc *HashCommitment) Zero() {
	security.SecureZero(hc.Salt)
	security.SecureZero(hc.Value)
}

func commitInput(salt, value []byte) []byte {
	data := make([]byte, 0, len(hashCommitDomain)+len(salt)+len(value))
	data = append(data, hashCommitDomain...)
	data = append(data, salt...)
	data = append(data, value...)
	return data
}
