package network

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"
)

// EncryptedChannel seals every message with AES-256-GCM. Each direction
// has its own key derived from the pair's shared secret, so a message
// reflected back to its sender fails to open.
type EncryptedChannel struct {
	inner Channel
	send  cipher.AEAD
	recv  cipher.AEAD

	// Nonce tracker to prevent replays
	nonceTracker *nonceTracker
}

// nonceTracker prevents nonce reuse attacks
type nonceTracker struct {
	used map[string]bool
	mu   sync.Mutex
	// Maximum size before cleanup (prevent memory exhaustion)
	maxSize int
}

// newNonceTracker creates a new nonce tracker
func newNonceTracker(maxSize int) *nonceTracker {
	return &nonceTracker{
		used:    make(map[string]bool),
		maxSize: maxSize,
	}
}

// checkAndMarkUsed checks if nonce was used and marks it as used
func (nt *nonceTracker) checkAndMarkUsed(nonce []byte) bool {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	nonceStr := string(nonce)
	if nt.used[nonceStr] {
		return false
	}

	if len(nt.used) >= nt.maxSize {
		for k := range nt.used {
			delete(nt.used, k)
			if len(nt.used) < nt.maxSize/2 {
				break
			}
		}
	}

	nt.used[nonceStr] = true
	return true
}

// NewEncryptedChannel wraps inner for the link between positions self and
// peer. Both ends must use the same sharedSecret.
func NewEncryptedChannel(inner Channel, sharedSecret []byte, self, peer int) (*EncryptedChannel, error) {
	if len(sharedSecret) < 32 {
		return nil, ErrEncryptionFailed
	}
	if self == peer {
		return nil, ErrSelfConnection
	}

	send, err := directionalAEAD(sharedSecret, self, peer)
	if err != nil {
		return nil, err
	}
	recv, err := directionalAEAD(sharedSecret, peer, self)
	if err != nil {
		return nil, err
	}

	return &EncryptedChannel{
		inner:        inner,
		send:         send,
		recv:         recv,
		nonceTracker: newNonceTracker(10000),
	}, nil
}

// directionalAEAD derives the AES-GCM key for messages from -> to
func directionalAEAD(secret []byte, from, to int) (cipher.AEAD, error) {
	salt := []byte("pedersen-mpc-channel-v1")
	info := []byte(fmt.Sprintf("aes-gcm:%d->%d", from, to))

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, info), key); err != nil {
		return nil, ErrEncryptionFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrEncryptionFailed
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrEncryptionFailed
	}
	return aead, nil
}

// Send encrypts data as nonce || ciphertext || tag
func (c *EncryptedChannel) Send(ctx context.Context, data []byte) error {
	nonce := make([]byte, c.send.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return ErrEncryptionFailed
	}

	sealed := c.send.Seal(nonce, nonce, data, nil)
	return c.inner.Send(ctx, sealed)
}

// Receive decrypts the next message, rejecting replays and forgeries
func (c *EncryptedChannel) Receive(ctx context.Context) ([]byte, error) {
	sealed, err := c.inner.Receive(ctx)
	if err != nil {
		return nil, err
	}

	nonceSize := c.recv.NonceSize()
	if len(sealed) < nonceSize+c.recv.Overhead() {
		return nil, ErrDecryptionFailed
	}

	nonce := sealed[:nonceSize]
	plaintext, err := c.recv.Open(nil, nonce, sealed[nonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	if !c.nonceTracker.checkAndMarkUsed(nonce) {
		return nil, ErrInvalidNonce
	}
	return plaintext, nil
}

// GenerateSharedSecret generates a shared secret for a pair of parties
func GenerateSharedSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, ErrEncryptionFailed
	}
	return secret, nil
}

// DeriveSessionKey derives a session-specific key from a shared secret
func DeriveSessionKey(sharedSecret, sessionID []byte) ([]byte, error) {
	if len(sharedSecret) < 32 {
		return nil, ErrEncryptionFailed
	}

	salt := []byte("pedersen-mpc-session-key-v1")
	info := append([]byte("session:"), sessionID...)

	kdf := hkdf.New(sha256.New, sharedSecret, salt, info)

	sessionKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, sessionKey); err != nil {
		return nil, ErrEncryptionFailed
	}

	return sessionKey, nil
}
