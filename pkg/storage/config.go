package storage

import (
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
)

// Config contains configuration for share storage
type Config struct {
	// FilePath is the path where the share is stored
	FilePath string

	// FileMode is the Unix file permissions (default: 0600)
	FileMode os.FileMode

	// Argon2 KDF parameters
	Argon2Time    uint32 // Time cost (iterations)
	Argon2Memory  uint32 // Memory cost (KB)
	Argon2Threads uint8  // Parallelism
	Argon2KeyLen  uint32 // Derived key length

	// MinPasswordLength is the minimum password length
	MinPasswordLength int
}

// DefaultConfig returns a secure default configuration
func DefaultConfig(filePath string) *Config {
	return &Config{
		FilePath:          filePath,
		FileMode:          0600,
		Argon2Time:        3,
		Argon2Memory:      64 * 1024, // 64 MB
		Argon2Threads:     4,
		Argon2KeyLen:      32,
		MinPasswordLength: 12,
	}
}

// Validate validates the storage configuration
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	if c.FileMode&0077 != 0 {
		return fmt.Errorf("insecure file permissions: %o (should be 0600)", c.FileMode)
	}

	if c.Argon2Time < 1 {
		return fmt.Errorf("argon2 time cost must be at least 1")
	}

	if c.Argon2Memory < 8*1024 {
		return fmt.Errorf("argon2 memory cost must be at least 8 MB")
	}

	if c.Argon2Threads < 1 {
		return fmt.Errorf("argon2 threads must be at least 1")
	}

	if c.Argon2KeyLen != 32 {
		return fmt.Errorf("key length must be 32 bytes for AES-256")
	}

	if c.MinPasswordLength < 8 {
		return fmt.Errorf("minimum password length must be at least 8")
	}

	return nil
}

// deriveKey derives an encryption key from password using Argon2id
func (c *Config) deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, c.Argon2Time, c.Argon2Memory, c.Argon2Threads, c.Argon2KeyLen)
}

// validatePassword requires the minimum length and both letters and digits
func (c *Config) validatePassword(password string) error {
	if len(password) < c.MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, c.MinPasswordLength)
	}

	hasLetter := false
	hasNumber := false
	for _, ch := range password {
		if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' {
			hasLetter = true
		}
		if ch >= '0' && ch <= '9' {
			hasNumber = true
		}
	}

	if !hasLetter || !hasNumber {
		return fmt.Errorf("%w: must contain both letters and numbers", ErrWeakPassword)
	}

	return nil
}
