package mpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/Caqil/pedersen-mpc/internal/security"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/hash"
)

// ExclusionPolicy decides what a failed per-contributor check does during
// multiplication
type ExclusionPolicy int

const (
	// AbortOnCheat fails the multiplication with CheatDetected on the first
	// rejected contribution
	AbortOnCheat ExclusionPolicy = iota

	// ExcludeCheaters drops rejected contributions and continues as long as
	// enough remain to interpolate the product
	ExcludeCheaters
)

// String returns the policy name
func (p ExclusionPolicy) String() string {
	switch p {
	case AbortOnCheat:
		return "abort"
	case ExcludeCheaters:
		return "exclude"
	default:
		return "unknown"
	}
}

// ParseExclusionPolicy parses "abort" or "exclude"
func ParseExclusionPolicy(name string) (ExclusionPolicy, error) {
	switch strings.ToLower(name) {
	case "abort", "":
		return AbortOnCheat, nil
	case "exclude":
		return ExcludeCheaters, nil
	default:
		return 0, fmt.Errorf("%w: unknown exclusion policy %q", ErrInvalidConfig, name)
	}
}

// Config holds the parameters every party of a session must agree on
type Config struct {
	// Threshold is the number of shares needed to reconstruct
	Threshold int

	// Parties is the total number of parties
	Parties int

	// CommitHash is used for coin-toss commitments
	CommitHash hash.HashFunction

	// Exclusion is the multiplication cheat policy
	Exclusion ExclusionPolicy

	// Timeout bounds a single protocol invocation; zero disables it
	Timeout time.Duration
}

// DefaultConfig returns a configuration for a (threshold, parties) setup
func DefaultConfig(threshold, parties int) *Config {
	return &Config{
		Threshold:  threshold,
		Parties:    parties,
		CommitHash: hash.SHA512,
		Exclusion:  AbortOnCheat,
		Timeout:    30 * time.Second,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := security.ValidatePartyCount(c.Parties); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := security.ValidateThreshold(c.Threshold, c.Parties); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := hash.ParseHashFunction(c.CommitHash.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Exclusion != AbortOnCheat && c.Exclusion != ExcludeCheaters {
		return fmt.Errorf("%w: exclusion policy %d", ErrInvalidConfig, c.Exclusion)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	return nil
}

// MultiplicationThreshold is the number of accepted contributions needed to
// interpolate a product: the product polynomial has degree 2t-2
func (c *Config) MultiplicationThreshold() int {
	return 2*c.Threshold - 1
}
