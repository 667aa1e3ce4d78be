// Package mpc runs the interactive Pedersen protocols between a fixed set
// of parties: share distribution with a commitment-equality round, opening,
// joint random sharing, commit/reveal coin tossing, zero-knowledge verified
// multiplication and reveal-in-exponent.
//
// A Party is a single logical thread of control. Its methods must not be
// called concurrently; independent protocol runs need independent slots.
package mpc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Caqil/pedersen-mpc/internal/math"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/rand"
	"github.com/Caqil/pedersen-mpc/pkg/logger"
	"github.com/Caqil/pedersen-mpc/pkg/network"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
)

// DefaultSession is used when no session is configured. Every party of a
// run must use the same session identifier.
var DefaultSession = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:pedersen-mpc:default-session"))

// Party is one participant of a protocol session
type Party struct {
	gctx    *vss.GroupContext
	slots   *network.Slots
	cfg     *Config
	log     *logger.Logger
	lambdas *math.VandermondeCache
	metrics *Metrics
	session uuid.UUID

	// per-peer message counters, indexed by slot position
	sendSeq []uint64
	recvSeq []uint64

	// bundles sent to non-shareholders
	bundleSeq uint64

	// coinSource draws this party's coin contributions
	coinSource func(size int) ([]byte, error)
}

// Option configures a Party
type Option func(*Party)

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(p *Party) { p.log = l }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *Metrics) Option {
	return func(p *Party) { p.metrics = m }
}

// WithVandermondeCache shares a Lagrange coefficient cache between parties
// or sessions over the same group
func WithVandermondeCache(c *math.VandermondeCache) Option {
	return func(p *Party) { p.lambdas = c }
}

// WithSession sets the session identifier carried by every message
func WithSession(id uuid.UUID) Option {
	return func(p *Party) { p.session = id }
}

// NewParty binds a party to its channel slots. The party's share index is
// its slot position plus one.
func NewParty(gctx *vss.GroupContext, slots *network.Slots, cfg *Config, opts ...Option) (*Party, error) {
	if gctx == nil {
		return nil, vss.ErrNilGroup
	}
	if slots == nil {
		return nil, fmt.Errorf("%w: nil slots", ErrInvalidConfig)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if slots.Len() != cfg.Parties {
		return nil, fmt.Errorf("%w: %d slots for %d parties", ErrInvalidConfig, slots.Len(), cfg.Parties)
	}

	p := &Party{
		gctx:    gctx,
		slots:   slots,
		cfg:     cfg,
		log:     logger.Nop(),
		session: DefaultSession,
		sendSeq:    make([]uint64, slots.Len()),
		recvSeq:    make([]uint64, slots.Len()),
		coinSource: rand.GenerateRandomBytes,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.lambdas == nil {
		cache, err := math.NewVandermondeCache(gctx.Order())
		if err != nil {
			return nil, err
		}
		p.lambdas = cache
	}
	if p.lambdas.Modulus().Cmp(gctx.Order()) != 0 {
		return nil, fmt.Errorf("%w: coefficient cache built for another group", ErrInvalidConfig)
	}

	p.log = p.log.ForParty(p.Index()).ForSession(p.session, gctx.Group().Name())
	return p, nil
}

// Index returns the party's 1-based share index
func (p *Party) Index() int { return p.slots.Self() + 1 }

// Parties returns the number of parties
func (p *Party) Parties() int { return p.slots.Len() }

// Config returns the party's configuration
func (p *Party) Config() *Config { return p.cfg }

// GroupContext returns the public group parameters
func (p *Party) GroupContext() *vss.GroupContext { return p.gctx }

// Session returns the session identifier
func (p *Party) Session() uuid.UUID { return p.session }

// begin applies the configured per-invocation timeout
func (p *Party) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, p.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}
