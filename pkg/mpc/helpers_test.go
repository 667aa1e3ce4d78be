package mpc

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Caqil/pedersen-mpc/internal/math"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
	"github.com/Caqil/pedersen-mpc/pkg/network"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
)

const testTimeout = 30 * time.Second

type wrapFunc func(self, peer int, ch network.Channel) network.Channel

func newTestContext(t *testing.T, gt group.GroupType) *vss.GroupContext {
	t.Helper()
	gctx, err := vss.NewGroupContextFor(gt)
	require.NoError(t, err)
	return gctx
}

// newParties connects n parties over a memory mesh. wrap, when set, may
// replace the channel from self to peer.
func newParties(t *testing.T, gctx *vss.GroupContext, cfg *Config, wrap wrapFunc, opts ...func(i int) []Option) []*Party {
	t.Helper()

	mesh, err := network.NewMemoryMesh(cfg.Parties)
	require.NoError(t, err)
	t.Cleanup(mesh.Close)

	parties := make([]*Party, cfg.Parties)
	for i := range parties {
		slots, err := mesh.Slots(i)
		require.NoError(t, err)

		if wrap != nil {
			slots, err = slots.Wrap(func(peer int, ch network.Channel) (network.Channel, error) {
				return wrap(i, peer, ch), nil
			})
			require.NoError(t, err)
		}

		var partyOpts []Option
		for _, o := range opts {
			partyOpts = append(partyOpts, o(i)...)
		}
		parties[i], err = NewParty(gctx, slots, cfg, partyOpts...)
		require.NoError(t, err)
	}
	return parties
}

// runParties runs fn for every party; the first failure cancels the others
func runParties(t *testing.T, parties []*Party, fn func(ctx context.Context, p *Party) error) []error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	errs := make([]error, len(parties))
	for i, p := range parties {
		i, p := i, p
		g.Go(func() error {
			errs[i] = fn(gctx, p)
			return errs[i]
		})
	}
	_ = g.Wait()
	return errs
}

// runIndependent runs fn for every party without cancelling the others
// when one fails
func runIndependent(t *testing.T, parties []*Party, timeout time.Duration, fn func(ctx context.Context, p *Party) error) []error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, len(parties))
	for i, p := range parties {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = fn(ctx, p)
		}()
	}
	wg.Wait()
	return errs
}

func mustCache(t *testing.T, gctx *vss.GroupContext) *math.VandermondeCache {
	t.Helper()
	cache, err := math.NewVandermondeCache(gctx.Order())
	require.NoError(t, err)
	return cache
}

// dealLocally shares value without running a protocol; shares[i] belongs
// to the party at slot i
func dealLocally(t *testing.T, gctx *vss.GroupContext, value int64, threshold, n int) []*vss.Share {
	t.Helper()
	shares, err := vss.ShareValue(gctx, big.NewInt(value), threshold, n)
	require.NoError(t, err)
	return shares
}

// tamperChannel rewrites outgoing messages of one type
type tamperChannel struct {
	network.Channel
	msgType network.MessageType
	mutate  func(msg *network.Message) error
}

func (c *tamperChannel) Send(ctx context.Context, data []byte) error {
	msg, err := network.DeserializeMessage(data)
	if err == nil && msg.Type == c.msgType {
		if err := c.mutate(msg); err != nil {
			return err
		}
		if data, err = msg.Serialize(); err != nil {
			return err
		}
	}
	return c.Channel.Send(ctx, data)
}

// rewrite decodes the payload as T, applies edit and re-encodes it
func rewrite[T any](edit func(body *T)) func(msg *network.Message) error {
	return func(msg *network.Message) error {
		var body T
		if err := msg.Decode(&body); err != nil {
			return err
		}
		edit(&body)
		payload, err := network.EncodePayload(&body)
		if err != nil {
			return err
		}
		msg.Payload = payload
		return nil
	}
}

// tamper returns a wrapFunc that applies mutate to msgType messages sent
// from slot `from` to any slot in `to`
func tamper(from int, to []int, msgType network.MessageType, mutate func(msg *network.Message) error) wrapFunc {
	return func(self, peer int, ch network.Channel) network.Channel {
		if self != from {
			return ch
		}
		for _, p := range to {
			if p == peer {
				return &tamperChannel{Channel: ch, msgType: msgType, mutate: mutate}
			}
		}
		return ch
	}
}

// chain applies wraps in order
func chain(wraps ...wrapFunc) wrapFunc {
	return func(self, peer int, ch network.Channel) network.Channel {
		for _, w := range wraps {
			ch = w(self, peer, ch)
		}
		return ch
	}
}

func increment(b []byte) []byte {
	return new(big.Int).Add(new(big.Int).SetBytes(b), big.NewInt(1)).Bytes()
}

func requireCheat(t *testing.T, err error, party int) {
	t.Helper()
	var cheat *vss.CheatDetectedError
	require.ErrorAs(t, err, &cheat)
	require.Equal(t, party, cheat.Party, "blamed party (%s)", cheat.Reason)
	require.ErrorIs(t, err, vss.ErrCheatDetected)
}
