package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Caqil/pedersen-mpc/internal/math"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
	"github.com/Caqil/pedersen-mpc/pkg/logger"
	"github.com/Caqil/pedersen-mpc/pkg/mpc"
	"github.com/Caqil/pedersen-mpc/pkg/network"
	"github.com/Caqil/pedersen-mpc/pkg/storage"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
)

// outcome is what one party observed
type outcome struct {
	product  *big.Int
	coin     []byte
	revealed group.Element
	expected group.Element
}

func run(ctx context.Context, opts *options, out io.Writer) error {
	log := logger.New(opts.log)

	gctx, err := vss.NewGroupContextFor(opts.group)
	if err != nil {
		return err
	}
	cache, err := math.NewVandermondeCache(gctx.Order())
	if err != nil {
		return err
	}

	n := opts.mpc.Parties
	mesh, err := network.NewMemoryMesh(n)
	if err != nil {
		return err
	}
	defer mesh.Close()

	secrets, err := pairSecrets(n, opts.encrypt)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := mpc.NewMetrics(reg)
	session := uuid.New()

	parties := make([]*mpc.Party, n)
	for i := range parties {
		slots, err := mesh.Slots(i)
		if err != nil {
			return err
		}
		if slots, err = wrapSlots(slots, i, secrets, opts.rate); err != nil {
			return err
		}
		parties[i], err = mpc.NewParty(gctx, slots, opts.mpc,
			mpc.WithLogger(log.ForParty(i+1)),
			mpc.WithMetrics(metrics),
			mpc.WithVandermondeCache(cache),
			mpc.WithSession(session),
		)
		if err != nil {
			return err
		}
	}

	log.InfoEvent().
		Str("group", opts.group.String()).
		Int("threshold", opts.mpc.Threshold).
		Int("parties", n).
		Str("session", session.String()).
		Msg("starting session")

	start := time.Now()
	results := make([]*outcome, n)
	g, runCtx := errgroup.WithContext(ctx)
	for i, p := range parties {
		i, p := i, p
		g.Go(func() error {
			res, err := runParty(runCtx, p, opts)
			if err != nil {
				return fmt.Errorf("party %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	first := results[0]
	for i, r := range results[1:] {
		if r.product.Cmp(first.product) != 0 || string(r.coin) != string(first.coin) || !r.revealed.Equal(first.revealed) {
			return fmt.Errorf("party %d disagrees with party 1", i+2)
		}
	}
	if !first.revealed.Equal(first.expected) {
		return fmt.Errorf("revealed element does not match the opened value")
	}

	fmt.Fprintf(out, "session   %s\n", session)
	fmt.Fprintf(out, "group     %s (%d-of-%d)\n", opts.group, opts.mpc.Threshold, n)
	fmt.Fprintf(out, "product   %d * %d = %s\n", opts.a, opts.b, first.product)
	fmt.Fprintf(out, "coin      %x\n", first.coin)
	fmt.Fprintf(out, "g^r       %x\n", first.revealed.Bytes())
	fmt.Fprintf(out, "elapsed   %s\n", time.Since(start).Round(time.Millisecond))
	return printRuns(out, reg)
}

// runParty is the per-party script. Every party runs the same steps in the
// same order.
func runParty(ctx context.Context, p *mpc.Party, opts *options) (*outcome, error) {
	t := opts.mpc.Threshold

	a, err := p.ShareInput(ctx, 1, big.NewInt(opts.a), t)
	if err != nil {
		return nil, fmt.Errorf("share a: %w", err)
	}
	b, err := p.ShareInput(ctx, 2, big.NewInt(opts.b), t)
	if err != nil {
		return nil, fmt.Errorf("share b: %w", err)
	}

	product, err := p.Multiply(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("multiply: %w", err)
	}
	if opts.storeDir != "" {
		if err := storeShare(p, product, opts); err != nil {
			return nil, err
		}
	}

	value, err := p.Open(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	coin, err := p.CoinToss(ctx, opts.coinBits)
	if err != nil {
		return nil, fmt.Errorf("coin toss: %w", err)
	}

	r, err := p.ShareRandom(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("share random: %w", err)
	}
	revealed, err := p.RevealInExponent(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("reveal: %w", err)
	}
	opened, err := p.Open(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("open random: %w", err)
	}

	gctx := p.GroupContext()
	return &outcome{
		product:  value,
		coin:     coin,
		revealed: revealed,
		expected: gctx.Group().Exp(gctx.GenData(), opened),
	}, nil
}

func storeShare(p *mpc.Party, share *vss.Share, opts *options) error {
	path := filepath.Join(opts.storeDir, fmt.Sprintf("party-%d.share", p.Index()))
	store, err := storage.NewFileShareStore(storage.DefaultConfig(path), p.GroupContext())
	if err != nil {
		return err
	}
	if err := store.Save(share, opts.password); err != nil {
		return fmt.Errorf("store share: %w", err)
	}
	return nil
}

// pairSecrets returns one symmetric secret per link, or nil when links are
// left in the clear
func pairSecrets(n int, encrypt bool) ([][][]byte, error) {
	if !encrypt {
		return nil, nil
	}
	secrets := make([][][]byte, n)
	for i := range secrets {
		secrets[i] = make([][]byte, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s, err := network.GenerateSharedSecret()
			if err != nil {
				return nil, err
			}
			secrets[i][j], secrets[j][i] = s, s
		}
	}
	return secrets, nil
}

func wrapSlots(slots *network.Slots, self int, secrets [][][]byte, rate float64) (*network.Slots, error) {
	if secrets == nil && rate == 0 {
		return slots, nil
	}
	return slots.Wrap(func(peer int, ch network.Channel) (network.Channel, error) {
		if secrets != nil {
			enc, err := network.NewEncryptedChannel(ch, secrets[self][peer], self, peer)
			if err != nil {
				return nil, err
			}
			ch = enc
		}
		if rate > 0 {
			return network.NewRateLimitedChannel(ch, rate, 16)
		}
		return ch, nil
	})
}

// printRuns summarizes the protocol run counter
func printRuns(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if mf.GetName() != mpc.Namespace+"_protocol_runs_total" {
			continue
		}
		fmt.Fprintln(out, "runs")
		for _, m := range mf.GetMetric() {
			var labels string
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", l.GetName(), l.GetValue())
			}
			fmt.Fprintf(out, " %s %.0f\n", labels, m.GetCounter().GetValue())
		}
	}
	return nil
}
