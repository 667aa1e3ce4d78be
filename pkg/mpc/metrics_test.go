package mpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
	"github.com/Caqil/pedersen-mpc/pkg/network"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
)

func TestMetricsRecordRuns(t *testing.T) {
	gctx := newTestContext(t, group.Ed25519)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	shares := dealLocally(t, gctx, 17, 2, 3)
	parties := newParties(t, gctx, DefaultConfig(2, 3), nil, func(i int) []Option {
		if i == 0 {
			return []Option{WithMetrics(metrics)}
		}
		return nil
	})

	errs := runParties(t, parties, func(ctx context.Context, p *Party) error {
		_, err := p.Open(ctx, shares[p.Index()-1])
		return err
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues(ProtoOpen, OutcomeSuccess)))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.messages.WithLabelValues(directionSent, network.MessageTypeOpen.String())))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.messages.WithLabelValues(directionReceived, network.MessageTypeOpen.String())))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.duration))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestMetricsCheatOutcome(t *testing.T) {
	metrics := NewMetrics(nil)
	metrics.observe(ProtoMultiply, time.Now(), vss.NewCheatDetected(2, "bad proof"))
	metrics.excluded(ProtoMultiply, 2)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues(ProtoMultiply, OutcomeCheat)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.cheats.WithLabelValues(ProtoMultiply)))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.exclusions.WithLabelValues(ProtoMultiply)))
}

func TestOutcome(t *testing.T) {
	require.Equal(t, OutcomeSuccess, outcome(nil))
	require.Equal(t, OutcomeCheat, outcome(vss.NewCheatDetected(1, "x")))
	require.Equal(t, OutcomeInsufficient, outcome(&vss.InsufficientSharesError{Have: 1, Need: 2}))
	require.Equal(t, OutcomeCommunication, outcome(vss.NewCommunicationError(1, "send", errors.New("down"))))
	require.Equal(t, OutcomeError, outcome(errors.New("other")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.observe(ProtoOpen, time.Now(), nil)
		m.excluded(ProtoOpen, 1)
		m.message(directionSent, network.MessageTypeOpen)
	})
}
