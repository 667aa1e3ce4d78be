package mpc

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Caqil/pedersen-mpc/pkg/network"
	"github.com/Caqil/pedersen-mpc/pkg/vss"
)

const (
	// Namespace is the Prometheus namespace for all protocol metrics
	Namespace = "pedersen_mpc"

	// Label names
	LabelProtocol  = "protocol"
	LabelOutcome   = "outcome"
	LabelDirection = "direction"
	LabelType      = "type"

	// Protocol names
	ProtoShare    = "share"
	ProtoOpen     = "open"
	ProtoCoinToss = "coin_toss"
	ProtoMultiply = "multiply"
	ProtoReveal   = "reveal"

	// Outcome values
	OutcomeSuccess       = "success"
	OutcomeCheat         = "cheat"
	OutcomeInsufficient  = "insufficient"
	OutcomeCommunication = "communication"
	OutcomeError         = "error"

	directionSent     = "sent"
	directionReceived = "received"
)

// Metrics counts protocol runs and their outcomes. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	runs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	cheats     *prometheus.CounterVec
	exclusions *prometheus.CounterVec
	messages   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "protocol_runs_total",
				Help:      "Protocol invocations by protocol and outcome",
			},
			[]string{LabelProtocol, LabelOutcome},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "protocol_duration_seconds",
				Help:      "Wall time of protocol invocations in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{LabelProtocol},
		),
		cheats: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cheats_detected_total",
				Help:      "Failed verifiable checks by protocol",
			},
			[]string{LabelProtocol},
		),
		exclusions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "contributions_excluded_total",
				Help:      "Contributions dropped from interpolation by protocol",
			},
			[]string{LabelProtocol},
		),
		messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "messages_total",
				Help:      "Protocol messages by direction and type",
			},
			[]string{LabelDirection, LabelType},
		),
	}
}

// observe records the outcome and duration of one invocation
func (m *Metrics) observe(protocol string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(protocol, outcome(err)).Inc()
	m.duration.WithLabelValues(protocol).Observe(time.Since(start).Seconds())
	if errors.Is(err, vss.ErrCheatDetected) {
		m.cheats.WithLabelValues(protocol).Inc()
	}
}

func (m *Metrics) excluded(protocol string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.exclusions.WithLabelValues(protocol).Add(float64(count))
}

func (m *Metrics) message(direction string, t network.MessageType) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(direction, t.String()).Inc()
}

// outcome maps an error to its outcome label
func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, vss.ErrCheatDetected):
		return OutcomeCheat
	case errors.Is(err, vss.ErrInsufficientShares):
		return OutcomeInsufficient
	case errors.Is(err, vss.ErrCommunication):
		return OutcomeCommunication
	default:
		return OutcomeError
	}
}
