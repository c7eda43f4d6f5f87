package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"wallet_connector/internal/domain/entity"
)

const namespace = "wallet_connector"

// ConnectionMetrics implements port.ConnectionMetrics on top of prometheus collectors.
type ConnectionMetrics struct {
	attempts   *prometheus.CounterVec
	outcomes   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	chainSetup *prometheus.CounterVec
	inFlight   prometheus.Gauge
}

// NewConnectionMetrics creates the collectors and registers them with reg.
func NewConnectionMetrics(reg prometheus.Registerer) *ConnectionMetrics {
	m := &ConnectionMetrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connect_attempts_total",
				Help:      "Total number of wallet connection attempts",
			},
			[]string{"provider", "interactive"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connect_outcomes_total",
				Help:      "Settled wallet connection attempts by outcome",
			},
			[]string{"provider", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "connect_duration_seconds",
				Help:      "Time from connect request to settlement",
				// the handshake waits for a human, up to the 90s timeout
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
			},
			[]string{"provider"},
		),
		chainSetup: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chain_setup_total",
				Help:      "Chain switch/add requests sent to the injected wallet by result",
			},
			[]string{"result"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connect_in_flight",
				Help:      "Connection attempts waiting for wallet approval",
			},
		),
	}
	reg.MustRegister(m.attempts, m.outcomes, m.duration, m.chainSetup, m.inFlight)
	return m
}

func (m *ConnectionMetrics) AttemptStarted(key entity.ProviderKey, interactive bool) {
	m.attempts.WithLabelValues(string(key), strconv.FormatBool(interactive)).Inc()
	m.inFlight.Inc()
}

func (m *ConnectionMetrics) AttemptSettled(key entity.ProviderKey, outcome string, elapsed time.Duration) {
	m.outcomes.WithLabelValues(string(key), outcome).Inc()
	m.duration.WithLabelValues(string(key)).Observe(elapsed.Seconds())
	m.inFlight.Dec()
}

func (m *ConnectionMetrics) ChainSetup(result string) {
	m.chainSetup.WithLabelValues(result).Inc()
}
