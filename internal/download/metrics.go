package download

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name
const Namespace = "smartproxy"

// Metrics counts what the download loop does, labelled by connection name.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Attempts        *prometheus.CounterVec
	Failures        *prometheus.CounterVec
	Bans            *prometheus.CounterVec
	Successes       *prometheus.CounterVec
	Exhausted       *prometheus.CounterVec
	CooldownSeconds *prometheus.CounterVec
}

// NewMetrics creates the download metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "download",
				Name:      "attempts_total",
				Help:      "Counter of download attempts.",
			}, []string{"connection"}),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "download",
				Name:      "transient_failures_total",
				Help:      "Counter of attempts retried immediately after a transient failure.",
			}, []string{"connection", "reason"}),
		Bans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "download",
				Name:      "bans_total",
				Help:      "Counter of responses matching a ban signature.",
			}, []string{"connection"}),
		Successes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "download",
				Name:      "successes_total",
				Help:      "Counter of fetches that returned content.",
			}, []string{"connection"}),
		Exhausted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "download",
				Name:      "exhausted_total",
				Help:      "Counter of fetches that gave up after spending a budget.",
			}, []string{"connection", "type"}),
		CooldownSeconds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "download",
				Name:      "cooldown_seconds_total",
				Help:      "Seconds spent waiting after bans.",
			}, []string{"connection"}),
	}

	if reg != nil {
		reg.MustRegister(m.Attempts, m.Failures, m.Bans, m.Successes, m.Exhausted, m.CooldownSeconds)
	}
	return m
}

func (m *Metrics) attempt(conn string) {
	if m != nil {
		m.Attempts.WithLabelValues(conn).Inc()
	}
}

func (m *Metrics) failure(conn, reason string) {
	if m != nil {
		m.Failures.WithLabelValues(conn, reason).Inc()
	}
}

func (m *Metrics) ban(conn string) {
	if m != nil {
		m.Bans.WithLabelValues(conn).Inc()
	}
}

func (m *Metrics) success(conn string) {
	if m != nil {
		m.Successes.WithLabelValues(conn).Inc()
	}
}

func (m *Metrics) exhausted(conn, typ string) {
	if m != nil {
		m.Exhausted.WithLabelValues(conn, typ).Inc()
	}
}

func (m *Metrics) cooldown(conn string, d time.Duration) {
	if m != nil {
		m.CooldownSeconds.WithLabelValues(conn).Add(d.Seconds())
	}
}
