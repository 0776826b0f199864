// Package monitor exposes the server's operational metrics over prometheus,
// plus a couple of expvar conveniences.
package monitor

import (
	"expvar"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	ConnectedClients  *prometheus.GaugeVec
	MutationsAccepted *prometheus.CounterVec
	CommandsRejected  *prometheus.CounterVec
	PluginFailures    *prometheus.CounterVec
	BroadcastLatency  prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		ConnectedClients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Connected clients by resolved role",
		}, []string{"role"}),
		MutationsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_accepted_total",
			Help:      "Accepted mutating commands",
		}, []string{"command"}),
		CommandsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_rejected_total",
			Help:      "Rejected commands by reason class",
		}, []string{"reason"}),
		PluginFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minigame_plugin_failures_total",
			Help:      "Minigame plugin failures degraded to the safe shell",
		}, []string{"minigame"}),
		BroadcastLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_broadcast_seconds",
			Help:      "Time to project and fan out one snapshot",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	prometheus.MustRegister(
		m.ConnectedClients,
		m.MutationsAccepted,
		m.CommandsRejected,
		m.PluginFailures,
		m.BroadcastLatency,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	startTime time.Time
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/vars", expvar.Handler())

	expvar.Publish("uptime_seconds", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	go func() { _ = http.ListenAndServe(addr, mux) }()
}

func (m *Monitor) ClientConnected(role string) {
	m.metrics.ConnectedClients.WithLabelValues(role).Inc()
}

func (m *Monitor) ClientDisconnected(role string) {
	m.metrics.ConnectedClients.WithLabelValues(role).Dec()
}

func (m *Monitor) MutationAccepted(command string) {
	m.metrics.MutationsAccepted.WithLabelValues(command).Inc()
}

func (m *Monitor) CommandRejected(reason string) {
	m.metrics.CommandsRejected.WithLabelValues(reason).Inc()
}

func (m *Monitor) PluginFailure(minigameType string) {
	m.metrics.PluginFailures.WithLabelValues(minigameType).Inc()
}

func (m *Monitor) ObserveBroadcast(d time.Duration) {
	m.metrics.BroadcastLatency.Observe(d.Seconds())
}
