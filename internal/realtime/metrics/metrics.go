package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the realtime core.
type Metrics struct {
	ConnectionsActive      prometheus.Gauge
	PresenceBroadcasts     prometheus.Counter
	NotificationsDelivered prometheus.Counter
	NotificationsDropped   prometheus.Counter
	NotificationsQueued    prometheus.Counter
	NotificationsReplayed  prometheus.Counter
}

// New creates and registers all realtime metrics.
func New() *Metrics {
	return &Metrics{
		ConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "onyx_realtime_connections_active",
			Help: "Current number of live websocket connections",
		}),
		PresenceBroadcasts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onyx_realtime_presence_broadcasts_total",
			Help: "Total number of full presence snapshot broadcasts",
		}),
		NotificationsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onyx_realtime_notifications_delivered_total",
			Help: "Total number of notification frames pushed to a live connection",
		}),
		NotificationsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onyx_realtime_notifications_dropped_total",
			Help: "Total number of notifications dropped (receiver offline or send queue full)",
		}),
		NotificationsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onyx_realtime_notifications_queued_total",
			Help: "Total number of notifications appended to the offline outbox",
		}),
		NotificationsReplayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onyx_realtime_notifications_replayed_total",
			Help: "Total number of outbox notifications replayed on reconnect",
		}),
	}
}

func (m *Metrics) SetConnectionsActive(n int) {
	m.ConnectionsActive.Set(float64(n))
}

func (m *Metrics) IncrementPresenceBroadcasts() {
	m.PresenceBroadcasts.Inc()
}

func (m *Metrics) IncrementDelivered() {
	m.NotificationsDelivered.Inc()
}

func (m *Metrics) IncrementDropped() {
	m.NotificationsDropped.Inc()
}

func (m *Metrics) IncrementQueued() {
	m.NotificationsQueued.Inc()
}

func (m *Metrics) IncrementReplayed() {
	m.NotificationsReplayed.Inc()
}
