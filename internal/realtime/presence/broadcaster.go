// Package presence announces the online set. Every connect or disconnect
// broadcasts the full snapshot to every live connection; a connection may
// also request the snapshot on demand.
package presence

import (
	"log/slog"

	"onyx/internal/realtime/metrics"
	"onyx/internal/realtime/models"
	"onyx/internal/realtime/registry"
)

// Broadcaster computes and fans out presence snapshots. Full snapshots (not
// deltas) keep clients self-healing: a dropped frame is corrected by the next
// churn event.
type Broadcaster struct {
	registry *registry.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Broadcaster)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Broadcaster) {
		b.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Broadcaster) {
		b.metrics = m
	}
}

// New builds a broadcaster and subscribes it to registry changes. Call once
// at wiring time, before the first connection arrives.
func New(reg *registry.Registry, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		registry: reg,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	reg.OnChange(b.Broadcast)
	return b
}

// Broadcast pushes the current snapshot to every live connection. Pushes are
// fire-and-forget; a connection that cannot keep up misses this frame and
// catches up on the next one.
func (b *Broadcaster) Broadcast() {
	snapshot := models.NewPresenceSnapshot(b.registry.SnapshotOnlineIDs())
	for _, conn := range b.registry.Connections() {
		if !conn.Push(snapshot) {
			b.logger.Debug("presence snapshot dropped, connection lagging",
				"user_id", conn.UserID.String(),
			)
		}
	}
	if b.metrics != nil {
		b.metrics.IncrementPresenceBroadcasts()
	}
}

// SendSnapshot answers one connection's explicit snapshot request. Idempotent
// read; no side effects beyond the push.
func (b *Broadcaster) SendSnapshot(conn *registry.Connection) {
	snapshot := models.NewPresenceSnapshot(b.registry.SnapshotOnlineIDs())
	if !conn.Push(snapshot) {
		b.logger.Debug("on-demand presence snapshot dropped",
			"user_id", conn.UserID.String(),
		)
	}
}
