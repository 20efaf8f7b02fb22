// Package dispatch delivers notification events to the receiver's live
// connection, if any. Delivery is at-most-once and best-effort: an offline
// receiver means the event is dropped (or parked, when the outbox extension
// is enabled), and the triggering domain operation never learns about it.
package dispatch

import (
	"context"
	"log/slog"

	"onyx/internal/realtime/metrics"
	"onyx/internal/realtime/models"
	"onyx/internal/realtime/outbox"
	"onyx/internal/realtime/registry"
	"onyx/pkg/domain"
)

// Receivers is the subset of the connection registry the dispatcher reads.
type Receivers interface {
	Lookup(userID domain.UserID) (*registry.Connection, bool)
}

// Dispatcher fans out events to live connections.
type Dispatcher struct {
	receivers Receivers
	outbox    outbox.Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithOutbox enables the offline-notification extension. Without it,
// events for unreachable receivers are dropped, matching the core's
// ephemeral delivery model.
func WithOutbox(store outbox.Store) Option {
	return func(d *Dispatcher) {
		d.outbox = store
	}
}

func New(receivers Receivers, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		receivers: receivers,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers ev to its receiver's connection. It never reports
// failure to the caller: unreachable receivers and transport push problems
// are delivery outcomes, not errors, and must not fail the domain operation
// that raised the event.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.NotificationEvent) {
	if err := ev.Validate(); err != nil {
		d.logger.WarnContext(ctx, "discarding malformed notification event", "error", err)
		return
	}
	// Callers should never construct self-targeted events; guard anyway.
	if ev.SenderID == ev.ReceiverID {
		return
	}

	conn, ok := d.receivers.Lookup(ev.ReceiverID)
	if !ok {
		d.park(ctx, ev)
		return
	}

	if !conn.Push(models.NewNotificationFrame(ev)) {
		d.logger.WarnContext(ctx, "notification push failed, connection lagging",
			"kind", string(ev.Kind),
			"receiver_id", ev.ReceiverID.String(),
		)
		d.countDropped()
		return
	}
	if d.metrics != nil {
		d.metrics.IncrementDelivered()
	}
}

// Replay drains userID's outbox and pushes every parked event to conn.
// Called by the transport layer right after a successful register. No-op
// when the outbox extension is off.
func (d *Dispatcher) Replay(ctx context.Context, conn *registry.Connection) {
	if d.outbox == nil {
		return
	}
	events, err := d.outbox.Drain(ctx, conn.UserID)
	if err != nil {
		d.logger.ErrorContext(ctx, "outbox drain failed",
			"user_id", conn.UserID.String(),
			"error", err,
		)
		return
	}
	for _, ev := range events {
		if conn.Push(models.NewNotificationFrame(ev)) {
			if d.metrics != nil {
				d.metrics.IncrementReplayed()
			}
		} else {
			d.countDropped()
		}
	}
}

func (d *Dispatcher) park(ctx context.Context, ev models.NotificationEvent) {
	if d.outbox == nil {
		d.logger.DebugContext(ctx, "receiver offline, dropping notification",
			"kind", string(ev.Kind),
			"receiver_id", ev.ReceiverID.String(),
		)
		d.countDropped()
		return
	}
	if err := d.outbox.Append(ctx, ev); err != nil {
		d.logger.ErrorContext(ctx, "outbox append failed",
			"receiver_id", ev.ReceiverID.String(),
			"error", err,
		)
		d.countDropped()
		return
	}
	if d.metrics != nil {
		d.metrics.IncrementQueued()
	}
}

func (d *Dispatcher) countDropped() {
	if d.metrics != nil {
		d.metrics.IncrementDropped()
	}
}
