// Package outbox is the optional offline-notification extension. The core's
// delivery model is best-effort and ephemeral; when the outbox is enabled,
// events for unreachable receivers are parked per user and replayed on the
// next connect instead of being dropped. It is wired in only when explicitly
// configured.
package outbox

import (
	"context"

	"onyx/internal/realtime/models"
	"onyx/pkg/domain"
)

// Store holds undelivered events per receiver. Both implementations bound
// the per-user backlog and discard the oldest entries first.
type Store interface {
	// Append parks an event for an offline receiver.
	Append(ctx context.Context, ev models.NotificationEvent) error
	// Drain removes and returns every parked event for userID in append
	// order. An empty backlog yields an empty slice, not an error.
	Drain(ctx context.Context, userID domain.UserID) ([]models.NotificationEvent, error)
}
