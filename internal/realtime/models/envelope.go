package models

import "onyx/pkg/domain"

// Outbound frame types pushed to a connection.
const (
	FrameTypePresenceSnapshot = "presence.snapshot"
	FrameTypeNotification     = "notification"
	FrameTypeNewMessage       = "newMessage"
)

// PresenceSnapshot is the full set of currently online identities. The
// broadcaster always sends the whole set, never a delta, so a missed frame
// heals itself on the next churn.
type PresenceSnapshot struct {
	Type          string   `json:"type"`
	OnlineUserIDs []string `json:"onlineUserIds"`
}

// NewPresenceSnapshot builds a snapshot frame from the registry's online set.
func NewPresenceSnapshot(ids []domain.UserID) PresenceSnapshot {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return PresenceSnapshot{Type: FrameTypePresenceSnapshot, OnlineUserIDs: out}
}

// NotificationFrame wraps a NotificationEvent for delivery over a connection.
// The event keeps its own "type" field (the kind) inside the payload, so the
// frame type lives at the envelope level.
type NotificationFrame struct {
	Type  string            `json:"type"`
	Event NotificationEvent `json:"event"`
}

// NewNotificationFrame builds the outbound frame for an event. Message-kind
// events ride the newMessage frame so chat clients keep their existing
// listener; everything else is a plain notification.
func NewNotificationFrame(ev NotificationEvent) NotificationFrame {
	frameType := FrameTypeNotification
	if ev.Kind == KindMessage {
		frameType = FrameTypeNewMessage
	}
	return NotificationFrame{Type: frameType, Event: ev}
}
