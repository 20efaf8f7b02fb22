package models

import (
	"fmt"

	"onyx/pkg/domain"
)

// EventKind enumerates the notification kinds the core fans out. Values match
// the wire names the clients already listen for.
type EventKind string

const (
	KindFriendRequest  EventKind = "friendRequest"
	KindFriendAccepted EventKind = "friendAccepted"
	KindLike           EventKind = "like"
	KindComment        EventKind = "comment"
	KindMessage        EventKind = "message"
)

var validKinds = map[EventKind]struct{}{
	KindFriendRequest:  {},
	KindFriendAccepted: {},
	KindLike:           {},
	KindComment:        {},
	KindMessage:        {},
}

// ParseEventKind validates and returns an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(s)
	if _, ok := validKinds[k]; !ok {
		return "", fmt.Errorf("unknown event kind: %s", s)
	}
	return k, nil
}

// NotificationEvent is the value object the fan-out router hands to the
// dispatcher. It is constructed, delivered (or dropped) and discarded; the
// core does not persist it.
type NotificationEvent struct {
	Kind       EventKind     `json:"type"`
	SenderID   domain.UserID `json:"senderId"`
	ReceiverID domain.UserID `json:"receiverId"`
	Message    string        `json:"message"`
	PostID     string        `json:"postId,omitempty"`
	CommentID  string        `json:"commentId,omitempty"`
}

// Validate checks the fields a dispatchable event must carry.
func (e NotificationEvent) Validate() error {
	if _, err := ParseEventKind(string(e.Kind)); err != nil {
		return err
	}
	if e.SenderID.IsNil() {
		return fmt.Errorf("senderId is required")
	}
	if e.ReceiverID.IsNil() {
		return fmt.Errorf("receiverId is required")
	}
	return nil
}
