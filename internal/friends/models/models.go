package models

import "onyx/pkg/domain"

// PairStatus is the joint relationship status of one unordered user pair.
// Strangers have no stored state at all, which makes the three-set disjoint
// invariant structural: a pair is pending, friends, or absent, never a mix.
type PairStatus string

const (
	StatusNone    PairStatus = "none"
	StatusPending PairStatus = "pending"
	StatusFriends PairStatus = "friends"
)

// PairState is the stored state for a pair. Requester identifies the sender
// while the pair is pending; it is retained after acceptance only as
// provenance.
type PairState struct {
	Status    PairStatus
	Requester domain.UserID
}

// RelationshipTo renders the pair state from one side's point of view, using
// the vocabulary the profile page expects.
func (s PairState) RelationshipTo(viewer domain.UserID) string {
	switch s.Status {
	case StatusFriends:
		return "friends"
	case StatusPending:
		if s.Requester == viewer {
			return "pending"
		}
		return "received"
	default:
		return "none"
	}
}

// GraphView is one user's friend graph entry: the three disjoint sets the
// clients render. Derived from pair states; never mutated directly.
type GraphView struct {
	Friends          []domain.UserID `json:"friends"`
	RequestsSent     []domain.UserID `json:"requestsSent"`
	RequestsReceived []domain.UserID `json:"requestsReceived"`
}
