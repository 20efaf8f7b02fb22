// Package store persists the friend graph as a pair-state table. Each
// transition mutates both sides of a pair inside a single atomic boundary
// (one lock for the memory store, one transaction for Postgres), so a
// half-applied transition is never observable.
package store

import (
	"context"

	"onyx/internal/friends/models"
	"onyx/pkg/domain"
)

// Store is the friend-graph persistence contract. Transition methods report
// infrastructure facts as sentinel errors; the service layer translates them
// into domain errors:
//   - ApplyRequest returns sentinel.ErrInvalidState when any state already
//     exists for the pair (friends, or pending in either direction).
//   - ApplyAccept and ApplyReject return sentinel.ErrNotFound unless the
//     pair is pending with from as the requester.
//   - ApplyRemove returns sentinel.ErrNotFound unless the pair is friends.
type Store interface {
	ApplyRequest(ctx context.Context, from, to domain.UserID) error
	ApplyAccept(ctx context.Context, to, from domain.UserID) error
	ApplyReject(ctx context.Context, to, from domain.UserID) error
	ApplyRemove(ctx context.Context, a, b domain.UserID) error

	// View derives one user's three-set graph entry.
	View(ctx context.Context, userID domain.UserID) (*models.GraphView, error)
	// PairState reports the stored state for a pair; strangers yield
	// StatusNone with no error.
	PairState(ctx context.Context, a, b domain.UserID) (models.PairState, error)
}
