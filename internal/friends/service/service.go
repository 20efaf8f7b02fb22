// Package service owns the friend-relationship state machine. Each pair of
// users is Stranger, RequestPending in one direction, or Friends; the four
// transitions below are the only way the graph changes.
package service

import (
	"context"
	"errors"
	"log/slog"

	"onyx/internal/friends/models"
	realtimemodels "onyx/internal/realtime/models"
	"onyx/pkg/domain"
	dErrors "onyx/pkg/domainerrors"
	"onyx/pkg/sentinel"
)

// Store is the subset of the friend-graph store the state machine drives.
type Store interface {
	ApplyRequest(ctx context.Context, from, to domain.UserID) error
	ApplyAccept(ctx context.Context, to, from domain.UserID) error
	ApplyReject(ctx context.Context, to, from domain.UserID) error
	ApplyRemove(ctx context.Context, a, b domain.UserID) error
	View(ctx context.Context, userID domain.UserID) (*models.GraphView, error)
	PairState(ctx context.Context, a, b domain.UserID) (models.PairState, error)
}

// Notifier is the dispatch contract. Delivery is best-effort; the state
// machine never fails a transition because a notification could not be
// pushed.
type Notifier interface {
	Dispatch(ctx context.Context, ev realtimemodels.NotificationEvent)
}

type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("friend graph store is required")
	}
	svc := &Service{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// SendRequest moves (from, to) from Stranger to RequestPending(from→to) and
// notifies the receiver. Valid only from Stranger: self-requests, existing
// friendships and pending requests in either direction are invalid
// transitions.
func (s *Service) SendRequest(ctx context.Context, from, to domain.UserID) error {
	if err := validatePair(from, to); err != nil {
		return err
	}
	if from == to {
		return dErrors.New(dErrors.CodeInvalidTransition, "cannot send a friend request to yourself")
	}

	if err := s.store.ApplyRequest(ctx, from, to); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeInvalidTransition, "a friendship or pending request already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record friend request")
	}

	s.notify(ctx, realtimemodels.NotificationEvent{
		Kind:       realtimemodels.KindFriendRequest,
		SenderID:   from,
		ReceiverID: to,
		Message:    "sent you a friend request",
	})
	return nil
}

// AcceptRequest moves (from, to) from RequestPending(from→to) to Friends and
// notifies the original requester.
func (s *Service) AcceptRequest(ctx context.Context, to, from domain.UserID) error {
	if err := validatePair(to, from); err != nil {
		return err
	}

	if err := s.store.ApplyAccept(ctx, to, from); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNoSuchRequest, "no pending friend request from this user")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to accept friend request")
	}

	s.notify(ctx, realtimemodels.NotificationEvent{
		Kind:       realtimemodels.KindFriendAccepted,
		SenderID:   to,
		ReceiverID: from,
		Message:    "accepted your friend request",
	})
	return nil
}

// RejectRequest clears RequestPending(from→to), returning the pair to
// Stranger. No notification is emitted.
func (s *Service) RejectRequest(ctx context.Context, to, from domain.UserID) error {
	if err := validatePair(to, from); err != nil {
		return err
	}

	if err := s.store.ApplyReject(ctx, to, from); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNoSuchRequest, "no pending friend request from this user")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reject friend request")
	}
	return nil
}

// RemoveFriend moves (a, b) from Friends back to Stranger. The missing-
// friendship case is an explicit error rather than a silent no-op so callers
// (and tests) can distinguish it.
func (s *Service) RemoveFriend(ctx context.Context, a, b domain.UserID) error {
	if err := validatePair(a, b); err != nil {
		return err
	}

	if err := s.store.ApplyRemove(ctx, a, b); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFriends, "you are not friends with this user")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove friend")
	}
	return nil
}

// View returns userID's three-set graph entry.
func (s *Service) View(ctx context.Context, userID domain.UserID) (*models.GraphView, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user id is required")
	}
	view, err := s.store.View(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load friend graph")
	}
	return view, nil
}

// Status reports the viewer-relative relationship with other.
func (s *Service) Status(ctx context.Context, viewer, other domain.UserID) (string, error) {
	if err := validatePair(viewer, other); err != nil {
		return "", err
	}
	if viewer == other {
		return "", dErrors.New(dErrors.CodeBadRequest, "cannot check relationship with yourself")
	}
	state, err := s.store.PairState(ctx, viewer, other)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pair state")
	}
	return state.RelationshipTo(viewer), nil
}

func (s *Service) notify(ctx context.Context, ev realtimemodels.NotificationEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(ctx, ev)
}

func validatePair(a, b domain.UserID) error {
	if a.IsNil() || b.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "user id is required")
	}
	return nil
}
