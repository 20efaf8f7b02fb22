package store

import (
	"context"
	"sync"

	"onyx/internal/friends/models"
	"onyx/pkg/domain"
	"onyx/pkg/sentinel"
)

// pairKey is the canonical (unordered) key for a user pair.
type pairKey struct {
	lo domain.UserID
	hi domain.UserID
}

func keyFor(a, b domain.UserID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// InMemoryStore holds the pair-state table behind one mutex. The whole-table
// lock is the single mutation boundary the transition atomicity requires;
// contention is low because transitions are user-initiated.
type InMemoryStore struct {
	mu    sync.RWMutex
	pairs map[pairKey]models.PairState
}

// New creates an empty in-memory friend graph store.
func New() *InMemoryStore {
	return &InMemoryStore{
		pairs: make(map[pairKey]models.PairState),
	}
}

func (s *InMemoryStore) ApplyRequest(ctx context.Context, from, to domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(from, to)
	if _, exists := s.pairs[key]; exists {
		return sentinel.ErrInvalidState
	}
	s.pairs[key] = models.PairState{Status: models.StatusPending, Requester: from}
	return nil
}

func (s *InMemoryStore) ApplyAccept(ctx context.Context, to, from domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(to, from)
	state, exists := s.pairs[key]
	if !exists || state.Status != models.StatusPending || state.Requester != from {
		return sentinel.ErrNotFound
	}
	s.pairs[key] = models.PairState{Status: models.StatusFriends, Requester: from}
	return nil
}

func (s *InMemoryStore) ApplyReject(ctx context.Context, to, from domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(to, from)
	state, exists := s.pairs[key]
	if !exists || state.Status != models.StatusPending || state.Requester != from {
		return sentinel.ErrNotFound
	}
	delete(s.pairs, key)
	return nil
}

func (s *InMemoryStore) ApplyRemove(ctx context.Context, a, b domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(a, b)
	state, exists := s.pairs[key]
	if !exists || state.Status != models.StatusFriends {
		return sentinel.ErrNotFound
	}
	delete(s.pairs, key)
	return nil
}

func (s *InMemoryStore) View(ctx context.Context, userID domain.UserID) (*models.GraphView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := &models.GraphView{
		Friends:          []domain.UserID{},
		RequestsSent:     []domain.UserID{},
		RequestsReceived: []domain.UserID{},
	}
	for key, state := range s.pairs {
		var other domain.UserID
		switch userID {
		case key.lo:
			other = key.hi
		case key.hi:
			other = key.lo
		default:
			continue
		}
		switch {
		case state.Status == models.StatusFriends:
			view.Friends = append(view.Friends, other)
		case state.Requester == userID:
			view.RequestsSent = append(view.RequestsSent, other)
		default:
			view.RequestsReceived = append(view.RequestsReceived, other)
		}
	}
	return view, nil
}

func (s *InMemoryStore) PairState(ctx context.Context, a, b domain.UserID) (models.PairState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.pairs[keyFor(a, b)]
	if !exists {
		return models.PairState{Status: models.StatusNone}, nil
	}
	return state, nil
}
