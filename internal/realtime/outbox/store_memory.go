package outbox

import (
	"context"
	"sync"

	"onyx/internal/realtime/models"
	"onyx/pkg/domain"
)

// InMemoryStore keeps per-user backlogs in process memory. Suitable for
// single-node deployments and tests; use the Redis store when the backlog
// must survive a restart.
type InMemoryStore struct {
	mu         sync.Mutex
	backlogs   map[domain.UserID][]models.NotificationEvent
	maxPerUser int
}

// NewInMemoryStore creates a memory-backed outbox capped at maxPerUser
// events per receiver.
func NewInMemoryStore(maxPerUser int) *InMemoryStore {
	if maxPerUser <= 0 {
		maxPerUser = 100
	}
	return &InMemoryStore{
		backlogs:   make(map[domain.UserID][]models.NotificationEvent),
		maxPerUser: maxPerUser,
	}
}

func (s *InMemoryStore) Append(ctx context.Context, ev models.NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backlog := append(s.backlogs[ev.ReceiverID], ev)
	if overflow := len(backlog) - s.maxPerUser; overflow > 0 {
		backlog = backlog[overflow:]
	}
	s.backlogs[ev.ReceiverID] = backlog
	return nil
}

func (s *InMemoryStore) Drain(ctx context.Context, userID domain.UserID) ([]models.NotificationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backlog := s.backlogs[userID]
	delete(s.backlogs, userID)
	if backlog == nil {
		return []models.NotificationEvent{}, nil
	}
	return backlog, nil
}
