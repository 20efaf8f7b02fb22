package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"onyx/internal/realtime/models"
	"onyx/pkg/domain"
)

const outboxKeyPrefix = "outbox:user:"

// RedisStore persists per-user backlogs in Redis lists so parked events
// survive a process restart and are visible to any node that accepts the
// reconnect.
type RedisStore struct {
	client     *redis.Client
	maxPerUser int
}

// NewRedis constructs a Redis-backed outbox store.
func NewRedis(client *redis.Client, maxPerUser int) *RedisStore {
	if maxPerUser <= 0 {
		maxPerUser = 100
	}
	return &RedisStore{client: client, maxPerUser: maxPerUser}
}

func (s *RedisStore) Append(ctx context.Context, ev models.NotificationEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal outbox event: %w", err)
	}

	key := outboxKeyPrefix + ev.ReceiverID.String()
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	// Keep only the newest maxPerUser entries.
	pipe.LTrim(ctx, key, int64(-s.maxPerUser), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append outbox event: %w", err)
	}
	return nil
}

func (s *RedisStore) Drain(ctx context.Context, userID domain.UserID) ([]models.NotificationEvent, error) {
	key := outboxKeyPrefix + userID.String()

	pipe := s.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("drain outbox: %w", err)
	}

	raw := rangeCmd.Val()
	events := make([]models.NotificationEvent, 0, len(raw))
	for _, item := range raw {
		var ev models.NotificationEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			// A corrupt entry is skipped rather than wedging the replay.
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
