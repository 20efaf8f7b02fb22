//go:build integration

package outbox_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"onyx/internal/realtime/models"
	"onyx/internal/realtime/outbox"
	"onyx/pkg/domain"
	"onyx/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *outbox.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = outbox.NewRedis(s.redis.Client, 5)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func event(sender, receiver, message string) models.NotificationEvent {
	return models.NotificationEvent{
		Kind:       models.KindLike,
		SenderID:   domain.UserID("u-" + sender),
		ReceiverID: domain.UserID("u-" + receiver),
		Message:    message,
	}
}

func (s *RedisStoreSuite) TestAppendAndDrainPreservesOrder() {
	ctx := context.Background()

	s.Require().NoError(s.store.Append(ctx, event("a", "r", "first")))
	s.Require().NoError(s.store.Append(ctx, event("b", "r", "second")))
	s.Require().NoError(s.store.Append(ctx, event("c", "r", "third")))

	events, err := s.store.Drain(ctx, "u-r")
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal("first", events[0].Message)
	s.Equal("second", events[1].Message)
	s.Equal("third", events[2].Message)
}

func (s *RedisStoreSuite) TestDrainEmptiesBacklog() {
	ctx := context.Background()

	s.Require().NoError(s.store.Append(ctx, event("a", "r", "once")))

	events, err := s.store.Drain(ctx, "u-r")
	s.Require().NoError(err)
	s.Len(events, 1)

	events, err = s.store.Drain(ctx, "u-r")
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *RedisStoreSuite) TestDrainUnknownUser() {
	events, err := s.store.Drain(context.Background(), "u-nobody")
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *RedisStoreSuite) TestCapDropsOldest() {
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		s.Require().NoError(s.store.Append(ctx, event("a", "r", fmt.Sprintf("msg-%d", i))))
	}

	events, err := s.store.Drain(ctx, "u-r")
	s.Require().NoError(err)
	s.Require().Len(events, 5)
	s.Equal("msg-3", events[0].Message)
	s.Equal("msg-7", events[4].Message)
}

func (s *RedisStoreSuite) TestBacklogsAreIsolatedPerReceiver() {
	ctx := context.Background()

	s.Require().NoError(s.store.Append(ctx, event("a", "r1", "for r1")))
	s.Require().NoError(s.store.Append(ctx, event("a", "r2", "for r2")))

	events, err := s.store.Drain(ctx, "u-r1")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("for r1", events[0].Message)

	events, err = s.store.Drain(ctx, "u-r2")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("for r2", events[0].Message)
}
