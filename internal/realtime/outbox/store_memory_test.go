package outbox

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"onyx/internal/realtime/models"
	"onyx/pkg/domain"
)

func event(sender, receiver, message string) models.NotificationEvent {
	return models.NotificationEvent{
		Kind:       models.KindComment,
		SenderID:   domain.UserID(sender),
		ReceiverID: domain.UserID(receiver),
		Message:    message,
	}
}

func TestAppendAndDrainPreservesOrder(t *testing.T) {
	store := NewInMemoryStore(10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, event("u1", "u2", "first")))
	require.NoError(t, store.Append(ctx, event("u3", "u2", "second")))

	events, err := store.Drain(ctx, domain.UserID("u2"))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "first", events[0].Message)
	require.Equal(t, "second", events[1].Message)
}

func TestDrainEmptiesBacklog(t *testing.T) {
	store := NewInMemoryStore(10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, event("u1", "u2", "once")))

	_, err := store.Drain(ctx, domain.UserID("u2"))
	require.NoError(t, err)

	events, err := store.Drain(ctx, domain.UserID("u2"))
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestDrainUnknownUserYieldsEmpty(t *testing.T) {
	store := NewInMemoryStore(10)

	events, err := store.Drain(context.Background(), domain.UserID("ghost"))
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestBacklogDiscardsOldestBeyondCap(t *testing.T) {
	store := NewInMemoryStore(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, event("u1", "u2", fmt.Sprintf("m%d", i))))
	}

	events, err := store.Drain(ctx, domain.UserID("u2"))
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "m2", events[0].Message)
	require.Equal(t, "m4", events[2].Message)
}

func TestBacklogsAreIsolatedPerReceiver(t *testing.T) {
	store := NewInMemoryStore(10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, event("u1", "u2", "for u2")))
	require.NoError(t, store.Append(ctx, event("u1", "u3", "for u3")))

	events, err := store.Drain(ctx, domain.UserID("u2"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "for u2", events[0].Message)

	events, err = store.Drain(ctx, domain.UserID("u3"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "for u3", events[0].Message)
}
