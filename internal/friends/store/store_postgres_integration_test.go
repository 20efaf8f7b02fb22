//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"onyx/internal/friends/models"
	"onyx/internal/friends/store"
	"onyx/pkg/domain"
	"onyx/pkg/sentinel"
	"onyx/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.pg.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(context.Background(), `TRUNCATE friend_pairs`)
	s.Require().NoError(err)
}

const (
	alice = domain.UserID("alice")
	bob   = domain.UserID("bob")
	carol = domain.UserID("carol")
)

func (s *PostgresStoreSuite) TestRequestAcceptLifecycle() {
	ctx := context.Background()

	s.Require().NoError(s.store.ApplyRequest(ctx, alice, bob))

	state, err := s.store.PairState(ctx, alice, bob)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, state.Status)
	s.Equal(alice, state.Requester)

	s.Require().NoError(s.store.ApplyAccept(ctx, bob, alice))

	state, err = s.store.PairState(ctx, bob, alice)
	s.Require().NoError(err)
	s.Equal(models.StatusFriends, state.Status)
}

func (s *PostgresStoreSuite) TestDuplicateRequestHitsUniqueConstraint() {
	ctx := context.Background()

	s.Require().NoError(s.store.ApplyRequest(ctx, alice, bob))

	err := s.store.ApplyRequest(ctx, alice, bob)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	// The reverse direction canonicalizes to the same row.
	err = s.store.ApplyRequest(ctx, bob, alice)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresStoreSuite) TestAcceptRequiresMatchingPendingRow() {
	ctx := context.Background()

	err := s.store.ApplyAccept(ctx, bob, alice)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.ApplyRequest(ctx, alice, bob))

	// Only the receiver side can accept; the conditional update matches the
	// requester column, so the sender accepting their own request misses.
	err = s.store.ApplyAccept(ctx, alice, bob)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRejectDeletesPendingRow() {
	ctx := context.Background()

	s.Require().NoError(s.store.ApplyRequest(ctx, alice, bob))
	s.Require().NoError(s.store.ApplyReject(ctx, bob, alice))

	state, err := s.store.PairState(ctx, alice, bob)
	s.Require().NoError(err)
	s.Equal(models.StatusNone, state.Status)

	// Rejected means re-requestable.
	s.Require().NoError(s.store.ApplyRequest(ctx, alice, bob))
}

func (s *PostgresStoreSuite) TestRemoveRequiresFriendsRow() {
	ctx := context.Background()

	err := s.store.ApplyRemove(ctx, alice, bob)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.ApplyRequest(ctx, alice, bob))

	// Pending is not removable, only an established friendship is.
	err = s.store.ApplyRemove(ctx, alice, bob)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.ApplyAccept(ctx, bob, alice))
	s.Require().NoError(s.store.ApplyRemove(ctx, bob, alice))

	state, err := s.store.PairState(ctx, alice, bob)
	s.Require().NoError(err)
	s.Equal(models.StatusNone, state.Status)
}

func (s *PostgresStoreSuite) TestViewPartitionsRelationships() {
	ctx := context.Background()

	s.Require().NoError(s.store.ApplyRequest(ctx, alice, bob))
	s.Require().NoError(s.store.ApplyAccept(ctx, bob, alice))
	s.Require().NoError(s.store.ApplyRequest(ctx, alice, carol))
	s.Require().NoError(s.store.ApplyRequest(ctx, "dave", alice))

	view, err := s.store.View(ctx, alice)
	s.Require().NoError(err)
	s.ElementsMatch([]domain.UserID{bob}, view.Friends)
	s.ElementsMatch([]domain.UserID{carol}, view.RequestsSent)
	s.ElementsMatch([]domain.UserID{"dave"}, view.RequestsReceived)

	// The same rows seen from the other side.
	view, err = s.store.View(ctx, carol)
	s.Require().NoError(err)
	s.Empty(view.Friends)
	s.Empty(view.RequestsSent)
	s.ElementsMatch([]domain.UserID{alice}, view.RequestsReceived)
}
