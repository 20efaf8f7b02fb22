package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"onyx/internal/friends/models"
	"onyx/pkg/domain"
	"onyx/pkg/sentinel"
)

// PostgresStore persists the friend graph in PostgreSQL. One row per pair,
// keyed by the canonical (lo, hi) ordering. Every transition is a single
// conditional statement, so the database row is the atomic mutation
// boundary; concurrent transitions on the same pair serialize on it.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed friend graph store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the friend_pairs table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS friend_pairs (
			user_lo    TEXT NOT NULL,
			user_hi    TEXT NOT NULL,
			status     TEXT NOT NULL CHECK (status IN ('pending', 'friends')),
			requester  TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_lo, user_hi)
		)`)
	if err != nil {
		return fmt.Errorf("migrate friend_pairs: %w", err)
	}
	return nil
}

func orderPair(a, b domain.UserID) (lo, hi string) {
	if b < a {
		a, b = b, a
	}
	return a.String(), b.String()
}

func (s *PostgresStore) ApplyRequest(ctx context.Context, from, to domain.UserID) error {
	lo, hi := orderPair(from, to)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO friend_pairs (user_lo, user_hi, status, requester)
		 VALUES ($1, $2, 'pending', $3)`,
		lo, hi, from.String(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			// Pair already pending or friends.
			return sentinel.ErrInvalidState
		}
		return fmt.Errorf("insert friend request: %w", err)
	}
	return nil
}

func (s *PostgresStore) ApplyAccept(ctx context.Context, to, from domain.UserID) error {
	lo, hi := orderPair(to, from)
	res, err := s.db.ExecContext(ctx,
		`UPDATE friend_pairs
		 SET status = 'friends', updated_at = now()
		 WHERE user_lo = $1 AND user_hi = $2 AND status = 'pending' AND requester = $3`,
		lo, hi, from.String(),
	)
	if err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ApplyReject(ctx context.Context, to, from domain.UserID) error {
	lo, hi := orderPair(to, from)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM friend_pairs
		 WHERE user_lo = $1 AND user_hi = $2 AND status = 'pending' AND requester = $3`,
		lo, hi, from.String(),
	)
	if err != nil {
		return fmt.Errorf("reject friend request: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ApplyRemove(ctx context.Context, a, b domain.UserID) error {
	lo, hi := orderPair(a, b)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM friend_pairs
		 WHERE user_lo = $1 AND user_hi = $2 AND status = 'friends'`,
		lo, hi,
	)
	if err != nil {
		return fmt.Errorf("remove friend: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) View(ctx context.Context, userID domain.UserID) (*models.GraphView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_lo, user_hi, status, requester
		 FROM friend_pairs
		 WHERE user_lo = $1 OR user_hi = $1`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query friend graph: %w", err)
	}
	defer rows.Close()

	view := &models.GraphView{
		Friends:          []domain.UserID{},
		RequestsSent:     []domain.UserID{},
		RequestsReceived: []domain.UserID{},
	}
	for rows.Next() {
		var lo, hi, status, requester string
		if err := rows.Scan(&lo, &hi, &status, &requester); err != nil {
			return nil, fmt.Errorf("scan friend pair: %w", err)
		}
		other := domain.UserID(lo)
		if other == userID {
			other = domain.UserID(hi)
		}
		switch {
		case status == string(models.StatusFriends):
			view.Friends = append(view.Friends, other)
		case domain.UserID(requester) == userID:
			view.RequestsSent = append(view.RequestsSent, other)
		default:
			view.RequestsReceived = append(view.RequestsReceived, other)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friend graph: %w", err)
	}
	return view, nil
}

func (s *PostgresStore) PairState(ctx context.Context, a, b domain.UserID) (models.PairState, error) {
	lo, hi := orderPair(a, b)
	var status, requester string
	err := s.db.QueryRowContext(ctx,
		`SELECT status, requester FROM friend_pairs WHERE user_lo = $1 AND user_hi = $2`,
		lo, hi,
	).Scan(&status, &requester)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PairState{Status: models.StatusNone}, nil
	}
	if err != nil {
		return models.PairState{}, fmt.Errorf("query pair state: %w", err)
	}
	return models.PairState{
		Status:    models.PairStatus(status),
		Requester: domain.UserID(requester),
	}, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
