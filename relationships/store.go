// Package relationships stores friendship edges, block lists and the per-user
// records both hang off.
//
// Each friendship is written as two rows, one per side, and every write touches
// both rows in the same call so the relation stays symmetric.
package relationships

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"friendsd/database"
	"friendsd/utils"
)

type Store struct {
	q       database.Querier
	dialect database.Dialect
	now     func() time.Time
}

func New(q database.Querier, dialect database.Dialect) *Store {
	return &Store{q: q, dialect: dialect, now: time.Now}
}

func (s *Store) nowMillis() int64 {
	return utils.ToMillis(s.now())
}

// Provision creates the empty friend list and block list records for userID.
// Calling it again is a no-op.
func (s *Store) Provision(ctx context.Context, userID string) error {
	return s.ProvisionBatch(ctx, []string{userID})
}

// ProvisionBatch provisions several users with one statement per table.
func (s *Store) ProvisionBatch(ctx context.Context, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	now := s.nowMillis()
	placeholders := strings.TrimSuffix(strings.Repeat("(?, ?), ", len(userIDs)), ", ")
	args := make([]any, 0, len(userIDs)*2)
	for _, id := range userIDs {
		args = append(args, id, now)
	}

	for _, table := range []string{"friend_lists", "block_lists"} {
		query := fmt.Sprintf("%s INTO %s (user_id, created_at) VALUES %s", s.dialect.InsertIgnore(), table, placeholders)
		if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("provision %s: %w", table, err)
		}
	}
	return nil
}

// Provisioned reports whether both per-user records exist.
func (s *Store) Provisioned(ctx context.Context, userID string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM friend_lists WHERE user_id = ?) +
			(SELECT COUNT(*) FROM block_lists WHERE user_id = ?)
	`, userID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check provisioning: %w", err)
	}
	return n == 2, nil
}

// LockUsers takes a row lock on the friend list record of every given user,
// in ID order, and returns the IDs it found. Two transactions locking the same
// pair therefore queue behind each other instead of interleaving, whichever
// order their callers named the users in.
func (s *Store) LockUsers(ctx context.Context, userIDs ...string) ([]string, error) {
	ids := slices.Clone(userIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := "SELECT user_id FROM friend_lists WHERE user_id IN (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") +
		") ORDER BY user_id" + s.dialect.ForUpdate()

	locked, err := Collect(s.ids(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("lock users: %w", err)
	}
	return locked, nil
}

// AreFriends is a single lookup on u1's side; AddEdge keeps both sides equal.
func (s *Store) AreFriends(ctx context.Context, u1, u2 string) (bool, error) {
	if u1 == u2 {
		return false, nil
	}
	var exists bool
	err := s.q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM friendship_edges WHERE user_id = ? AND friend_id = ?)",
		u1, u2,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return exists, nil
}

// AddEdge links u1 and u2 in both directions. Existing rows are left alone.
func (s *Store) AddEdge(ctx context.Context, u1, u2 string) error {
	if u1 == u2 {
		return fmt.Errorf("add edge for %s: self friendship is not allowed", u1)
	}
	now := s.nowMillis()
	_, err := s.q.ExecContext(ctx,
		s.dialect.InsertIgnore()+" INTO friendship_edges (user_id, friend_id, created_at) VALUES (?, ?, ?), (?, ?, ?)",
		u1, u2, now, u2, u1, now,
	)
	if err != nil {
		return fmt.Errorf("add friendship edge: %w", err)
	}
	return nil
}

// RemoveEdge unlinks u1 and u2 in both directions and reports whether an edge
// existed.
func (s *Store) RemoveEdge(ctx context.Context, u1, u2 string) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		"DELETE FROM friendship_edges WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		u1, u2, u2, u1,
	)
	if err != nil {
		return false, fmt.Errorf("remove friendship edge: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// FriendsOf yields the IDs of userID's friends. Nothing is queried until the
// sequence is ranged over, and each range runs the query afresh. With
// randomize the order is a random permutation per run; otherwise it is by ID.
func (s *Store) FriendsOf(ctx context.Context, userID string, randomize bool) iter.Seq2[string, error] {
	order := "friend_id"
	if randomize {
		order = s.dialect.Random()
	}
	query := "SELECT friend_id FROM friendship_edges WHERE user_id = ? ORDER BY " + order
	return s.ids(ctx, query, userID)
}

func (s *Store) FriendCount(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM friendship_edges WHERE user_id = ?", userID)
}

// Block adds target to userID's block list. It does not touch friendship state
// and it is not mirrored to target's list.
func (s *Store) Block(ctx context.Context, userID, target string) error {
	_, err := s.q.ExecContext(ctx,
		s.dialect.InsertIgnore()+" INTO user_blocks (user_id, blocked_id, created_at) VALUES (?, ?, ?)",
		userID, target, s.nowMillis(),
	)
	if err != nil {
		return fmt.Errorf("block user: %w", err)
	}
	return nil
}

func (s *Store) Unblock(ctx context.Context, userID, target string) error {
	_, err := s.q.ExecContext(ctx,
		"DELETE FROM user_blocks WHERE user_id = ? AND blocked_id = ?",
		userID, target,
	)
	if err != nil {
		return fmt.Errorf("unblock user: %w", err)
	}
	return nil
}

// IsBlockedBy reports whether target has blocked userID.
func (s *Store) IsBlockedBy(ctx context.Context, userID, target string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM user_blocks WHERE user_id = ? AND blocked_id = ?)",
		target, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return exists, nil
}

// Blocked yields the users on userID's block list, ordered by ID.
func (s *Store) Blocked(ctx context.Context, userID string) iter.Seq2[string, error] {
	return s.ids(ctx, "SELECT blocked_id FROM user_blocks WHERE user_id = ? ORDER BY blocked_id", userID)
}

func (s *Store) BlockCount(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM user_blocks WHERE user_id = ?", userID)
}

func (s *Store) ids(ctx context.Context, query string, args ...any) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rows, err := s.q.QueryContext(ctx, query, args...)
		if err != nil {
			yield("", fmt.Errorf("query user ids: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				yield("", fmt.Errorf("scan user id: %w", err))
				return
			}
			if !yield(id, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield("", fmt.Errorf("iterate user ids: %w", err))
		}
	}
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Collect drains a sequence produced by the store into a slice.
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	ids := []string{}
	for id, err := range seq {
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
