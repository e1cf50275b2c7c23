// Package ledger persists friendship requests and their lifecycle.
//
// A Ledger is a data-access facade bound to a Querier, usually the *sql.Tx of
// the operation that uses it. It emits no events; that is the caller's job.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"friendsd/database"
	"friendsd/models"
	"friendsd/utils"
)

const requestColumns = "id, from_user_id, to_user_id, message, created_at, accepted"

type Ledger struct {
	q       database.Querier
	dialect database.Dialect
	now     func() time.Time
}

func New(q database.Querier, dialect database.Dialect) *Ledger {
	return &Ledger{q: q, dialect: dialect, now: time.Now}
}

// Create inserts a pending request. A second active request for the same
// ordered pair fails with models.ErrDuplicateRequest. An accepted row left
// behind for the pair is history and gets replaced.
func (l *Ledger) Create(ctx context.Context, fromUserID, toUserID, message string) (models.FriendshipRequest, error) {
	message = truncate(message, models.MaxMessageLength)

	req := models.FriendshipRequest{
		ID:         utils.GenerateUUID(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Message:    message,
		CreatedAt:  l.now().UTC().Truncate(time.Millisecond),
	}

	if _, err := l.q.ExecContext(ctx,
		"DELETE FROM friendship_requests WHERE from_user_id = ? AND to_user_id = ? AND accepted = 1",
		fromUserID, toUserID,
	); err != nil {
		return models.FriendshipRequest{}, fmt.Errorf("clear accepted request: %w", err)
	}

	_, err := l.q.ExecContext(ctx,
		"INSERT INTO friendship_requests ("+requestColumns+") VALUES (?, ?, ?, ?, ?, 0)",
		req.ID, req.FromUserID, req.ToUserID, req.Message, utils.ToMillis(req.CreatedAt),
	)
	if err != nil {
		if l.dialect.IsUniqueViolation(err) {
			return models.FriendshipRequest{}, models.ErrDuplicateRequest
		}
		return models.FriendshipRequest{}, fmt.Errorf("insert friendship request: %w", err)
	}

	return req, nil
}

// truncate cuts s after limit runes. Bytes before the cut are kept as they are.
func truncate(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// GetActive returns the pending request from fromUserID to toUserID, locking
// the row for the rest of the transaction where the dialect supports it.
func (l *Ledger) GetActive(ctx context.Context, fromUserID, toUserID string) (models.FriendshipRequest, error) {
	row := l.q.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM friendship_requests WHERE from_user_id = ? AND to_user_id = ? AND accepted = 0"+l.dialect.ForUpdate(),
		fromUserID, toUserID,
	)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendshipRequest{}, models.ErrNotFound
	}
	if err != nil {
		return models.FriendshipRequest{}, fmt.Errorf("get friendship request: %w", err)
	}
	return req, nil
}

// Get returns the request for the ordered pair regardless of its state.
func (l *Ledger) Get(ctx context.Context, fromUserID, toUserID string) (models.FriendshipRequest, error) {
	row := l.q.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM friendship_requests WHERE from_user_id = ? AND to_user_id = ?",
		fromUserID, toUserID,
	)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendshipRequest{}, models.ErrNotFound
	}
	if err != nil {
		return models.FriendshipRequest{}, fmt.Errorf("get friendship request: %w", err)
	}
	return req, nil
}

// Accept marks the request accepted and keeps it as an audit record.
func (l *Ledger) Accept(ctx context.Context, req *models.FriendshipRequest) error {
	result, err := l.q.ExecContext(ctx,
		"UPDATE friendship_requests SET accepted = 1 WHERE id = ? AND accepted = 0",
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("accept friendship request: %w", err)
	}
	if err := requireOneRow(result); err != nil {
		return err
	}
	req.Accepted = true
	return nil
}

func (l *Ledger) Decline(ctx context.Context, req models.FriendshipRequest) error {
	return l.deleteActive(ctx, req, "decline")
}

func (l *Ledger) Cancel(ctx context.Context, req models.FriendshipRequest) error {
	return l.deleteActive(ctx, req, "cancel")
}

func (l *Ledger) deleteActive(ctx context.Context, req models.FriendshipRequest, action string) error {
	result, err := l.q.ExecContext(ctx,
		"DELETE FROM friendship_requests WHERE id = ? AND accepted = 0",
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("%s friendship request: %w", action, err)
	}
	return requireOneRow(result)
}

// DeleteFrom removes any request row from fromUserID to toUserID.
func (l *Ledger) DeleteFrom(ctx context.Context, fromUserID, toUserID string) (int64, error) {
	result, err := l.q.ExecContext(ctx,
		"DELETE FROM friendship_requests WHERE from_user_id = ? AND to_user_id = ?",
		fromUserID, toUserID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete friendship requests: %w", err)
	}
	return result.RowsAffected()
}

// DeleteBetween removes request rows in both directions between a and b.
func (l *Ledger) DeleteBetween(ctx context.Context, a, b string) (int64, error) {
	result, err := l.q.ExecContext(ctx,
		"DELETE FROM friendship_requests WHERE (from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
		a, b, b, a,
	)
	if err != nil {
		return 0, fmt.Errorf("delete friendship requests: %w", err)
	}
	return result.RowsAffected()
}

// CountBetween counts request rows in both directions. activeOnly skips
// accepted history rows.
func (l *Ledger) CountBetween(ctx context.Context, a, b string, activeOnly bool) (int, error) {
	query := "SELECT COUNT(*) FROM friendship_requests WHERE ((from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?))"
	if activeOnly {
		query += " AND accepted = 0"
	}
	var n int
	if err := l.q.QueryRowContext(ctx, query, a, b, b, a).Scan(&n); err != nil {
		return 0, fmt.Errorf("count friendship requests: %w", err)
	}
	return n, nil
}

// Incoming lists pending requests addressed to userID, newest first.
func (l *Ledger) Incoming(ctx context.Context, userID string) ([]models.FriendshipRequest, error) {
	return l.list(ctx, "to_user_id", userID)
}

// Outgoing lists pending requests sent by userID, newest first.
func (l *Ledger) Outgoing(ctx context.Context, userID string) ([]models.FriendshipRequest, error) {
	return l.list(ctx, "from_user_id", userID)
}

func (l *Ledger) list(ctx context.Context, column, userID string) ([]models.FriendshipRequest, error) {
	rows, err := l.q.QueryContext(ctx,
		"SELECT "+requestColumns+" FROM friendship_requests WHERE "+column+" = ? AND accepted = 0 ORDER BY created_at DESC, id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friendship requests: %w", err)
	}
	defer rows.Close()

	requests := []models.FriendshipRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friendship request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friendship requests: %w", err)
	}
	return requests, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(s scanner) (models.FriendshipRequest, error) {
	var req models.FriendshipRequest
	var createdAt int64
	if err := s.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Message, &createdAt, &req.Accepted); err != nil {
		return models.FriendshipRequest{}, err
	}
	req.CreatedAt = utils.FromMillis(createdAt)
	return req, nil
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
