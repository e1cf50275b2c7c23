// Package friends implements the friendship request state machine.
//
// For an ordered pair (A, B) the states are NONE, A_REQUESTED_B,
// B_REQUESTED_A and FRIENDS. Every mutating call runs in one database
// transaction over the request ledger and the relationship store, so a
// reader never sees an accepted request without its edge or the other way
// round. Observers are told about accepted, declined and cancelled requests
// only after the transaction has committed.
package friends

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/sirupsen/logrus"

	"friendsd/database"
	"friendsd/ledger"
	"friendsd/logger"
	"friendsd/models"
	"friendsd/relationships"
)

// OperationFunc is called once per service operation with its outcome.
type OperationFunc func(op string, elapsed time.Duration, err error)

type Service struct {
	db        *database.DB
	observers Observers
	onOp      OperationFunc
	now       func() time.Time
}

type Option func(*Service)

func WithObservers(observers ...Observer) Option {
	return func(s *Service) {
		s.observers = append(s.observers, observers...)
	}
}

func WithOperationFunc(fn OperationFunc) Option {
	return func(s *Service) {
		s.onOp = fn
	}
}

func NewService(db *database.DB, opts ...Option) *Service {
	s := &Service{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestFriendship asks target to become requester's friend.
//
// If target already has a pending request toward requester, that request is
// accepted on the spot: the pair becomes friends, the returned outcome has
// Accepted set and friendship_accepted is emitted. Already being friends is
// reported as models.ErrAlreadyFriends; a second pending request for the same
// pair as models.ErrDuplicateRequest.
func (s *Service) RequestFriendship(ctx context.Context, requester, target, message string) (models.RequestOutcome, error) {
	if requester == target {
		return models.RequestOutcome{}, models.ErrSelfReference
	}

	var outcome models.RequestOutcome
	var events []models.Event

	err := s.inTx(ctx, "request", func(l *ledger.Ledger, r *relationships.Store) error {
		if err := lockPair(ctx, r, requester, target); err != nil {
			return err
		}
		if err := requireProvisioned(ctx, r, requester, target); err != nil {
			return err
		}

		friends, err := r.AreFriends(ctx, requester, target)
		if err != nil {
			return err
		}
		if friends {
			return models.ErrAlreadyFriends
		}

		reverse, err := l.GetActive(ctx, target, requester)
		switch {
		case err == nil:
			if err := acceptRequest(ctx, l, r, &reverse); err != nil {
				return err
			}
			outcome = models.RequestOutcome{Request: reverse, Accepted: true}
			events = append(events, s.event(models.EventFriendshipAccepted, reverse, requester))
			return nil
		case !errors.Is(err, models.ErrNotFound):
			return err
		}

		req, err := l.Create(ctx, requester, target, message)
		if err != nil {
			return err
		}
		outcome = models.RequestOutcome{Request: req}
		return nil
	})
	if err != nil {
		return models.RequestOutcome{}, err
	}

	s.notify(ctx, events)
	return outcome, nil
}

// AcceptRequest accepts the pending request from requester to acceptor.
func (s *Service) AcceptRequest(ctx context.Context, requester, acceptor string) (models.FriendshipRequest, error) {
	if requester == acceptor {
		return models.FriendshipRequest{}, models.ErrSelfReference
	}

	var req models.FriendshipRequest
	err := s.inTx(ctx, "accept", func(l *ledger.Ledger, r *relationships.Store) error {
		if err := lockPair(ctx, r, requester, acceptor); err != nil {
			return err
		}
		var err error
		req, err = l.GetActive(ctx, requester, acceptor)
		if err != nil {
			return err
		}
		return acceptRequest(ctx, l, r, &req)
	})
	if err != nil {
		return models.FriendshipRequest{}, err
	}

	s.notify(ctx, []models.Event{s.event(models.EventFriendshipAccepted, req, acceptor)})
	return req, nil
}

// DeclineRequest deletes the pending request from requester to decliner.
func (s *Service) DeclineRequest(ctx context.Context, requester, decliner string) (models.FriendshipRequest, error) {
	if requester == decliner {
		return models.FriendshipRequest{}, models.ErrSelfReference
	}

	var req models.FriendshipRequest
	err := s.inTx(ctx, "decline", func(l *ledger.Ledger, r *relationships.Store) error {
		if err := lockPair(ctx, r, requester, decliner); err != nil {
			return err
		}
		var err error
		req, err = l.GetActive(ctx, requester, decliner)
		if err != nil {
			return err
		}
		return l.Decline(ctx, req)
	})
	if err != nil {
		return models.FriendshipRequest{}, err
	}

	s.notify(ctx, []models.Event{s.event(models.EventFriendshipDeclined, req, decliner)})
	return req, nil
}

// CancelRequest withdraws canceller's pending request to target.
func (s *Service) CancelRequest(ctx context.Context, canceller, target string) (models.FriendshipRequest, error) {
	if canceller == target {
		return models.FriendshipRequest{}, models.ErrSelfReference
	}

	var req models.FriendshipRequest
	err := s.inTx(ctx, "cancel", func(l *ledger.Ledger, r *relationships.Store) error {
		if err := lockPair(ctx, r, canceller, target); err != nil {
			return err
		}
		var err error
		req, err = l.GetActive(ctx, canceller, target)
		if err != nil {
			return err
		}
		return l.Cancel(ctx, req)
	})
	if err != nil {
		return models.FriendshipRequest{}, err
	}

	s.notify(ctx, []models.Event{s.event(models.EventFriendshipCancelled, req, canceller)})
	return req, nil
}

// Unfriend removes the friendship between u1 and u2 together with every
// request row between them, accepted history included, so the pair is back to
// NONE. It succeeds when there was nothing to remove.
func (s *Service) Unfriend(ctx context.Context, u1, u2 string) error {
	if u1 == u2 {
		return models.ErrSelfReference
	}

	return s.inTx(ctx, "unfriend", func(l *ledger.Ledger, r *relationships.Store) error {
		if err := lockPair(ctx, r, u1, u2); err != nil {
			return err
		}
		if _, err := r.RemoveEdge(ctx, u1, u2); err != nil {
			return err
		}
		_, err := l.DeleteBetween(ctx, u1, u2)
		return err
	})
}

// Block puts target on user's block list. Friendship and requests between the
// two are left as they are.
func (s *Service) Block(ctx context.Context, user, target string) error {
	if user == target {
		return models.ErrSelfReference
	}

	return s.inTx(ctx, "block", func(_ *ledger.Ledger, r *relationships.Store) error {
		if err := lockPair(ctx, r, user, target); err != nil {
			return err
		}
		if err := requireProvisioned(ctx, r, user, target); err != nil {
			return err
		}
		return r.Block(ctx, user, target)
	})
}

func (s *Service) Unblock(ctx context.Context, user, target string) error {
	if user == target {
		return models.ErrSelfReference
	}

	return s.inTx(ctx, "unblock", func(_ *ledger.Ledger, r *relationships.Store) error {
		return r.Unblock(ctx, user, target)
	})
}

// EnsureProvisioned creates the per-user records every other operation relies
// on. The identity collaborator calls it when a user is created; repeated calls
// are no-ops.
func (s *Service) EnsureProvisioned(ctx context.Context, user string) error {
	if user == "" {
		return fmt.Errorf("provision: %w", models.ErrUnknownUser)
	}
	return s.inTx(ctx, "provision", func(_ *ledger.Ledger, r *relationships.Store) error {
		return r.Provision(ctx, user)
	})
}

// Backfill provisions users that existed before provisioning was wired up,
// batchSize users per transaction. It returns how many IDs it processed.
func (s *Service) Backfill(ctx context.Context, users iter.Seq2[string, error], batchSize int) (int, error) {
	if batchSize < 1 {
		return 0, fmt.Errorf("batch size must be > 0, got %d", batchSize)
	}

	total := 0
	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.inTx(ctx, "backfill", func(_ *ledger.Ledger, r *relationships.Store) error {
			return r.ProvisionBatch(ctx, batch)
		})
		if err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for id, err := range users {
		if err != nil {
			return total, fmt.Errorf("read users: %w", err)
		}
		batch = append(batch, id)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

func (s *Service) AreFriends(ctx context.Context, u1, u2 string) (bool, error) {
	return s.store().AreFriends(ctx, u1, u2)
}

// IsBlockedBy reports whether target has blocked user.
func (s *Service) IsBlockedBy(ctx context.Context, user, target string) (bool, error) {
	return s.store().IsBlockedBy(ctx, user, target)
}

// FriendsOf returns a lazy, restartable sequence of user's friends.
func (s *Service) FriendsOf(ctx context.Context, user string, randomize bool) iter.Seq2[string, error] {
	return s.store().FriendsOf(ctx, user, randomize)
}

func (s *Service) FriendList(ctx context.Context, user string, randomize bool) (models.FriendList, error) {
	store := s.store()
	ids, err := relationships.Collect(store.FriendsOf(ctx, user, randomize))
	if err != nil {
		return models.FriendList{}, err
	}
	n, err := store.FriendCount(ctx, user)
	if err != nil {
		return models.FriendList{}, err
	}
	return models.FriendList{UserID: user, Friends: ids, Count: n}, nil
}

// FriendListOf is FriendList for a user other than the caller, who may name
// someone that does not exist.
func (s *Service) FriendListOf(ctx context.Context, user string, randomize bool) (models.FriendList, error) {
	if err := requireProvisioned(ctx, s.store(), user); err != nil {
		return models.FriendList{}, err
	}
	return s.FriendList(ctx, user, randomize)
}

func (s *Service) BlockList(ctx context.Context, user string) (models.BlockList, error) {
	store := s.store()
	ids, err := relationships.Collect(store.Blocked(ctx, user))
	if err != nil {
		return models.BlockList{}, err
	}
	n, err := store.BlockCount(ctx, user)
	if err != nil {
		return models.BlockList{}, err
	}
	return models.BlockList{UserID: user, Blocked: ids, Count: n}, nil
}

// Status describes how viewer relates to target, for rendering the
// add-friend and block controls on target's profile.
func (s *Service) Status(ctx context.Context, viewer, target string) (models.RelationshipStatus, error) {
	status := models.RelationshipStatus{UserID: viewer, TargetID: target}
	if viewer == target {
		return status, models.ErrSelfReference
	}

	var err error
	if status.AreFriends, err = s.AreFriends(ctx, viewer, target); err != nil {
		return status, err
	}
	if status.IsBlocked, err = s.IsBlockedBy(ctx, target, viewer); err != nil {
		return status, err
	}
	if status.BlockedBy, err = s.IsBlockedBy(ctx, viewer, target); err != nil {
		return status, err
	}

	req, err := ledger.New(s.db, s.db.Dialect).Get(ctx, viewer, target)
	switch {
	case err == nil:
		status.IsInvited = !req.Accepted
	case !errors.Is(err, models.ErrNotFound):
		return status, err
	}
	return status, nil
}

// PendingRequests lists user's unanswered incoming and outgoing requests.
func (s *Service) PendingRequests(ctx context.Context, user string) (models.PendingRequests, error) {
	l := ledger.New(s.db, s.db.Dialect)
	incoming, err := l.Incoming(ctx, user)
	if err != nil {
		return models.PendingRequests{}, err
	}
	outgoing, err := l.Outgoing(ctx, user)
	if err != nil {
		return models.PendingRequests{}, err
	}
	return models.PendingRequests{Incoming: incoming, Outgoing: outgoing}, nil
}

func (s *Service) store() *relationships.Store {
	return relationships.New(s.db, s.db.Dialect)
}

// acceptRequest marks req accepted, links the pair and drops a request the
// acceptor may have sent the other way.
func acceptRequest(ctx context.Context, l *ledger.Ledger, r *relationships.Store, req *models.FriendshipRequest) error {
	if err := l.Accept(ctx, req); err != nil {
		return err
	}
	if err := r.AddEdge(ctx, req.FromUserID, req.ToUserID); err != nil {
		return err
	}
	_, err := l.DeleteFrom(ctx, req.ToUserID, req.FromUserID)
	return err
}

// lockPair must run before any other read in a pair mutation: on MySQL the
// consistent snapshot then starts after the lock is held.
func lockPair(ctx context.Context, r *relationships.Store, u1, u2 string) error {
	_, err := r.LockUsers(ctx, u1, u2)
	return err
}

func requireProvisioned(ctx context.Context, r *relationships.Store, users ...string) error {
	for _, u := range users {
		ok, err := r.Provisioned(ctx, u)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", models.ErrUnknownUser, u)
		}
	}
	return nil
}

func (s *Service) inTx(ctx context.Context, op string, fn func(l *ledger.Ledger, r *relationships.Store) error) error {
	start := s.now()
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(ledger.New(tx, s.db.Dialect), relationships.New(tx, s.db.Dialect))
	})

	if s.onOp != nil {
		s.onOp(op, s.now().Sub(start), err)
	}
	if err != nil && !IsExpected(err) {
		logger.Log.WithFields(logrus.Fields{
			"operation": op,
			"error":     err,
		}).Error("friendship operation failed")
	}
	return err
}

func (s *Service) event(kind models.EventKind, req models.FriendshipRequest, actor string) models.Event {
	return models.Event{Kind: kind, Request: req, ActorID: actor, OccurredAt: s.now().UTC()}
}

func (s *Service) notify(ctx context.Context, events []models.Event) {
	for _, e := range events {
		s.observers.Notify(ctx, e)
	}
}

// IsExpected reports whether err is one of the outcomes callers are meant to
// handle, as opposed to a storage failure.
func IsExpected(err error) bool {
	for _, target := range []error{
		models.ErrSelfReference,
		models.ErrNotFound,
		models.ErrDuplicateRequest,
		models.ErrAlreadyFriends,
		models.ErrUnknownUser,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
