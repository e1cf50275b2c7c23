package models

import "time"

// MaxMessageLength bounds the optional text attached to a request.
const MaxMessageLength = 200

// FriendshipRequest is an unconfirmed intent from FromUserID to ToUserID.
// Accepted requests are kept as history; declined and cancelled ones are deleted.
type FriendshipRequest struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	Accepted   bool      `json:"accepted"`
}

type PendingRequests struct {
	Incoming []FriendshipRequest `json:"incoming"`
	Outgoing []FriendshipRequest `json:"outgoing"`
}

// RequestOutcome is the result of asking for a friendship. Accepted is set when
// the target already had a pending request toward the requester and the pair
// became friends immediately.
type RequestOutcome struct {
	Request  FriendshipRequest `json:"request"`
	Accepted bool              `json:"accepted"`
}

type FriendList struct {
	UserID  string   `json:"user_id"`
	Friends []string `json:"friends"`
	Count   int      `json:"count"`
}

type BlockList struct {
	UserID  string   `json:"user_id"`
	Blocked []string `json:"blocked"`
	Count   int      `json:"count"`
}

// RelationshipStatus is UserID's view of TargetID. IsInvited is set while
// UserID's request to TargetID is pending, IsBlocked when UserID has blocked
// TargetID and BlockedBy when TargetID has blocked UserID.
type RelationshipStatus struct {
	UserID     string `json:"user_id"`
	TargetID   string `json:"target_id"`
	AreFriends bool   `json:"are_friends"`
	IsInvited  bool   `json:"is_invited"`
	IsBlocked  bool   `json:"is_blocked"`
	BlockedBy  bool   `json:"blocked_by"`
}
