package models

import "time"

type EventKind string

const (
	EventFriendshipAccepted  EventKind = "friendship_accepted"
	EventFriendshipDeclined  EventKind = "friendship_declined"
	EventFriendshipCancelled EventKind = "friendship_cancelled"
)

// Event is emitted after the transaction that produced it has committed.
type Event struct {
	Kind       EventKind         `json:"kind"`
	Request    FriendshipRequest `json:"request"`
	ActorID    string            `json:"actor_id"`
	OccurredAt time.Time         `json:"occurred_at"`
}
