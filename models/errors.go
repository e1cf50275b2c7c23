package models

import "errors"

var (
	// ErrSelfReference is returned when caller and target are the same user.
	ErrSelfReference = errors.New("cannot target yourself")
	// ErrNotFound indicates the referenced request or record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateRequest indicates an active request already exists for the pair.
	ErrDuplicateRequest = errors.New("friendship request already sent")
	ErrAlreadyFriends   = errors.New("already friends")
	// ErrUnknownUser indicates a user has no provisioned friendship records.
	ErrUnknownUser = errors.New("user not found")
)
