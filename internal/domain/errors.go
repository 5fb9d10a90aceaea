package domain

import "errors"

// Match errors
var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchFull        = errors.New("match is full")
	ErrMatchNotJoinable = errors.New("match is not joinable")
	ErrInvalidPartySize = errors.New("total participants must be between 3 and 8")
	ErrIdentityTaken    = errors.New("identity is already taken")
)

// Round errors
var (
	ErrInvalidRound       = errors.New("round does not exist or is not accepting this action")
	ErrUnknownParticipant = errors.New("identity does not belong to a participant in this match")
	ErrIneligibleVoter    = errors.New("participant did not respond this round and may not vote")
)

// Session errors
var ErrSessionNotFound = errors.New("session not found")
