package service

import "github.com/google/uuid"

// Event types pushed over the state-update channel. Clients cannot mutate
// anything with these; they exist so watchers can re-fetch instead of polling.
const (
	EventParticipantJoined     = "PARTICIPANT_JOINED"
	EventResponseReceived      = "RESPONSE_RECEIVED"
	EventRobotResponseComplete = "ROBOT_RESPONSE_COMPLETE"
	EventRoundVoting           = "ROUND_VOTING"
	EventVoteReceived          = "VOTE_RECEIVED"
	EventRoundComplete         = "ROUND_COMPLETE"
	EventMatchCompleted        = "MATCH_COMPLETED"
)

// Notifier fans state-update events out to whoever is watching a match.
type Notifier interface {
	MatchEvent(matchID uuid.UUID, eventType string, payload any)
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) MatchEvent(matchID uuid.UUID, eventType string, payload any) {}

// event is a queued notification, held until the aggregate write succeeds.
type event struct {
	eventType string
	payload   any
}
