package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MatchStatus string

const (
	MatchStatusWaiting           MatchStatus = "waiting"
	MatchStatusWaitingForPlayers MatchStatus = "waiting_for_players"
	MatchStatusRoundActive       MatchStatus = "round_active"
	MatchStatusRoundVoting       MatchStatus = "round_voting"
	MatchStatusCompleted         MatchStatus = "completed"
)

// Match is the aggregate root: a fixed roster of pseudonymous participants
// playing TotalRounds prompt-response-vote rounds. Participants and Rounds are
// persisted as JSONB documents on the match row and always written whole.
type Match struct {
	ID                uuid.UUID                         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	InviteCode        string                            `json:"inviteCode" gorm:"uniqueIndex;not null"`
	Status            MatchStatus                       `json:"status" gorm:"not null;default:'waiting'"`
	TemplateType      TemplateType                      `json:"templateType" gorm:"not null;default:'classic_1v3'"`
	TotalParticipants int                               `json:"totalParticipants" gorm:"not null;default:4"`
	CurrentRound      int                               `json:"currentRound" gorm:"not null;default:1"`
	TotalRounds       int                               `json:"totalRounds" gorm:"not null;default:5"`
	Participants      datatypes.JSONSlice[Participant]  `json:"participants" gorm:"type:jsonb"`
	Rounds            datatypes.JSONSlice[Round]        `json:"rounds" gorm:"type:jsonb"`
	CreatedAt         time.Time                         `json:"createdAt"`
	UpdatedAt         time.Time                         `json:"updatedAt"`
	CompletedAt       *time.Time                        `json:"completedAt"`
}

func (Match) TableName() string {
	return "matches"
}

// Participant returns the roster slot for id, if one has been filled.
func (m *Match) Participant(id Identity) (*Participant, bool) {
	for i := range m.Participants {
		if m.Participants[i].Identity == id {
			return &m.Participants[i], true
		}
	}
	return nil, false
}

// Humans returns the human roster slots in canonical order.
func (m *Match) Humans() []Participant {
	var out []Participant
	for _, p := range m.Participants {
		if !p.IsAI {
			out = append(out, p)
		}
	}
	return out
}

// Robots returns the AI roster slots in canonical order.
func (m *Match) Robots() []Participant {
	var out []Participant
	for _, p := range m.Participants {
		if p.IsAI {
			out = append(out, p)
		}
	}
	return out
}

// FirstHuman returns the first human slot in canonical order. Scoring treats
// its identity as the correct answer.
func (m *Match) FirstHuman() (*Participant, bool) {
	for i := range m.Participants {
		if !m.Participants[i].IsAI {
			return &m.Participants[i], true
		}
	}
	return nil, false
}

// Round returns the round with the given number, or ErrInvalidRound.
func (m *Match) Round(number int) (*Round, error) {
	if number < 1 || number > len(m.Rounds) {
		return nil, ErrInvalidRound
	}
	return &m.Rounds[number-1], nil
}

// CurrentRoundState returns the round currently in play, or nil before the
// first round exists.
func (m *Match) CurrentRoundState() *Round {
	r, err := m.Round(m.CurrentRound)
	if err != nil {
		return nil
	}
	return r
}

// NextFreeIdentity returns the next canonical letter not yet assigned.
// Letters are never reused within a match, so a disconnected participant
// keeps its slot.
func (m *Match) NextFreeIdentity() (Identity, error) {
	if len(m.Participants) >= m.TotalParticipants {
		return "", ErrMatchFull
	}
	for _, candidate := range identityAlphabet[:m.TotalParticipants] {
		if _, taken := m.Participant(candidate); !taken {
			return candidate, nil
		}
	}
	return "", ErrMatchFull
}

// AddParticipant appends a roster slot, rejecting duplicates and overflow.
func (m *Match) AddParticipant(p Participant) error {
	if len(m.Participants) >= m.TotalParticipants {
		return ErrMatchFull
	}
	if _, taken := m.Participant(p.Identity); taken {
		return ErrIdentityTaken
	}
	m.Participants = append(m.Participants, p)
	return nil
}

// IsJoinable reports whether the match is still waiting on human players.
func (m *Match) IsJoinable() bool {
	return m.Status == MatchStatusWaiting || m.Status == MatchStatusWaitingForPlayers
}

// RecordResponse stores a response for a participant. Resubmission overwrites:
// the last submission for a given identity wins.
func (m *Match) RecordResponse(roundNumber int, id Identity, text string) error {
	round, err := m.Round(roundNumber)
	if err != nil {
		return err
	}
	if round.Status != RoundStatusResponding {
		return ErrInvalidRound
	}
	if _, ok := m.Participant(id); !ok {
		return ErrUnknownParticipant
	}
	round.Responses[id] = text
	return nil
}

// RecordVote stores a vote. A participant who did not submit a real response
// this round may not vote.
func (m *Match) RecordVote(roundNumber int, voter, votedFor Identity) error {
	round, err := m.Round(roundNumber)
	if err != nil {
		return err
	}
	if round.Status != RoundStatusVoting {
		return ErrInvalidRound
	}
	if _, ok := m.Participant(voter); !ok {
		return ErrUnknownParticipant
	}
	if _, ok := m.Participant(votedFor); !ok {
		return ErrUnknownParticipant
	}
	if !round.HasResponded(voter) {
		return ErrIneligibleVoter
	}
	round.Votes[voter] = votedFor
	return nil
}

// AllHumansResponded reports whether every human slot has a response entry
// (the no-response marker counts: it exists to unblock this very threshold).
func (m *Match) AllHumansResponded(roundNumber int) bool {
	round, err := m.Round(roundNumber)
	if err != nil {
		return false
	}
	for _, p := range m.Humans() {
		if _, ok := round.Responses[p.Identity]; !ok {
			return false
		}
	}
	return len(m.Humans()) > 0
}

// EligibleVoters returns the identities allowed to vote this round.
func (m *Match) EligibleVoters(roundNumber int) []Identity {
	round, err := m.Round(roundNumber)
	if err != nil {
		return nil
	}
	var out []Identity
	for _, p := range m.Participants {
		if round.HasResponded(p.Identity) {
			out = append(out, p.Identity)
		}
	}
	return out
}

// AllEligibleHumansVoted reports whether every vote-eligible human has voted.
func (m *Match) AllEligibleHumansVoted(roundNumber int) bool {
	round, err := m.Round(roundNumber)
	if err != nil {
		return false
	}
	for _, p := range m.Humans() {
		if round.HasResponded(p.Identity) && !round.HasVoted(p.Identity) {
			return false
		}
	}
	return true
}

// MaybeStartVoting transitions the round out of responding once every
// participant slot has a response entry. The check is purely count-based so
// concurrent submitters and robot completion callbacks can all re-run it
// safely. Entering voting fixes the presentation order from the round seed.
func (m *Match) MaybeStartVoting(roundNumber int) bool {
	round, err := m.Round(roundNumber)
	if err != nil || round.Status != RoundStatusResponding {
		return false
	}
	if len(round.Responses) < m.TotalParticipants {
		return false
	}

	identities := make([]Identity, len(m.Participants))
	for i, p := range m.Participants {
		identities[i] = p.Identity
	}
	round.PresentationOrder = ShuffleIdentities(identities, RoundSeed(m.ID.String(), roundNumber))
	round.Status = RoundStatusVoting
	m.Status = MatchStatusRoundVoting
	return true
}

// MaybeCompleteRound transitions the round out of voting once every eligible
// voter has voted, computing scores as it goes. Idempotent like
// MaybeStartVoting.
func (m *Match) MaybeCompleteRound(roundNumber int) bool {
	round, err := m.Round(roundNumber)
	if err != nil || round.Status != RoundStatusVoting {
		return false
	}
	for _, id := range m.EligibleVoters(roundNumber) {
		if !round.HasVoted(id) {
			return false
		}
	}
	round.Scores = ScoreRound(round, m.Participants)
	round.Status = RoundStatusComplete
	return true
}

// StartNextRound appends a fresh round in responding status and makes it
// current. Rounds are never removed.
func (m *Match) StartNextRound(prompt string) *Round {
	m.CurrentRound++
	m.Rounds = append(m.Rounds, NewRound(m.CurrentRound, prompt))
	m.Status = MatchStatusRoundActive
	return &m.Rounds[len(m.Rounds)-1]
}

// Complete marks the match finished. Terminal: nothing transitions out.
func (m *Match) Complete(now time.Time) {
	m.Status = MatchStatusCompleted
	m.CompletedAt = &now
}

// PriorPrompts returns the prompts of all rounds so far, oldest first. The
// prompt provider uses them for continuity and to avoid repeats.
func (m *Match) PriorPrompts() []string {
	out := make([]string, 0, len(m.Rounds))
	for _, r := range m.Rounds {
		out = append(out, r.Prompt)
	}
	return out
}
