package domain

type RoundStatus string

const (
	RoundStatusResponding RoundStatus = "responding"
	RoundStatusVoting     RoundStatus = "voting"
	RoundStatusComplete   RoundStatus = "complete"
)

// NoResponseMarker is recorded on behalf of a participant whose response
// deadline passed. It satisfies the response-count threshold but leaves the
// participant ineligible to vote.
const NoResponseMarker = "[no response]"

// Round is one prompt-response-vote cycle. Rounds are append-only:
// rounds[i].RoundNumber == i+1 for the life of the match.
type Round struct {
	RoundNumber       int                   `json:"roundNumber"`
	Prompt            string                `json:"prompt"`
	Responses         map[Identity]string   `json:"responses"`
	Votes             map[Identity]Identity `json:"votes"`
	Scores            map[Identity]int      `json:"scores,omitempty"`
	Status            RoundStatus           `json:"status"`
	PresentationOrder []Identity            `json:"presentationOrder,omitempty"`
}

func NewRound(number int, prompt string) Round {
	return Round{
		RoundNumber: number,
		Prompt:      prompt,
		Responses:   make(map[Identity]string),
		Votes:       make(map[Identity]Identity),
		Status:      RoundStatusResponding,
	}
}

// HasResponded reports whether id submitted a real response this round.
// A missing entry and the no-response marker both count as not responded.
func (r *Round) HasResponded(id Identity) bool {
	text, ok := r.Responses[id]
	return ok && text != "" && text != NoResponseMarker
}

// HasVoted reports whether id already cast a vote this round.
func (r *Round) HasVoted(id Identity) bool {
	_, ok := r.Votes[id]
	return ok
}
