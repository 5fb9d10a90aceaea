package domain

const (
	PointsCorrect   = 100
	PointsIncorrect = 0
)

// ScoreRound awards points for a finished voting phase: PointsCorrect to every
// voter who picked the first human participant, PointsIncorrect otherwise.
// Pure function of (round.Votes, participants); safe to recompute at any time.
func ScoreRound(round *Round, participants []Participant) map[Identity]int {
	var correct Identity
	for _, p := range participants {
		if !p.IsAI {
			correct = p.Identity
			break
		}
	}

	scores := make(map[Identity]int, len(round.Votes))
	for voter, votedFor := range round.Votes {
		if votedFor == correct {
			scores[voter] = PointsCorrect
		} else {
			scores[voter] = PointsIncorrect
		}
	}
	return scores
}

// MatchScores sums each participant's per-round scores across all rounds.
// Totals are derived on demand, never stored on the aggregate.
func MatchScores(m *Match) map[Identity]int {
	totals := make(map[Identity]int, len(m.Participants))
	for _, p := range m.Participants {
		totals[p.Identity] = 0
	}
	for _, r := range m.Rounds {
		for id, pts := range r.Scores {
			totals[id] += pts
		}
	}
	return totals
}
