package provider

import (
	"context"
	"fmt"

	"github.com/mkells/robot-orchestra/internal/domain"
)

// canned lines per personality, cycled deterministically per (match, round,
// identity) so repeated generation for the same slot stays stable.
var cannedLines = map[domain.Personality][]string{
	domain.PersonalityAnalytical: {
		"If I break it down, there are really only two sensible answers here, and I picked the second.",
		"Statistically speaking, most people would say the obvious thing. I'll say it too, but on purpose.",
		"I considered this from three angles and they all pointed the same way.",
	},
	domain.PersonalityPlayful: {
		"Ooh, great question! My answer is whatever makes the best story.",
		"I'm going to answer this the fun way and accept the consequences.",
		"Honestly? Chaos. The answer is always a little chaos.",
	},
	domain.PersonalitySkeptical: {
		"I doubt anyone answers this honestly, but here's my attempt.",
		"Sounds like a trick question. I'll answer the question behind the question.",
		"I'm not convinced there's a right answer, so here's a wrong one done well.",
	},
	domain.PersonalityPoetic: {
		"Like morning fog on a window, my answer is simple but hard to see through.",
		"Small things, quiet things. That's where my answer lives.",
		"I'd say it plainly, but plainness never did it justice.",
	},
}

var defaultLines = []string{
	"Good question. I'll keep my answer short and honest.",
	"I had to think about this one for a second.",
	"My answer is the boring one, which might make it the right one.",
}

// Static is a zero-dependency response provider used when no generating
// backend is configured. It never fails.
type Static struct{}

func NewStatic() *Static {
	return &Static{}
}

func (s *Static) GenerateResponse(ctx context.Context, req Request) (string, error) {
	return pickLine(req), nil
}

// FallbackResponse is the templated answer recorded when a generating
// provider exhausts its retries. The round must still reach its completion
// threshold, so this never fails either.
func FallbackResponse(req Request) string {
	return pickLine(req)
}

func pickLine(req Request) string {
	lines, ok := cannedLines[req.Personality]
	if !ok {
		lines = defaultLines
	}
	key := fmt.Sprintf("%s|%d|%s", req.MatchID, req.RoundNumber, req.Identity)
	var h uint32
	for i := 0; i < len(key); i++ {
		h = h*31 + uint32(key[i])
	}
	return lines[int(h)%len(lines)]
}
