package provider

import (
	"context"

	"github.com/mkells/robot-orchestra/internal/domain"
)

// Request carries everything a response provider needs to write one robot
// answer. HumanResponses holds the real human answers recorded so far this
// round, letting a generating provider match their register; it may be empty
// when robots answer before the humans do.
type Request struct {
	MatchID        string
	RoundNumber    int
	Prompt         string
	Identity       domain.Identity
	DisplayName    string
	Personality    domain.Personality
	HumanResponses map[domain.Identity]string
}

// Provider generates response text for a robot participant. Implementations
// are treated as unreliable collaborators: callers own retry and fallback.
type Provider interface {
	GenerateResponse(ctx context.Context, req Request) (string, error)
}
