package prompt

import (
	"context"
	"math/rand"
	"sync"
)

// Provider supplies the text shown to all participants at the start of a
// round. priorPrompts carries every prompt used so far in the match, oldest
// first, so generated prompts can keep continuity and pools can avoid repeats.
type Provider interface {
	NextPrompt(ctx context.Context, priorPrompts []string) (string, error)
}

// DefaultPrompts is the static pool used when no generating provider is
// configured, and as the fallback when one fails.
var DefaultPrompts = []string{
	"What did you eat for breakfast today, and would you recommend it?",
	"Describe your perfect lazy Sunday.",
	"What's a smell that instantly takes you back somewhere?",
	"You find $20 on the sidewalk. What do you do with it?",
	"What's the most overrated thing everyone seems to love?",
	"Tell us about a small thing that made you smile this week.",
	"If you had to eat one meal every day forever, what would it be?",
	"What's something you believed as a kid that turned out to be wrong?",
	"What would you do with an unexpected day off tomorrow?",
	"What's a sound you find strangely satisfying?",
	"Describe the last time you were pleasantly surprised.",
	"What's your most controversial food opinion?",
}

// Pool picks uniformly at random from a fixed prompt list, avoiding prompts
// the match has already used when it can. It never fails.
type Pool struct {
	prompts []string

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPool(seed int64) *Pool {
	return NewPoolWithPrompts(DefaultPrompts, seed)
}

func NewPoolWithPrompts(prompts []string, seed int64) *Pool {
	return &Pool{
		prompts: prompts,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (p *Pool) NextPrompt(ctx context.Context, priorPrompts []string) (string, error) {
	used := make(map[string]bool, len(priorPrompts))
	for _, prior := range priorPrompts {
		used[prior] = true
	}

	fresh := make([]string, 0, len(p.prompts))
	for _, candidate := range p.prompts {
		if !used[candidate] {
			fresh = append(fresh, candidate)
		}
	}
	if len(fresh) == 0 {
		// Long match exhausted the pool; repeats beat blocking the round.
		fresh = p.prompts
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return fresh[p.rng.Intn(len(fresh))], nil
}
