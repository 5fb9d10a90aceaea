package service

import (
	"github.com/mkells/robot-orchestra/internal/config"
	"github.com/mkells/robot-orchestra/internal/prompt"
	"github.com/mkells/robot-orchestra/internal/repository"
)

type Services struct {
	Match *MatchService
	Round *RoundService
}

func NewServices(
	repos *repository.Repositories,
	prompts prompt.Provider,
	pool *prompt.Pool,
	dispatcher AIDispatcher,
	notifier Notifier,
	cfg *config.Config,
) *Services {
	rounds := NewRoundService(repos.Match, prompts, pool, dispatcher, notifier, cfg.ResponseTimeLimit)
	return &Services{
		Round: rounds,
		Match: NewMatchService(repos.Match, rounds, notifier, cfg.DefaultTotalRounds),
	}
}
