package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
)

// MatchRepository is the logical document store for Match aggregates. Update
// writes the whole aggregate; the JSONB columns on a row are written together,
// so there are no torn writes of the rounds array. There is no version check:
// last writer wins, and the per-completion re-check in the round service
// covers the resulting (small-roster) race.
type MatchRepository interface {
	Create(ctx context.Context, match *domain.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error)
	GetByInviteCode(ctx context.Context, code string) (*domain.Match, error)
	Update(ctx context.Context, match *domain.Match) error
	List(ctx context.Context, limit, offset int) ([]*domain.Match, error)
}

// SessionRepository tracks live event-channel sessions by connection ID.
type SessionRepository interface {
	Put(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListByMatch(ctx context.Context, matchID uuid.UUID) ([]*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type Repositories struct {
	Match   MatchRepository
	Session SessionRepository
}
