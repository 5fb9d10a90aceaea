package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
)

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewSessionRepository() *sessionRepository {
	return &sessionRepository{sessions: make(map[string]*domain.Session)}
}

func (r *sessionRepository) Put(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *sessionRepository) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Session
	for _, session := range r.sessions {
		if session.MatchID == matchID {
			copied := *session
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}
