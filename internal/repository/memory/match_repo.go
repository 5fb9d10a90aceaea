package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
)

// matchRepository is an in-memory MatchRepository with the same
// last-writer-wins semantics as the Postgres store. Used by tests and by
// single-process deployments that do not need durability.
type matchRepository struct {
	mu      sync.RWMutex
	matches map[uuid.UUID]*domain.Match
}

func NewMatchRepository() *matchRepository {
	return &matchRepository{matches: make(map[uuid.UUID]*domain.Match)}
}

func (r *matchRepository) Create(ctx context.Context, match *domain.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if match.CreatedAt.IsZero() {
		match.CreatedAt = now
	}
	match.UpdatedAt = now
	r.matches[match.ID] = clone(match)
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	match, ok := r.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return clone(match), nil
}

func (r *matchRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, match := range r.matches {
		if match.InviteCode == code {
			return clone(match), nil
		}
	}
	return nil, domain.ErrMatchNotFound
}

func (r *matchRepository) Update(ctx context.Context, match *domain.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.matches[match.ID]; !ok {
		return domain.ErrMatchNotFound
	}
	match.UpdatedAt = time.Now()
	r.matches[match.ID] = clone(match)
	return nil
}

func (r *matchRepository) List(ctx context.Context, limit, offset int) ([]*domain.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Match, 0, len(r.matches))
	for _, match := range r.matches {
		all = append(all, clone(match))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []*domain.Match{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// clone deep-copies through JSON so callers never share round maps with the
// stored aggregate, mirroring the read-modify-write contract of a real store.
func clone(match *domain.Match) *domain.Match {
	data, _ := json.Marshal(match)
	var out domain.Match
	_ = json.Unmarshal(data, &out)
	out.CreatedAt = match.CreatedAt
	out.UpdatedAt = match.UpdatedAt
	out.CompletedAt = match.CompletedAt
	return &out
}
