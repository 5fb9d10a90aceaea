package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
	"github.com/mkells/robot-orchestra/internal/repository"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// MatchService creates and looks up matches. Round-level play lives in
// RoundService.
type MatchService struct {
	matches            repository.MatchRepository
	rounds             *RoundService
	notifier           Notifier
	defaultTotalRounds int
}

func NewMatchService(matches repository.MatchRepository, rounds *RoundService, notifier Notifier, defaultTotalRounds int) *MatchService {
	return &MatchService{
		matches:            matches,
		rounds:             rounds,
		notifier:           notifier,
		defaultTotalRounds: defaultTotalRounds,
	}
}

type CreateMatchInput struct {
	CreatorName   string
	CreatorUserID string
	TemplateType  domain.TemplateType
	TotalRounds   int
}

// CreateMatch builds the full roster from the template (humans on the leading
// letters, robots on the rest), fetches the round 1 prompt, and fans robot
// generation out immediately. Single-human templates go live at once;
// multi-human templates wait for joiners.
func (s *MatchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*domain.Match, domain.Identity, error) {
	tpl := domain.TemplateByType(input.TemplateType)

	identities, err := domain.AllocateIdentities(tpl.TotalParticipants)
	if err != nil {
		return nil, "", err
	}

	totalRounds := input.TotalRounds
	if totalRounds < 1 {
		totalRounds = s.defaultTotalRounds
	}

	status := domain.MatchStatusRoundActive
	if tpl.HumanSlots > 1 {
		status = domain.MatchStatusWaitingForPlayers
	}

	m := &domain.Match{
		ID:                uuid.New(),
		InviteCode:        generateInviteCode(),
		Status:            status,
		TemplateType:      tpl.Type,
		TotalParticipants: tpl.TotalParticipants,
		CurrentRound:      1,
		TotalRounds:       totalRounds,
	}

	creator := domain.Participant{
		Identity:    identities[0],
		IsAI:        false,
		DisplayName: input.CreatorName,
		IsConnected: true,
		UserID:      input.CreatorUserID,
	}
	if err := m.AddParticipant(creator); err != nil {
		return nil, "", err
	}
	for i, identity := range identities[tpl.HumanSlots:] {
		if err := m.AddParticipant(domain.RobotParticipant(identity, i)); err != nil {
			return nil, "", err
		}
	}

	promptText := s.rounds.nextPrompt(ctx, m)
	m.Rounds = append(m.Rounds, domain.NewRound(1, promptText))

	if err := s.matches.Create(ctx, m); err != nil {
		return nil, "", err
	}

	s.rounds.BeginRound(m, 1)
	return m, creator.Identity, nil
}

// JoinMatch fills the next open human slot in a waiting match. The joiner
// receives the next unused canonical letter; letters are never reassigned.
// Filling the roster takes the match live.
func (s *MatchService) JoinMatch(ctx context.Context, inviteCode, userID, displayName string) (*domain.Match, domain.Identity, error) {
	m, err := s.matches.GetByInviteCode(ctx, strings.ToUpper(inviteCode))
	if err != nil {
		return nil, "", err
	}

	if len(m.Participants) >= m.TotalParticipants {
		return nil, "", domain.ErrMatchFull
	}
	if !m.IsJoinable() {
		return nil, "", domain.ErrMatchNotJoinable
	}

	identity, err := m.NextFreeIdentity()
	if err != nil {
		return nil, "", err
	}
	joiner := domain.Participant{
		Identity:    identity,
		IsAI:        false,
		DisplayName: displayName,
		IsConnected: true,
		UserID:      userID,
	}
	if err := m.AddParticipant(joiner); err != nil {
		return nil, "", err
	}

	activated := len(m.Participants) == m.TotalParticipants
	if activated {
		m.Status = domain.MatchStatusRoundActive
	}

	if err := s.matches.Update(ctx, m); err != nil {
		return nil, "", err
	}

	s.notifier.MatchEvent(m.ID, EventParticipantJoined, map[string]any{
		"identity":    identity,
		"displayName": displayName,
	})
	if activated {
		s.rounds.BeginRound(m, 1)
	}
	return m, identity, nil
}

// GetMatch resolves a match by UUID or invite code.
func (s *MatchService) GetMatch(ctx context.Context, idOrCode string) (*domain.Match, error) {
	if id, err := uuid.Parse(idOrCode); err == nil {
		return s.matches.GetByID(ctx, id)
	}
	return s.matches.GetByInviteCode(ctx, strings.ToUpper(idOrCode))
}

// ListMatches returns match history, newest first.
func (s *MatchService) ListMatches(ctx context.Context, limit, offset int) ([]*domain.Match, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.matches.List(ctx, limit, offset)
}

func generateInviteCode() string {
	bytes := make([]byte, 3)
	rand.Read(bytes)
	return strings.ToUpper(hex.EncodeToString(bytes))
}
