package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
)

// MatchBuilder creates test matches with a builder pattern
type MatchBuilder struct {
	templateType domain.TemplateType
	status       domain.MatchStatus
	totalRounds  int
	inviteCode   string
	completed    bool
}

// NewMatchBuilder creates a MatchBuilder with classic defaults
func NewMatchBuilder() *MatchBuilder {
	return &MatchBuilder{
		templateType: domain.TemplateClassic1v3,
		status:       domain.MatchStatusRoundActive,
		totalRounds:  5,
		inviteCode:   strings.ToUpper(uuid.New().String()[:6]),
	}
}

// WithTemplate sets the roster template
func (b *MatchBuilder) WithTemplate(t domain.TemplateType) *MatchBuilder {
	b.templateType = t
	return b
}

// WithStatus sets the match status
func (b *MatchBuilder) WithStatus(s domain.MatchStatus) *MatchBuilder {
	b.status = s
	return b
}

// WithTotalRounds sets the round count
func (b *MatchBuilder) WithTotalRounds(n int) *MatchBuilder {
	b.totalRounds = n
	return b
}

// WithInviteCode sets a fixed invite code
func (b *MatchBuilder) WithInviteCode(code string) *MatchBuilder {
	b.inviteCode = code
	return b
}

// Completed marks the match finished
func (b *MatchBuilder) Completed() *MatchBuilder {
	b.completed = true
	b.status = domain.MatchStatusCompleted
	return b
}

// Build assembles the match aggregate with a full roster and a first round.
func (b *MatchBuilder) Build() *domain.Match {
	tpl := domain.TemplateByType(b.templateType)
	identities, err := domain.AllocateIdentities(tpl.TotalParticipants)
	if err != nil {
		panic(err)
	}

	m := &domain.Match{
		ID:                uuid.New(),
		InviteCode:        b.inviteCode,
		Status:            b.status,
		TemplateType:      tpl.Type,
		TotalParticipants: tpl.TotalParticipants,
		CurrentRound:      1,
		TotalRounds:       b.totalRounds,
	}

	for i, identity := range identities {
		if i < tpl.HumanSlots {
			m.Participants = append(m.Participants, domain.Participant{
				Identity:    identity,
				DisplayName: fmt.Sprintf("player_%s", identity),
				IsConnected: true,
			})
		} else {
			m.Participants = append(m.Participants, domain.RobotParticipant(identity, i-tpl.HumanSlots))
		}
	}

	m.Rounds = append(m.Rounds, domain.NewRound(1, "What did you dream about last night?"))

	if b.completed {
		now := time.Now()
		m.CompletedAt = &now
	}
	return m
}
