package websocket

import (
	"encoding/json"
	"time"

	"github.com/mkells/robot-orchestra/internal/domain"
)

type MessageType string

const (
	// Client to Server
	MessageTypeSubscribeMatch MessageType = "SUBSCRIBE_MATCH"

	// Server to Client
	MessageTypeStateSync             MessageType = "STATE_SYNC"
	MessageTypeParticipantJoined     MessageType = "PARTICIPANT_JOINED"
	MessageTypeResponseReceived      MessageType = "RESPONSE_RECEIVED"
	MessageTypeRobotResponseComplete MessageType = "ROBOT_RESPONSE_COMPLETE"
	MessageTypeRoundVoting           MessageType = "ROUND_VOTING"
	MessageTypeVoteReceived          MessageType = "VOTE_RECEIVED"
	MessageTypeRoundComplete         MessageType = "ROUND_COMPLETE"
	MessageTypeMatchCompleted        MessageType = "MATCH_COMPLETED"
	MessageTypeError                 MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type SubscribeMatchPayload struct {
	MatchID string `json:"matchId"`
}

// Server to Client payloads

type StateSyncPayload struct {
	Match        MatchView       `json:"match"`
	YourIdentity domain.Identity `json:"yourIdentity"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MatchView is the wire shape of a match as watchers see it. Participant
// roles stay hidden until the match completes; guessing who is human is the
// whole game.
type MatchView struct {
	ID                string             `json:"id"`
	InviteCode        string             `json:"inviteCode"`
	Status            domain.MatchStatus `json:"status"`
	TemplateType      string             `json:"templateType"`
	TotalParticipants int                `json:"totalParticipants"`
	CurrentRound      int                `json:"currentRound"`
	TotalRounds       int                `json:"totalRounds"`
	Participants      []ParticipantView  `json:"participants"`
	Rounds            []domain.Round     `json:"rounds"`
	CreatedAt         string             `json:"createdAt"`
	CompletedAt       string             `json:"completedAt,omitempty"`
}

type ParticipantView struct {
	Identity    domain.Identity `json:"identity"`
	DisplayName string          `json:"displayName"`
	IsConnected bool            `json:"isConnected"`
	IsAI        *bool           `json:"isAI,omitempty"`
}

// BuildMatchView projects a match for transport, revealing who was a robot
// only once the match is over.
func BuildMatchView(m *domain.Match) MatchView {
	revealed := m.Status == domain.MatchStatusCompleted

	participants := make([]ParticipantView, 0, len(m.Participants))
	for _, p := range m.Participants {
		view := ParticipantView{
			Identity:    p.Identity,
			DisplayName: p.DisplayName,
			IsConnected: p.IsConnected,
		}
		if revealed {
			isAI := p.IsAI
			view.IsAI = &isAI
		}
		participants = append(participants, view)
	}

	view := MatchView{
		ID:                m.ID.String(),
		InviteCode:        m.InviteCode,
		Status:            m.Status,
		TemplateType:      string(m.TemplateType),
		TotalParticipants: m.TotalParticipants,
		CurrentRound:      m.CurrentRound,
		TotalRounds:       m.TotalRounds,
		Participants:      participants,
		Rounds:            []domain.Round(m.Rounds),
		CreatedAt:         m.CreatedAt.Format(time.RFC3339),
	}
	if m.CompletedAt != nil {
		view.CompletedAt = m.CompletedAt.Format(time.RFC3339)
	}
	return view
}
