package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
	"github.com/mkells/robot-orchestra/internal/service"
)

type MatchHandler struct {
	matchService *service.MatchService
	roundService *service.RoundService
	tokens       *service.TokenService
}

func NewMatchHandler(matchService *service.MatchService, roundService *service.RoundService, tokens *service.TokenService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		roundService: roundService,
		tokens:       tokens,
	}
}

type CreateMatchRequest struct {
	CreatorName  string `json:"creatorName"`
	UserID       string `json:"userId"`
	TemplateType string `json:"templateType"`
	TotalRounds  int    `json:"totalRounds"`
}

type JoinMatchRequest struct {
	DisplayName string `json:"displayName"`
	UserID      string `json:"userId"`
}

type SubmitResponseRequest struct {
	Identity string `json:"identity"`
	Response string `json:"response"`
	Round    int    `json:"round"`
}

type SubmitVoteRequest struct {
	Voter    string `json:"voter"`
	VotedFor string `json:"votedFor"`
	Round    int    `json:"round"`
}

type MatchResponse struct {
	ID                string           `json:"id"`
	InviteCode        string           `json:"inviteCode"`
	Status            string           `json:"status"`
	TemplateType      string           `json:"templateType"`
	TotalParticipants int              `json:"totalParticipants"`
	CurrentRound      int              `json:"currentRound"`
	TotalRounds       int              `json:"totalRounds"`
	Participants      []ParticipantDTO `json:"participants"`
	Rounds            []domain.Round   `json:"rounds"`
	Scores            map[string]int   `json:"scores,omitempty"`
	CreatedAt         string           `json:"createdAt"`
	CompletedAt       string           `json:"completedAt,omitempty"`
}

type ParticipantDTO struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	IsConnected bool   `json:"isConnected"`
	IsAI        *bool  `json:"isAI,omitempty"`
}

type JoinedMatchResponse struct {
	Match        MatchResponse `json:"match"`
	YourIdentity string        `json:"yourIdentity"`
	Token        string        `json:"token"`
	WebsocketURL string        `json:"websocketUrl"`
}

func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CreatorName == "" {
		http.Error(w, "creatorName is required", http.StatusBadRequest)
		return
	}

	m, identity, err := h.matchService.CreateMatch(r.Context(), service.CreateMatchInput{
		CreatorName:   req.CreatorName,
		CreatorUserID: req.UserID,
		TemplateType:  domain.TemplateType(req.TemplateType),
		TotalRounds:   req.TotalRounds,
	})
	if err != nil {
		writeDomainError(w, "match.Create", err)
		return
	}

	h.writeJoined(w, http.StatusCreated, m, identity)
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	idOrCode := chi.URLParam(r, "idOrCode")

	m, err := h.matchService.GetMatch(r.Context(), idOrCode)
	if err != nil {
		writeDomainError(w, "match.Get", err)
		return
	}

	writeJSON(w, http.StatusOK, buildMatchResponse(m))
}

func (h *MatchHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}

	matches, err := h.matchService.ListMatches(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, "match.History", err)
		return
	}

	items := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		items = append(items, buildMatchResponse(m))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *MatchHandler) Join(w http.ResponseWriter, r *http.Request) {
	inviteCode := chi.URLParam(r, "inviteCode")

	var req JoinMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.DisplayName == "" {
		http.Error(w, "displayName is required", http.StatusBadRequest)
		return
	}

	m, identity, err := h.matchService.JoinMatch(r.Context(), inviteCode, req.UserID, req.DisplayName)
	if err != nil {
		writeDomainError(w, "match.Join", err)
		return
	}

	h.writeJoined(w, http.StatusOK, m, identity)
}

func (h *MatchHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}

	var req SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Identity == "" || req.Response == "" || req.Round < 1 {
		http.Error(w, "identity, response and round are required", http.StatusBadRequest)
		return
	}

	m, err := h.roundService.SubmitResponse(r.Context(), matchID, domain.Identity(req.Identity), req.Response, req.Round)
	if err != nil {
		writeDomainError(w, "match.SubmitResponse", err)
		return
	}

	writeJSON(w, http.StatusOK, buildMatchResponse(m))
}

func (h *MatchHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}

	var req SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Voter == "" || req.VotedFor == "" || req.Round < 1 {
		http.Error(w, "voter, votedFor and round are required", http.StatusBadRequest)
		return
	}

	m, err := h.roundService.SubmitVote(r.Context(), matchID, domain.Identity(req.Voter), domain.Identity(req.VotedFor), req.Round)
	if err != nil {
		writeDomainError(w, "match.SubmitVote", err)
		return
	}

	writeJSON(w, http.StatusOK, buildMatchResponse(m))
}

func (h *MatchHandler) writeJoined(w http.ResponseWriter, status int, m *domain.Match, identity domain.Identity) {
	token, err := h.tokens.IssueToken(m.ID, identity)
	if err != nil {
		log.Printf("ERROR [match.writeJoined] failed to issue token: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, status, JoinedMatchResponse{
		Match:        buildMatchResponse(m),
		YourIdentity: string(identity),
		Token:        token,
		WebsocketURL: "/api/v1/ws?token=" + token,
	})
}

func parseMatchID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	matchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid match ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return matchID, true
}

// buildMatchResponse projects a match for clients. Who is a robot stays
// hidden until the match completes.
func buildMatchResponse(m *domain.Match) MatchResponse {
	revealed := m.Status == domain.MatchStatusCompleted

	participants := make([]ParticipantDTO, 0, len(m.Participants))
	for _, p := range m.Participants {
		dto := ParticipantDTO{
			Identity:    string(p.Identity),
			DisplayName: p.DisplayName,
			IsConnected: p.IsConnected,
		}
		if revealed {
			isAI := p.IsAI
			dto.IsAI = &isAI
		}
		participants = append(participants, dto)
	}

	resp := MatchResponse{
		ID:                m.ID.String(),
		InviteCode:        m.InviteCode,
		Status:            string(m.Status),
		TemplateType:      string(m.TemplateType),
		TotalParticipants: m.TotalParticipants,
		CurrentRound:      m.CurrentRound,
		TotalRounds:       m.TotalRounds,
		Participants:      participants,
		Rounds:            []domain.Round(m.Rounds),
		CreatedAt:         m.CreatedAt.Format(time.RFC3339),
	}
	if m.CompletedAt != nil {
		resp.CompletedAt = m.CompletedAt.Format(time.RFC3339)
	}
	if revealed {
		totals := domain.MatchScores(m)
		resp.Scores = make(map[string]int, len(totals))
		for identity, points := range totals {
			resp.Scores[string(identity)] = points
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeDomainError maps domain sentinel errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrMatchNotFound):
		http.Error(w, "Match not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrIneligibleVoter):
		http.Error(w, "Participant did not respond this round and may not vote", http.StatusForbidden)
	case errors.Is(err, domain.ErrMatchFull):
		http.Error(w, "Match is full", http.StatusBadRequest)
	case errors.Is(err, domain.ErrMatchNotJoinable):
		http.Error(w, "Match is not joinable", http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidRound),
		errors.Is(err, domain.ErrUnknownParticipant),
		errors.Is(err, domain.ErrIdentityTaken),
		errors.Is(err, domain.ErrInvalidPartySize):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("ERROR [%s] %v", op, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
