package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/api"
	"github.com/mkells/robot-orchestra/internal/domain"
	"github.com/mkells/robot-orchestra/internal/prompt"
	"github.com/mkells/robot-orchestra/internal/repository"
	"github.com/mkells/robot-orchestra/internal/repository/memory"
	"github.com/mkells/robot-orchestra/internal/service"
	"github.com/mkells/robot-orchestra/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inlineDispatcher answers for every robot synchronously, so handler tests can
// drive a match through a whole round without a worker pool.
type inlineDispatcher struct {
	rounds *service.RoundService
}

func (d *inlineDispatcher) Dispatch(matchID uuid.UUID, roundNumber int, promptText string, robots []domain.Participant, humanResponses map[domain.Identity]string) {
	for _, robot := range robots {
		resp := fmt.Sprintf("robot %s says hi", robot.Identity)
		if err := d.rounds.RecordAIResponse(context.Background(), matchID, roundNumber, robot.Identity, resp); err != nil {
			panic(err)
		}
	}
}

type testServer struct {
	*httptest.Server
	repos  *repository.Repositories
	tokens *service.TokenService
	hub    *websocket.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repos := &repository.Repositories{
		Match:   memory.NewMatchRepository(),
		Session: memory.NewSessionRepository(),
	}
	hub := websocket.NewHub(repos.Match, repos.Session)
	go hub.Run()
	t.Cleanup(hub.Stop)

	dispatcher := &inlineDispatcher{}
	pool := prompt.NewPool(1)
	rounds := service.NewRoundService(repos.Match, pool, pool, dispatcher, hub, 0)
	t.Cleanup(rounds.Close)
	dispatcher.rounds = rounds

	services := &service.Services{
		Round: rounds,
		Match: service.NewMatchService(repos.Match, rounds, hub, 5),
	}
	tokens := service.NewTokenService("test-secret", time.Hour)

	srv := httptest.NewServer(api.NewRouter(services, tokens, hub))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, repos: repos, tokens: tokens, hub: hub}
}

func (s *testServer) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func (s *testServer) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(s.URL + path)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type joinedMatchBody struct {
	Match        matchBody `json:"match"`
	YourIdentity string    `json:"yourIdentity"`
	Token        string    `json:"token"`
	WebsocketURL string    `json:"websocketUrl"`
}

type matchBody struct {
	ID                string            `json:"id"`
	InviteCode        string            `json:"inviteCode"`
	Status            string            `json:"status"`
	TemplateType      string            `json:"templateType"`
	TotalParticipants int               `json:"totalParticipants"`
	CurrentRound      int               `json:"currentRound"`
	TotalRounds       int               `json:"totalRounds"`
	Participants      []participantBody `json:"participants"`
	Rounds            []roundBody       `json:"rounds"`
	Scores            map[string]int    `json:"scores"`
}

type participantBody struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	IsAI        *bool  `json:"isAI"`
}

type roundBody struct {
	RoundNumber       int               `json:"roundNumber"`
	Prompt            string            `json:"prompt"`
	Responses         map[string]string `json:"responses"`
	Votes             map[string]string `json:"votes"`
	Scores            map[string]int    `json:"scores"`
	Status            string            `json:"status"`
	PresentationOrder []string          `json:"presentationOrder"`
}

func createMatch(t *testing.T, s *testServer, templateType string) joinedMatchBody {
	t.Helper()
	resp := s.postJSON(t, "/api/v1/matches", map[string]any{
		"creatorName":  "alice",
		"templateType": templateType,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[joinedMatchBody](t, resp)
}

func TestCreateMatchEndpoint(t *testing.T) {
	s := newTestServer(t)

	joined := createMatch(t, s, "classic_1v3")

	assert.Equal(t, "A", joined.YourIdentity)
	assert.NotEmpty(t, joined.Token)
	assert.Contains(t, joined.WebsocketURL, "/api/v1/ws?token=")
	assert.Equal(t, "round_active", joined.Match.Status)
	assert.Len(t, joined.Match.InviteCode, 6)
	require.Len(t, joined.Match.Participants, 4)

	// Roles are not exposed while the match is live.
	for _, p := range joined.Match.Participants {
		assert.Nil(t, p.IsAI)
	}

	require.Len(t, joined.Match.Rounds, 1)
	assert.NotEmpty(t, joined.Match.Rounds[0].Prompt)

	claims, err := s.tokens.ValidateToken(joined.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity("A"), claims.Identity)
}

func TestCreateMatchValidation(t *testing.T) {
	s := newTestServer(t)

	resp := s.postJSON(t, "/api/v1/matches", map[string]any{"templateType": "classic_1v3"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMatchEndpoint(t *testing.T) {
	s := newTestServer(t)
	joined := createMatch(t, s, "classic_1v3")

	resp := s.get(t, "/api/v1/matches/"+joined.Match.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[matchBody](t, resp)
	assert.Equal(t, joined.Match.ID, got.ID)

	byCode := s.get(t, "/api/v1/matches/"+joined.Match.InviteCode)
	require.Equal(t, http.StatusOK, byCode.StatusCode)
	gotByCode := decode[matchBody](t, byCode)
	assert.Equal(t, joined.Match.ID, gotByCode.ID)

	missing := s.get(t, "/api/v1/matches/"+uuid.NewString())
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHistoryEndpoint(t *testing.T) {
	s := newTestServer(t)
	createMatch(t, s, "classic_1v3")
	createMatch(t, s, "mini_1v2")

	resp := s.get(t, "/api/v1/matches/history?limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[[]matchBody](t, resp)
	assert.Len(t, page, 1)

	all := decode[[]matchBody](t, s.get(t, "/api/v1/matches/history"))
	assert.Len(t, all, 2)
}

func TestJoinMatchEndpoint(t *testing.T) {
	s := newTestServer(t)
	joined := createMatch(t, s, "duo_2v2")
	require.Equal(t, "waiting_for_players", joined.Match.Status)

	resp := s.postJSON(t, "/api/v1/matches/join/"+joined.Match.InviteCode, map[string]any{
		"displayName": "bob",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[joinedMatchBody](t, resp)

	assert.Equal(t, "B", second.YourIdentity)
	assert.Equal(t, "round_active", second.Match.Status)
	assert.NotEmpty(t, second.Token)
}

func TestJoinMatchErrors(t *testing.T) {
	s := newTestServer(t)
	joined := createMatch(t, s, "classic_1v3")

	full := s.postJSON(t, "/api/v1/matches/join/"+joined.Match.InviteCode, map[string]any{
		"displayName": "bob",
	})
	defer full.Body.Close()
	assert.Equal(t, http.StatusBadRequest, full.StatusCode)

	missing := s.postJSON(t, "/api/v1/matches/join/NOPE99", map[string]any{
		"displayName": "bob",
	})
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestResponseAndVoteFlow(t *testing.T) {
	s := newTestServer(t)
	joined := createMatch(t, s, "classic_1v3")
	matchPath := "/api/v1/matches/" + joined.Match.ID

	// Robots answered inline at creation; the human response tips the round
	// into voting.
	resp := s.postJSON(t, matchPath+"/responses", map[string]any{
		"identity": "A",
		"response": "I had cereal for breakfast",
		"round":    1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	afterResponse := decode[matchBody](t, resp)

	assert.Equal(t, "round_voting", afterResponse.Status)
	require.Len(t, afterResponse.Rounds, 1)
	assert.Len(t, afterResponse.Rounds[0].Responses, 4)
	assert.Len(t, afterResponse.Rounds[0].PresentationOrder, 4)

	voteResp := s.postJSON(t, matchPath+"/votes", map[string]any{
		"voter":    "A",
		"votedFor": "B",
		"round":    1,
	})
	require.Equal(t, http.StatusOK, voteResp.StatusCode)
	afterVote := decode[matchBody](t, voteResp)

	// The human vote triggered robot votes, round scoring and round 2.
	assert.Equal(t, "round_active", afterVote.Status)
	assert.Equal(t, 2, afterVote.CurrentRound)
	require.Len(t, afterVote.Rounds, 2)
	assert.Equal(t, "complete", afterVote.Rounds[0].Status)
	assert.Len(t, afterVote.Rounds[0].Votes, 4)
	assert.NotEmpty(t, afterVote.Rounds[1].Prompt)
}

func TestSubmitResponseErrors(t *testing.T) {
	s := newTestServer(t)
	joined := createMatch(t, s, "classic_1v3")
	matchPath := "/api/v1/matches/" + joined.Match.ID

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"unknown identity", map[string]any{"identity": "Z", "response": "x", "round": 1}, http.StatusBadRequest},
		{"missing response", map[string]any{"identity": "A", "round": 1}, http.StatusBadRequest},
		{"future round", map[string]any{"identity": "A", "response": "x", "round": 3}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.postJSON(t, matchPath+"/responses", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	bad := s.postJSON(t, "/api/v1/matches/not-a-uuid/responses", map[string]any{
		"identity": "A", "response": "x", "round": 1,
	})
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	gone := s.postJSON(t, "/api/v1/matches/"+uuid.NewString()+"/responses", map[string]any{
		"identity": "A", "response": "x", "round": 1,
	})
	defer gone.Body.Close()
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
}

func TestSubmitVoteIneligible(t *testing.T) {
	s := newTestServer(t)
	joined := createMatch(t, s, "duo_2v2")

	join := s.postJSON(t, "/api/v1/matches/join/"+joined.Match.InviteCode, map[string]any{
		"displayName": "bob",
	})
	require.Equal(t, http.StatusOK, join.StatusCode)
	join.Body.Close()
	matchPath := "/api/v1/matches/" + joined.Match.ID

	// A answers; B sits out and gets the placeholder forced in directly, the
	// way the response deadline would.
	resp := s.postJSON(t, matchPath+"/responses", map[string]any{
		"identity": "A", "response": "real answer", "round": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.postJSON(t, matchPath+"/responses", map[string]any{
		"identity": "B", "response": domain.NoResponseMarker, "round": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[matchBody](t, resp)
	require.Equal(t, "round_voting", state.Status)

	vote := s.postJSON(t, matchPath+"/votes", map[string]any{
		"voter": "B", "votedFor": "A", "round": 1,
	})
	defer vote.Body.Close()
	assert.Equal(t, http.StatusForbidden, vote.StatusCode)
}

func TestVoteBeforeVotingPhase(t *testing.T) {
	s := newTestServer(t)
	joined := createMatch(t, s, "duo_2v2")

	vote := s.postJSON(t, "/api/v1/matches/"+joined.Match.ID+"/votes", map[string]any{
		"voter": "A", "votedFor": "C", "round": 1,
	})
	defer vote.Body.Close()
	assert.Equal(t, http.StatusBadRequest, vote.StatusCode)
}

func TestMatchRevealsRolesWhenCompleted(t *testing.T) {
	s := newTestServer(t)

	resp := s.postJSON(t, "/api/v1/matches", map[string]any{
		"creatorName":  "alice",
		"templateType": "classic_1v3",
		"totalRounds":  1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	joined := decode[joinedMatchBody](t, resp)
	matchPath := "/api/v1/matches/" + joined.Match.ID

	r := s.postJSON(t, matchPath+"/responses", map[string]any{
		"identity": "A", "response": "the only round", "round": 1,
	})
	require.Equal(t, http.StatusOK, r.StatusCode)
	r.Body.Close()

	v := s.postJSON(t, matchPath+"/votes", map[string]any{
		"voter": "A", "votedFor": "D", "round": 1,
	})
	require.Equal(t, http.StatusOK, v.StatusCode)
	final := decode[matchBody](t, v)

	require.Equal(t, "completed", final.Status)
	assert.NotNil(t, final.Scores)
	for _, p := range final.Participants {
		require.NotNil(t, p.IsAI, "roles should be revealed after completion")
		assert.Equal(t, p.Identity != "A", *p.IsAI)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	resp := s.get(t, "/health")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
