package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type Match struct {
	ID                string         `json:"id"`
	InviteCode        string         `json:"inviteCode"`
	Status            string         `json:"status"`
	TemplateType      string         `json:"templateType"`
	TotalParticipants int            `json:"totalParticipants"`
	CurrentRound      int            `json:"currentRound"`
	TotalRounds       int            `json:"totalRounds"`
	Participants      []Participant  `json:"participants"`
	Rounds            []Round        `json:"rounds"`
	Scores            map[string]int `json:"scores"`
}

type Participant struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	IsAI        *bool  `json:"isAI"`
}

type Round struct {
	RoundNumber       int               `json:"roundNumber"`
	Prompt            string            `json:"prompt"`
	Responses         map[string]string `json:"responses"`
	Votes             map[string]string `json:"votes"`
	Scores            map[string]int    `json:"scores"`
	Status            string            `json:"status"`
	PresentationOrder []string          `json:"presentationOrder"`
}

type JoinedMatch struct {
	Match        Match  `json:"match"`
	YourIdentity string `json:"yourIdentity"`
	Token        string `json:"token"`
	WebsocketURL string `json:"websocketUrl"`
}

// CreateMatch creates a new match
func (c *APIClient) CreateMatch(creatorName, templateType string, totalRounds int) (*JoinedMatch, error) {
	body := map[string]interface{}{
		"creatorName":  creatorName,
		"templateType": templateType,
	}
	if totalRounds > 0 {
		body["totalRounds"] = totalRounds
	}

	resp, err := c.post("/matches", body)
	if err != nil {
		return nil, fmt.Errorf("create match request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create match failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var joined JoinedMatch
	if err := json.NewDecoder(resp.Body).Decode(&joined); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &joined, nil
}

// JoinMatch joins an open match by invite code
func (c *APIClient) JoinMatch(inviteCode, displayName string) (*JoinedMatch, error) {
	body := map[string]string{"displayName": displayName}

	resp, err := c.post("/matches/join/"+inviteCode, body)
	if err != nil {
		return nil, fmt.Errorf("join match request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("join match failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var joined JoinedMatch
	if err := json.NewDecoder(resp.Body).Decode(&joined); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &joined, nil
}

// GetMatch fetches match state by ID or invite code
func (c *APIClient) GetMatch(idOrCode string) (*Match, error) {
	resp, err := c.get("/matches/" + idOrCode)
	if err != nil {
		return nil, fmt.Errorf("get match request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get match failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var m Match
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &m, nil
}

// SubmitResponse submits a round response for an identity
func (c *APIClient) SubmitResponse(matchID, identity, response string, round int) (*Match, error) {
	body := map[string]interface{}{
		"identity": identity,
		"response": response,
		"round":    round,
	}

	resp, err := c.post("/matches/"+matchID+"/responses", body)
	if err != nil {
		return nil, fmt.Errorf("submit response request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("submit response failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var m Match
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &m, nil
}

// SubmitVote casts a vote for an identity
func (c *APIClient) SubmitVote(matchID, voter, votedFor string, round int) (*Match, error) {
	body := map[string]interface{}{
		"voter":    voter,
		"votedFor": votedFor,
		"round":    round,
	}

	resp, err := c.post("/matches/"+matchID+"/votes", body)
	if err != nil {
		return nil, fmt.Errorf("submit vote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("submit vote failed (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var m Match
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &m, nil
}

// WaitForRoundStatus polls until the current round reaches the wanted status
// or the match completes.
func (c *APIClient) WaitForRoundStatus(matchID string, roundNumber int, want string, timeout time.Duration) (*Match, error) {
	deadline := time.Now().Add(timeout)
	for {
		m, err := c.GetMatch(matchID)
		if err != nil {
			return nil, err
		}
		if m.Status == "completed" {
			return m, nil
		}
		if roundNumber <= len(m.Rounds) && m.Rounds[roundNumber-1].Status == want {
			return m, nil
		}
		if time.Now().After(deadline) {
			return m, fmt.Errorf("timed out waiting for round %d to reach %s (status %s)", roundNumber, want, m.Status)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// HTTP helpers

func (c *APIClient) get(path string) (*http.Response, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func (c *APIClient) post(path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}
