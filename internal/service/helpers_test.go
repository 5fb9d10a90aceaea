package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
	"github.com/mkells/robot-orchestra/internal/prompt"
	"github.com/mkells/robot-orchestra/internal/repository"
	"github.com/mkells/robot-orchestra/internal/repository/memory"
	"github.com/mkells/robot-orchestra/internal/service"
	"github.com/stretchr/testify/require"
)

// stubPrompts hands out P1, P2, ... in order.
type stubPrompts struct {
	mu sync.Mutex
	n  int
}

func (s *stubPrompts) NextPrompt(ctx context.Context, prior []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("P%d", s.n), nil
}

// failingPrompts always errors, forcing the static-pool fallback.
type failingPrompts struct{}

func (failingPrompts) NextPrompt(ctx context.Context, prior []string) (string, error) {
	return "", fmt.Errorf("prompt provider unavailable")
}

type dispatchCall struct {
	matchID     uuid.UUID
	roundNumber int
	prompt      string
	robots      []domain.Participant
	style       map[domain.Identity]string
}

// fakeDispatcher records dispatch calls without generating anything; tests
// drive the robot re-entry path through RecordAIResponse explicitly.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (d *fakeDispatcher) Dispatch(matchID uuid.UUID, roundNumber int, promptText string, robots []domain.Participant, style map[domain.Identity]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{
		matchID:     matchID,
		roundNumber: roundNumber,
		prompt:      promptText,
		robots:      robots,
		style:       style,
	})
}

func (d *fakeDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func (d *fakeDispatcher) lastCall(t *testing.T) dispatchCall {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.calls, "expected at least one dispatch call")
	return d.calls[len(d.calls)-1]
}

type notification struct {
	matchID   uuid.UUID
	eventType string
	payload   any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) MatchEvent(matchID uuid.UUID, eventType string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{matchID: matchID, eventType: eventType, payload: payload})
}

func (n *recordingNotifier) typesSeen() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.eventType
	}
	return out
}

type fixture struct {
	repos      *repository.Repositories
	dispatcher *fakeDispatcher
	notifier   *recordingNotifier
	match      *service.MatchService
	round      *service.RoundService
}

// newFixture wires the services against the in-memory store with deadlines
// disabled, so tests control every submission explicitly.
func newFixture(t *testing.T) *fixture {
	return newFixtureWithTimeLimit(t, 0)
}

// newFixtureWithTimeLimit wires the services with a real phase time limit so
// deadline timers actually fire.
func newFixtureWithTimeLimit(t *testing.T, limit time.Duration) *fixture {
	t.Helper()

	repos := &repository.Repositories{
		Match:   memory.NewMatchRepository(),
		Session: memory.NewSessionRepository(),
	}
	dispatcher := &fakeDispatcher{}
	notifier := &recordingNotifier{}
	pool := prompt.NewPool(1)

	round := service.NewRoundService(repos.Match, &stubPrompts{}, pool, dispatcher, notifier, limit)
	t.Cleanup(round.Close)

	return &fixture{
		repos:      repos,
		dispatcher: dispatcher,
		notifier:   notifier,
		match:      service.NewMatchService(repos.Match, round, notifier, 5),
		round:      round,
	}
}

// playRobotResponses feeds canned robot responses back through the re-entry
// path, the way the dispatcher's workers would.
func playRobotResponses(t *testing.T, f *fixture, m *domain.Match, roundNumber int) {
	t.Helper()
	for _, robot := range m.Robots() {
		err := f.round.RecordAIResponse(context.Background(), m.ID, roundNumber, robot.Identity, "beep boop from "+string(robot.Identity))
		require.NoError(t, err)
	}
}
