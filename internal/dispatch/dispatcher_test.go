package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
	"github.com/mkells/robot-orchestra/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	recorded map[domain.Identity]string
	done     chan struct{}
	expected int
}

func newRecordingSink(expected int) *recordingSink {
	return &recordingSink{
		recorded: make(map[domain.Identity]string),
		done:     make(chan struct{}),
		expected: expected,
	}
}

func (s *recordingSink) RecordAIResponse(ctx context.Context, matchID uuid.UUID, roundNumber int, identity domain.Identity, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded[identity] = text
	if len(s.recorded) == s.expected {
		close(s.done)
	}
	return nil
}

func (s *recordingSink) wait(t *testing.T) map[domain.Identity]string {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for dispatcher deliveries")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Identity]string, len(s.recorded))
	for k, v := range s.recorded {
		out[k] = v
	}
	return out
}

type flakyProvider struct {
	mu       sync.Mutex
	failures map[domain.Identity]int
}

func (p *flakyProvider) GenerateResponse(ctx context.Context, req provider.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures[req.Identity] > 0 {
		p.failures[req.Identity]--
		return "", errors.New("provider hiccup")
	}
	return "generated for " + string(req.Identity), nil
}

func testRobots() []domain.Participant {
	return []domain.Participant{
		domain.RobotParticipant("B", 0),
		domain.RobotParticipant("C", 1),
		domain.RobotParticipant("D", 2),
	}
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxJitter: time.Millisecond}
}

func TestDispatcher_DeliversAllRobotResponses(t *testing.T) {
	sink := newRecordingSink(3)
	d := NewDispatcher(&flakyProvider{}, fastPolicy(), 2)
	d.Start(sink)
	defer d.Stop()

	d.Dispatch(uuid.New(), 1, "prompt", testRobots(), nil)

	recorded := sink.wait(t)
	assert.Equal(t, "generated for B", recorded["B"])
	assert.Equal(t, "generated for C", recorded["C"])
	assert.Equal(t, "generated for D", recorded["D"])
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	sink := newRecordingSink(1)
	p := &flakyProvider{failures: map[domain.Identity]int{"B": 2}}
	d := NewDispatcher(p, fastPolicy(), 1)
	d.Start(sink)
	defer d.Stop()

	d.Dispatch(uuid.New(), 1, "prompt", testRobots()[:1], nil)

	recorded := sink.wait(t)
	assert.Equal(t, "generated for B", recorded["B"])
}

func TestDispatcher_FallsBackAfterExhaustion(t *testing.T) {
	sink := newRecordingSink(1)
	p := &flakyProvider{failures: map[domain.Identity]int{"B": 99}}
	d := NewDispatcher(p, fastPolicy(), 1)
	d.Start(sink)
	defer d.Stop()

	robot := testRobots()[0]
	matchID := uuid.New()
	d.Dispatch(matchID, 2, "prompt", []domain.Participant{robot}, nil)

	recorded := sink.wait(t)
	require.NotEmpty(t, recorded["B"], "fallback text must still be recorded")
	assert.Equal(t, provider.FallbackResponse(provider.Request{
		MatchID:     matchID.String(),
		RoundNumber: 2,
		Identity:    robot.Identity,
		Personality: robot.Personality,
	}), recorded["B"])
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxJitter: 50 * time.Millisecond}

	for attempt := 0; attempt < 3; attempt++ {
		base := p.BaseDelay << uint(attempt)
		for i := 0; i < 10; i++ {
			got := p.Backoff(attempt)
			assert.GreaterOrEqual(t, got, base)
			assert.Less(t, got, base+p.MaxJitter)
		}
	}
}

func TestRetryPolicy_NoJitter(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 1, BaseDelay: 10 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, p.Backoff(0))
	assert.Equal(t, 40*time.Millisecond, p.Backoff(2))
}
