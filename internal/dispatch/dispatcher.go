package dispatch

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
	"github.com/mkells/robot-orchestra/internal/provider"
)

const (
	taskBuffer     = 256
	generateWindow = 30 * time.Second
	recordWindow   = 10 * time.Second
)

// Sink receives generated robot responses. Each delivery must independently
// re-check the round's completion threshold, because completion order across
// tasks is not guaranteed.
type Sink interface {
	RecordAIResponse(ctx context.Context, matchID uuid.UUID, roundNumber int, identity domain.Identity, text string) error
}

// Task is one generation request for one robot participant.
type Task struct {
	MatchID        uuid.UUID
	RoundNumber    int
	Prompt         string
	Participant    domain.Participant
	HumanResponses map[domain.Identity]string
}

// Dispatcher fans generation work out to a small worker pool. Dispatch is
// fire-and-forget: an individual generation failure never blocks the round,
// it retries with backoff and then falls back to templated text.
type Dispatcher struct {
	provider provider.Provider
	policy   RetryPolicy
	workers  int

	tasks   chan Task
	stop    chan struct{}
	stopped bool
	wg      sync.WaitGroup
	mu      sync.Mutex
}

func NewDispatcher(p provider.Provider, policy RetryPolicy, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		provider: p,
		policy:   policy,
		workers:  workers,
		tasks:    make(chan Task, taskBuffer),
		stop:     make(chan struct{}),
	}
}

// Start launches the worker pool delivering into sink.
func (d *Dispatcher) Start(sink Sink) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(sink)
	}
}

// Stop drains nothing: queued tasks that have not started are dropped, which
// is safe because the deadline timers and the next submission re-check will
// fill any gaps.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	close(d.stop)
	d.wg.Wait()
}

// Dispatch enqueues one generation task per robot participant.
func (d *Dispatcher) Dispatch(matchID uuid.UUID, roundNumber int, promptText string, robots []domain.Participant, humanResponses map[domain.Identity]string) {
	for _, robot := range robots {
		task := Task{
			MatchID:        matchID,
			RoundNumber:    roundNumber,
			Prompt:         promptText,
			Participant:    robot,
			HumanResponses: humanResponses,
		}
		select {
		case d.tasks <- task:
		case <-d.stop:
			return
		}
	}
}

func (d *Dispatcher) worker(sink Sink) {
	defer d.wg.Done()
	for {
		select {
		case task := <-d.tasks:
			d.process(sink, task)
		case <-d.stop:
			return
		}
	}
}

func (d *Dispatcher) process(sink Sink, task Task) {
	text := d.generate(task)

	ctx, cancel := context.WithTimeout(context.Background(), recordWindow)
	defer cancel()

	if err := sink.RecordAIResponse(ctx, task.MatchID, task.RoundNumber, task.Participant.Identity, text); err != nil {
		log.Printf("dispatch: failed to record response for %s in match %s round %d: %v",
			task.Participant.Identity, task.MatchID, task.RoundNumber, err)
	}
}

func (d *Dispatcher) generate(task Task) string {
	req := provider.Request{
		MatchID:        task.MatchID.String(),
		RoundNumber:    task.RoundNumber,
		Prompt:         task.Prompt,
		Identity:       task.Participant.Identity,
		DisplayName:    task.Participant.DisplayName,
		Personality:    task.Participant.Personality,
		HumanResponses: task.HumanResponses,
	}

	for attempt := 0; attempt < d.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(d.policy.Backoff(attempt - 1)):
			case <-d.stop:
				return provider.FallbackResponse(req)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), generateWindow)
		text, err := d.provider.GenerateResponse(ctx, req)
		cancel()
		if err == nil {
			return text
		}
		log.Printf("dispatch: generation attempt %d/%d failed for %s in match %s: %v",
			attempt+1, d.policy.MaxAttempts, task.Participant.Identity, task.MatchID, err)
	}

	log.Printf("dispatch: retries exhausted for %s in match %s round %d, using fallback",
		task.Participant.Identity, task.MatchID, task.RoundNumber)
	return provider.FallbackResponse(req)
}
