package service

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
	"github.com/mkells/robot-orchestra/internal/prompt"
	"github.com/mkells/robot-orchestra/internal/repository"
)

const (
	phaseResponding = "responding"
	phaseVoting     = "voting"

	expiryWindow = 15 * time.Second
)

// AIDispatcher fans generation requests out to the response provider. Results
// re-enter through RecordAIResponse.
type AIDispatcher interface {
	Dispatch(matchID uuid.UUID, roundNumber int, promptText string, robots []domain.Participant, humanResponses map[domain.Identity]string)
}

// RoundService is the collector and lifecycle engine for rounds: it accepts
// submissions, detects completion thresholds, runs round and match
// transitions inline, and owns the phase deadline timers.
//
// Submissions are read-modify-write cycles against the match store with no
// version check. Concurrent submitters can clobber each other's entry; the
// roster is small and every robot completion re-runs the threshold check, so
// a lost update delays threshold detection rather than corrupting it.
type RoundService struct {
	matches           repository.MatchRepository
	prompts           prompt.Provider
	pool              *prompt.Pool
	dispatcher        AIDispatcher
	notifier          Notifier
	responseTimeLimit time.Duration
	deadlines         *deadlineManager
}

func NewRoundService(
	matches repository.MatchRepository,
	prompts prompt.Provider,
	pool *prompt.Pool,
	dispatcher AIDispatcher,
	notifier Notifier,
	responseTimeLimit time.Duration,
) *RoundService {
	return &RoundService{
		matches:           matches,
		prompts:           prompts,
		pool:              pool,
		dispatcher:        dispatcher,
		notifier:          notifier,
		responseTimeLimit: responseTimeLimit,
		deadlines:         newDeadlineManager(),
	}
}

// Close cancels all pending phase deadlines.
func (s *RoundService) Close() {
	s.deadlines.stopAll()
}

// effects collects side effects decided during a submission so they run only
// after the aggregate write succeeds.
type effects struct {
	events             []event
	dispatchRound      int
	respondingDeadline int
	votingDeadline     int
	cancelKeys         []string
}

func (fx *effects) emit(eventType string, payload any) {
	fx.events = append(fx.events, event{eventType: eventType, payload: payload})
}

// SubmitResponse records a response for a participant. Resubmission
// overwrites. When the submitter is human and every human now has a response,
// robot generation is fanned out so robot answers can lean on human writing
// style. The transition check runs inline either way.
func (s *RoundService) SubmitResponse(ctx context.Context, matchID uuid.UUID, identity domain.Identity, text string, roundNumber int) (*domain.Match, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	p, ok := m.Participant(identity)
	if !ok {
		return nil, domain.ErrUnknownParticipant
	}
	if err := m.RecordResponse(roundNumber, identity, text); err != nil {
		return nil, err
	}

	fx := &effects{}
	fx.emit(EventResponseReceived, map[string]any{
		"identity":    identity,
		"roundNumber": roundNumber,
	})
	if !p.IsAI && m.AllHumansResponded(roundNumber) {
		fx.dispatchRound = roundNumber
	}

	s.advance(ctx, m, roundNumber, fx)

	if err := s.matches.Update(ctx, m); err != nil {
		return nil, err
	}
	s.afterUpdate(m, fx)
	return m, nil
}

// SubmitVote records a vote. A participant without a real response this round
// may not vote. When the voter is human and every vote-eligible human has
// voted, robot votes are synthesized inline: each robot votes uniformly at
// random for any identity other than itself.
func (s *RoundService) SubmitVote(ctx context.Context, matchID uuid.UUID, voter, votedFor domain.Identity, roundNumber int) (*domain.Match, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	p, ok := m.Participant(voter)
	if !ok {
		return nil, domain.ErrUnknownParticipant
	}
	if err := m.RecordVote(roundNumber, voter, votedFor); err != nil {
		return nil, err
	}

	fx := &effects{}
	fx.emit(EventVoteReceived, map[string]any{
		"voter":       voter,
		"roundNumber": roundNumber,
	})
	if !p.IsAI && m.AllEligibleHumansVoted(roundNumber) {
		s.synthesizeRobotVotes(m, roundNumber, fx)
	}

	s.advance(ctx, m, roundNumber, fx)

	if err := s.matches.Update(ctx, m); err != nil {
		return nil, err
	}
	s.afterUpdate(m, fx)
	return m, nil
}

// RecordAIResponse is the re-entry path for generated robot responses. Each
// delivery independently re-runs the threshold check: completion order across
// robots is not guaranteed, so the check has to be safe to repeat.
func (s *RoundService) RecordAIResponse(ctx context.Context, matchID uuid.UUID, roundNumber int, identity domain.Identity, text string) error {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return err
	}

	if err := m.RecordResponse(roundNumber, identity, text); err != nil {
		if errors.Is(err, domain.ErrInvalidRound) {
			// The round moved on while the response was generating.
			log.Printf("round: dropping late robot response for %s in match %s round %d", identity, matchID, roundNumber)
			return nil
		}
		return err
	}

	fx := &effects{}
	fx.emit(EventRobotResponseComplete, map[string]any{
		"matchId":     matchID.String(),
		"roundNumber": roundNumber,
	})

	s.advance(ctx, m, roundNumber, fx)

	if err := s.matches.Update(ctx, m); err != nil {
		return err
	}
	s.afterUpdate(m, fx)
	return nil
}

// BeginRound kicks off the side effects for a freshly persisted round: robot
// fan-out and, once the match is live, the response deadline.
func (s *RoundService) BeginRound(m *domain.Match, roundNumber int) {
	s.dispatchRobots(m, roundNumber)
	if m.Status == domain.MatchStatusRoundActive {
		s.scheduleResponseDeadline(m.ID, roundNumber)
	}
}

// advance runs the idempotent, count-based transition checks and queues the
// side effects they imply.
func (s *RoundService) advance(ctx context.Context, m *domain.Match, roundNumber int, fx *effects) {
	if m.MaybeStartVoting(roundNumber) {
		round, _ := m.Round(roundNumber)
		fx.cancelKeys = append(fx.cancelKeys, deadlineKey(m.ID, roundNumber, phaseResponding))
		fx.votingDeadline = roundNumber
		fx.emit(EventRoundVoting, map[string]any{
			"roundNumber":       roundNumber,
			"presentationOrder": round.PresentationOrder,
		})

		// If no human is eligible to vote (all placeholders), the human
		// gate is vacuously satisfied: synthesize robot votes right away.
		if m.AllEligibleHumansVoted(roundNumber) {
			s.synthesizeRobotVotes(m, roundNumber, fx)
		}
	}

	if m.MaybeCompleteRound(roundNumber) {
		round, _ := m.Round(roundNumber)
		fx.cancelKeys = append(fx.cancelKeys, deadlineKey(m.ID, roundNumber, phaseVoting))
		fx.emit(EventRoundComplete, map[string]any{
			"roundNumber": roundNumber,
			"scores":      round.Scores,
		})

		if m.CurrentRound < m.TotalRounds {
			m.StartNextRound(s.nextPrompt(ctx, m))
			fx.dispatchRound = m.CurrentRound
			fx.respondingDeadline = m.CurrentRound
		} else {
			m.Complete(time.Now())
			fx.emit(EventMatchCompleted, map[string]any{
				"totals": domain.MatchScores(m),
			})
		}
	}
}

// afterUpdate performs the queued side effects, now that the write landed.
func (s *RoundService) afterUpdate(m *domain.Match, fx *effects) {
	for _, key := range fx.cancelKeys {
		s.deadlines.cancel(key)
	}
	if fx.dispatchRound > 0 {
		s.dispatchRobots(m, fx.dispatchRound)
	}
	if fx.respondingDeadline > 0 && m.Status == domain.MatchStatusRoundActive {
		s.scheduleResponseDeadline(m.ID, fx.respondingDeadline)
	}
	if fx.votingDeadline > 0 && m.Status == domain.MatchStatusRoundVoting {
		s.scheduleVoteDeadline(m.ID, fx.votingDeadline)
	}
	for _, e := range fx.events {
		s.notifier.MatchEvent(m.ID, e.eventType, e.payload)
	}
}

// dispatchRobots enqueues generation for every robot still missing a response
// entry this round. Skipping robots that already answered makes repeat
// dispatch calls harmless.
func (s *RoundService) dispatchRobots(m *domain.Match, roundNumber int) {
	round, err := m.Round(roundNumber)
	if err != nil || round.Status != domain.RoundStatusResponding {
		return
	}

	var pending []domain.Participant
	for _, robot := range m.Robots() {
		if _, ok := round.Responses[robot.Identity]; !ok {
			pending = append(pending, robot)
		}
	}
	if len(pending) == 0 {
		return
	}

	style := make(map[domain.Identity]string)
	for _, human := range m.Humans() {
		if round.HasResponded(human.Identity) {
			style[human.Identity] = round.Responses[human.Identity]
		}
	}

	s.dispatcher.Dispatch(m.ID, roundNumber, round.Prompt, pending, style)
}

// synthesizeRobotVotes casts a uniformly random non-self vote for every robot
// that has not voted yet.
func (s *RoundService) synthesizeRobotVotes(m *domain.Match, roundNumber int, fx *effects) {
	round, err := m.Round(roundNumber)
	if err != nil || round.Status != domain.RoundStatusVoting {
		return
	}

	for _, robot := range m.Robots() {
		if round.HasVoted(robot.Identity) {
			continue
		}
		target := randomVoteTarget(m, robot.Identity)
		if target == "" {
			continue
		}
		if err := m.RecordVote(roundNumber, robot.Identity, target); err != nil {
			log.Printf("round: could not synthesize vote for %s in match %s: %v", robot.Identity, m.ID, err)
			continue
		}
		fx.emit(EventVoteReceived, map[string]any{
			"voter":       robot.Identity,
			"roundNumber": roundNumber,
		})
	}
}

func randomVoteTarget(m *domain.Match, self domain.Identity) domain.Identity {
	candidates := make([]domain.Identity, 0, len(m.Participants))
	for _, p := range m.Participants {
		if p.Identity != self {
			candidates = append(candidates, p.Identity)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[rand.Intn(len(candidates))]
}

// nextPrompt asks the prompt provider for the next round's prompt, falling
// back to the static pool on failure. Prompt generation is never fatal to the
// match.
func (s *RoundService) nextPrompt(ctx context.Context, m *domain.Match) string {
	text, err := s.prompts.NextPrompt(ctx, m.PriorPrompts())
	if err == nil {
		return text
	}
	log.Printf("round: prompt provider failed for match %s, using static pool: %v", m.ID, err)

	text, _ = s.pool.NextPrompt(ctx, m.PriorPrompts())
	return text
}

func (s *RoundService) scheduleResponseDeadline(matchID uuid.UUID, roundNumber int) {
	if s.responseTimeLimit <= 0 {
		return
	}
	key := deadlineKey(matchID, roundNumber, phaseResponding)
	s.deadlines.schedule(key, s.responseTimeLimit, func() {
		s.expireResponses(matchID, roundNumber)
	})
}

func (s *RoundService) scheduleVoteDeadline(matchID uuid.UUID, roundNumber int) {
	if s.responseTimeLimit <= 0 {
		return
	}
	key := deadlineKey(matchID, roundNumber, phaseVoting)
	s.deadlines.schedule(key, s.responseTimeLimit, func() {
		s.expireVotes(matchID, roundNumber)
	})
}

// expireResponses force-submits the no-response marker for every human still
// missing a response, unblocking threshold detection. Robots missing a
// response (a dropped dispatch, a crashed worker) get re-dispatched.
func (s *RoundService) expireResponses(matchID uuid.UUID, roundNumber int) {
	ctx, cancel := context.WithTimeout(context.Background(), expiryWindow)
	defer cancel()

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		log.Printf("round: response deadline lookup failed for match %s: %v", matchID, err)
		return
	}
	round, err := m.Round(roundNumber)
	if err != nil || round.Status != domain.RoundStatusResponding {
		return
	}

	fx := &effects{}
	for _, human := range m.Humans() {
		if _, ok := round.Responses[human.Identity]; ok {
			continue
		}
		if err := m.RecordResponse(roundNumber, human.Identity, domain.NoResponseMarker); err != nil {
			log.Printf("round: could not force response for %s in match %s: %v", human.Identity, matchID, err)
		}
	}
	fx.dispatchRound = roundNumber

	s.advance(ctx, m, roundNumber, fx)

	if err := s.matches.Update(ctx, m); err != nil {
		log.Printf("round: response deadline update failed for match %s: %v", matchID, err)
		return
	}
	s.afterUpdate(m, fx)
}

// expireVotes force-fills votes for eligible voters who ran out the clock, so
// a silent human cannot stall the match.
func (s *RoundService) expireVotes(matchID uuid.UUID, roundNumber int) {
	ctx, cancel := context.WithTimeout(context.Background(), expiryWindow)
	defer cancel()

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		log.Printf("round: vote deadline lookup failed for match %s: %v", matchID, err)
		return
	}
	round, err := m.Round(roundNumber)
	if err != nil || round.Status != domain.RoundStatusVoting {
		return
	}

	fx := &effects{}
	for _, id := range m.EligibleVoters(roundNumber) {
		if round.HasVoted(id) {
			continue
		}
		target := randomVoteTarget(m, id)
		if target == "" {
			continue
		}
		if err := m.RecordVote(roundNumber, id, target); err != nil {
			log.Printf("round: could not force vote for %s in match %s: %v", id, matchID, err)
			continue
		}
		fx.emit(EventVoteReceived, map[string]any{
			"voter":       id,
			"roundNumber": roundNumber,
		})
	}

	s.advance(ctx, m, roundNumber, fx)

	if err := s.matches.Update(ctx, m); err != nil {
		log.Printf("round: vote deadline update failed for match %s: %v", matchID, err)
		return
	}
	s.afterUpdate(m, fx)
}
