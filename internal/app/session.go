package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"live-quiz-service/internal/domain"
)

// DurableStore records responses and score deltas. Writes must be
// idempotent on (session, participant, question) so at-least-once
// delivery cannot duplicate a Response.
type DurableStore interface {
	RecordResponse(ctx context.Context, r domain.Response) error
	AddScoreDelta(ctx context.Context, sessionID, participantID string, delta int) error
}

// CatalogRepository loads the ordered question catalog for a quiz.
type CatalogRepository interface {
	GetCatalog(ctx context.Context, quizID string) (domain.Catalog, error)
}

// SessionDeps carries the collaborators a session needs. Store may be
// nil when no durable backend is configured.
type SessionDeps struct {
	Scheduler    *Scheduler
	Store        DurableStore
	Logger       zerolog.Logger
	ResultsDelay time.Duration
	Now          func() time.Time
	OnEnded      func(sessionID string)
}

const defaultResultsDelay = 5 * time.Second

// Session is the per-session actor: every mutation of its state goes
// through its mutex, so events are applied in lock-acquisition order
// and sessions never share mutable state with each other.
type Session struct {
	id      string
	catalog domain.Catalog
	deps    SessionDeps

	mu            sync.Mutex
	status        domain.SessionStatus
	questionIndex int // -1 until Start
	createdAt     time.Time
	startedAt     time.Time
	endedAt       time.Time
	roster        map[string]*domain.Participant
	responses     map[string]domain.Response // current question, keyed by participant ID
	log           []domain.Response          // every response recorded this session, in order
	subscribers   map[chan Event]struct{}
}

// NewSession builds a WAITING session bound to an immutable catalog
// copy.
func NewSession(id string, catalog domain.Catalog, deps SessionDeps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ResultsDelay <= 0 {
		deps.ResultsDelay = defaultResultsDelay
	}
	questions := make([]domain.Question, len(catalog.Questions))
	copy(questions, catalog.Questions)
	catalog.Questions = questions
	return &Session{
		id:            id,
		catalog:       catalog,
		deps:          deps,
		status:        domain.StatusWaiting,
		questionIndex: -1,
		createdAt:     deps.Now(),
		roster:        make(map[string]*domain.Participant),
		responses:     make(map[string]domain.Response),
		subscribers:   make(map[chan Event]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Status returns the current lifecycle state.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// QuestionIndex returns the current question index (-1 before start).
func (s *Session) QuestionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionIndex
}

// Responses returns a copy of every response recorded so far.
func (s *Session) Responses() []domain.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Response, len(s.log))
	copy(out, s.log)
	return out
}

// Join adds a new participant (WAITING only) or reattaches a known one
// after a reconnect (any state before ENDED). The returned participant
// carries the ID the client must present on reconnects.
func (s *Session) Join(participantID, displayName string) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusEnded {
		return domain.Participant{}, domain.ErrSessionEnded
	}

	if participantID != "" {
		if p, ok := s.roster[participantID]; ok {
			p.Connected = true
			if displayName != "" {
				p.DisplayName = displayName
			}
			s.broadcastLocked(Event{Type: EventRosterUpdate, Payload: s.rosterLocked()})
			return *p, nil
		}
	}

	if s.status != domain.StatusWaiting {
		return domain.Participant{}, domain.ErrWrongState
	}
	for _, p := range s.roster {
		if p.DisplayName == displayName {
			return domain.Participant{}, domain.ErrNameTaken
		}
	}
	if participantID == "" {
		participantID = uuid.NewString()
	}
	p := &domain.Participant{
		ID:          participantID,
		DisplayName: displayName,
		JoinedAt:    s.deps.Now(),
		Connected:   true,
	}
	s.roster[participantID] = p
	s.broadcastLocked(Event{Type: EventRosterUpdate, Payload: s.rosterLocked()})
	return *p, nil
}

// Detach marks a participant disconnected. Score and responses are
// kept; presenting the same ID on reconnect resumes them.
func (s *Session) Detach(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.roster[participantID]
	if !ok || !p.Connected {
		return
	}
	p.Connected = false
	s.broadcastLocked(Event{Type: EventRosterUpdate, Payload: s.rosterLocked()})
}

// Start moves WAITING→ACTIVE on question 0.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.StatusWaiting:
	case domain.StatusEnded:
		return domain.ErrSessionEnded
	default:
		return domain.ErrWrongState
	}
	if len(s.catalog.Questions) == 0 {
		return domain.ErrEmptyCatalog
	}
	s.startedAt = s.deps.Now()
	s.activateQuestionLocked(0)
	return nil
}

// SubmitAnswer records a participant's answer for the current question
// and acknowledges with correctness, points earned, and new total.
// This is the only path that mutates scores besides the synthesized
// no-answer responses at question close.
func (s *Session) SubmitAnswer(participantID string, answer domain.Answer, elapsedMs int) (domain.SubmitAck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.StatusActive:
	case domain.StatusEnded:
		return domain.SubmitAck{}, domain.ErrSessionEnded
	default:
		return domain.SubmitAck{}, domain.ErrWrongState
	}
	p, ok := s.roster[participantID]
	if !ok {
		return domain.SubmitAck{}, domain.ErrParticipantNotFound
	}
	if _, dup := s.responses[participantID]; dup {
		return domain.SubmitAck{}, domain.ErrDuplicateResponse
	}

	q := s.catalog.Questions[s.questionIndex]
	if !answer.MatchesQuestion(q) {
		return domain.SubmitAck{}, domain.ErrInvalidAnswer
	}

	correct, points := Evaluate(q, &answer)
	s.recordResponseLocked(domain.Response{
		SessionID:     s.id,
		ParticipantID: participantID,
		QuestionID:    q.ID,
		Answer:        &answer,
		IsCorrect:     correct,
		Points:        points,
		ElapsedMs:     elapsedMs,
	})
	return domain.SubmitAck{
		QuestionID:   q.ID,
		IsCorrect:    correct,
		PointsEarned: points,
		TotalScore:   p.Score,
	}, nil
}

// EndQuestionEarly closes the current question on host command.
func (s *Session) EndQuestionEarly() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.StatusActive:
	case domain.StatusEnded:
		return domain.ErrSessionEnded
	default:
		return domain.ErrWrongState
	}
	s.closeQuestionLocked()
	return nil
}

// HandleExpiry receives timer fires from the scheduler. A fire whose
// question index no longer matches the session's current index is
// stale (an early-end raced the countdown) and is discarded, so only
// the first trigger for a given index closes or advances.
func (s *Session) HandleExpiry(questionIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.status == domain.StatusActive && questionIndex == s.questionIndex:
		s.closeQuestionLocked()
	case s.status == domain.StatusResults && questionIndex == s.questionIndex+1:
		// Display delay elapsed; the index is the one we advance to.
		s.advanceLocked()
	}
}

// Subscribe registers a listener for the session's broadcast events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// activateQuestionLocked enters ACTIVE for the given index: resets the
// response set, arms the countdown, and broadcasts the sanitized
// question payload.
func (s *Session) activateQuestionLocked(index int) {
	s.status = domain.StatusActive
	s.questionIndex = index
	s.responses = make(map[string]domain.Response)

	q := s.catalog.Questions[index]
	s.deps.Scheduler.Arm(s.id, index, time.Duration(q.TimeLimitSec)*time.Second)
	s.broadcastLocked(Event{Type: EventQuestionShown, Payload: QuestionShownPayload{
		SessionID:     s.id,
		QuestionIndex: index,
		QuestionCount: len(s.catalog.Questions),
		Question:      q.View(),
	}})
}

// closeQuestionLocked is the single ACTIVE→RESULTS transition, reached
// from both host early-end and timer expiry. It cancels the countdown
// before synthesizing penalty responses so a late fire cannot run the
// synthesis twice.
func (s *Session) closeQuestionLocked() {
	s.deps.Scheduler.Cancel(s.id)

	q := s.catalog.Questions[s.questionIndex]
	for id := range s.roster {
		if _, answered := s.responses[id]; answered {
			continue
		}
		s.recordResponseLocked(domain.Response{
			SessionID:     s.id,
			ParticipantID: id,
			QuestionID:    q.ID,
			Answer:        nil,
			IsCorrect:     false,
			Points:        -q.Penalty,
			ElapsedMs:     q.TimeLimitSec * 1000,
		})
	}

	s.status = domain.StatusResults
	ordered := s.orderedResponsesLocked()
	stats := AggregateQuestion(q, s.questionIndex, ordered, s.roster)
	s.broadcastLocked(Event{Type: EventQuestionResults, Payload: stats})

	// Armed with the index we will advance to, so a stale countdown
	// fire for the closed question cannot masquerade as the display
	// delay elapsing.
	s.deps.Scheduler.Arm(s.id, s.questionIndex+1, s.deps.ResultsDelay)
}

// advanceLocked leaves RESULTS after the display delay: next question
// if any remain, otherwise the terminal leaderboard.
func (s *Session) advanceLocked() {
	next := s.questionIndex + 1
	if next < len(s.catalog.Questions) {
		s.activateQuestionLocked(next)
		return
	}
	s.endLocked()
}

func (s *Session) endLocked() {
	s.deps.Scheduler.Cancel(s.id)
	s.status = domain.StatusEnded
	s.endedAt = s.deps.Now()
	s.broadcastLocked(Event{Type: EventQuizEnded, Payload: RankParticipants(s.id, s.roster)})
	if s.deps.OnEnded != nil {
		go s.deps.OnEnded(s.id)
	}
}

// recordResponseLocked applies the score delta in memory and hands the
// durable writes off without blocking event processing.
func (s *Session) recordResponseLocked(r domain.Response) {
	s.responses[r.ParticipantID] = r
	s.log = append(s.log, r)
	if p, ok := s.roster[r.ParticipantID]; ok {
		p.Score += r.Points
	}
	s.persistAsync(r)
}

// persistAsync writes the response and score delta to the durable
// store. Failures are logged and do not abort the live transition; the
// in-memory state stays authoritative for the running session.
func (s *Session) persistAsync(r domain.Response) {
	if s.deps.Store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.deps.Store.RecordResponse(ctx, r); err != nil {
			s.deps.Logger.Error().Err(err).
				Str("session", r.SessionID).
				Str("participant", r.ParticipantID).
				Str("question", r.QuestionID).
				Msg("record response failed")
		}
		if err := s.deps.Store.AddScoreDelta(ctx, r.SessionID, r.ParticipantID, r.Points); err != nil {
			s.deps.Logger.Error().Err(err).
				Str("session", r.SessionID).
				Str("participant", r.ParticipantID).
				Msg("score delta write failed")
		}
	}()
}

func (s *Session) orderedResponsesLocked() []domain.Response {
	q := s.catalog.Questions[s.questionIndex]
	out := make([]domain.Response, 0, len(s.responses))
	for _, r := range s.log {
		if r.QuestionID == q.ID {
			out = append(out, r)
		}
	}
	return out
}

func (s *Session) rosterLocked() domain.RosterUpdate {
	participants := make([]domain.Participant, 0, len(s.roster))
	for _, p := range s.roster {
		participants = append(participants, *p)
	}
	return domain.RosterUpdate{
		SessionID:    s.id,
		Count:        len(participants),
		Participants: participants,
	}
}

func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest queued event rather than block the actor
			// on a slow subscriber.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
