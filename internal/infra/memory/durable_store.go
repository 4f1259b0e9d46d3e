package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/domain"
)

type responseKey struct {
	sessionID     string
	participantID string
	questionID    string
}

// DurableStore keeps responses and score deltas in memory. Used when
// no Postgres is configured and as a test double; the idempotency
// contract matches the SQL implementation.
type DurableStore struct {
	mu        sync.Mutex
	responses map[responseKey]domain.Response
	deltas    map[string][]int // sessionID+participantID -> deltas in arrival order
}

func NewDurableStore() *DurableStore {
	return &DurableStore{
		responses: make(map[responseKey]domain.Response),
		deltas:    make(map[string][]int),
	}
}

// RecordResponse stores the first response per (session, participant,
// question) and silently ignores retries, mirroring ON CONFLICT DO
// NOTHING.
func (s *DurableStore) RecordResponse(_ context.Context, r domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := responseKey{r.SessionID, r.ParticipantID, r.QuestionID}
	if _, exists := s.responses[key]; exists {
		return nil
	}
	s.responses[key] = r
	return nil
}

func (s *DurableStore) AddScoreDelta(_ context.Context, sessionID, participantID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionID + "/" + participantID
	s.deltas[key] = append(s.deltas[key], delta)
	return nil
}

// ResponsesFor returns the stored responses for a session, for tests
// and diagnostics.
func (s *DurableStore) ResponsesFor(sessionID string) []domain.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Response, 0)
	for key, r := range s.responses {
		if key.sessionID == sessionID {
			out = append(out, r)
		}
	}
	return out
}

// ScoreFor sums the recorded deltas for a participant.
func (s *DurableStore) ScoreFor(sessionID, participantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, d := range s.deltas[sessionID+"/"+participantID] {
		total += d
	}
	return total
}
