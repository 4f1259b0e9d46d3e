package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// DurableStore persists responses and score deltas. Response inserts
// are keyed by (session, participant, question) with ON CONFLICT DO
// NOTHING, so at-least-once retries never create duplicates.
type DurableStore struct {
	pool *pgxpool.Pool
}

func NewDurableStore(pool *pgxpool.Pool) *DurableStore {
	return &DurableStore{pool: pool}
}

func (s *DurableStore) RecordResponse(ctx context.Context, r domain.Response) error {
	var answer []byte
	if r.Answer != nil {
		encoded, err := json.Marshal(r.Answer)
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		answer = encoded
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO responses (session_id, participant_id, question_id, answer, is_correct, points, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, participant_id, question_id) DO NOTHING`,
		r.SessionID, r.ParticipantID, r.QuestionID, answer, r.IsCorrect, r.Points, r.ElapsedMs)
	if err != nil {
		return fmt.Errorf("record response: %w", err)
	}
	return nil
}

func (s *DurableStore) AddScoreDelta(ctx context.Context, sessionID, participantID string, delta int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO score_deltas (session_id, participant_id, delta)
		VALUES ($1, $2, $3)`,
		sessionID, participantID, delta)
	if err != nil {
		return fmt.Errorf("add score delta: %w", err)
	}
	return nil
}
