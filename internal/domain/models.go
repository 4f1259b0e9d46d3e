package domain

import "time"

// SessionStatus is the lifecycle state of a live session.
type SessionStatus string

const (
	StatusWaiting SessionStatus = "WAITING"
	StatusActive  SessionStatus = "ACTIVE"
	StatusResults SessionStatus = "RESULTS"
	StatusEnded   SessionStatus = "ENDED"
)

// QuestionType discriminates option shape and scoring rules.
type QuestionType string

const (
	TypeSingleChoice QuestionType = "single_choice"
	TypeMultiChoice  QuestionType = "multi_choice"
	TypeTrueFalse    QuestionType = "true_false"
	TypeTypedText    QuestionType = "typed_text"
	TypePairMatching QuestionType = "pair_matching"
)

// Option is a selectable answer for choice questions.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MatchPair is one prompt→match association for pair-matching questions.
type MatchPair struct {
	Prompt string `json:"prompt"`
	Match  string `json:"match"`
}

// Question is read-only within a running session. The Correct* fields
// are server-side only and must never reach participant connections.
type Question struct {
	ID           string       `json:"id"`
	Type         QuestionType `json:"type"`
	Prompt       string       `json:"prompt"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	Options      []Option     `json:"options,omitempty"`
	Pairs        []MatchPair  `json:"pairs,omitempty"`
	TimeLimitSec int          `json:"timeLimitSec"`
	Points       int          `json:"points"`
	Penalty      int          `json:"penalty"` // points subtracted on wrong/unanswered

	CorrectOptionIDs []string    `json:"correctOptionIds,omitempty"`
	CorrectText      string      `json:"correctText,omitempty"`
	CorrectPairs     []MatchPair `json:"correctPairs,omitempty"`
}

// QuestionView is the participant-safe projection of a Question.
type QuestionView struct {
	ID           string       `json:"id"`
	Type         QuestionType `json:"type"`
	Prompt       string       `json:"prompt"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	Options      []Option     `json:"options,omitempty"`
	Pairs        []MatchPair  `json:"pairs,omitempty"`
	TimeLimitSec int          `json:"timeLimitSec"`
	Points       int          `json:"points"`
}

// View strips correct-answer data for broadcast.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:           q.ID,
		Type:         q.Type,
		Prompt:       q.Prompt,
		ImageURL:     q.ImageURL,
		Options:      q.Options,
		Pairs:        q.Pairs,
		TimeLimitSec: q.TimeLimitSec,
		Points:       q.Points,
	}
}

// Catalog is the fixed, ordered question list bound to a session.
type Catalog struct {
	QuizID    string     `json:"quizId"`
	Questions []Question `json:"questions"`
}

// Participant is a member of a session roster. The score accumulates
// across the whole session and survives disconnects.
type Participant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Score       int       `json:"score"`
	JoinedAt    time.Time `json:"joinedAt"`
	Connected   bool      `json:"connected"`
}

// Response records one participant's answer to one question. At most
// one exists per (participant, question) pair within a session.
type Response struct {
	SessionID     string  `json:"sessionId"`
	ParticipantID string  `json:"participantId"`
	QuestionID    string  `json:"questionId"`
	Answer        *Answer `json:"answer"` // nil for synthesized no-answer responses
	IsCorrect     bool    `json:"isCorrect"`
	Points        int     `json:"points"`
	ElapsedMs     int     `json:"elapsedMs"`
}

// SubmitAck is the individual acknowledgement returned to the
// submitting connection.
type SubmitAck struct {
	QuestionID   string `json:"questionId"`
	IsCorrect    bool   `json:"isCorrect"`
	PointsEarned int    `json:"pointsEarned"`
	TotalScore   int    `json:"totalScore"`
}

// OptionStat is the per-option slice of a choice-question distribution.
type OptionStat struct {
	OptionID string `json:"optionId"`
	Count    int    `json:"count"`
	Percent  int    `json:"percent"`
}

// ParticipantResult is the per-participant badge in question results.
type ParticipantResult struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	IsCorrect     bool   `json:"isCorrect"`
	PointsEarned  int    `json:"pointsEarned"`
}

// QuestionStats is the aggregate broadcast when a question closes.
type QuestionStats struct {
	QuestionID     string              `json:"questionId"`
	QuestionIndex  int                 `json:"questionIndex"`
	TotalResponses int                 `json:"totalResponses"`
	CorrectCount   int                 `json:"correctCount"`
	CorrectPercent int                 `json:"correctPercent"`
	Options        []OptionStat        `json:"options,omitempty"` // choice types only
	Participants   []ParticipantResult `json:"participants"`
}

// LeaderboardEntry is one ranked roster row.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Score         int    `json:"score"`
}

// Leaderboard is the final ranking broadcast with quizEnded.
type Leaderboard struct {
	SessionID string             `json:"sessionId"`
	Entries   []LeaderboardEntry `json:"entries"`
}

// RosterUpdate notifies the room of join/leave/reconnect changes.
type RosterUpdate struct {
	SessionID    string        `json:"sessionId"`
	Count        int           `json:"count"`
	Participants []Participant `json:"participants"`
}
