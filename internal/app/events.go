package app

// Outbound event types fanned out to a session's room.
const (
	EventQuestionShown   = "questionShown"
	EventQuestionResults = "questionResults"
	EventQuizEnded       = "quizEnded"
	EventRosterUpdate    = "rosterUpdate"
)

// Event is one broadcast message produced by a session.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// QuestionShownPayload announces a new active question, without
// correct-answer data.
type QuestionShownPayload struct {
	SessionID     string `json:"sessionId"`
	QuestionIndex int    `json:"questionIndex"`
	QuestionCount int    `json:"questionCount"`
	Question      any    `json:"question"`
}
