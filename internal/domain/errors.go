package domain

import "errors"

var (
	// ErrSessionExists is returned when creating a session ID that is already live.
	ErrSessionExists = errors.New("session already exists")
	// ErrSessionNotFound is returned when no live session matches the ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionEnded is returned for mutating events after the session ended.
	ErrSessionEnded = errors.New("session has ended")
	// ErrWrongState is returned when an event arrives in a state that does not accept it.
	ErrWrongState = errors.New("event not valid in current session state")
	// ErrParticipantNotFound is returned when a user acts before joining.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrNameTaken is returned when a display name is already used in the roster.
	ErrNameTaken = errors.New("display name already taken")
	// ErrDuplicateResponse is returned on a second submission for the same question.
	ErrDuplicateResponse = errors.New("answer already submitted for this question")
	// ErrQuizNotFound indicates the question catalog could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidAnswer indicates an answer payload whose shape does not match the question type.
	ErrInvalidAnswer = errors.New("answer shape does not match question type")
	// ErrEmptyCatalog is returned when starting a session whose catalog has no questions.
	ErrEmptyCatalog = errors.New("catalog has no questions")
)
