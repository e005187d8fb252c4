package model

import (
	"fmt"

	"github.com/google/uuid"
)

// SessionStatus enumerates attempt states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusFinished   SessionStatus = "FINISHED"
)

// SessionState is a point-in-time snapshot of an attempt, safe to hand to a
// view. Answers is a copy.
type SessionState struct {
	TestID           uuid.UUID     `json:"test_id"`
	Status           SessionStatus `json:"status"`
	CurrentIndex     int           `json:"current_index"`
	TotalQuestions   int           `json:"total_questions"`
	CurrentQuestion  QuestionView  `json:"current_question"`
	Answers          []Answer      `json:"answers"`
	AnsweredCount    int           `json:"answered_count"`
	ProgressPercent  int           `json:"progress_percent"`
	RemainingSeconds int           `json:"remaining_seconds"`
	TimeLimitSeconds int           `json:"time_limit_seconds"`
	Clock            string        `json:"clock"`
}

// SelectAnswerRequest is the payload for answering the current question.
type SelectAnswerRequest struct {
	Option *int `json:"option" binding:"required"`
}

// GoToRequest is the payload for jumping to a question.
type GoToRequest struct {
	Index *int `json:"index" binding:"required"`
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
