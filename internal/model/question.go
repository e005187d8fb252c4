package model

import (
	"github.com/google/uuid"
)

// Question represents a single multiple-choice question.
type Question struct {
	ID                 uuid.UUID `json:"id"`
	TestID             uuid.UUID `json:"test_id"`
	Text               string    `json:"text"`
	Options            []string  `json:"options"`
	CorrectOptionIndex int       `json:"correct_option_index"`
	OrderNum           int       `json:"order_num"`
}

// Valid reports whether the question has at least two options and a correct
// index that points into them.
func (q *Question) Valid() bool {
	return len(q.Options) >= 2 && q.CorrectOptionIndex >= 0 && q.CorrectOptionIndex < len(q.Options)
}

// View strips the answer key.
func (q *Question) View() QuestionView {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return QuestionView{ID: q.ID, Text: q.Text, Options: opts}
}

// QuestionView is a question without the correct answer, sent to learners.
type QuestionView struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Options []string  `json:"options"`
}

// AddQuestionRequest is the payload for adding a question to a test.
type AddQuestionRequest struct {
	Text               string   `json:"text" binding:"required,min=1,max=2000"`
	Options            []string `json:"options" binding:"required,min=2,max=10,dive,required,max=255"`
	CorrectOptionIndex *int     `json:"correct_option_index" binding:"required,min=0"`
	OrderNum           int      `json:"order_num" binding:"min=0"`
}
