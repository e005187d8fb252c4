package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one finished attempt. It is produced once and
// never mutated afterwards.
type Result struct {
	TestID           uuid.UUID `json:"test_id"`
	CorrectCount     int       `json:"correct"`
	IncorrectCount   int       `json:"incorrect"`
	UnansweredCount  int       `json:"unanswered"`
	ScorePercent     int       `json:"score"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	Answers          []Answer  `json:"answers"`
}

// TotalQuestions is the number of slots scored.
func (r Result) TotalQuestions() int {
	return r.CorrectCount + r.IncorrectCount + r.UnansweredCount
}

// Feedback is the headline shown with a score.
type Feedback string

const (
	FeedbackExcellent    Feedback = "Excellent!"
	FeedbackGoodJob      Feedback = "Good Job!"
	FeedbackKeepLearning Feedback = "Keep Learning!"
)

// FeedbackFor maps a percentage score to its feedback tier.
func FeedbackFor(score int) Feedback {
	switch {
	case score >= 80:
		return FeedbackExcellent
	case score >= 60:
		return FeedbackGoodJob
	default:
		return FeedbackKeepLearning
	}
}

// ResultRecord is a Result handed off to storage and the results view.
type ResultRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      int       `json:"user_id"`
	TestTitle   string    `json:"test_title"`
	Feedback    Feedback  `json:"feedback"`
	CompletedAt time.Time `json:"completed_at"`
	Result
}

// NewResultRecord wraps r for a user.
func NewResultRecord(userID int, testTitle string, r Result, completedAt time.Time) ResultRecord {
	return ResultRecord{
		ID:          uuid.New(),
		UserID:      userID,
		TestTitle:   testTitle,
		Feedback:    FeedbackFor(r.ScorePercent),
		CompletedAt: completedAt,
		Result:      r,
	}
}

// Activity is a learner activity feed entry.
type Activity struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Type        string    `json:"activity_type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityTypeTest marks a submitted test.
const ActivityTypeTest = "test"
