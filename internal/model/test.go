package model

import (
	"time"

	"github.com/google/uuid"
)

// TestCategory enumerates the catalogue sections a test belongs to.
type TestCategory string

const (
	TestCategoryAI          TestCategory = "ai"
	TestCategoryRobotics    TestCategory = "robotics"
	TestCategoryProgramming TestCategory = "programming"
)

// Test is a timed multiple-choice assessment. Questions are ordered and the
// order is fixed for the life of an attempt.
type Test struct {
	ID               uuid.UUID    `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Category         TestCategory `json:"category"`
	TimeLimitSeconds int          `json:"time_limit_seconds"`
	IsActive         bool         `json:"is_active"`
	CreatedBy        int          `json:"created_by,omitempty"`
	Questions        []Question   `json:"questions,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// TestSummary is the catalogue listing row.
type TestSummary struct {
	ID               uuid.UUID    `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Category         TestCategory `json:"category"`
	TimeLimitSeconds int          `json:"time_limit_seconds"`
	QuestionsCount   int          `json:"questions_count"`
	HasResult        bool         `json:"has_result"`
	CreatedAt        time.Time    `json:"created_at"`
}

// TestFilter narrows the catalogue listing.
type TestFilter struct {
	Category     TestCategory
	MaxTimeLimit int // seconds, 0 means no bound
	Search       string
}

// ListTestsQuery is the catalogue query string.
type ListTestsQuery struct {
	Category     string `form:"category" binding:"omitempty,oneof=ai robotics programming"`
	MaxTimeLimit int    `form:"max_time_limit" binding:"omitempty,min=1"`
	Search       string `form:"search" binding:"max=100"`
}

// Filter converts the query to a TestFilter.
func (q ListTestsQuery) Filter() TestFilter {
	return TestFilter{
		Category:     TestCategory(q.Category),
		MaxTimeLimit: q.MaxTimeLimit,
		Search:       q.Search,
	}
}

// CreateTestRequest is the payload for authoring a new test.
type CreateTestRequest struct {
	Title            string `json:"title" binding:"required,min=3,max=255"`
	Description      string `json:"description" binding:"max=5000"`
	Category         string `json:"category" binding:"required,oneof=ai robotics programming"`
	TimeLimitSeconds int    `json:"time_limit_seconds" binding:"required,min=1,max=28800"`
}

// TestPayload is the Redis-cached copy of a test including the answer key.
// It never leaves the server; learners only see QuestionView.
type TestPayload struct {
	Test     Test  `json:"test"`
	CachedAt int64 `json:"cached_at"`
}
