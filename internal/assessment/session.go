// Package assessment implements the timed test attempt: answer slots,
// question navigation, the countdown, scoring, and the one-time handoff of
// the result.
//
// A Session is not safe for concurrent use. Every mutation, including Tick,
// must be issued by a single caller at a time; the owner is expected to
// serialize user input and timer ticks.
package assessment

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shams-academy/assessment/internal/model"
)

// FinishReason records which edge finished a session.
type FinishReason string

const (
	FinishManual  FinishReason = "manual"
	FinishTimeout FinishReason = "timeout"
)

// Session is the state of one attempt at a test.
type Session struct {
	testID    uuid.UUID
	questions []model.Question
	timeLimit int

	currentIndex int
	answers      []model.Answer
	remaining    int
	status       model.SessionStatus

	result   *model.Result
	reason   FinishReason
	onFinish []func(model.Result)
}

// Start creates a session for test: first question, all slots unanswered,
// the full time budget remaining.
func Start(test *model.Test) (*Session, error) {
	if test == nil {
		return nil, fmt.Errorf("%w: nil test", ErrInvalidTest)
	}
	if len(test.Questions) == 0 {
		return nil, fmt.Errorf("%w: test %s has no questions", ErrInvalidTest, test.ID)
	}
	if test.TimeLimitSeconds <= 0 {
		return nil, fmt.Errorf("%w: time limit must be positive, got %d", ErrInvalidTest, test.TimeLimitSeconds)
	}
	for i := range test.Questions {
		if !test.Questions[i].Valid() {
			return nil, fmt.Errorf("%w: question %d is malformed", ErrInvalidTest, i)
		}
	}

	questions := make([]model.Question, len(test.Questions))
	copy(questions, test.Questions)

	return &Session{
		testID:    test.ID,
		questions: questions,
		timeLimit: test.TimeLimitSeconds,
		answers:   model.NewAnswerSlots(len(questions)),
		remaining: test.TimeLimitSeconds,
		status:    model.SessionStatusInProgress,
	}, nil
}

// TestID returns the test being attempted.
func (s *Session) TestID() uuid.UUID { return s.testID }

// Status returns the current lifecycle status.
func (s *Session) Status() model.SessionStatus { return s.status }

// Finished reports whether the session reached its terminal state.
func (s *Session) Finished() bool { return s.status == model.SessionStatusFinished }

// CurrentIndex returns the position of the current question.
func (s *Session) CurrentIndex() int { return s.currentIndex }

// RemainingSeconds returns the time left on the clock.
func (s *Session) RemainingSeconds() int { return s.remaining }

// Len returns the number of questions.
func (s *Session) Len() int { return len(s.questions) }

// Answers returns a copy of the answer slots.
func (s *Session) Answers() []model.Answer { return model.CloneAnswers(s.answers) }

// FinishReason returns the edge that finished the session, or "" while in
// progress.
func (s *Session) FinishReason() FinishReason { return s.reason }

// SelectAnswer records optionIndex for the current question, replacing any
// earlier choice.
func (s *Session) SelectAnswer(optionIndex int) error {
	if s.Finished() {
		return ErrSessionFinished
	}
	q := &s.questions[s.currentIndex]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidOption, optionIndex, len(q.Options))
	}
	s.answers[s.currentIndex] = model.Answer(optionIndex)
	return nil
}

// Next moves to the following question. It does nothing on the last question
// or once finished, and reports whether the pointer moved.
func (s *Session) Next() bool {
	if s.Finished() || s.currentIndex >= len(s.questions)-1 {
		return false
	}
	s.currentIndex++
	return true
}

// Previous moves to the preceding question. It does nothing on the first
// question or once finished, and reports whether the pointer moved.
func (s *Session) Previous() bool {
	if s.Finished() || s.currentIndex == 0 {
		return false
	}
	s.currentIndex--
	return true
}

// GoTo jumps directly to index.
func (s *Session) GoTo(index int) error {
	if s.Finished() {
		return ErrSessionFinished
	}
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(s.questions))
	}
	s.currentIndex = index
	return nil
}

// Tick advances the clock by one second. It returns false when the caller
// should stop ticking: the session was already finished, or this tick ran the
// clock out and finished it.
func (s *Session) Tick() bool {
	if s.Finished() {
		return false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.finish(FinishTimeout)
		return false
	}
	return true
}

// Finish ends the session at the current remaining time. The first call
// returns the result and true; later calls return the stored result and false
// without re-scoring or notifying OnFinish handlers again.
func (s *Session) Finish() (model.Result, bool) {
	if s.Finished() {
		return s.storedResult(), false
	}
	return s.finish(FinishManual), true
}

// OnFinish registers fn to receive the result when the session finishes,
// whichever edge gets there first. Handlers run synchronously inside Finish or
// Tick. Registering on an already finished session is a no-op.
func (s *Session) OnFinish(fn func(model.Result)) {
	if fn == nil || s.Finished() {
		return
	}
	s.onFinish = append(s.onFinish, fn)
}

// Result returns the result once the session is finished.
func (s *Session) Result() (model.Result, bool) {
	if s.result == nil {
		return model.Result{}, false
	}
	return s.storedResult(), true
}

// Preview scores the current answers without finishing.
func (s *Session) Preview() Score {
	return ScoreAnswers(s.questions, s.answers)
}

// State returns a snapshot for views.
func (s *Session) State() model.SessionState {
	answered := 0
	for _, a := range s.answers {
		if a.Answered() {
			answered++
		}
	}
	n := len(s.questions)
	return model.SessionState{
		TestID:           s.testID,
		Status:           s.status,
		CurrentIndex:     s.currentIndex,
		TotalQuestions:   n,
		CurrentQuestion:  s.questions[s.currentIndex].View(),
		Answers:          model.CloneAnswers(s.answers),
		AnsweredCount:    answered,
		ProgressPercent:  (s.currentIndex + 1) * 100 / n,
		RemainingSeconds: s.remaining,
		TimeLimitSeconds: s.timeLimit,
		Clock:            model.FormatClock(s.remaining),
	}
}

func (s *Session) finish(reason FinishReason) model.Result {
	s.status = model.SessionStatusFinished
	s.reason = reason
	r := NewResult(s.testID, s.questions, s.answers, s.timeLimit, s.remaining)
	s.result = &r

	handlers := s.onFinish
	s.onFinish = nil
	for _, fn := range handlers {
		fn(s.storedResult())
	}
	return s.storedResult()
}

// storedResult hands out copies so callers cannot reach the stored slots.
func (s *Session) storedResult() model.Result {
	r := *s.result
	r.Answers = model.CloneAnswers(s.result.Answers)
	return r
}
