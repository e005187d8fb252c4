package assessment

import (
	"github.com/google/uuid"
	"github.com/shams-academy/assessment/internal/model"
)

// Score holds the correctness counts for a set of answer slots.
type Score struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
	Percent    int `json:"score"`
}

// ScoreAnswers compares each slot with its question's correct option. It is
// pure and may be called with any candidate slots: missing slots count as
// unanswered, extra slots are ignored, and any answered value that does not
// match the key counts as incorrect.
func ScoreAnswers(questions []model.Question, answers []model.Answer) Score {
	var sc Score
	for i := range questions {
		switch {
		case i >= len(answers) || !answers[i].Answered():
			sc.Unanswered++
		case int(answers[i]) == questions[i].CorrectOptionIndex:
			sc.Correct++
		default:
			sc.Incorrect++
		}
	}
	sc.Percent = percent(sc.Correct, len(questions))
	return sc
}

// percent is round(part/total*100) with halves rounded up, in integers.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (part*200 + total) / (2 * total)
}

// NewResult scores answers and records the time spent against timeLimit.
// The result owns a copy of answers.
func NewResult(testID uuid.UUID, questions []model.Question, answers []model.Answer, timeLimit, remaining int) model.Result {
	sc := ScoreAnswers(questions, answers)
	return model.Result{
		TestID:           testID,
		CorrectCount:     sc.Correct,
		IncorrectCount:   sc.Incorrect,
		UnansweredCount:  sc.Unanswered,
		ScorePercent:     sc.Percent,
		TimeSpentSeconds: timeLimit - remaining,
		Answers:          model.CloneAnswers(answers),
	}
}
