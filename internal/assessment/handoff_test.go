package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shams-academy/assessment/internal/model"
)

func TestMemoryResultStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryResultStore()
	testID := uuid.New()

	if _, err := store.Load(ctx, 1, testID); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("Load on empty store err = %v, want ErrResultNotFound", err)
	}

	s := mustStart(t, newTest(60, 0, 1))
	_ = s.SelectAnswer(0)
	r, _ := s.Finish()
	rec := model.NewResultRecord(1, "Coding Fundamentals", r, time.Now())
	if err := store.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Answers[0] = 1

	got, err := store.Load(ctx, 1, r.TestID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Answers[0] != 0 {
		t.Errorf("stored slot = %d, want 0", got.Answers[0])
	}
	if got.Feedback != model.FeedbackKeepLearning || got.ScorePercent != 50 {
		t.Errorf("record = %+v", got)
	}
	if _, err := store.Load(ctx, 2, r.TestID); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("other user err = %v, want ErrResultNotFound", err)
	}

	if err := store.Clear(ctx, 1, r.TestID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx, 1, r.TestID); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("after Clear err = %v, want ErrResultNotFound", err)
	}
}
