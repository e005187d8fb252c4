package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shams-academy/assessment/internal/assessment"
	"github.com/shams-academy/assessment/internal/model"
)

type stubTests struct {
	tests map[uuid.UUID]*model.Test
}

func (s *stubTests) FetchTest(_ context.Context, id uuid.UUID) (*model.Test, error) {
	t, ok := s.tests[id]
	if !ok {
		return nil, fmt.Errorf("%w: test %s not found", assessment.ErrTestUnavailable, id)
	}
	return t, nil
}

type recordingSink struct {
	mu   sync.Mutex
	recs []model.ResultRecord
}

func (s *recordingSink) SubmitResult(_ context.Context, rec model.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

type stubLookup bool

func (l stubLookup) Exists(context.Context, int, uuid.UUID) (bool, error) { return bool(l), nil }

type chanTicks struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (c *chanTicks) C() <-chan time.Time { return c.c }
func (c *chanTicks) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

type harness struct {
	svc   *AttemptService
	store *assessment.MemoryResultStore
	sink  *recordingSink
	test  *model.Test
	ticks chan *chanTicks
}

func codingFundamentals(limit int) *model.Test {
	t := &model.Test{
		ID:               uuid.New(),
		Title:            "Coding Fundamentals",
		Category:         model.TestCategoryProgramming,
		TimeLimitSeconds: limit,
		IsActive:         true,
	}
	keys := []int{1, 1, 1, 0, 2}
	for i, k := range keys {
		t.Questions = append(t.Questions, model.Question{
			ID:                 uuid.New(),
			TestID:             t.ID,
			Text:               fmt.Sprintf("question %d", i+1),
			Options:            []string{"a", "b", "c", "d"},
			CorrectOptionIndex: k,
			OrderNum:           i + 1,
		})
	}
	return t
}

func newHarness(t *testing.T, limit int, submitted bool, retake bool) *harness {
	t.Helper()
	test := codingFundamentals(limit)
	cfg := testConfig()
	cfg.AllowRetake = retake

	h := &harness{
		store: assessment.NewMemoryResultStore(),
		sink:  &recordingSink{},
		test:  test,
		ticks: make(chan *chanTicks, 4),
	}
	h.svc = NewAttemptService(
		&stubTests{tests: map[uuid.UUID]*model.Test{test.ID: test}},
		h.store, h.sink, stubLookup(submitted), cfg, zerolog.Nop(),
	)
	h.svc.newTicks = func() assessment.TickSource {
		src := &chanTicks{c: make(chan time.Time)}
		h.ticks <- src
		return src
	}
	t.Cleanup(h.svc.Shutdown)
	return h
}

func (h *harness) tick(t *testing.T, src *chanTicks, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case src.c <- time.Now():
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d not consumed", i+1)
		}
	}
}

func TestAttemptService_StartAndResume(t *testing.T) {
	h := newHarness(t, 600, false, false)
	ctx := context.Background()

	st, err := h.svc.Start(ctx, 1, h.test.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st.CurrentIndex != 0 || st.RemainingSeconds != 600 || st.TotalQuestions != 5 {
		t.Errorf("state = %+v", st)
	}
	if _, err := h.svc.SelectAnswer(1, h.test.ID, 1); err != nil {
		t.Fatal(err)
	}

	again, err := h.svc.Start(ctx, 1, h.test.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.AnsweredCount != 1 {
		t.Errorf("resume lost answers: %+v", again)
	}
	if h.svc.Live() != 1 {
		t.Errorf("Live = %d, want 1", h.svc.Live())
	}
	if len(h.ticks) != 1 {
		t.Errorf("started %d timers, want 1", len(h.ticks))
	}
}

func TestAttemptService_ManualFinishHandsOffOnce(t *testing.T) {
	h := newHarness(t, 600, false, false)
	ctx := context.Background()
	id := h.test.ID

	if _, err := h.svc.Start(ctx, 7, id); err != nil {
		t.Fatal(err)
	}
	for _, opt := range []int{1, 1, 1, 3} {
		if _, err := h.svc.SelectAnswer(7, id, opt); err != nil {
			t.Fatal(err)
		}
		if _, err := h.svc.Next(7, id); err != nil {
			t.Fatal(err)
		}
	}
	preview, err := h.svc.Preview(7, id)
	if err != nil {
		t.Fatal(err)
	}
	if preview.Percent != 60 {
		t.Errorf("preview = %+v, want 60%%", preview)
	}

	rec, err := h.svc.Finish(ctx, 7, id)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if rec.CorrectCount != 3 || rec.IncorrectCount != 1 || rec.UnansweredCount != 1 || rec.ScorePercent != 60 {
		t.Errorf("result = %+v", rec.Result)
	}
	if rec.Feedback != model.FeedbackGoodJob || rec.TestTitle != "Coding Fundamentals" || rec.UserID != 7 {
		t.Errorf("record = %+v", rec)
	}

	again, err := h.svc.Finish(ctx, 7, id)
	if err != nil {
		t.Fatalf("second Finish: %v", err)
	}
	if again.ID != rec.ID {
		t.Errorf("second Finish returned %s, want %s", again.ID, rec.ID)
	}
	if h.sink.count() != 1 {
		t.Errorf("sink got %d results, want 1", h.sink.count())
	}
	if h.svc.Live() != 0 {
		t.Errorf("Live = %d, want 0", h.svc.Live())
	}
	if _, err := h.svc.SelectAnswer(7, id, 0); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("SelectAnswer after finish err = %v, want ErrAttemptNotFound", err)
	}
	stored, err := h.store.Load(ctx, 7, id)
	if err != nil || stored.ID != rec.ID {
		t.Errorf("store = %+v, %v", stored, err)
	}
}

func TestAttemptService_TimeoutFinishes(t *testing.T) {
	h := newHarness(t, 3, false, false)
	ctx := context.Background()
	id := h.test.ID

	if _, err := h.svc.Start(ctx, 2, id); err != nil {
		t.Fatal(err)
	}
	events := make(chan AttemptEvent, 8)
	unwatch, err := h.svc.Watch(2, id, func(ev AttemptEvent) { events <- ev })
	if err != nil {
		t.Fatal(err)
	}
	defer unwatch()

	src := <-h.ticks
	h.tick(t, src, 3)

	var got []AttemptEventType
	var final AttemptEvent
	for len(got) < 3 {
		select {
		case ev := <-events:
			got = append(got, ev.Type)
			final = ev
		case <-time.After(2 * time.Second):
			t.Fatalf("events so far %v", got)
		}
	}
	want := []AttemptEventType{AttemptEventTick, AttemptEventTick, AttemptEventFinished}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	if final.Result == nil || final.Result.TimeSpentSeconds != 3 || final.Result.UnansweredCount != 5 {
		t.Errorf("final result = %+v", final.Result)
	}
	if final.State.Status != model.SessionStatusFinished || final.State.Clock != "0:00" {
		t.Errorf("final state = %+v", final.State)
	}
	if h.sink.count() != 1 {
		t.Errorf("sink got %d results, want 1", h.sink.count())
	}
	if _, err := h.svc.Finish(ctx, 2, id); err != nil {
		t.Errorf("Finish after timeout: %v", err)
	}
	if h.sink.count() != 1 {
		t.Errorf("Finish after timeout re-emitted: sink has %d", h.sink.count())
	}
}

func TestAttemptService_AlreadySubmitted(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t, 60, true, false)
	if _, err := h.svc.Start(ctx, 3, h.test.ID); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("err = %v, want ErrAlreadySubmitted", err)
	}

	retake := newHarness(t, 60, true, true)
	if _, err := retake.svc.Start(ctx, 3, retake.test.ID); err != nil {
		t.Errorf("retake Start: %v", err)
	}
}

func TestAttemptService_UnknownTest(t *testing.T) {
	h := newHarness(t, 60, false, false)
	_, err := h.svc.Start(context.Background(), 1, uuid.New())
	if !errors.Is(err, assessment.ErrTestUnavailable) {
		t.Errorf("err = %v, want ErrTestUnavailable", err)
	}
	if h.svc.Live() != 0 {
		t.Errorf("Live = %d, want 0", h.svc.Live())
	}
}

func TestAttemptService_AbandonStopsTimer(t *testing.T) {
	h := newHarness(t, 60, false, false)
	ctx := context.Background()
	id := h.test.ID

	if _, err := h.svc.Start(ctx, 4, id); err != nil {
		t.Fatal(err)
	}
	src := <-h.ticks
	h.tick(t, src, 1)

	if err := h.svc.Abandon(4, id); err != nil {
		t.Fatal(err)
	}
	select {
	case src.c <- time.Now():
		t.Error("tick consumed after abandon")
	case <-time.After(20 * time.Millisecond):
	}
	src.mu.Lock()
	stopped := src.stopped
	src.mu.Unlock()
	if !stopped {
		t.Error("tick source not stopped")
	}
	if h.sink.count() != 0 {
		t.Errorf("abandon handed off %d results", h.sink.count())
	}
	if _, err := h.svc.State(4, id); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("State err = %v, want ErrAttemptNotFound", err)
	}
	if err := h.svc.Abandon(4, id); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("second Abandon err = %v, want ErrAttemptNotFound", err)
	}
}

func TestAttemptService_InputErrors(t *testing.T) {
	h := newHarness(t, 60, false, false)
	id := h.test.ID
	if _, err := h.svc.Start(context.Background(), 5, id); err != nil {
		t.Fatal(err)
	}

	if _, err := h.svc.SelectAnswer(5, id, 9); !errors.Is(err, assessment.ErrInvalidOption) {
		t.Errorf("SelectAnswer err = %v, want ErrInvalidOption", err)
	}
	st, err := h.svc.GoTo(5, id, 99)
	if !errors.Is(err, assessment.ErrIndexOutOfRange) {
		t.Errorf("GoTo err = %v, want ErrIndexOutOfRange", err)
	}
	if st.CurrentIndex != 0 {
		t.Errorf("CurrentIndex = %d, want 0", st.CurrentIndex)
	}
	if _, err := h.svc.Previous(5, id); err != nil {
		t.Errorf("Previous on first question: %v", err)
	}
	if _, err := h.svc.State(6, id); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("other user State err = %v, want ErrAttemptNotFound", err)
	}
}

type brokenStore struct{ err error }

func (b brokenStore) Save(context.Context, model.ResultRecord) error { return b.err }
func (b brokenStore) Load(context.Context, int, uuid.UUID) (*model.ResultRecord, error) {
	return nil, b.err
}
func (b brokenStore) Clear(context.Context, int, uuid.UUID) error { return b.err }

type brokenSink struct{ err error }

func (b brokenSink) SubmitResult(context.Context, model.ResultRecord) error { return b.err }

func TestAttemptService_FinishWithoutAttempt(t *testing.T) {
	ctx := context.Background()
	test := codingFundamentals(60)
	tests := &stubTests{tests: map[uuid.UUID]*model.Test{test.ID: test}}
	redisDown := errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

	cases := []struct {
		name         string
		store        assessment.ResultStore
		wantNotFound bool
	}{
		{"nothing stored", assessment.NewMemoryResultStore(), true},
		{"store unreachable", brokenStore{err: redisDown}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewAttemptService(tests, tc.store, &recordingSink{}, stubLookup(false), testConfig(), zerolog.Nop())
			_, err := svc.Finish(ctx, 1, test.ID)
			if got := errors.Is(err, ErrAttemptNotFound); got != tc.wantNotFound {
				t.Fatalf("err = %v, ErrAttemptNotFound = %v, want %v", err, got, tc.wantNotFound)
			}
			if !tc.wantNotFound && !errors.Is(err, redisDown) {
				t.Errorf("err = %v, want it to wrap the store error", err)
			}
		})
	}
}

func TestAttemptService_HandoffLogsRecordWhenAllPathsFail(t *testing.T) {
	ctx := context.Background()
	test := codingFundamentals(60)
	down := errors.New("redis unavailable")

	var buf bytes.Buffer
	svc := NewAttemptService(
		&stubTests{tests: map[uuid.UUID]*model.Test{test.ID: test}},
		brokenStore{err: down}, brokenSink{err: down}, stubLookup(false),
		testConfig(), zerolog.New(&buf),
	)
	svc.newTicks = func() assessment.TickSource { return &chanTicks{c: make(chan time.Time)} }
	t.Cleanup(svc.Shutdown)

	if _, err := svc.Start(ctx, 9, test.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SelectAnswer(9, test.ID, 1); err != nil {
		t.Fatal(err)
	}
	rec, err := svc.Finish(ctx, 9, test.ID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry struct {
			Message string             `json:"message"`
			Record  *model.ResultRecord `json:"record"`
		}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		if entry.Message != "result not stored anywhere" {
			continue
		}
		found = true
		if entry.Record == nil || entry.Record.ID != rec.ID || entry.Record.CorrectCount != 1 || entry.Record.UserID != 9 {
			t.Errorf("logged record = %+v, want result %s", entry.Record, rec.ID)
		}
	}
	if !found {
		t.Fatalf("no recovery log line in:\n%s", buf.String())
	}
}
