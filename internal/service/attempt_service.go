package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shams-academy/assessment/internal/assessment"
	"github.com/shams-academy/assessment/internal/config"
	"github.com/shams-academy/assessment/internal/logger"
	"github.com/shams-academy/assessment/internal/model"
)

// Attempt errors.
var (
	ErrAttemptNotFound  = errors.New("no attempt in progress for this test")
	ErrAlreadySubmitted = errors.New("test already submitted")
)

const handoffTimeout = 5 * time.Second

// AttemptEventType names what happened to a live attempt.
type AttemptEventType string

const (
	AttemptEventTick     AttemptEventType = "tick"
	AttemptEventFinished AttemptEventType = "finished"
)

// AttemptEvent is pushed to watchers of a live attempt.
type AttemptEvent struct {
	Type   AttemptEventType
	State  model.SessionState
	Result *model.ResultRecord
}

// ResultLookup tells whether a user already has a result for a test.
type ResultLookup interface {
	Exists(ctx context.Context, userID int, testID uuid.UUID) (bool, error)
}

type attemptKey struct {
	userID int
	testID uuid.UUID
}

// liveAttempt owns one session and its countdown. mu serializes user input
// with timer ticks; lock order is liveAttempt.mu then AttemptService.mu.
type liveAttempt struct {
	mu       sync.Mutex
	key      attemptKey
	title    string
	session  *assessment.Session
	timer    *assessment.Timer
	record   *model.ResultRecord
	watchers map[int]func(AttemptEvent)
	nextID   int

	// abandoned attempts accept no further input, not even a finish.
	abandoned bool
}

// AttemptService runs test attempts: one live session per user and test,
// driven by a server-side timer, with the result handed to the ResultStore
// and ResultSink exactly once.
type AttemptService struct {
	tests   assessment.TestSource
	store   assessment.ResultStore
	sink    assessment.ResultSink
	history ResultLookup
	cfg     *config.Config
	log     zerolog.Logger

	// newTicks is replaced in tests.
	newTicks func() assessment.TickSource
	now      func() time.Time

	mu   sync.Mutex
	live map[attemptKey]*liveAttempt
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	tests assessment.TestSource,
	store assessment.ResultStore,
	sink assessment.ResultSink,
	history ResultLookup,
	cfg *config.Config,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		tests:   tests,
		store:   store,
		sink:    sink,
		history: history,
		cfg:     cfg,
		log:     logger.Component(log, "attempt_service"),
		newTicks: func() assessment.TickSource {
			return assessment.NewTicker(cfg.TickInterval)
		},
		now:  time.Now,
		live: make(map[attemptKey]*liveAttempt),
	}
}

// Start begins an attempt, or resumes the live one for the same test.
func (s *AttemptService) Start(ctx context.Context, userID int, testID uuid.UUID) (model.SessionState, error) {
	key := attemptKey{userID, testID}
	if la := s.get(key); la != nil {
		return la.state(), nil
	}

	if !s.cfg.AllowRetake {
		done, err := s.history.Exists(ctx, userID, testID)
		if err != nil {
			return model.SessionState{}, fmt.Errorf("check previous result: %w", err)
		}
		if done {
			return model.SessionState{}, ErrAlreadySubmitted
		}
	}

	test, err := s.tests.FetchTest(ctx, testID)
	if err != nil {
		return model.SessionState{}, err
	}
	session, err := assessment.Start(test)
	if err != nil {
		return model.SessionState{}, err
	}

	la := &liveAttempt{
		key:      key,
		title:    test.Title,
		session:  session,
		watchers: make(map[int]func(AttemptEvent)),
	}
	session.OnFinish(func(r model.Result) { s.handoff(la, r) })

	s.mu.Lock()
	if existing, ok := s.live[key]; ok {
		s.mu.Unlock()
		return existing.state(), nil
	}
	s.live[key] = la
	s.mu.Unlock()

	// A retake hides the previous result until the new one is handed off.
	if s.cfg.AllowRetake {
		if err := s.store.Clear(ctx, userID, testID); err != nil {
			s.log.Warn().Err(err).Int("user_id", userID).Str("test_id", testID.String()).Msg("clear previous result failed")
		}
	}

	// The timer starts after registration so a finish on the first tick can
	// find and remove the attempt.
	la.mu.Lock()
	if !la.session.Finished() {
		la.timer = assessment.StartTimer(s.newTicks(), func() bool { return s.tick(la) })
	}
	st := la.session.State()
	la.mu.Unlock()

	s.log.Info().
		Int("user_id", userID).
		Str("test_id", testID.String()).
		Int("questions", st.TotalQuestions).
		Int("time_limit_seconds", st.TimeLimitSeconds).
		Msg("Attempt started")
	return st, nil
}

// State returns the snapshot of the live attempt.
func (s *AttemptService) State(userID int, testID uuid.UUID) (model.SessionState, error) {
	la := s.get(attemptKey{userID, testID})
	if la == nil {
		return model.SessionState{}, ErrAttemptNotFound
	}
	return la.state(), nil
}

// SelectAnswer answers the current question.
func (s *AttemptService) SelectAnswer(userID int, testID uuid.UUID, option int) (model.SessionState, error) {
	return s.mutate(userID, testID, func(sess *assessment.Session) error {
		return sess.SelectAnswer(option)
	})
}

// Next moves to the following question.
func (s *AttemptService) Next(userID int, testID uuid.UUID) (model.SessionState, error) {
	return s.mutate(userID, testID, func(sess *assessment.Session) error {
		if sess.Finished() {
			return assessment.ErrSessionFinished
		}
		sess.Next()
		return nil
	})
}

// Previous moves to the preceding question.
func (s *AttemptService) Previous(userID int, testID uuid.UUID) (model.SessionState, error) {
	return s.mutate(userID, testID, func(sess *assessment.Session) error {
		if sess.Finished() {
			return assessment.ErrSessionFinished
		}
		sess.Previous()
		return nil
	})
}

// GoTo jumps to a question.
func (s *AttemptService) GoTo(userID int, testID uuid.UUID, index int) (model.SessionState, error) {
	return s.mutate(userID, testID, func(sess *assessment.Session) error {
		return sess.GoTo(index)
	})
}

// Preview scores the current answers without finishing.
func (s *AttemptService) Preview(userID int, testID uuid.UUID) (assessment.Score, error) {
	la := s.get(attemptKey{userID, testID})
	if la == nil {
		return assessment.Score{}, ErrAttemptNotFound
	}
	la.mu.Lock()
	defer la.mu.Unlock()
	return la.session.Preview(), nil
}

// Finish ends the attempt now. Finishing an attempt that already ended
// returns the stored result.
func (s *AttemptService) Finish(ctx context.Context, userID int, testID uuid.UUID) (*model.ResultRecord, error) {
	la := s.get(attemptKey{userID, testID})
	if la == nil {
		rec, err := s.store.Load(ctx, userID, testID)
		if errors.Is(err, assessment.ErrResultNotFound) {
			return nil, ErrAttemptNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("load stored result: %w", err)
		}
		return rec, nil
	}

	la.mu.Lock()
	defer la.mu.Unlock()
	if la.abandoned {
		return nil, ErrAttemptNotFound
	}
	la.session.Finish()
	if la.record == nil {
		return nil, ErrAttemptNotFound
	}
	rec := *la.record
	rec.Answers = model.CloneAnswers(la.record.Answers)
	return &rec, nil
}

// Abandon discards the live attempt without a result and stops its timer.
func (s *AttemptService) Abandon(userID int, testID uuid.UUID) error {
	key := attemptKey{userID, testID}

	s.mu.Lock()
	la, ok := s.live[key]
	if ok {
		delete(s.live, key)
	}
	s.mu.Unlock()
	if !ok {
		return ErrAttemptNotFound
	}

	la.mu.Lock()
	la.abandoned = true
	timer := la.timer
	la.watchers = map[int]func(AttemptEvent){}
	la.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}

	s.log.Info().Int("user_id", userID).Str("test_id", testID.String()).Msg("Attempt abandoned")
	return nil
}

// Watch registers fn for tick and finished events of the live attempt. fn runs
// while the attempt is locked: it must not block or call back into the
// service. The returned func unregisters it.
func (s *AttemptService) Watch(userID int, testID uuid.UUID, fn func(AttemptEvent)) (func(), error) {
	la := s.get(attemptKey{userID, testID})
	if la == nil {
		return nil, ErrAttemptNotFound
	}

	la.mu.Lock()
	defer la.mu.Unlock()
	if la.abandoned || la.session.Finished() {
		return nil, ErrAttemptNotFound
	}
	id := la.nextID
	la.nextID++
	la.watchers[id] = fn

	return func() {
		la.mu.Lock()
		delete(la.watchers, id)
		la.mu.Unlock()
	}, nil
}

// Live returns the number of attempts in progress.
func (s *AttemptService) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Shutdown stops every timer. Attempts still in progress are dropped.
func (s *AttemptService) Shutdown() {
	s.mu.Lock()
	attempts := make([]*liveAttempt, 0, len(s.live))
	for k, la := range s.live {
		attempts = append(attempts, la)
		delete(s.live, k)
	}
	s.mu.Unlock()

	for _, la := range attempts {
		la.mu.Lock()
		la.abandoned = true
		timer := la.timer
		la.mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	if len(attempts) > 0 {
		s.log.Warn().Int("dropped", len(attempts)).Msg("Attempts in progress dropped on shutdown")
	}
}

func (s *AttemptService) get(key attemptKey) *liveAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live[key]
}

func (s *AttemptService) mutate(userID int, testID uuid.UUID, fn func(*assessment.Session) error) (model.SessionState, error) {
	la := s.get(attemptKey{userID, testID})
	if la == nil {
		return model.SessionState{}, ErrAttemptNotFound
	}
	la.mu.Lock()
	defer la.mu.Unlock()
	if la.abandoned {
		return model.SessionState{}, ErrAttemptNotFound
	}
	if err := fn(la.session); err != nil {
		return la.session.State(), err
	}
	return la.session.State(), nil
}

func (s *AttemptService) tick(la *liveAttempt) bool {
	la.mu.Lock()
	defer la.mu.Unlock()
	if la.abandoned {
		return false
	}

	keep := la.session.Tick()
	if keep {
		la.notify(AttemptEvent{Type: AttemptEventTick, State: la.session.State()})
	}
	return keep
}

// handoff runs once per attempt, inside Finish or Tick with la.mu held.
func (s *AttemptService) handoff(la *liveAttempt, r model.Result) {
	rec := model.NewResultRecord(la.key.userID, la.title, r, s.now())
	la.record = &rec

	ctx, cancel := context.WithTimeout(context.Background(), handoffTimeout)
	defer cancel()

	log := s.log.With().
		Int("user_id", rec.UserID).
		Str("test_id", rec.TestID.String()).
		Str("result_id", rec.ID.String()).
		Logger()

	saveErr := s.store.Save(ctx, rec)
	if saveErr != nil {
		log.Error().Err(saveErr).Msg("save result failed")
	}
	submitErr := s.sink.SubmitResult(ctx, rec)
	if submitErr != nil {
		log.Error().Err(submitErr).Msg("submit result failed")
	}
	// With both paths down the log line is the only copy left. It carries the
	// full record so it can be requeued by hand.
	if saveErr != nil && submitErr != nil {
		if raw, err := json.Marshal(rec); err == nil {
			log.Error().RawJSON("record", raw).Msg("result not stored anywhere")
		}
	}

	s.mu.Lock()
	if s.live[la.key] == la {
		delete(s.live, la.key)
	}
	s.mu.Unlock()

	la.notify(AttemptEvent{Type: AttemptEventFinished, State: la.session.State(), Result: &rec})
	la.watchers = map[int]func(AttemptEvent){}

	// Stop may not run on the tick goroutine; the timer exits on its own once
	// Tick reports the session finished.
	if la.timer != nil {
		go la.timer.Stop()
	}

	log.Info().
		Str("reason", string(la.session.FinishReason())).
		Int("score", rec.ScorePercent).
		Int("time_spent_seconds", rec.TimeSpentSeconds).
		Msg("Attempt finished")
}

func (la *liveAttempt) state() model.SessionState {
	la.mu.Lock()
	defer la.mu.Unlock()
	return la.session.State()
}

func (la *liveAttempt) notify(ev AttemptEvent) {
	for _, fn := range la.watchers {
		fn(ev)
	}
}
