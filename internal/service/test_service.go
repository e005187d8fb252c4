package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shams-academy/assessment/internal/assessment"
	"github.com/shams-academy/assessment/internal/logger"
	"github.com/shams-academy/assessment/internal/model"
	"github.com/shams-academy/assessment/internal/repository"
)

// ErrTestNotFound is returned for unknown or inactive tests in the catalogue.
var ErrTestNotFound = errors.New("test not found")

// TestStore is the PostgreSQL side of TestService.
type TestStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error)
	GetSummary(ctx context.Context, id uuid.UUID, userID int) (*model.TestSummary, error)
	List(ctx context.Context, f model.TestFilter, userID int) ([]model.TestSummary, error)
	Create(ctx context.Context, t *model.Test) error
	AddQuestion(ctx context.Context, q *model.Question) error
	Touch(ctx context.Context, id uuid.UUID) error
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TestPayloadCache holds full tests for attempt start.
type TestPayloadCache interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Test, error)
	Set(ctx context.Context, t *model.Test) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TestService serves the catalogue and is the TestSource of attempts, with a
// Redis payload cache in front of PostgreSQL.
type TestService struct {
	store TestStore
	cache TestPayloadCache
	log   zerolog.Logger
}

var _ assessment.TestSource = (*TestService)(nil)

// NewTestService creates a new TestService.
func NewTestService(store TestStore, cache TestPayloadCache, log zerolog.Logger) *TestService {
	return &TestService{
		store: store,
		cache: cache,
		log:   logger.Component(log, "test_service"),
	}
}

// FetchTest returns an active test with its questions. Every failure is
// reported as assessment.ErrTestUnavailable.
func (s *TestService) FetchTest(ctx context.Context, testID uuid.UUID) (*model.Test, error) {
	t, err := s.cache.Get(ctx, testID)
	if err == nil && t.IsActive {
		return t, nil
	}
	if err != nil && !errors.Is(err, repository.ErrCacheMiss) {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("payload cache read failed")
	}

	t, err = s.store.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: test %s not found", assessment.ErrTestUnavailable, testID)
		}
		return nil, fmt.Errorf("%w: %v", assessment.ErrTestUnavailable, err)
	}
	if !t.IsActive {
		return nil, fmt.Errorf("%w: test %s is not active", assessment.ErrTestUnavailable, testID)
	}

	if err := s.cache.Set(ctx, t); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("payload cache write failed")
	}
	return t, nil
}

// List returns the active catalogue for a user.
func (s *TestService) List(ctx context.Context, f model.TestFilter, userID int) ([]model.TestSummary, error) {
	return s.store.List(ctx, f, userID)
}

// Get returns one catalogue row.
func (s *TestService) Get(ctx context.Context, testID uuid.UUID, userID int) (*model.TestSummary, error) {
	sum, err := s.store.GetSummary(ctx, testID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return sum, nil
}

// Create stores a new active test authored by authorID.
func (s *TestService) Create(ctx context.Context, req model.CreateTestRequest, authorID int) (*model.Test, error) {
	t := &model.Test{
		Title:            req.Title,
		Description:      req.Description,
		Category:         model.TestCategory(req.Category),
		TimeLimitSeconds: req.TimeLimitSeconds,
		IsActive:         true,
		CreatedBy:        authorID,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}
	s.log.Info().Str("test_id", t.ID.String()).Int("author_id", authorID).Msg("Test created")
	return t, nil
}

// AddQuestion appends a question and evicts the cached payload so the next
// attempt sees it.
func (s *TestService) AddQuestion(ctx context.Context, testID uuid.UUID, req model.AddQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		TestID:             testID,
		Text:               req.Text,
		Options:            req.Options,
		CorrectOptionIndex: *req.CorrectOptionIndex,
		OrderNum:           req.OrderNum,
	}
	if !q.Valid() {
		return nil, fmt.Errorf("%w: correct option %d not in [0, %d)", assessment.ErrInvalidOption, q.CorrectOptionIndex, len(q.Options))
	}
	if _, err := s.store.GetByID(ctx, testID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}

	if err := s.store.AddQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("add question: %w", err)
	}
	if err := s.store.Touch(ctx, testID); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("touch test failed")
	}
	if err := s.cache.Delete(ctx, testID); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("payload cache evict failed")
	}
	return q, nil
}

// RefreshCache reloads one test into Redis.
func (s *TestService) RefreshCache(ctx context.Context, testID uuid.UUID) error {
	t, err := s.store.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTestNotFound
		}
		return fmt.Errorf("get test: %w", err)
	}
	if err := s.cache.Set(ctx, t); err != nil {
		return err
	}
	s.log.Info().Str("test_id", testID.String()).Int("questions", len(t.Questions)).Msg("Cache refreshed")
	return nil
}

// PrewarmAllCaches loads every active test into Redis on startup.
func (s *TestService) PrewarmAllCaches(ctx context.Context) error {
	ids, err := s.store.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active tests: %w", err)
	}
	if len(ids) == 0 {
		s.log.Info().Msg("No active tests to prewarm")
		return nil
	}

	warmed := 0
	for _, id := range ids {
		if err := s.RefreshCache(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("test_id", id.String()).Msg("Failed to warm test, skipping")
			continue
		}
		warmed++
	}
	s.log.Info().Int("warmed", warmed).Int("total", len(ids)).Msg("Prewarming complete")
	return nil
}
